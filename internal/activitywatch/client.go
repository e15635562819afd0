package activitywatch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/awtempo/awtempo/internal/model"
)

// Client is an ActivityWatch REST API client.
type Client struct {
	baseURL    string
	httpClient *http.Client

	bucketCache string
}

// NewClient creates a client for the ActivityWatch server at baseURL
// (typically http://localhost:5600).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// wireEvent is the ActivityWatch event shape for window watcher buckets.
type wireEvent struct {
	Timestamp string  `json:"timestamp"`
	Duration  float64 `json:"duration"`
	Data      struct {
		Title string `json:"title"`
		App   string `json:"app"`
	} `json:"data"`
}

// WindowBucket returns the id of the window watcher bucket, caching the
// lookup for the lifetime of the client.
func (c *Client) WindowBucket(ctx context.Context) (string, error) {
	if c.bucketCache != "" {
		return c.bucketCache, nil
	}

	var buckets map[string]json.RawMessage
	if err := c.getJSON(ctx, c.baseURL+"/api/0/buckets", &buckets); err != nil {
		return "", fmt.Errorf("listing buckets: %w", err)
	}

	ids := make([]string, 0, len(buckets))
	for id := range buckets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if strings.Contains(id, "window") {
			c.bucketCache = id
			log.Debug().Str("bucket", id).Msg("selected window watcher bucket")
			return id, nil
		}
	}
	return "", fmt.Errorf("no window watcher bucket found in ActivityWatch")
}

// Events fetches window-focus events in [start, end) from the window watcher
// bucket, sorted by timestamp.
func (c *Client) Events(ctx context.Context, start, end time.Time) ([]model.RawEvent, error) {
	bucket, err := c.WindowBucket(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/0/buckets/%s/events?start=%s&end=%s",
		c.baseURL,
		url.PathEscape(bucket),
		url.QueryEscape(start.Format(time.RFC3339)),
		url.QueryEscape(end.Format(time.RFC3339)),
	)

	var wire []wireEvent
	if err := c.getJSON(ctx, endpoint, &wire); err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}

	events := make([]model.RawEvent, 0, len(wire))
	for _, w := range wire {
		ts, err := parseTimestamp(w.Timestamp)
		if err != nil {
			log.Debug().Str("timestamp", w.Timestamp).Msg("skipping event with unparseable timestamp")
			continue
		}
		events = append(events, model.RawEvent{
			Timestamp:   ts,
			Duration:    w.Duration,
			WindowTitle: w.Data.Title,
			AppName:     w.Data.App,
		})
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})

	log.Info().Int("events", len(events)).Str("bucket", bucket).Msg("retrieved ActivityWatch events")
	return events, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("activitywatch request failed: %w", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("activitywatch error %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding activitywatch response: %w", err)
	}
	return nil
}

// parseTimestamp handles the timestamp shapes ActivityWatch emits: RFC3339
// with or without fractional seconds, with Z or an explicit offset.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Local(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}
