package tempo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/awtempo/awtempo/internal/model"
)

// ErrNotSubmittable blocks submission while a processed day exceeds the
// configured daily cap.
var ErrNotSubmittable = errors.New("entries exceed the daily cap; adjust the preview before submitting")

// Client talks to the Jira REST API and the Tempo Timesheets worklog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds an authenticated client. The personal access token is
// carried as a bearer token by an oauth2 static token source.
func NewClient(ctx context.Context, baseURL, token string) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(ctx, src)
	httpClient.Timeout = 30 * time.Second
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// UserInfo is the subset of /rest/api/2/myself we rely on.
type UserInfo struct {
	Key         string `json:"key"`
	AccountID   string `json:"accountId"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// Myself fetches the authenticated user's identity.
func (c *Client) Myself(ctx context.Context) (UserInfo, error) {
	var u UserInfo
	if err := c.doJSON(ctx, http.MethodGet, "/rest/api/2/myself", nil, &u); err != nil {
		return UserInfo{}, err
	}
	return u, nil
}

// DetectWorkerID resolves the Tempo worker key for the token's user. Used
// when worker_id is configured as "auto".
func (c *Client) DetectWorkerID(ctx context.Context) (string, error) {
	u, err := c.Myself(ctx)
	if err != nil {
		return "", fmt.Errorf("detecting worker id: %w", err)
	}
	for _, id := range []string{u.Key, u.AccountID, u.Name} {
		if id != "" {
			log.Info().Str("worker_id", id).Str("display_name", u.DisplayName).
				Msg("auto-detected worker id")
			return id, nil
		}
	}
	return "", fmt.Errorf("could not determine worker id from user info")
}

// IssueExists validates a ticket key against Jira before submission.
func (c *Client) IssueExists(ctx context.Context, jiraKey string) (bool, error) {
	err := c.doJSON(ctx, http.MethodGet, "/rest/api/2/issue/"+jiraKey, nil, nil)
	if err == nil {
		return true, nil
	}
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

// worklogPayload is the Tempo Timesheets v4 worklog shape.
type worklogPayload struct {
	Worker           string `json:"worker"`
	Comment          string `json:"comment"`
	Started          string `json:"started"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
	OriginTaskID     string `json:"originTaskId"`
	OriginID         int    `json:"originId"`
}

// EntryResult records the outcome of submitting one entry.
type EntryResult struct {
	Entry model.WorklogEntry
	Err   error
}

// SubmitEntries posts each non-lunch entry as a Tempo worklog, validating
// ticket existence first. Failures are reported per entry; one failing entry
// does not abort the rest.
func (c *Client) SubmitEntries(ctx context.Context, workerID string, entries []model.WorklogEntry) []EntryResult {
	results := make([]EntryResult, 0, len(entries))

	for _, entry := range entries {
		if entry.Source == model.SourceLunch {
			continue
		}
		err := c.submitOne(ctx, workerID, entry)
		if err != nil {
			log.Error().Err(err).Str("jira_key", entry.JiraKey).Msg("worklog submission failed")
		} else {
			log.Info().Str("jira_key", entry.JiraKey).
				Int64("seconds", entry.DurationSeconds).Msg("worklog submitted")
		}
		results = append(results, EntryResult{Entry: entry, Err: err})
	}
	return results
}

func (c *Client) submitOne(ctx context.Context, workerID string, entry model.WorklogEntry) error {
	exists, err := c.IssueExists(ctx, entry.JiraKey)
	if err != nil {
		return fmt.Errorf("validating %s: %w", entry.JiraKey, err)
	}
	if !exists {
		return fmt.Errorf("issue %s does not exist", entry.JiraKey)
	}

	payload := worklogPayload{
		Worker:           workerID,
		Comment:          entry.Description,
		Started:          entry.Start.Format("2006-01-02T15:04:05.000"),
		TimeSpentSeconds: entry.DurationSeconds,
		OriginTaskID:     entry.JiraKey,
		OriginID:         -1,
	}
	return c.doJSON(ctx, http.MethodPost, "/rest/tempo-timesheets/4/worklogs/", payload, nil)
}

// CheckConnection probes both the Jira API and the Tempo worklog endpoint.
func (c *Client) CheckConnection(ctx context.Context) error {
	if _, err := c.Myself(ctx); err != nil {
		return fmt.Errorf("jira API: %w", err)
	}
	if err := c.doJSON(ctx, http.MethodGet, "/rest/tempo-timesheets/4/worklogs/", nil, nil); err != nil {
		return fmt.Errorf("tempo API: %w", err)
	}
	return nil
}

// statusError carries the HTTP status for callers that branch on it.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	switch e.code {
	case http.StatusUnauthorized:
		return "authentication failed; check the configured token"
	case http.StatusForbidden:
		return "access denied; check Jira permissions"
	default:
		return fmt.Sprintf("http %d: %s", e.code, e.body)
	}
}

// doJSON performs one request, retrying once on transient failures
// (network errors and 5xx responses). Retry lives at this boundary only;
// the engine never sees it.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(2 * time.Second):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("reading response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = &statusError{code: resp.StatusCode, body: truncate(respBody)}
			continue
		}
		if resp.StatusCode >= 400 {
			return &statusError{code: resp.StatusCode, body: truncate(respBody)}
		}
		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

func truncate(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
