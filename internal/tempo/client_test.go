package tempo_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/awtempo/awtempo/internal/model"
	"github.com/awtempo/awtempo/internal/tempo"
)

func TestDetectWorkerID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"key preferred", `{"key": "jdoe", "accountId": "acc-1", "name": "john"}`, "jdoe"},
		{"accountId fallback", `{"accountId": "acc-1", "name": "john"}`, "acc-1"},
		{"name fallback", `{"name": "john"}`, "john"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/rest/api/2/myself" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer secret" {
					t.Errorf("Authorization = %q", got)
				}
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := tempo.NewClient(context.Background(), srv.URL, "secret")
			id, err := c.DetectWorkerID(context.Background())
			if err != nil {
				t.Fatalf("DetectWorkerID: %v", err)
			}
			if id != tt.want {
				t.Errorf("worker id = %q, want %q", id, tt.want)
			}
		})
	}
}

func TestIssueExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/2/issue/SE-1":
			w.Write([]byte(`{"key": "SE-1"}`))
		case "/rest/api/2/issue/SE-404":
			http.Error(w, "not found", http.StatusNotFound)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := tempo.NewClient(context.Background(), srv.URL, "secret")

	exists, err := c.IssueExists(context.Background(), "SE-1")
	if err != nil || !exists {
		t.Errorf("IssueExists(SE-1) = %v, %v; want true, nil", exists, err)
	}
	exists, err = c.IssueExists(context.Background(), "SE-404")
	if err != nil || exists {
		t.Errorf("IssueExists(SE-404) = %v, %v; want false, nil", exists, err)
	}
}

func TestSubmitEntries(t *testing.T) {
	var worklogs []map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/rest/api/2/issue/SE-404"):
			http.Error(w, "not found", http.StatusNotFound)
		case strings.HasPrefix(r.URL.Path, "/rest/api/2/issue/"):
			w.Write([]byte(`{}`))
		case r.URL.Path == "/rest/tempo-timesheets/4/worklogs/" && r.Method == http.MethodPost:
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Errorf("decoding worklog payload: %v", err)
			}
			worklogs = append(worklogs, payload)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	entries := []model.WorklogEntry{
		{
			JiraKey:         "SE-1",
			Start:           time.Date(2026, 3, 2, 8, 0, 0, 0, time.Local),
			DurationSeconds: 5400,
			Description:     "Work on SE-1",
			Source:          model.SourceDetected,
		},
		{
			JiraKey:         "LUNCH",
			Start:           time.Date(2026, 3, 2, 13, 0, 0, 0, time.Local),
			DurationSeconds: 1800,
			Description:     "Lunch break",
			Source:          model.SourceLunch,
		},
		{
			JiraKey:         "SE-404",
			Start:           time.Date(2026, 3, 2, 14, 0, 0, 0, time.Local),
			DurationSeconds: 900,
			Description:     "Ghost ticket",
			Source:          model.SourceDetected,
		},
	}

	c := tempo.NewClient(context.Background(), srv.URL, "secret")
	results := c.SubmitEntries(context.Background(), "jdoe", entries)

	// Lunch is skipped entirely: two results, one success and one failure.
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Entry.JiraKey != "SE-1" || results[0].Err != nil {
		t.Errorf("result 0 = %+v", results[0])
	}
	if results[1].Entry.JiraKey != "SE-404" || results[1].Err == nil {
		t.Errorf("result 1 = %+v, want validation failure", results[1])
	}

	if len(worklogs) != 1 {
		t.Fatalf("%d worklogs posted, want 1", len(worklogs))
	}
	wl := worklogs[0]
	if wl["worker"] != "jdoe" || wl["originTaskId"] != "SE-1" {
		t.Errorf("payload = %+v", wl)
	}
	if wl["started"] != "2026-03-02T08:00:00.000" {
		t.Errorf("started = %v, want 2026-03-02T08:00:00.000", wl["started"])
	}
	if wl["timeSpentSeconds"] != float64(5400) {
		t.Errorf("timeSpentSeconds = %v", wl["timeSpentSeconds"])
	}
	if wl["originId"] != float64(-1) {
		t.Errorf("originId = %v, want -1", wl["originId"])
	}
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"key": "jdoe"}`))
	}))
	defer srv.Close()

	c := tempo.NewClient(context.Background(), srv.URL, "secret")
	u, err := c.Myself(context.Background())
	if err != nil {
		t.Fatalf("Myself after retry: %v", err)
	}
	if u.Key != "jdoe" {
		t.Errorf("Key = %q", u.Key)
	}
	if attempts != 2 {
		t.Errorf("attempts = %d, want 2", attempts)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := tempo.NewClient(context.Background(), srv.URL, "secret")
	_, err := c.Myself(context.Background())
	if err == nil || !strings.Contains(err.Error(), "authentication failed") {
		t.Fatalf("err = %v, want friendly auth message", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, 4xx must not retry", attempts)
	}
}
