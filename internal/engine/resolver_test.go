package engine_test

import (
	"testing"
	"time"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/engine"
	"github.com/awtempo/awtempo/internal/model"
)

func event(title, app string) model.RawEvent {
	return model.RawEvent{
		Timestamp:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local),
		Duration:    120,
		WindowTitle: title,
		AppName:     app,
	}
}

func TestResolveMappingBeforeDetection(t *testing.T) {
	rules := []config.MappingRule{
		{Name: "standup", Pattern: "standup", JiraKey: "SE-100", Description: "Daily standup", MatchType: config.MatchTitle, Enabled: true},
	}
	r, err := engine.NewResolver(rules, `SE-\d+`, nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	// Title contains both a ticket key and a rule match; the rule wins.
	res, ok := r.Resolve(event("SE-999 standup notes", "firefox"))
	if !ok {
		t.Fatal("Resolve returned ok=false")
	}
	if res.JiraKey != "SE-100" || res.Source != model.SourceMapped {
		t.Errorf("got %+v, want mapped SE-100", res)
	}
	if res.Description != "Daily standup" {
		t.Errorf("Description = %q, want mapping override", res.Description)
	}
}

func TestResolveOrderedFirstMatchWins(t *testing.T) {
	rules := []config.MappingRule{
		{Name: "first", Pattern: "review", JiraKey: "SE-1", MatchType: config.MatchTitle, Enabled: true},
		{Name: "second", Pattern: "review", JiraKey: "SE-2", MatchType: config.MatchTitle, Enabled: true},
	}
	r, err := engine.NewResolver(rules, `SE-\d+`, nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	res, ok := r.Resolve(event("code review", "firefox"))
	if !ok || res.JiraKey != "SE-1" {
		t.Errorf("got %+v ok=%v, want first rule SE-1", res, ok)
	}
}

func TestResolveDisabledRuleSkipped(t *testing.T) {
	rules := []config.MappingRule{
		{Name: "off", Pattern: "review", JiraKey: "SE-1", MatchType: config.MatchTitle, Enabled: false},
	}
	r, err := engine.NewResolver(rules, `SE-\d+`, nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	if _, ok := r.Resolve(event("code review", "firefox")); ok {
		t.Error("disabled rule matched")
	}
}

func TestResolveMatchTypes(t *testing.T) {
	tests := []struct {
		name      string
		matchType string
		title     string
		app       string
		want      bool
	}{
		{"title hit", config.MatchTitle, "slack call", "firefox", true},
		{"title miss on app", config.MatchTitle, "docs", "slack", false},
		{"app hit", config.MatchApp, "docs", "Slack", true},
		{"app miss on title", config.MatchApp, "slack call", "firefox", false},
		{"both via title", config.MatchBoth, "slack call", "firefox", true},
		{"both via app", config.MatchBoth, "docs", "slack", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := []config.MappingRule{
				{Name: "r", Pattern: "slack", JiraKey: "SE-7", MatchType: tt.matchType, Enabled: true},
			}
			r, err := engine.NewResolver(rules, `SE-\d+`, nil)
			if err != nil {
				t.Fatalf("NewResolver: %v", err)
			}
			_, ok := r.Resolve(event(tt.title, tt.app))
			if ok != tt.want {
				t.Errorf("Resolve = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestResolveFallbackDetection(t *testing.T) {
	r, err := engine.NewResolver(nil, `SE-\d+`, nil)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}

	// Case-insensitive detection, key normalized to upper case.
	res, ok := r.Resolve(event("fixing se-1234 flaky test", "goland"))
	if !ok {
		t.Fatal("Resolve returned ok=false")
	}
	if res.JiraKey != "SE-1234" || res.Source != model.SourceDetected {
		t.Errorf("got %+v, want detected SE-1234", res)
	}

	// Keys never come from app names.
	if _, ok := r.Resolve(event("no ticket here", "SE-42-dashboard")); ok {
		t.Error("detected a key from the app name")
	}
}

func TestResolverExcluded(t *testing.T) {
	r, err := engine.NewResolver(nil, `SE-\d+`, []string{"Spotify", "Slack"})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	if !r.Excluded("spotify") || !r.Excluded("SLACK") {
		t.Error("exclusion should be case-insensitive")
	}
	if r.Excluded("firefox") {
		t.Error("firefox should not be excluded")
	}
}

func TestNewResolverBadPattern(t *testing.T) {
	rules := []config.MappingRule{
		{Name: "broken", Pattern: "[", JiraKey: "SE-1", MatchType: config.MatchTitle, Enabled: true},
	}
	if _, err := engine.NewResolver(rules, `SE-\d+`, nil); err == nil {
		t.Error("want error for malformed rule pattern")
	}
	if _, err := engine.NewResolver(nil, "[", nil); err == nil {
		t.Error("want error for malformed ticket pattern")
	}
}
