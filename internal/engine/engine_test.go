package engine_test

import (
	"testing"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/engine"
	"github.com/awtempo/awtempo/internal/model"
)

func TestProcessDayEndToEnd(t *testing.T) {
	cfg := testConfig()
	cfg.Lunch.Enabled = true

	rules := []config.MappingRule{
		{Name: "standup", Pattern: "daily sync", JiraKey: "SE-100", Description: "Daily standup", MatchType: config.MatchTitle, Enabled: true},
	}
	tasks := []config.StaticTask{
		{Name: "Admin", JiraKey: "SE-500", Time: "08:00", DurationMinutes: 15, Description: "Admin time", Enabled: true},
	}
	eng, err := engine.New(cfg, rules, tasks)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	events := []model.RawEvent{
		rawEvent(at(9, 0), 1800, "daily sync notes", "firefox"),
		rawEvent(at(10, 0), 3600, "SE-1234 implementation", "goland"),
		rawEvent(at(12, 50), 2400, "SE-1234 more work", "goland"),
		rawEvent(at(14, 0), 20, "SE-7777 quick glance", "goland"), // below the gate
	}

	result, err := eng.ProcessDay(events, testDate)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}

	// Static task, mapped standup, detected work and lunch all appear; the
	// sub-minimum SE-7777 does not.
	keys := map[string]model.WorklogEntry{}
	for _, e := range result.Entries {
		keys[e.JiraKey] = e
	}
	for _, want := range []string{"SE-500", "SE-100", "SE-1234", "LUNCH"} {
		if _, ok := keys[want]; !ok {
			t.Errorf("missing entry %s in %+v", want, result.Entries)
		}
	}
	if _, ok := keys["SE-7777"]; ok {
		t.Error("sub-minimum activity leaked into the entries")
	}

	if keys["SE-500"].Source != model.SourceStatic {
		t.Errorf("SE-500 source = %s", keys["SE-500"].Source)
	}
	if keys["SE-100"].Source != model.SourceMapped || keys["SE-100"].Description != "Daily standup" {
		t.Errorf("SE-100 = %+v, want mapped with override description", keys["SE-100"])
	}
	if keys["SE-1234"].Source != model.SourceDetected {
		t.Errorf("SE-1234 source = %s", keys["SE-1234"].Source)
	}

	// Both SE-1234 events merged: 6000s rounds up to 6300 (next 15m multiple).
	if keys["SE-1234"].DurationSeconds != 6300 {
		t.Errorf("SE-1234 duration = %d, want 6300", keys["SE-1234"].DurationSeconds)
	}

	if !result.Report.Submittable {
		t.Errorf("report not submittable: %+v", result.Report)
	}
	if result.Stats.Resolved != 4 {
		t.Errorf("Resolved = %d, want 4", result.Stats.Resolved)
	}
}

func TestProcessDayDeterministic(t *testing.T) {
	cfg := testConfig()
	eng, err := engine.New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	events := []model.RawEvent{
		rawEvent(at(9, 0), 1200, "SE-1 a", "goland"),
		rawEvent(at(9, 30), 1200, "SE-2 b", "goland"),
		rawEvent(at(10, 0), 1200, "SE-1 c", "goland"),
	}

	first, err := eng.ProcessDay(events, testDate)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	second, err := eng.ProcessDay(events, testDate)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(first.Entries) != len(second.Entries) {
		t.Fatalf("entry counts differ")
	}
	for i := range first.Entries {
		if first.Entries[i] != second.Entries[i] {
			t.Errorf("entry %d differs: %+v vs %+v", i, first.Entries[i], second.Entries[i])
		}
	}
}

func TestProcessDayEmpty(t *testing.T) {
	cfg := testConfig()
	eng, err := engine.New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := eng.ProcessDay(nil, testDate)
	if err != nil {
		t.Fatalf("ProcessDay: %v", err)
	}
	if len(result.Entries) != 0 {
		t.Errorf("entries = %+v, want none", result.Entries)
	}
	if !result.Report.Submittable {
		t.Error("an empty day is trivially submittable")
	}
}
