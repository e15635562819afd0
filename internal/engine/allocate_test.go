package engine_test

import (
	"testing"
	"time"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/engine"
	"github.com/awtempo/awtempo/internal/model"
)

var testDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.JiraURL = "https://jira.example.com"
	cfg.JiraToken = "secret"
	return cfg
}

func activity(key string, requested time.Time, seconds int64) engine.Candidate {
	return engine.Candidate{
		JiraKey:         key,
		Requested:       requested,
		DurationSeconds: seconds,
		Description:     "Work on " + key,
		Source:          model.SourceDetected,
	}
}

func static(key string, requested time.Time, seconds int64) engine.Candidate {
	return engine.Candidate{
		JiraKey:         key,
		Requested:       requested,
		DurationSeconds: seconds,
		Description:     key,
		Source:          model.SourceStatic,
	}
}

func findEntry(t *testing.T, entries []model.WorklogEntry, key string) model.WorklogEntry {
	t.Helper()
	for _, e := range entries {
		if e.JiraKey == key {
			return e
		}
	}
	t.Fatalf("no entry for %s in %+v", key, entries)
	return model.WorklogEntry{}
}

func TestAllocateStaticPriorityPushesActivity(t *testing.T) {
	cfg := testConfig()
	cands := []engine.Candidate{
		activity("SE-1", at(9, 15), 3600),
		static("SE-100", at(9, 30), 900),
	}

	entries, unplaceable, err := engine.Allocate(cands, testDate, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(unplaceable) != 0 {
		t.Fatalf("unplaceable = %+v", unplaceable)
	}

	standup := findEntry(t, entries, "SE-100")
	if !standup.Start.Equal(at(9, 30)) || standup.DurationSeconds != 900 {
		t.Errorf("standup = %v/%ds, want 09:30/900s", standup.Start, standup.DurationSeconds)
	}

	// The overlapping activity lands after the static block plus the gap.
	work := findEntry(t, entries, "SE-1")
	if !work.Start.Equal(at(9, 50)) {
		t.Errorf("activity start = %v, want 09:50", work.Start)
	}
	if work.DurationSeconds != 3600 {
		t.Errorf("activity duration = %d, want 3600", work.DurationSeconds)
	}
}

func TestAllocateLunchBlocksWithoutTrailingGap(t *testing.T) {
	cfg := testConfig()
	cfg.Lunch.Enabled = true

	lunch, ok := engine.LunchCandidate(cfg.Lunch, testDate)
	if !ok {
		t.Fatal("LunchCandidate returned ok=false")
	}
	cands := []engine.Candidate{
		lunch,
		activity("SE-1", at(12, 45), 3600),
	}

	entries, _, err := engine.Allocate(cands, testDate, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	l := findEntry(t, entries, "LUNCH")
	if !l.Start.Equal(at(13, 0)) || l.DurationSeconds != 1800 {
		t.Errorf("lunch = %v/%ds, want 13:00/1800s", l.Start, l.DurationSeconds)
	}

	// Work resumes at lunch end exactly; the inter-entry gap does not apply
	// after the lunch block.
	work := findEntry(t, entries, "SE-1")
	if !work.Start.Equal(at(13, 30)) {
		t.Errorf("activity start = %v, want 13:30 immediately after lunch", work.Start)
	}
}

func TestAllocateRoundingCannotCollapseEntries(t *testing.T) {
	cfg := testConfig()
	cands := []engine.Candidate{
		activity("SE-1", at(9, 0), 600),
		activity("SE-2", at(9, 10), 600),
	}

	entries, _, err := engine.Allocate(cands, testDate, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	a, b := entries[0], entries[1]
	if a.Start.Equal(b.Start) {
		t.Errorf("both entries start at %v after rounding", a.Start)
	}
	if a.Overlaps(b) {
		t.Errorf("entries overlap: %v+%ds and %v+%ds", a.Start, a.DurationSeconds, b.Start, b.DurationSeconds)
	}
	// Both 10-minute raw durations round up to the 15-minute interval.
	if a.DurationSeconds != 900 || b.DurationSeconds != 900 {
		t.Errorf("durations = %d, %d; want 900, 900", a.DurationSeconds, b.DurationSeconds)
	}
}

func TestAllocateTruncatesAtWorkEnd(t *testing.T) {
	cfg := testConfig()
	cands := []engine.Candidate{
		activity("SE-1", at(17, 0), 3600),
	}

	entries, unplaceable, err := engine.Allocate(cands, testDate, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(unplaceable) != 0 {
		t.Fatalf("unplaceable = %+v", unplaceable)
	}

	e := findEntry(t, entries, "SE-1")
	if !e.Start.Equal(at(17, 0)) || e.DurationSeconds != 1800 {
		t.Errorf("entry = %v/%ds, want 17:00/1800s truncated to work end", e.Start, e.DurationSeconds)
	}
}

func TestAllocateDropsWhatCannotFit(t *testing.T) {
	cfg := testConfig()
	cands := []engine.Candidate{
		// Past work end entirely.
		activity("SE-1", at(18, 0), 600),
		// Inside the window but with less than one rounding interval left.
		activity("SE-2", at(17, 20), 60),
	}

	entries, unplaceable, err := engine.Allocate(cands, testDate, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want none", entries)
	}
	if len(unplaceable) != 2 {
		t.Errorf("unplaceable = %+v, want both candidates", unplaceable)
	}
}

func TestAllocateClampsEarlyActivityToWorkStart(t *testing.T) {
	cfg := testConfig()
	cands := []engine.Candidate{
		activity("SE-1", at(6, 30), 1800),
	}

	entries, _, err := engine.Allocate(cands, testDate, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	e := findEntry(t, entries, "SE-1")
	if !e.Start.Equal(at(8, 0)) {
		t.Errorf("start = %v, want clamped to 08:00", e.Start)
	}
}

func TestAllocateDisabledRoundsInPlace(t *testing.T) {
	cfg := testConfig()
	cfg.Allocation.Enabled = false

	cands := []engine.Candidate{
		activity("SE-2", at(9, 10), 600),
		activity("SE-1", at(9, 0), 610),
	}

	entries, unplaceable, err := engine.Allocate(cands, testDate, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if len(unplaceable) != 0 {
		t.Fatalf("unplaceable = %+v", unplaceable)
	}

	// Requested starts are kept verbatim, durations still round up.
	a := findEntry(t, entries, "SE-1")
	if !a.Start.Equal(at(9, 0)) || a.DurationSeconds != 900 {
		t.Errorf("SE-1 = %v/%ds, want 09:00/900s", a.Start, a.DurationSeconds)
	}
	b := findEntry(t, entries, "SE-2")
	if !b.Start.Equal(at(9, 10)) {
		t.Errorf("SE-2 start = %v, want requested 09:10", b.Start)
	}
	if !entries[0].Start.Equal(at(9, 0)) {
		t.Errorf("entries not sorted by start: first is %v", entries[0].Start)
	}
}

func TestAllocateDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.Lunch.Enabled = true
	lunch, _ := engine.LunchCandidate(cfg.Lunch, testDate)
	cands := []engine.Candidate{
		lunch,
		static("SE-100", at(9, 30), 900),
		activity("SE-1", at(8, 10), 5400),
		activity("SE-2", at(11, 0), 3600),
		activity("SE-3", at(14, 0), 1200),
	}

	first, _, err := engine.Allocate(cands, testDate, cfg)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := engine.Allocate(cands, testDate, cfg)
		if err != nil {
			t.Fatalf("Allocate: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: %d entries, want %d", i, len(again), len(first))
		}
		for j := range first {
			if first[j] != again[j] {
				t.Fatalf("run %d entry %d differs: %+v vs %+v", i, j, first[j], again[j])
			}
		}
	}
}
