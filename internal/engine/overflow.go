package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/awtempo/awtempo/internal/model"
	"github.com/awtempo/awtempo/internal/timecalc"
)

// Suggestion ranks. Lower ranks are better trim candidates.
const (
	RankAdministrative = 1
	RankShort          = 2
	RankGeneral        = 3
	RankDuplicate      = 4
	RankReduce         = 5
)

// Suggestion is one human-readable way to bring the day under the cap.
type Suggestion struct {
	Rank    int
	JiraKey string
	Text    string
}

// Report is the overflow analyzer's verdict for one day. Submission must not
// proceed while Submittable is false; durations are never rescaled silently.
type Report struct {
	TotalSeconds    int64
	CapSeconds      int64
	Submittable     bool
	Suggestions     []Suggestion
	UnplaceableKeys []string
}

var administrativeWords = []string{"standup", "daily", "meeting", "admin", "email", "planning", "retro", "jira"}
var generalWords = []string{"research", "general", "docs", "documentation", "reading", "browsing", "review"}

// AnalyzeOverflow totals the placed non-lunch entries against the daily cap.
// Over the cap, it produces ranked reduction suggestions and marks the set
// non-submittable; it never scales or truncates durations itself.
func AnalyzeOverflow(entries []model.WorklogEntry, unplaceable []Candidate, capSeconds int64, shortMinutes int) Report {
	report := Report{CapSeconds: capSeconds}
	for _, c := range unplaceable {
		report.UnplaceableKeys = append(report.UnplaceableKeys, c.JiraKey)
	}

	submittable := submittableEntries(entries)
	for _, e := range submittable {
		report.TotalSeconds += e.DurationSeconds
	}

	if report.TotalSeconds <= report.CapSeconds {
		report.Submittable = true
		return report
	}

	report.Suggestions = suggestReductions(submittable, shortMinutes, report.TotalSeconds-report.CapSeconds)
	return report
}

func submittableEntries(entries []model.WorklogEntry) []model.WorklogEntry {
	out := make([]model.WorklogEntry, 0, len(entries))
	for _, e := range entries {
		if e.Source != model.SourceLunch {
			out = append(out, e)
		}
	}
	return out
}

func suggestReductions(entries []model.WorklogEntry, shortMinutes int, excessSeconds int64) []Suggestion {
	var sugs []Suggestion
	shortLimit := int64(shortMinutes) * 60

	byKey := make(map[string][]model.WorklogEntry)
	for _, e := range entries {
		byKey[e.JiraKey] = append(byKey[e.JiraKey], e)

		switch {
		case containsAny(e.Description, administrativeWords):
			sugs = append(sugs, Suggestion{
				Rank:    RankAdministrative,
				JiraKey: e.JiraKey,
				Text: fmt.Sprintf("Drop or shorten administrative entry %s (%s)",
					e.JiraKey, timecalc.FormatDuration(e.DurationSeconds)),
			})
		case shortLimit > 0 && e.DurationSeconds < shortLimit:
			sugs = append(sugs, Suggestion{
				Rank:    RankShort,
				JiraKey: e.JiraKey,
				Text: fmt.Sprintf("Remove short entry %s (%s)",
					e.JiraKey, timecalc.FormatDuration(e.DurationSeconds)),
			})
		case containsAny(e.Description, generalWords):
			sugs = append(sugs, Suggestion{
				Rank:    RankGeneral,
				JiraKey: e.JiraKey,
				Text: fmt.Sprintf("Trim general/research entry %s (%s)",
					e.JiraKey, timecalc.FormatDuration(e.DurationSeconds)),
			})
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		group := byKey[k]
		if len(group) < 2 {
			continue
		}
		var total int64
		for _, e := range group {
			total += e.DurationSeconds
		}
		sugs = append(sugs, Suggestion{
			Rank:    RankDuplicate,
			JiraKey: k,
			Text: fmt.Sprintf("Consolidate %d entries for %s (%s combined)",
				len(group), k, timecalc.FormatDuration(total)),
		})
	}

	// Fallback: name the single largest entry and the exact excess.
	if len(entries) > 0 {
		largest := entries[0]
		for _, e := range entries[1:] {
			if e.DurationSeconds > largest.DurationSeconds {
				largest = e
			}
		}
		sugs = append(sugs, Suggestion{
			Rank:    RankReduce,
			JiraKey: largest.JiraKey,
			Text: fmt.Sprintf("Reduce %s by %s to fit the daily cap",
				largest.JiraKey, timecalc.FormatDuration(excessSeconds)),
		})
	}

	sort.SliceStable(sugs, func(i, j int) bool { return sugs[i].Rank < sugs[j].Rank })
	return sugs
}

func containsAny(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
