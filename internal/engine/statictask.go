package engine

import (
	"time"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/model"
	"github.com/awtempo/awtempo/internal/timecalc"
)

// Candidate is an entry awaiting placement on the day's timeline. Requested
// is the configured start for static tasks and lunch, or the earliest
// observed timestamp for activity blocks.
type Candidate struct {
	JiraKey         string
	Requested       time.Time
	DurationSeconds int64
	Description     string
	Source          string
}

// fixed reports whether the candidate claims its requested slot when
// static_tasks_priority is set.
func (c Candidate) fixed() bool {
	return c.Source == model.SourceStatic || c.Source == model.SourceLunch
}

// ExpandStaticTasks materializes the configured recurring tasks for one date:
// every enabled daily task plus enabled weekly tasks whose day matches.
// Times were validated at load, so parsing cannot fail here.
func ExpandStaticTasks(tasks []config.StaticTask, date time.Time) []Candidate {
	weekday := timecalc.Weekday(date)

	var out []Candidate
	for _, t := range tasks {
		if !t.Enabled {
			continue
		}
		if t.DayOfWeek != "" && t.DayOfWeek != weekday {
			continue
		}
		start, err := timecalc.ParseClock(t.Time, date)
		if err != nil {
			continue
		}
		out = append(out, Candidate{
			JiraKey:         t.JiraKey,
			Requested:       start,
			DurationSeconds: int64(t.DurationMinutes) * 60,
			Description:     t.Description,
			Source:          model.SourceStatic,
		})
	}
	return out
}

// LunchCandidate returns the single blocked lunch slot for the date, or
// ok=false when lunch blocking is disabled.
func LunchCandidate(cfg config.LunchConfig, date time.Time) (Candidate, bool) {
	if !cfg.Enabled {
		return Candidate{}, false
	}
	start, err := timecalc.ParseClock(cfg.Time, date)
	if err != nil {
		return Candidate{}, false
	}
	return Candidate{
		JiraKey:         "LUNCH",
		Requested:       start,
		DurationSeconds: int64(cfg.DurationMinutes) * 60,
		Description:     "Lunch break",
		Source:          model.SourceLunch,
	}, true
}
