package model

import "time"

// Entry sources. Lunch entries are placed on the timeline but never submitted.
const (
	SourceStatic   = "static"
	SourceMapped   = "mapped"
	SourceDetected = "detected"
	SourceLunch    = "lunch"
)

// Processing modes.
const (
	ModeDaily  = "daily"
	ModeWeekly = "weekly"
)

// RawEvent is a single observed window-focus sample from ActivityWatch.
type RawEvent struct {
	Timestamp   time.Time
	Duration    float64 // seconds, fractional
	WindowTitle string
	AppName     string
}

// ActivityBlock is the merged set of raw events sharing a resolved ticket.
// Source is mapped or detected, from the first event that opened the block.
type ActivityBlock struct {
	JiraKey      string
	TotalSeconds int64
	Earliest     time.Time
	EventCount   int
	Description  string
	Source       string
}

// WorklogEntry is a single placed, rounded worklog ready for preview or
// submission.
type WorklogEntry struct {
	JiraKey         string    `json:"jira_key"`
	Start           time.Time `json:"start_time"`
	DurationSeconds int64     `json:"duration_seconds"`
	Description     string    `json:"description"`
	Source          string    `json:"source"`
}

// End returns the instant the entry's interval closes.
func (e WorklogEntry) End() time.Time {
	return e.Start.Add(time.Duration(e.DurationSeconds) * time.Second)
}

// Overlaps reports whether two entries' half-open intervals intersect.
func (e WorklogEntry) Overlaps(o WorklogEntry) bool {
	return e.Start.Before(o.End()) && o.Start.Before(e.End())
}

// Period is the date window one invocation processes.
type Period struct {
	Start time.Time
	End   time.Time
	Mode  string
}

// Days returns each calendar day in the period, inclusive.
func (p Period) Days() []time.Time {
	var days []time.Time
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
