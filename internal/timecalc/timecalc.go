package timecalc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RoundUpSeconds rounds a duration up to the next multiple of the interval
// (minutes). A positive duration never rounds to zero.
func RoundUpSeconds(durationSeconds int64, intervalMinutes int) int64 {
	interval := int64(intervalMinutes) * 60
	if interval <= 0 {
		return durationSeconds
	}
	rounded := (durationSeconds + interval - 1) / interval * interval
	if rounded == 0 && durationSeconds > 0 {
		rounded = interval
	}
	return rounded
}

// RoundDownSeconds rounds a duration down to the previous multiple of the
// interval (minutes). Used when truncating an entry to fit the working window.
func RoundDownSeconds(durationSeconds int64, intervalMinutes int) int64 {
	interval := int64(intervalMinutes) * 60
	if interval <= 0 {
		return durationSeconds
	}
	return durationSeconds / interval * interval
}

// ParseClock parses an "HH:MM" string onto the given date.
func ParseClock(clock string, date time.Time) (time.Time, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time %q: want HH:MM", clock)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, fmt.Errorf("invalid time %q: out of range", clock)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location()), nil
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatHours formats seconds as decimal hours ("7.50h").
func FormatHours(seconds int64) string {
	return fmt.Sprintf("%.2fh", float64(seconds)/3600)
}

// Workweek returns the Monday and Friday of the week containing t.
func Workweek(t time.Time) (time.Time, time.Time) {
	// Go's weekday: Sunday=0, Monday=1, …, Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // treat Sunday as 7 (ISO)
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	monday = time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
	friday := monday.AddDate(0, 0, 4)
	return monday, friday
}

// StartOfDay returns 00:00:00 of the same day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Weekday returns the lowercase English weekday name ("monday"), the form
// used by weekly static task definitions.
func Weekday(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}
