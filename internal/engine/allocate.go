package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/model"
	"github.com/awtempo/awtempo/internal/timecalc"
)

// placement is a candidate pinned to a start time, still carrying its raw
// (unrounded) duration.
type placement struct {
	cand  Candidate
	start time.Time
	dur   int64
}

func (p placement) end() time.Time {
	return p.start.Add(time.Duration(p.dur) * time.Second)
}

// Allocate lays all candidates out on the day's timeline within
// [work_start_time, work_end_time]. With static_tasks_priority, static tasks
// and lunch claim their requested slots first and activity blocks pack into
// the gaps in chronological order; otherwise everything is placed greedily in
// order of requested start. Rounding happens strictly after placement:
// rounding before placement used to collapse adjacent candidates onto one
// slot. Candidates that cannot fit are returned as unplaceable.
func Allocate(cands []Candidate, date time.Time, cfg config.Config) ([]model.WorklogEntry, []Candidate, error) {
	workStart, err := timecalc.ParseClock(cfg.Allocation.WorkStartTime, date)
	if err != nil {
		return nil, nil, fmt.Errorf("work_start_time: %w", err)
	}
	workEnd, err := timecalc.ParseClock(cfg.Allocation.WorkEndTime, date)
	if err != nil {
		return nil, nil, fmt.Errorf("work_end_time: %w", err)
	}

	if !cfg.Allocation.Enabled {
		return roundOnly(cands, cfg.TimeRoundingMinutes), nil, nil
	}

	gap := time.Duration(cfg.Allocation.GapMinutes) * time.Minute

	var fixed, flex []Candidate
	for _, c := range cands {
		if cfg.Allocation.StaticTasksPriority && c.fixed() {
			fixed = append(fixed, c)
		} else {
			flex = append(flex, c)
		}
	}
	sortByRequested(fixed)
	sortByRequested(flex)

	var placed []placement
	var unplaceable []Candidate

	// Fixed candidates claim their requested times, clamped into the window
	// and nudged forward when they collide with an earlier fixed block.
	cursor := workStart
	for _, c := range fixed {
		start := c.Requested
		if start.Before(workStart) {
			start = workStart
		}
		if start.Before(cursor) {
			start = cursor
		}
		if !start.Before(workEnd) {
			unplaceable = append(unplaceable, c)
			continue
		}
		dur := c.DurationSeconds
		if remaining := int64(workEnd.Sub(start).Seconds()); dur > remaining {
			dur = remaining
		}
		placed = append(placed, placement{cand: c, start: start, dur: dur})
		cursor = start.Add(time.Duration(dur) * time.Second)
		if c.Source != model.SourceLunch {
			cursor = cursor.Add(gap)
		}
	}
	obstacles := append([]placement(nil), placed...)

	// Activity blocks pack into the remaining gaps, each anchored at the
	// later of its observed start and the end of the previous placement.
	cursor = workStart
	for _, c := range flex {
		start := c.Requested
		if start.Before(cursor) {
			start = cursor
		}
		dur := c.DurationSeconds
		for _, ob := range obstacles {
			if start.Before(ob.end()) && ob.start.Before(start.Add(time.Duration(dur)*time.Second)) {
				start = ob.end()
				if ob.cand.Source != model.SourceLunch {
					start = start.Add(gap)
				}
			}
		}
		if !start.Before(workEnd) {
			unplaceable = append(unplaceable, c)
			continue
		}
		if remaining := int64(workEnd.Sub(start).Seconds()); dur > remaining {
			dur = remaining
		}
		placed = append(placed, placement{cand: c, start: start, dur: dur})
		cursor = start.Add(time.Duration(dur)*time.Second + gap)
	}

	entries, dropped := finalize(placed, workStart, workEnd, gap, cfg.TimeRoundingMinutes)
	unplaceable = append(unplaceable, dropped...)

	for _, c := range unplaceable {
		log.Warn().Str("jira_key", c.JiraKey).Time("requested", c.Requested).
			Msg("entry does not fit in the working day")
	}
	return entries, unplaceable, nil
}

// finalize rounds durations up to the interval and re-sequences starts so the
// placed set stays non-overlapping and inside the window after rounding. The
// cursor advances by at least one full interval per entry, so two distinct
// candidates can never land on the same final start.
func finalize(placed []placement, workStart, workEnd time.Time, gap time.Duration, roundingMinutes int) ([]model.WorklogEntry, []Candidate) {
	sort.SliceStable(placed, func(i, j int) bool {
		if !placed[i].start.Equal(placed[j].start) {
			return placed[i].start.Before(placed[j].start)
		}
		return placed[i].cand.JiraKey < placed[j].cand.JiraKey
	})

	var entries []model.WorklogEntry
	var dropped []Candidate
	cursor := workStart

	for _, p := range placed {
		start := p.start
		if start.Before(cursor) {
			start = cursor
		}
		dur := timecalc.RoundUpSeconds(p.dur, roundingMinutes)
		if end := start.Add(time.Duration(dur) * time.Second); end.After(workEnd) {
			avail := int64(workEnd.Sub(start).Seconds())
			dur = timecalc.RoundDownSeconds(avail, roundingMinutes)
			if dur <= 0 {
				dropped = append(dropped, p.cand)
				continue
			}
		}
		entries = append(entries, model.WorklogEntry{
			JiraKey:         p.cand.JiraKey,
			Start:           start,
			DurationSeconds: dur,
			Description:     p.cand.Description,
			Source:          p.cand.Source,
		})
		cursor = start.Add(time.Duration(dur) * time.Second)
		if p.cand.Source != model.SourceLunch {
			cursor = cursor.Add(gap)
		}
	}
	return entries, dropped
}

// roundOnly keeps candidates at their requested starts and applies rounding
// alone, for configurations with sequential allocation switched off.
func roundOnly(cands []Candidate, roundingMinutes int) []model.WorklogEntry {
	sorted := append([]Candidate(nil), cands...)
	sortByRequested(sorted)

	entries := make([]model.WorklogEntry, 0, len(sorted))
	for _, c := range sorted {
		entries = append(entries, model.WorklogEntry{
			JiraKey:         c.JiraKey,
			Start:           c.Requested,
			DurationSeconds: timecalc.RoundUpSeconds(c.DurationSeconds, roundingMinutes),
			Description:     c.Description,
			Source:          c.Source,
		})
	}
	return entries
}

func sortByRequested(cands []Candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		if !cands[i].Requested.Equal(cands[j].Requested) {
			return cands[i].Requested.Before(cands[j].Requested)
		}
		return cands[i].JiraKey < cands[j].JiraKey
	})
}
