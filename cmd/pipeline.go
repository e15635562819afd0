package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/awtempo/awtempo/internal/activitywatch"
	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/engine"
	"github.com/awtempo/awtempo/internal/model"
	"github.com/awtempo/awtempo/internal/tempo"
	"github.com/awtempo/awtempo/internal/timecalc"
)

// resolvePeriod turns the --date/--weekly flags into a concrete period.
// With no date, daily mode processes yesterday and weekly mode the previous
// Monday–Friday week.
func resolvePeriod(cfg config.Config, dateStr string, weekly bool, now time.Time) (model.Period, error) {
	mode := cfg.DefaultMode
	if weekly {
		mode = model.ModeWeekly
	}

	if dateStr != "" {
		date, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			return model.Period{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", dateStr)
		}
		if mode == model.ModeWeekly {
			monday, friday := timecalc.Workweek(date)
			return model.Period{Start: monday, End: friday, Mode: mode}, nil
		}
		return model.Period{Start: date, End: date, Mode: mode}, nil
	}

	if mode == model.ModeWeekly {
		monday, friday := timecalc.Workweek(now.AddDate(0, 0, -7))
		return model.Period{Start: monday, End: friday, Mode: mode}, nil
	}
	yesterday := timecalc.StartOfDay(now.AddDate(0, 0, -1))
	return model.Period{Start: yesterday, End: yesterday, Mode: mode}, nil
}

// processPeriod runs the full pipeline for each day of the period. Weekly
// periods are a sequence of independent daily passes; one day's outcome never
// affects another's placement.
func processPeriod(ctx context.Context, cfg config.Config, period model.Period) ([]engine.DayResult, error) {
	rules, err := config.LoadMappings(cfg.MappingsPath)
	if err != nil {
		return nil, err
	}
	tasks, err := config.LoadStaticTasks(cfg.StaticTasksPath)
	if err != nil {
		return nil, err
	}
	eng, err := engine.New(cfg, rules, tasks)
	if err != nil {
		return nil, err
	}

	aw := activitywatch.NewClient(cfg.ActivityWatchURL)

	var results []engine.DayResult
	for _, day := range period.Days() {
		events, err := aw.Events(ctx, day, day.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("fetching events for %s: %w", day.Format("2006-01-02"), err)
		}
		result, err := eng.ProcessDay(events, day)
		if err != nil {
			return nil, fmt.Errorf("processing %s: %w", day.Format("2006-01-02"), err)
		}
		results = append(results, result)
	}
	return results, nil
}

// collectEntries flattens per-day results into one entry list.
func collectEntries(results []engine.DayResult) []model.WorklogEntry {
	var entries []model.WorklogEntry
	for _, r := range results {
		entries = append(entries, r.Entries...)
	}
	return entries
}

// printDayReport writes the placed timeline and overflow verdict for one day.
func printDayReport(r engine.DayResult) {
	fmt.Printf("\n%s (%s)\n", r.Date.Format("2006-01-02"), r.Date.Weekday())
	for _, e := range r.Entries {
		fmt.Printf("  %s–%s  %-12s %8s  %s [%s]\n",
			e.Start.Format("15:04"), e.End().Format("15:04"),
			e.JiraKey, timecalc.FormatDuration(e.DurationSeconds),
			e.Description, e.Source)
	}
	fmt.Printf("  total %s of %s",
		timecalc.FormatHours(r.Report.TotalSeconds),
		timecalc.FormatHours(r.Report.CapSeconds))
	if r.Stats.Uncategorized > 0 || r.Stats.Excluded > 0 {
		fmt.Printf("  (%d uncategorized, %d excluded)", r.Stats.Uncategorized, r.Stats.Excluded)
	}
	fmt.Println()

	for _, key := range r.Report.UnplaceableKeys {
		fmt.Printf("  ! %s did not fit in the working window and was dropped\n", key)
	}
	if !r.Report.Submittable {
		fmt.Printf("  ! exceeds the daily cap by %s – submission is blocked\n",
			timecalc.FormatDuration(r.Report.TotalSeconds-r.Report.CapSeconds))
		for _, s := range r.Report.Suggestions {
			fmt.Printf("    - %s\n", s.Text)
		}
	}
}

// reportSubmission prints per-entry outcomes and returns an error when any
// worklog failed.
func reportSubmission(results []tempo.EntryResult) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Printf("  FAIL %s %s: %v\n", r.Entry.JiraKey, r.Entry.Start.Format("2006-01-02 15:04"), r.Err)
		} else {
			fmt.Printf("  ok   %s %s %s\n", r.Entry.JiraKey,
				r.Entry.Start.Format("2006-01-02 15:04"),
				timecalc.FormatDuration(r.Entry.DurationSeconds))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d worklogs failed to submit", failed, len(results))
	}
	return nil
}
