package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/model"
)

// DayResult is everything the engine produced for one calendar day.
type DayResult struct {
	Date    time.Time
	Entries []model.WorklogEntry
	Stats   Stats
	Report  Report
}

// Engine runs the full pipeline for bounded periods: resolve, aggregate,
// expand static tasks, allocate, analyze. It performs no I/O and is
// deterministic for a given input; identical events and configuration
// reproduce the identical entry set.
type Engine struct {
	cfg      config.Config
	resolver *Resolver
	tasks    []config.StaticTask
}

// New builds an engine, compiling the mapping rule set up front so malformed
// patterns fail before any processing.
func New(cfg config.Config, rules []config.MappingRule, tasks []config.StaticTask) (*Engine, error) {
	resolver, err := NewResolver(rules, cfg.TicketPattern, cfg.ExcludedApps)
	if err != nil {
		return nil, fmt.Errorf("building resolver: %w", err)
	}
	return &Engine{cfg: cfg, resolver: resolver, tasks: tasks}, nil
}

// ProcessDay turns one day's raw events into a placed, rounded, analyzed
// entry set.
func (e *Engine) ProcessDay(events []model.RawEvent, date time.Time) (DayResult, error) {
	blocks, stats := Aggregate(events, e.resolver, e.cfg.MinimumActivitySeconds)

	candidates := ExpandStaticTasks(e.tasks, date)
	if lunch, ok := LunchCandidate(e.cfg.Lunch, date); ok {
		candidates = append(candidates, lunch)
	}
	for _, b := range blocks {
		candidates = append(candidates, Candidate{
			JiraKey:         b.JiraKey,
			Requested:       b.Earliest,
			DurationSeconds: b.TotalSeconds,
			Description:     b.Description,
			Source:          b.Source,
		})
	}

	entries, unplaceable, err := Allocate(candidates, date, e.cfg)
	if err != nil {
		return DayResult{}, err
	}

	report := AnalyzeOverflow(entries, unplaceable, e.cfg.CapSeconds(), e.cfg.ShortActivityMinutes)

	log.Info().Time("date", date).Int("entries", len(entries)).
		Int64("total_seconds", report.TotalSeconds).Bool("submittable", report.Submittable).
		Msg("processed day")

	return DayResult{Date: date, Entries: entries, Stats: stats, Report: report}, nil
}
