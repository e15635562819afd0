package engine

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/awtempo/awtempo/internal/model"
)

// Stats counts per-event resolution outcomes for diagnostics.
type Stats struct {
	Resolved      int
	Excluded      int
	Uncategorized int
	Incomplete    int
}

type blockAcc struct {
	key      string
	total    float64
	count    int
	override string
	source   string
	events   []model.RawEvent
}

// Aggregate resolves each event and merges them into per-ticket activity
// blocks. Events for the same key merge regardless of time gaps between them.
// A block survives only if its merged total meets minSeconds; this is the
// single duration gate in the system — there is no per-event threshold.
func Aggregate(events []model.RawEvent, r *Resolver, minSeconds int64) ([]model.ActivityBlock, Stats) {
	var stats Stats
	accs := make(map[string]*blockAcc)
	var order []string

	for _, ev := range events {
		if ev.WindowTitle == "" || ev.AppName == "" || ev.Timestamp.IsZero() {
			stats.Incomplete++
			continue
		}
		res, ok := r.Resolve(ev)
		if !ok {
			if r.Excluded(ev.AppName) {
				stats.Excluded++
			} else {
				stats.Uncategorized++
			}
			continue
		}
		stats.Resolved++

		acc, seen := accs[res.JiraKey]
		if !seen {
			acc = &blockAcc{key: res.JiraKey, source: res.Source}
			accs[res.JiraKey] = acc
			order = append(order, res.JiraKey)
		}
		acc.total += ev.Duration
		acc.count++
		acc.events = append(acc.events, ev)
		if res.Description != "" && acc.override == "" {
			acc.override = res.Description
		}
	}

	var blocks []model.ActivityBlock
	for _, key := range order {
		acc := accs[key]
		if acc.total < float64(minSeconds) {
			log.Debug().Str("jira_key", key).Float64("total_seconds", acc.total).
				Msg("dropping activity block below minimum duration")
			continue
		}
		earliest := acc.events[0].Timestamp
		for _, ev := range acc.events[1:] {
			if ev.Timestamp.Before(earliest) {
				earliest = ev.Timestamp
			}
		}
		desc := acc.override
		if desc == "" {
			desc = fmt.Sprintf("Work on %s (%d activities)", key, acc.count)
		}
		blocks = append(blocks, model.ActivityBlock{
			JiraKey:      key,
			TotalSeconds: int64(acc.total),
			Earliest:     earliest,
			EventCount:   acc.count,
			Description:  desc,
			Source:       acc.source,
		})
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		if !blocks[i].Earliest.Equal(blocks[j].Earliest) {
			return blocks[i].Earliest.Before(blocks[j].Earliest)
		}
		return blocks[i].JiraKey < blocks[j].JiraKey
	})

	log.Debug().Int("events", len(events)).Int("blocks", len(blocks)).
		Int("resolved", stats.Resolved).Int("excluded", stats.Excluded).
		Int("uncategorized", stats.Uncategorized).Msg("aggregated activity")
	return blocks, stats
}
