package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/awtempo/awtempo/internal/model"
	"github.com/awtempo/awtempo/internal/preview"
	"github.com/awtempo/awtempo/internal/tempo"
	"github.com/awtempo/awtempo/internal/timecalc"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the previewed worklogs to Tempo",
	Args:  cobra.NoArgs,
	RunE:  runSubmit,
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	doc, err := preview.Load(cfg.PreviewPath)
	if err != nil {
		return err
	}
	entries, err := doc.ToEntries()
	if err != nil {
		return fmt.Errorf("preview file %s: %w", cfg.PreviewPath, err)
	}
	if len(entries) == 0 {
		fmt.Println("Nothing to submit.")
		return nil
	}

	// The cap is re-checked here so a hand-edited preview cannot slip an
	// over-cap day past the overflow gate.
	if overCap := daysOverCap(entries, cfg.CapSeconds()); len(overCap) > 0 {
		for _, day := range overCap {
			fmt.Printf("%s exceeds the daily cap of %s\n", day, timecalc.FormatHours(cfg.CapSeconds()))
		}
		return tempo.ErrNotSubmittable
	}

	ctx := cmd.Context()
	client := tempo.NewClient(ctx, cfg.JiraURL, cfg.JiraToken)
	workerID := cfg.WorkerID
	if workerID == "auto" {
		workerID, err = client.DetectWorkerID(ctx)
		if err != nil {
			return err
		}
	}

	results := client.SubmitEntries(ctx, workerID, entries)
	if err := reportSubmission(results); err != nil {
		return err
	}
	if err := preview.Backup(cfg.PreviewPath); err != nil {
		return err
	}
	fmt.Printf("Submitted %d worklogs; preview backed up to %s.backup\n", len(results), cfg.PreviewPath)
	return nil
}

// daysOverCap returns the days (YYYY-MM-DD, sorted) whose non-lunch total
// exceeds the cap.
func daysOverCap(entries []model.WorklogEntry, capSeconds int64) []string {
	totals := make(map[string]int64)
	for _, e := range entries {
		if e.Source == model.SourceLunch {
			continue
		}
		totals[e.Start.Format("2006-01-02")] += e.DurationSeconds
	}
	var over []string
	for day, total := range totals {
		if total > capSeconds {
			over = append(over, day)
		}
	}
	sort.Strings(over)
	return over
}
