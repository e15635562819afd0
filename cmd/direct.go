package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/model"
	"github.com/awtempo/awtempo/internal/tempo"
)

var (
	directDate   string
	directWeekly bool
)

var directCmd = &cobra.Command{
	Use:   "direct",
	Short: "Compute and submit worklogs without a preview step",
	Args:  cobra.NoArgs,
	RunE:  runDirect,
}

func init() {
	directCmd.Flags().StringVar(&directDate, "date", "", "Day to process (YYYY-MM-DD, default yesterday)")
	directCmd.Flags().BoolVar(&directWeekly, "weekly", false, "Process the previous Monday–Friday week")
}

func runDirect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	period, err := resolvePeriod(cfg, directDate, directWeekly, time.Now())
	if err != nil {
		return err
	}
	return runDirectPeriod(cmd.Context(), cfg, period)
}

// runDirectPeriod is the compute-and-submit path shared with the scheduler.
// Any day over the cap blocks the whole run; nothing is submitted until the
// overflow is resolved.
func runDirectPeriod(ctx context.Context, cfg config.Config, period model.Period) error {
	results, err := processPeriod(ctx, cfg, period)
	if err != nil {
		return err
	}

	blocked := false
	for _, r := range results {
		printDayReport(r)
		if !r.Report.Submittable {
			blocked = true
		}
	}
	if blocked {
		fmt.Println("\nRun 'awtempo preview' and trim the flagged entries, then 'awtempo submit'.")
		return tempo.ErrNotSubmittable
	}

	entries := collectEntries(results)
	if len(entries) == 0 {
		fmt.Println("Nothing to submit.")
		return nil
	}

	client := tempo.NewClient(ctx, cfg.JiraURL, cfg.JiraToken)
	workerID := cfg.WorkerID
	if workerID == "auto" {
		workerID, err = client.DetectWorkerID(ctx)
		if err != nil {
			return err
		}
	}

	submitted := client.SubmitEntries(ctx, workerID, entries)
	if err := reportSubmission(submitted); err != nil {
		return err
	}
	fmt.Printf("Submitted %d worklogs.\n", len(submitted))
	return nil
}
