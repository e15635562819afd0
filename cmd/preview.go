package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/awtempo/awtempo/internal/preview"
)

var (
	previewDate   string
	previewWeekly bool
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Compute worklogs and write the editable preview file",
	Args:  cobra.NoArgs,
	RunE:  runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewDate, "date", "", "Day to process (YYYY-MM-DD, default yesterday)")
	previewCmd.Flags().BoolVar(&previewWeekly, "weekly", false, "Process the previous Monday–Friday week")
}

func runPreview(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	period, err := resolvePeriod(cfg, previewDate, previewWeekly, time.Now())
	if err != nil {
		return err
	}

	results, err := processPeriod(cmd.Context(), cfg, period)
	if err != nil {
		return err
	}

	doc := preview.Build(collectEntries(results), period, time.Now())
	if err := preview.Save(cfg.PreviewPath, doc); err != nil {
		return err
	}

	for _, r := range results {
		printDayReport(r)
	}
	fmt.Printf("\nPreview written to %s – review, edit if needed, then run 'awtempo submit'.\n", cfg.PreviewPath)
	return nil
}
