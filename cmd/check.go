package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/awtempo/awtempo/internal/activitywatch"
	"github.com/awtempo/awtempo/internal/tempo"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify connectivity to ActivityWatch and Tempo",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	failed := false

	aw := activitywatch.NewClient(cfg.ActivityWatchURL)
	if bucket, err := aw.WindowBucket(ctx); err != nil {
		failed = true
		fmt.Printf("  FAIL ActivityWatch (%s): %v\n", cfg.ActivityWatchURL, err)
	} else {
		fmt.Printf("  ok   ActivityWatch (%s), bucket %s\n", cfg.ActivityWatchURL, bucket)
	}

	client := tempo.NewClient(ctx, cfg.JiraURL, cfg.JiraToken)
	if err := client.CheckConnection(ctx); err != nil {
		failed = true
		fmt.Printf("  FAIL Tempo (%s): %v\n", cfg.JiraURL, err)
	} else {
		user, err := client.Myself(ctx)
		if err == nil && user.DisplayName != "" {
			fmt.Printf("  ok   Tempo (%s), authenticated as %s\n", cfg.JiraURL, user.DisplayName)
		} else {
			fmt.Printf("  ok   Tempo (%s)\n", cfg.JiraURL)
		}
	}

	if failed {
		return fmt.Errorf("one or more connection checks failed")
	}
	return nil
}
