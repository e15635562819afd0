package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/awtempo/awtempo/internal/config"
	"github.com/awtempo/awtempo/internal/model"
	"github.com/awtempo/awtempo/internal/preview"
	"github.com/awtempo/awtempo/internal/timecalc"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the periodic previous-day processing loop",
	Long: `scheduler processes the previous day on the configured cron schedule
(default 08:00 daily). In preview mode each run rewrites the preview file;
in direct mode submittable days are pushed to Tempo immediately.`,
	Args: cobra.NoArgs,
	RunE: runScheduler,
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := newSchedulerCron()
	_, err = c.AddFunc(cfg.Scheduler.Spec, func() {
		yesterday := timecalc.StartOfDay(time.Now().AddDate(0, 0, -1))
		period := model.Period{Start: yesterday, End: yesterday, Mode: model.ModeDaily}
		if err := runScheduledPass(ctx, cfg, period); err != nil {
			log.Error().Err(err).Time("date", yesterday).Msg("scheduled run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler spec %q: %w", cfg.Scheduler.Spec, err)
	}

	log.Info().Str("spec", cfg.Scheduler.Spec).Str("mode", cfg.Scheduler.Mode).Msg("scheduler started")
	c.Start()
	<-ctx.Done()
	log.Info().Msg("scheduler stopping")
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

// newSchedulerCron builds the cron runner. A pass that outlives its interval
// is never doubled up; the next fire is skipped instead.
func newSchedulerCron() *cron.Cron {
	return cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(&log.Logger))))
}

func runScheduledPass(ctx context.Context, cfg config.Config, period model.Period) error {
	if cfg.Scheduler.Mode == "direct" {
		return runDirectPeriod(ctx, cfg, period)
	}

	results, err := processPeriod(ctx, cfg, period)
	if err != nil {
		return err
	}
	doc := preview.Build(collectEntries(results), period, time.Now())
	if err := preview.Save(cfg.PreviewPath, doc); err != nil {
		return err
	}
	for _, r := range results {
		if !r.Report.Submittable {
			log.Warn().Time("date", r.Date).
				Int64("total_seconds", r.Report.TotalSeconds).
				Msg("day exceeds the cap; preview needs trimming before submit")
		}
	}
	log.Info().Str("path", cfg.PreviewPath).Msg("preview refreshed")
	return nil
}
