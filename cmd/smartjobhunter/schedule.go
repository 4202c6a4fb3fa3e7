package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/scheduler"
)

var scheduleSkipEnrich bool

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a cron schedule",
	Long: "Runs the pipeline immediately, then on schedule.cron, until SIGINT/SIGTERM.\n" +
		"A tick is skipped while the previous run is still going.",
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleSkipEnrich, "skip-enrich", false, "ingest only, no oracle calls")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	sqlStore := mustOpenStore(cfg, logger)
	defer sqlStore.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg, sqlStore, scheduleSkipEnrich, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}

	logger.Info("scheduler starting", "cron", cfg.Schedule.Cron, "db", cfg.Database.Path)
	sched := scheduler.NewScheduler(p, cfg.Schedule.Cron, logger)
	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("goodbye")
	return nil
}
