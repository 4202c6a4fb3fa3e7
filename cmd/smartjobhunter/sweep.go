package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/retention"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Apply the retention policy now",
	Long: "Delete low scorers older than low_score_retention_days and anything not\n" +
		"applied to older than absolute_retention_days. Deletions are permanent.",
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	sqlStore := mustOpenStore(cfg, logger)
	defer sqlStore.Close()

	p := cfg.Retention.Policy
	logger.Info("sweeping",
		"low_score_retention_days", p.LowScoreRetentionDays,
		"absolute_retention_days", p.AbsoluteRetentionDays,
		"score_threshold", p.ScoreThreshold,
	)

	deleted, err := retention.NewSweeper(sqlStore, logger).Sweep(context.Background(), time.Now(), p)
	if err != nil {
		logger.Error("sweep failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("deleted %d jobs\n", deleted)
	return nil
}
