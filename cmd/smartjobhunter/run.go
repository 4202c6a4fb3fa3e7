package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/pipeline"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

const (
	retryBaseDelay = 2 * time.Second
	notifyTimeout  = 30 * time.Second
)

var (
	runDryRun     bool
	runSkipEnrich bool
	runJSON       bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once",
	Long: "Fetch every enabled source, merge the batches into the store, score\n" +
		"unscored postings, notify on strong matches and apply retention.\n" +
		"Exits 1 on any fatal error.",
	Args: cobra.NoArgs,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "do not persist anything")
	runCmd.Flags().BoolVar(&runSkipEnrich, "skip-enrich", false, "ingest only, no oracle calls")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run summary as JSON")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	var s pipeline.Store
	if runDryRun {
		logger.Info("dry-run mode: nothing will be stored")
		s = store.NewNopStore()
	} else {
		sqlStore := mustOpenStore(cfg, logger)
		defer sqlStore.Close()
		s = sqlStore
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline(ctx, cfg, s, runSkipEnrich, logger)
	if err != nil {
		logger.Error("failed to set up pipeline", "error", err)
		os.Exit(1)
	}

	summary, err := p.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	return nil
}
