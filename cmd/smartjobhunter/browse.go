package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/browse"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

var (
	browseMode     string
	browseOrderBy  string
	browseOrderDir string
	browseMinScore int
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Triage jobs interactively (TUI)",
	Long: "Split view over the store: page through jobs, read the score breakdown and\n" +
		"toggle viewed (v), interested (i) and applied (a).",
	Args: cobra.NoArgs,
	RunE: runBrowse,
}

func init() {
	f := browseCmd.Flags()
	f.StringVar(&browseMode, "mode", "not_viewed", "starting mode")
	f.StringVar(&browseOrderBy, "order-by", "score", "sort column")
	f.StringVar(&browseOrderDir, "order-dir", "desc", "asc or desc")
	f.IntVar(&browseMinScore, "min-score", 0, "only jobs scored at least this (0 disables)")
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	mode, err := store.ParseMode(browseMode)
	if err != nil {
		logger.Error("invalid mode", "error", err)
		os.Exit(1)
	}
	f := store.Filter{Mode: mode}
	if browseMinScore > 0 {
		f.MinScore = &browseMinScore
	}

	sqlStore := mustOpenStore(cfg, logger)
	defer sqlStore.Close()

	// Nothing may write to stdout once the alt screen is up.
	if err := browse.Run(context.Background(), sqlStore, f, store.QueryOptions{
		OrderBy:  browseOrderBy,
		OrderDir: browseOrderDir,
	}); err != nil {
		logger.Error("browser failed", "error", err)
		os.Exit(1)
	}
	return nil
}
