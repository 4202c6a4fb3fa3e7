package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one job as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	sqlStore := mustOpenStore(cfg, logger)
	defer sqlStore.Close()

	job, err := sqlStore.Get(context.Background(), args[0])
	if errors.Is(err, model.ErrNotFound) {
		logger.Error("no such job", "id", args[0])
		os.Exit(1)
	}
	if err != nil {
		logger.Error("lookup failed", "id", args[0], "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(job)
}
