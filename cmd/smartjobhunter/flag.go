package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

var (
	flagViewed     bool
	flagInterested bool
	flagApplied    bool
	flagNote       string
)

var flagCmd = &cobra.Command{
	Use:   "flag <id>",
	Short: "Set user flags on a job",
	Long: "Set viewed, interested or applied (e.g. --applied or --viewed=false) and\n" +
		"notes on one job. Unset flags are left untouched.",
	Args: cobra.ExactArgs(1),
	RunE: runFlag,
}

func init() {
	f := flagCmd.Flags()
	f.BoolVar(&flagViewed, "viewed", false, "mark viewed")
	f.BoolVar(&flagInterested, "interested", false, "mark interested")
	f.BoolVar(&flagApplied, "applied", false, "mark applied")
	f.StringVar(&flagNote, "note", "", "replace the notes")
	rootCmd.AddCommand(flagCmd)
}

func runFlag(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	var u model.FlagUpdate
	fs := cmd.Flags()
	if fs.Changed("viewed") {
		u.Viewed = &flagViewed
	}
	if fs.Changed("interested") {
		u.Interested = &flagInterested
	}
	if fs.Changed("applied") {
		u.Applied = &flagApplied
	}
	if fs.Changed("note") {
		u.Notes = &flagNote
	}
	if u.Empty() {
		logger.Error("nothing to update: pass --viewed, --interested, --applied or --note")
		os.Exit(1)
	}

	sqlStore := mustOpenStore(cfg, logger)
	defer sqlStore.Close()

	job, err := sqlStore.SetFlags(context.Background(), args[0], u)
	if errors.Is(err, model.ErrNotFound) {
		logger.Error("no such job", "id", args[0])
		os.Exit(1)
	}
	if err != nil {
		logger.Error("flag update failed", "id", args[0], "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s  %s @ %s  flags=%s\n", job.ID, job.Title, job.Company, flagText(job.Flags))
	return nil
}
