package main

import (
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/notifier"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification subcommands",
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Long:  "Sends a sample scored job through the configured notifier.",
	Args:  cobra.NoArgs,
	RunE:  runNotifyTest,
}

func init() {
	rootCmd.AddCommand(notifyCmd)
	notifyCmd.AddCommand(notifyTestCmd)
}

func runNotifyTest(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	n := setupNotifier(cfg, &http.Client{Timeout: notifyTimeout}, logger)
	if n == nil {
		logger.Error("notifications are disabled (notification.type is none)")
		os.Exit(1)
	}

	if err := notifier.SendTestMessage(n); err != nil {
		logger.Error("test notification failed", "error", err)
		os.Exit(1)
	}
	logger.Info("test notification sent successfully")
	return nil
}
