package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List all configured sources",
	Long:  "Reads the config and prints a table of all configured batch sources.",
	Args:  cobra.NoArgs,
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, _ := mustSetup()

	fmt.Printf("%-20s %-6s %-10s %s\n", "Source", "Type", "Status", "Location")
	fmt.Println(strings.Repeat("─", 72))

	enabled, disabled := 0, 0
	for _, s := range cfg.Sources {
		status := "enabled"
		if !s.Enabled {
			status = "disabled"
			disabled++
		} else {
			enabled++
		}
		loc := s.Path
		if s.Type == "http" {
			loc = s.URL
		}
		fmt.Printf("%-20s %-6s %-10s %s\n", s.Name, s.Type, status, loc)
	}

	fmt.Printf("\nTotal: %d sources (%d enabled, %d disabled)\n", len(cfg.Sources), enabled, disabled)
	return nil
}
