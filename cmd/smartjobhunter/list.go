package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

var (
	listPage     int
	listPageSize int
	listOrderBy  string
	listOrderDir string
	listMode     string
	listMinScore int
	listJSON     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs",
	Long: "Query the store with paging, ordering, a flag mode and an optional minimum\n" +
		"score. Order keys: " + strings.Join(store.OrderKeys(), ", ") + ".",
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	f := listCmd.Flags()
	f.IntVar(&listPage, "page", 1, "page number, from 1")
	f.IntVar(&listPageSize, "page-size", store.DefaultPageSize, "rows per page")
	f.StringVar(&listOrderBy, "order-by", "score", "sort column")
	f.StringVar(&listOrderDir, "order-dir", "desc", "asc or desc")
	f.StringVar(&listMode, "mode", "all", "all, not_viewed, viewed, interested or applied")
	f.IntVar(&listMinScore, "min-score", 0, "only jobs scored at least this (0 disables)")
	f.BoolVar(&listJSON, "json", false, "print the page as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, logger := mustSetup()

	mode, err := store.ParseMode(listMode)
	if err != nil {
		logger.Error("invalid mode", "error", err)
		os.Exit(1)
	}
	f := store.Filter{Mode: mode}
	if listMinScore > 0 {
		f.MinScore = &listMinScore
	}

	sqlStore := mustOpenStore(cfg, logger)
	defer sqlStore.Close()

	page, err := sqlStore.Query(context.Background(), f, store.QueryOptions{
		OrderBy:  listOrderBy,
		OrderDir: listOrderDir,
		Page:     listPage,
		PageSize: listPageSize,
	})
	if err != nil {
		logger.Error("query failed", "error", err)
		os.Exit(1)
	}

	if listJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		rows := page.Records
		if rows == nil {
			rows = []model.JobRecord{}
		}
		return enc.Encode(map[string]any{
			"rows":        rows,
			"total_rows":  page.Total,
			"total_pages": page.TotalPages,
			"page":        page.Page,
			"page_size":   page.PageSize,
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tTITLE\tCOMPANY\tLOCATION\tPOSTED\tFLAGS")
	for _, j := range page.Records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, scoreText(j), clip(j.Title, 48), clip(j.Company, 24), clip(j.Location, 24), j.DatePosted, flagText(j.Flags))
	}
	w.Flush()

	fmt.Printf("\nPage %d/%d (%d jobs)\n", page.Page, max(page.TotalPages, 1), page.Total)
	return nil
}

func scoreText(j model.JobRecord) string {
	if j.Enrichment == nil {
		return "-"
	}
	return fmt.Sprintf("%d", j.Enrichment.Score)
}

func flagText(f model.Flags) string {
	var b strings.Builder
	for _, fl := range []struct {
		set  bool
		mark byte
	}{{f.Viewed, 'V'}, {f.Interested, 'I'}, {f.Applied, 'A'}} {
		if fl.set {
			b.WriteByte(fl.mark)
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
