// Package selector decides which records need a scoring call.
package selector

import (
	"context"
	"fmt"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// Reader is the part of the store the selector reads.
type Reader interface {
	ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error)
	SelectUnenriched(ctx context.Context) ([]model.JobRecord, error)
}

// Select returns the records that need enrichment: canonical records that are
// new to the store or stored without a score, followed by stored unscored
// records missing from this run. A record carrying a score is never returned.
func Select(ctx context.Context, canonical []model.JobRecord, store Reader) ([]model.JobRecord, error) {
	ids := make([]string, len(canonical))
	for i, r := range canonical {
		ids[i] = r.ID
	}

	existing, err := store.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("selecting new ids: %w", err)
	}
	backlog, err := store.SelectUnenriched(ctx)
	if err != nil {
		return nil, fmt.Errorf("selecting unenriched: %w", err)
	}

	unscored := make(map[string]bool, len(backlog))
	for _, r := range backlog {
		unscored[r.ID] = true
	}

	var (
		out  []model.JobRecord
		seen = make(map[string]bool, len(canonical))
	)
	for _, r := range canonical {
		seen[r.ID] = true
		if r.Enriched() {
			continue
		}
		if !existing[r.ID] || unscored[r.ID] {
			out = append(out, r)
		}
	}
	for _, r := range backlog {
		if !seen[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}
