// Package combine merges the batches of one run into a canonical record set.
package combine

import (
	"log/slog"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// Result is the canonical set plus what was thrown away.
type Result struct {
	Records []model.JobRecord
	Scraped int // records seen across all batches
	Dropped int // records rejected for a missing id
}

// Combine merges batches into one record per id. When an id occurs more than
// once, the last occurrence in scan order (batch order, then record order)
// replaces the earlier ones entirely. Output keeps first-appearance order.
func Combine(batches []model.Batch, logger *slog.Logger) Result {
	var res Result
	index := make(map[string]int)

	for _, b := range batches {
		for i, rec := range b.Records {
			res.Scraped++
			if err := rec.Validate(); err != nil {
				res.Dropped++
				logger.Warn("dropping record",
					"source", b.Source,
					"index", i,
					"title", rec.Title,
					"error", err,
				)
				continue
			}
			if pos, ok := index[rec.ID]; ok {
				res.Records[pos] = rec
				continue
			}
			index[rec.ID] = len(res.Records)
			res.Records = append(res.Records, rec)
		}
	}

	logger.Debug("combined batches",
		"batches", len(batches),
		"scraped", res.Scraped,
		"canonical", len(res.Records),
		"dropped", res.Dropped,
	)
	return res
}
