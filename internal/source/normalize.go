// Package source provides batch sources that read the output of external
// scraping adapters.
package source

import (
	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// row is the wire shape of one exported posting. Only the id and the scrape
// columns are read; scores and flags in an export are ignored.
type row struct {
	ID string `json:"id"`
	model.ScrapeFields
}

// normalize turns decoded rows into scrape-only records. Rows without an id
// get one derived from their URL; rows with neither keep an empty id and are
// dropped later by the combiner.
func normalize(rows []row, cleanHTML bool) []model.JobRecord {
	out := make([]model.JobRecord, 0, len(rows))
	for _, r := range rows {
		rec := model.JobRecord{ID: r.ID, ScrapeFields: r.ScrapeFields}
		if rec.ID == "" {
			url := rec.JobURL
			if url == "" {
				url = rec.JobURLDirect
			}
			rec.ID = model.DeriveID(rec.Site, "", url)
		}
		if cleanHTML {
			rec.Description = extractText(rec.Description)
			rec.CompanyDescription = extractText(rec.CompanyDescription)
		}
		out = append(out, rec)
	}
	return out
}
