package store

import (
	"fmt"
	"strings"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// MergeRule says what an upsert does to an existing row's column group.
type MergeRule int

const (
	// Overwrite replaces stored values with the incoming ones, NULLs included.
	Overwrite MergeRule = iota
	// OverwriteIfPresent replaces stored values only when the incoming record
	// carries the group. For enrichment that means a non-NULL llm_score.
	OverwriteIfPresent
	// Preserve never touches stored values; the columns are left out of the
	// statement so new rows get the schema defaults.
	Preserve
)

// MergePolicy decides, per column group, how Upsert merges into existing rows.
type MergePolicy struct {
	Scrape     MergeRule
	Enrichment MergeRule
	Flags      MergeRule
	Metadata   MergeRule
}

// DefaultMergePolicy refreshes scrape data, keeps a stored score unless a new
// one arrives and never touches user flags.
var DefaultMergePolicy = MergePolicy{
	Scrape:     Overwrite,
	Enrichment: OverwriteIfPresent,
	Flags:      Preserve,
	Metadata:   Overwrite,
}

func (p MergePolicy) rule(g ColumnGroup) MergeRule {
	switch g {
	case GroupScrape:
		return p.Scrape
	case GroupEnrichment:
		return p.Enrichment
	case GroupFlags:
		return p.Flags
	case GroupMetadata:
		return p.Metadata
	default:
		return Overwrite
	}
}

// Validate rejects policies that would let the pipeline write user flags.
func (p MergePolicy) Validate() error {
	if p.Flags != Preserve {
		return fmt.Errorf("merge policy: flags must be preserved")
	}
	return nil
}

// upsertStatement is a generated INSERT ... ON CONFLICT statement together with
// the columns whose values it binds, in placeholder order.
type upsertStatement struct {
	sql     string
	columns []column
}

// args returns the bound values for rec.
func (s upsertStatement) args(rec *model.JobRecord) []any {
	out := make([]any, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.value(rec)
	}
	return out
}

// buildUpsert generates the upsert statement for policy.
func buildUpsert(policy MergePolicy) upsertStatement {
	var (
		insertCols []column
		names      []string
		marks      []string
		sets       []string
	)
	for _, c := range jobColumns {
		rule := policy.rule(c.group)
		if c.group != GroupKey && rule == Preserve {
			continue
		}
		insertCols = append(insertCols, c)
		names = append(names, quoteIdent(c.name))
		marks = append(marks, "?")

		if c.group == GroupKey {
			continue
		}
		col := quoteIdent(c.name)
		switch rule {
		case Overwrite:
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", col, col))
		case OverwriteIfPresent:
			if c.group == GroupEnrichment {
				sets = append(sets, fmt.Sprintf(
					"%s = CASE WHEN excluded.\"llm_score\" IS NOT NULL THEN excluded.%s ELSE jobs.%s END",
					col, col, col))
			} else {
				sets = append(sets, fmt.Sprintf("%s = COALESCE(excluded.%s, jobs.%s)", col, col, col))
			}
		}
	}

	sql := fmt.Sprintf(
		"INSERT INTO jobs (%s) VALUES (%s) ON CONFLICT(\"id\") DO UPDATE SET %s",
		strings.Join(names, ", "),
		strings.Join(marks, ", "),
		strings.Join(sets, ", "),
	)
	return upsertStatement{sql: sql, columns: insertCols}
}
