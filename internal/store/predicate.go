package store

import (
	"strings"
	"time"
)

// Predicate selects rows for DeleteWhere. Values are only built by the
// constructors below so callers never hand raw SQL to the store.
type Predicate struct {
	where string
	args  []any
}

// LowScoreBefore matches scored rows with llm_score <= threshold that were
// last scraped before cutoff.
func LowScoreBefore(threshold int, cutoff time.Time) Predicate {
	return Predicate{
		where: `("llm_score" IS NOT NULL AND "llm_score" <= ? AND "scraping_date" < ?)`,
		args:  []any{threshold, formatTime(cutoff)},
	}
}

// StaleNotApplied matches rows last scraped before cutoff that the user has
// not applied to.
func StaleNotApplied(cutoff time.Time) Predicate {
	return Predicate{
		where: `("scraping_date" < ? AND "applied" = 0)`,
		args:  []any{formatTime(cutoff)},
	}
}

// AnyOf matches rows matched by at least one of preds. With no arguments it
// matches nothing.
func AnyOf(preds ...Predicate) Predicate {
	if len(preds) == 0 {
		return Predicate{where: "0"}
	}
	parts := make([]string, len(preds))
	var args []any
	for i, p := range preds {
		parts[i] = p.where
		args = append(args, p.args...)
	}
	return Predicate{where: "(" + strings.Join(parts, " OR ") + ")", args: args}
}

func (p Predicate) String() string {
	return p.where
}
