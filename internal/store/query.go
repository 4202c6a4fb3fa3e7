package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// ErrInvalidOrder is returned for an order_by or order_dir outside the
// allowed set.
var ErrInvalidOrder = errors.New("invalid order")

// Mode narrows a query by user flags.
type Mode string

const (
	ModeAll        Mode = "all"
	ModeNotViewed  Mode = "not_viewed"
	ModeViewed     Mode = "viewed"
	ModeInterested Mode = "interested"
	ModeApplied    Mode = "applied"
)

// ParseMode maps user input to a Mode. Empty means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAll, nil
	case ModeAll, ModeNotViewed, ModeViewed, ModeInterested, ModeApplied:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Filter restricts which rows a query returns.
type Filter struct {
	Mode     Mode
	MinScore *int
}

// QueryOptions controls ordering and pagination. Zero values pick the
// defaults: score, desc, page 1, 50 rows.
type QueryOptions struct {
	OrderBy  string
	OrderDir string
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// Page is one page of query results.
type Page struct {
	Records    []model.JobRecord
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// orderColumns is the enumerated set of sortable columns.
var orderColumns = map[string]string{
	"score":         "llm_score",
	"llm_score":     "llm_score",
	"date_posted":   "date_posted",
	"company":       "company",
	"title":         "title",
	"location":      "location",
	"scraping_date": "scraping_date",
}

// OrderKeys lists the accepted order_by values for help text.
func OrderKeys() []string {
	return []string{"score", "date_posted", "company", "title", "location", "scraping_date"}
}

func (o QueryOptions) normalize() (col, dir string, page, size int, err error) {
	key := strings.ToLower(strings.TrimSpace(o.OrderBy))
	if key == "" {
		key = "score"
	}
	col, ok := orderColumns[key]
	if !ok {
		return "", "", 0, 0, fmt.Errorf("%w: order_by %q", ErrInvalidOrder, o.OrderBy)
	}

	switch strings.ToLower(strings.TrimSpace(o.OrderDir)) {
	case "", "desc":
		dir = "DESC"
	case "asc":
		dir = "ASC"
	default:
		return "", "", 0, 0, fmt.Errorf("%w: order_dir %q", ErrInvalidOrder, o.OrderDir)
	}

	page = max(o.Page, 1)
	size = o.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	size = min(size, MaxPageSize)
	return col, dir, page, size, nil
}

func (f Filter) clause() (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	switch f.Mode {
	case "", ModeAll:
	case ModeNotViewed:
		conds = append(conds, `"viewed" = 0 AND "interested" = 0 AND "applied" = 0`)
	case ModeViewed:
		conds = append(conds, `"viewed" = 1`)
	case ModeInterested:
		conds = append(conds, `"interested" = 1`)
	case ModeApplied:
		conds = append(conds, `"applied" = 1`)
	default:
		return "", nil, fmt.Errorf("unknown mode %q", f.Mode)
	}
	if f.MinScore != nil {
		conds = append(conds, `"llm_score" >= ?`)
		args = append(args, *f.MinScore)
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// Query returns one ordered page of records. Rows with a NULL sort key always
// come last; id breaks ties so pages are stable.
func (s *SQLiteStore) Query(ctx context.Context, f Filter, opts QueryOptions) (Page, error) {
	col, dir, page, size, err := opts.normalize()
	if err != nil {
		return Page{}, err
	}
	where, args, err := f.clause()
	if err != nil {
		return Page{}, &model.ValidationError{Index: -1, Reason: err.Error()}
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs`+where, args...).Scan(&total); err != nil {
		return Page{}, &model.StorageError{Op: "query", Err: err}
	}

	q := fmt.Sprintf(`SELECT %s FROM jobs%s ORDER BY %s %s NULLS LAST, "id" %s LIMIT ? OFFSET ?`,
		selectList, where, quoteIdent(col), dir, dir)
	rows, err := s.db.QueryContext(ctx, q, append(args, size, (page-1)*size)...)
	if err != nil {
		return Page{}, &model.StorageError{Op: "query", Err: err}
	}
	recs, err := collect(rows)
	if err != nil {
		return Page{}, &model.StorageError{Op: "query", Err: err}
	}

	totalPages := max(1, (total+size-1)/size)
	return Page{
		Records:    recs,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}, nil
}
