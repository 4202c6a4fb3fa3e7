package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// SQLiteStore is the single gateway to the jobs table.
type SQLiteStore struct {
	db     *sql.DB
	policy MergePolicy
	upsert upsertStatement
	now    func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithMergePolicy overrides DefaultMergePolicy.
func WithMergePolicy(p MergePolicy) Option {
	return func(s *SQLiteStore) { s.policy = p }
}

// WithClock sets the clock used to stamp rows that arrive without a
// scraping date and to stamp flag changes.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// UpsertReport counts what one Upsert call did.
type UpsertReport struct {
	Inserted int
	Updated  int
}

// Stats summarises the table for sweep reports.
type Stats struct {
	Total      int
	Unenriched int
	LowScore   int
	Applied    int
}

// Open opens (or creates) the SQLite database at path and applies the
// embedded migrations.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	s := &SQLiteStore{policy: DefaultMergePolicy, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.policy.Validate(); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	s.upsert = buildUpsert(s.policy)
	return s, nil
}

// dsn adds the pragmas every connection needs: a busy timeout so concurrent
// writers wait, WAL so readers do not block the pipeline, and immediate
// transactions so write locks are taken up front.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// Upsert writes records in a single transaction. Every record is validated
// before anything is written; a missing id rejects the whole call.
func (s *SQLiteStore) Upsert(ctx context.Context, records []model.JobRecord) (UpsertReport, error) {
	var report UpsertReport
	for i := range records {
		if err := records[i].Validate(); err != nil {
			var ve *model.ValidationError
			if errors.As(err, &ve) {
				ve.Index = i
			}
			return report, err
		}
	}
	if len(records) == 0 {
		return report, nil
	}

	now := s.now()
	err := s.withTx(ctx, "upsert", func(tx *sql.Tx) error {
		exists, err := tx.PrepareContext(ctx, `SELECT 1 FROM jobs WHERE "id" = ?`)
		if err != nil {
			return err
		}
		defer exists.Close()

		stmt, err := tx.PrepareContext(ctx, s.upsert.sql)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range records {
			rec := records[i]
			if rec.ScrapedAt.IsZero() {
				rec.ScrapedAt = now
			}

			var one int
			switch err := exists.QueryRowContext(ctx, rec.ID).Scan(&one); {
			case errors.Is(err, sql.ErrNoRows):
				report.Inserted++
			case err != nil:
				return fmt.Errorf("checking %s: %w", rec.ID, err)
			default:
				report.Updated++
			}

			if _, err := stmt.ExecContext(ctx, s.upsert.args(&rec)...); err != nil {
				return fmt.Errorf("writing %s: %w", rec.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return UpsertReport{}, err
	}
	return report, nil
}

// SelectUnenriched returns every record whose llm_score is absent.
func (s *SQLiteStore) SelectUnenriched(ctx context.Context) ([]model.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectList+` FROM jobs WHERE "llm_score" IS NULL ORDER BY "scraping_date", "id"`)
	if err != nil {
		return nil, &model.StorageError{Op: "select unenriched", Err: err}
	}
	recs, err := collect(rows)
	if err != nil {
		return nil, &model.StorageError{Op: "select unenriched", Err: err}
	}
	return recs, nil
}

// ExistingIDs reports which of ids are already stored.
func (s *SQLiteStore) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	// Stay well below SQLite's bound-parameter limit.
	const chunk = 500
	for start := 0; start < len(ids); start += chunk {
		end := min(start+chunk, len(ids))
		part := ids[start:end]

		args := make([]any, len(part))
		for i, id := range part {
			args[i] = id
		}
		q := `SELECT "id" FROM jobs WHERE "id" IN (` + placeholders(len(part)) + `)`
		rows, err := s.db.QueryContext(ctx, q, args...)
		if err != nil {
			return nil, &model.StorageError{Op: "existing ids", Err: err}
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, &model.StorageError{Op: "existing ids", Err: err}
			}
			found[id] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, &model.StorageError{Op: "existing ids", Err: err}
		}
		rows.Close()
	}
	return found, nil
}

// Get loads one record by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (model.JobRecord, error) {
	return getRecord(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getRecord(ctx context.Context, q queryRower, id string) (model.JobRecord, error) {
	row := q.QueryRowContext(ctx, `SELECT `+selectList+` FROM jobs WHERE "id" = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.JobRecord{}, fmt.Errorf("%s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.JobRecord{}, &model.StorageError{Op: "get", Err: err}
	}
	return rec, nil
}

// DeleteWhere permanently removes every row matched by pred.
func (s *SQLiteStore) DeleteWhere(ctx context.Context, pred Predicate) (int, error) {
	if pred.where == "" {
		return 0, fmt.Errorf("delete: empty predicate")
	}
	var n int64
	err := s.withTx(ctx, "delete", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE `+pred.where, pred.args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Stats counts rows by state. LowScore counts scored rows at or below
// scoreThreshold.
func (s *SQLiteStore) Stats(ctx context.Context, scoreThreshold int) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT
			COUNT(1),
			COUNT(CASE WHEN "llm_score" IS NULL THEN 1 END),
			COUNT(CASE WHEN "llm_score" <= ? THEN 1 END),
			COUNT(CASE WHEN "applied" = 1 THEN 1 END)
		FROM jobs`, scoreThreshold).Scan(&st.Total, &st.Unenriched, &st.LowScore, &st.Applied)
	if err != nil {
		return Stats{}, &model.StorageError{Op: "stats", Err: err}
	}
	return st, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn in one transaction. Any failure rolls back and comes back as
// a *model.StorageError.
func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &model.StorageError{Op: op, Err: fmt.Errorf("begin: %w", err)}
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		var nf *notFoundError
		if errors.As(err, &nf) {
			return nf.err
		}
		return &model.StorageError{Op: op, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &model.StorageError{Op: op, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// notFoundError lets a transaction body report a missing row without it being
// wrapped as a storage failure.
type notFoundError struct{ err error }

func (e *notFoundError) Error() string { return e.err.Error() }

func collect(rows *sql.Rows) ([]model.JobRecord, error) {
	defer rows.Close()
	var out []model.JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}
