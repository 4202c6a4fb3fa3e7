package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// SetFlags applies a partial flag update and returns the updated record.
// A flag's *_at timestamp is stamped the first time it becomes true and kept
// afterwards, even if the flag is cleared.
func (s *SQLiteStore) SetFlags(ctx context.Context, id string, u model.FlagUpdate) (model.JobRecord, error) {
	if id == "" {
		return model.JobRecord{}, &model.ValidationError{Index: -1, Reason: "missing id"}
	}

	var (
		sets []string
		args []any
	)
	stamp := formatTime(s.now())
	flag := func(name string, v *bool) {
		if v == nil {
			return
		}
		sets = append(sets, quoteIdent(name)+" = ?")
		args = append(args, boolInt(*v))
		if *v {
			at := quoteIdent(name + "_at")
			sets = append(sets, fmt.Sprintf("%s = COALESCE(%s, ?)", at, at))
			args = append(args, stamp)
		}
	}
	flag("viewed", u.Viewed)
	flag("interested", u.Interested)
	flag("applied", u.Applied)
	if u.Notes != nil {
		sets = append(sets, `"notes" = ?`)
		args = append(args, nullText(*u.Notes))
	}

	var rec model.JobRecord
	err := s.withTx(ctx, "set flags", func(tx *sql.Tx) error {
		if len(sets) > 0 {
			res, err := tx.ExecContext(ctx,
				`UPDATE jobs SET `+strings.Join(sets, ", ")+` WHERE "id" = ?`,
				append(args, id)...)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return &notFoundError{fmt.Errorf("%s: %w", id, model.ErrNotFound)}
			}
		}

		var err error
		rec, err = getRecord(ctx, tx, id)
		if err != nil {
			var se *model.StorageError
			if errors.As(err, &se) {
				return se.Err
			}
			return &notFoundError{err}
		}
		return nil
	})
	if err != nil {
		return model.JobRecord{}, err
	}
	return rec, nil
}
