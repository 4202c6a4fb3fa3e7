// Package retention prunes stale and low-value records.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

// Policy configures the sweep. Days are whole days relative to the sweep time.
type Policy struct {
	LowScoreRetentionDays int
	AbsoluteRetentionDays int
	ScoreThreshold        int
}

// DefaultPolicy keeps low scorers for a week and everything else not applied
// to for a month.
var DefaultPolicy = Policy{
	LowScoreRetentionDays: 7,
	AbsoluteRetentionDays: 30,
	ScoreThreshold:        50,
}

// Validate rejects negative values.
func (p Policy) Validate() error {
	if p.LowScoreRetentionDays < 0 {
		return fmt.Errorf("low_score_retention_days must be >= 0, got %d", p.LowScoreRetentionDays)
	}
	if p.AbsoluteRetentionDays < 0 {
		return fmt.Errorf("absolute_retention_days must be >= 0, got %d", p.AbsoluteRetentionDays)
	}
	if p.ScoreThreshold < 0 {
		return fmt.Errorf("score_threshold must be >= 0, got %d", p.ScoreThreshold)
	}
	return nil
}

// Predicate builds the delete predicate for a sweep at now: a record goes if it
// is a low scorer older than the low-score window, or older than the absolute
// window and not applied to.
func (p Policy) Predicate(now time.Time) store.Predicate {
	return store.AnyOf(
		store.LowScoreBefore(p.ScoreThreshold, now.Add(-days(p.LowScoreRetentionDays))),
		store.StaleNotApplied(now.Add(-days(p.AbsoluteRetentionDays))),
	)
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// Store is the part of the gateway the sweeper needs.
type Store interface {
	DeleteWhere(ctx context.Context, pred store.Predicate) (int, error)
	Stats(ctx context.Context, scoreThreshold int) (store.Stats, error)
}

// Sweeper deletes expired records. Deletions are permanent.
type Sweeper struct {
	store  Store
	logger *slog.Logger
}

func NewSweeper(s Store, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: s, logger: logger}
}

// Sweep deletes every record matched by policy at now and returns the count.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time, policy Policy) (int, error) {
	if err := policy.Validate(); err != nil {
		return 0, err
	}

	deleted, err := s.store.DeleteWhere(ctx, policy.Predicate(now))
	if err != nil {
		return 0, fmt.Errorf("retention sweep: %w", err)
	}

	st, err := s.store.Stats(ctx, policy.ScoreThreshold)
	if err != nil {
		s.logger.Warn("could not read store stats after sweep", "error", err)
	} else {
		s.logger.Info("retention sweep complete",
			"deleted", deleted,
			"remaining", st.Total,
			"unenriched", st.Unenriched,
			"low_score", st.LowScore,
			"applied", st.Applied,
		)
	}
	return deleted, nil
}
