// Package pipeline runs one ingest, enrich, upsert and retain cycle.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DaveOps97/SmartJobHunter/internal/combine"
	"github.com/DaveOps97/SmartJobHunter/internal/enrich"
	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/retention"
	"github.com/DaveOps97/SmartJobHunter/internal/selector"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

// Store is everything a run needs from the storage gateway.
type Store interface {
	selector.Reader
	retention.Store
	Upsert(ctx context.Context, records []model.JobRecord) (store.UpsertReport, error)
}

// Enricher scores records. *enrich.Engine implements it.
type Enricher interface {
	Enrich(ctx context.Context, records []model.JobRecord) ([]model.JobRecord, enrich.Result, error)
}

// Options holds the optional stages. Nil fields disable the stage.
type Options struct {
	Filter         model.JobFilter
	Enricher       Enricher
	Notifier       model.Notifier
	NotifyMinScore int
	Retention      *retention.Policy
}

// Summary reports what one run did.
type Summary struct {
	RunID         string        `json:"run_id"`
	Scraped       int           `json:"scraped"`
	Dropped       int           `json:"dropped"`
	Filtered      int           `json:"filtered"`
	New           int           `json:"new"`
	Updated       int           `json:"updated"`
	Enriched      int           `json:"enriched"`
	EnrichFailed  int           `json:"enrich_failed"`
	Notified      int           `json:"notified"`
	Deleted       int           `json:"deleted"`
	SourcesFailed int           `json:"sources_failed"`
	Duration      time.Duration `json:"duration"`
}

// Pipeline owns the full run: sources → combine → filter → upsert →
// select → enrich → upsert → notify → sweep.
type Pipeline struct {
	sources []model.BatchSource
	store   Store
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a pipeline wired with all its dependencies.
func New(sources []model.BatchSource, s Store, opts Options, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		sources: sources,
		store:   s,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Run executes one cycle. Storage errors abort the remaining stages and are
// returned without a summary. Source and notification failures are logged
// and counted; the run fails with model.ErrNoBatches only when every
// configured source failed.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	start := p.now()
	sum := Summary{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", sum.RunID)

	batches := p.fetch(ctx, logger, &sum)
	if len(p.sources) > 0 && len(batches) == 0 {
		return Summary{}, model.ErrNoBatches
	}

	combined := combine.Combine(batches, logger)
	sum.Scraped = combined.Scraped
	sum.Dropped = combined.Dropped

	canonical := make([]model.JobRecord, 0, len(combined.Records))
	for _, rec := range combined.Records {
		if p.opts.Filter != nil && !p.opts.Filter.Match(rec) {
			sum.Filtered++
			continue
		}
		rec.ScrapedAt = start
		canonical = append(canonical, rec)
	}

	rep, err := p.store.Upsert(ctx, canonical)
	if err != nil {
		return Summary{}, fmt.Errorf("storing scraped records: %w", err)
	}
	sum.New = rep.Inserted
	sum.Updated = rep.Updated
	logger.Info("upsert complete", "inserted", rep.Inserted, "updated", rep.Updated)

	var scored []model.JobRecord
	if p.opts.Enricher != nil {
		pending, err := selector.Select(ctx, canonical, p.store)
		if err != nil {
			return Summary{}, err
		}
		logger.Info("selected for enrichment", "pending", len(pending))

		if len(pending) > 0 {
			enriched, res, err := p.opts.Enricher.Enrich(ctx, pending)
			if err != nil {
				return Summary{}, fmt.Errorf("enriching: %w", err)
			}
			sum.Enriched = res.Enriched
			sum.EnrichFailed = res.Failed

			for _, rec := range enriched {
				if rec.Enriched() {
					scored = append(scored, rec)
				}
			}
			if _, err := p.store.Upsert(ctx, scored); err != nil {
				return Summary{}, fmt.Errorf("storing scores: %w", err)
			}
		}
	}

	if p.opts.Notifier != nil {
		sum.Notified = p.notify(scored, logger)
	}

	if p.opts.Retention != nil {
		deleted, err := retention.NewSweeper(p.store, logger).Sweep(ctx, start, *p.opts.Retention)
		if err != nil {
			return Summary{}, err
		}
		sum.Deleted = deleted
	}

	sum.Duration = p.now().Sub(start)
	logger.Info("run complete",
		"scraped", sum.Scraped,
		"dropped", sum.Dropped,
		"filtered", sum.Filtered,
		"new", sum.New,
		"updated", sum.Updated,
		"enriched", sum.Enriched,
		"enrich_failed", sum.EnrichFailed,
		"deleted", sum.Deleted,
		"sources_failed", sum.SourcesFailed,
		"duration", sum.Duration.Round(time.Millisecond),
	)
	return sum, nil
}

func (p *Pipeline) fetch(ctx context.Context, logger *slog.Logger, sum *Summary) []model.Batch {
	var batches []model.Batch
	for _, src := range p.sources {
		batch, err := src.FetchBatch(ctx)
		if err != nil {
			sum.SourcesFailed++
			logger.Error("source failed", "source", src.Name(), "error", err)
			continue
		}
		if batch.Source == "" {
			batch.Source = src.Name()
		}
		logger.Info("fetched batch", "source", batch.Source, "records", len(batch.Records))
		batches = append(batches, batch)
	}
	return batches
}

// notify sends freshly scored records at or above the notify threshold.
// Failures are logged only.
func (p *Pipeline) notify(scored []model.JobRecord, logger *slog.Logger) int {
	var matches []model.JobRecord
	for _, rec := range scored {
		if rec.Enrichment.Score >= p.opts.NotifyMinScore {
			matches = append(matches, rec)
		}
	}
	if len(matches) == 0 {
		return 0
	}
	if err := p.opts.Notifier.Notify(matches); err != nil {
		logger.Warn("notification failed", "jobs", len(matches), "error", err)
		return 0
	}
	return len(matches)
}
