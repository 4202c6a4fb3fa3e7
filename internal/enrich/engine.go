// Package enrich attaches oracle scores to job records under a shared rate
// limit.
package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
)

// Scorer is the scoring oracle: one call per record.
type Scorer interface {
	Score(ctx context.Context, job model.JobRecord) (model.Assessment, error)
}

// Limiter gates every oracle call. Wait blocks until a call may proceed.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Result counts the outcome of one Enrich call.
type Result struct {
	Enriched int
	Failed   int
}

// Engine scores records one oracle call at a time per worker.
type Engine struct {
	scorer      Scorer
	limiter     Limiter
	weights     Weights
	concurrency int
	logger      *slog.Logger
	now         func() time.Time
}

// NewEngine creates an engine. concurrency < 1 is treated as 1; all workers
// share limiter.
func NewEngine(scorer Scorer, limiter Limiter, weights Weights, concurrency int, logger *slog.Logger) *Engine {
	return &Engine{
		scorer:      scorer,
		limiter:     limiter,
		weights:     weights,
		concurrency: max(1, concurrency),
		logger:      logger,
		now:         time.Now,
	}
}

// Enrich scores every record and returns them in input order. A failed oracle
// call leaves that record unenriched and is counted, never retried. Only a
// limiter error (the context ending while waiting for a token) stops the
// engine; it is returned together with whatever was scored so far.
func (e *Engine) Enrich(ctx context.Context, records []model.JobRecord) ([]model.JobRecord, Result, error) {
	out := make([]model.JobRecord, len(records))
	copy(out, records)
	if len(records) == 0 {
		return out, Result{}, nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		res   Result
		fatal error
		next  = make(chan int)
	)

	for w := 0; w < min(e.concurrency, len(records)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				if err := e.limiter.Wait(runCtx); err != nil {
					mu.Lock()
					if fatal == nil {
						fatal = err
					}
					mu.Unlock()
					cancel()
					continue
				}
				ok := e.enrichOne(runCtx, &out[i])
				mu.Lock()
				if ok {
					res.Enriched++
				} else {
					res.Failed++
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for i := range records {
		select {
		case next <- i:
		case <-runCtx.Done():
			break feed
		}
	}
	close(next)
	wg.Wait()

	if fatal == nil && res.Enriched+res.Failed < len(records) {
		fatal = ctx.Err()
	}
	if fatal != nil {
		e.logger.Error("enrichment stopped",
			"enriched", res.Enriched,
			"failed", res.Failed,
			"pending", len(records)-res.Enriched-res.Failed,
			"error", fatal,
		)
		return out, res, fatal
	}

	e.logger.Info("enrichment complete", "enriched", res.Enriched, "failed", res.Failed)
	return out, res, nil
}

func (e *Engine) enrichOne(ctx context.Context, rec *model.JobRecord) bool {
	start := time.Now()
	a, err := e.scorer.Score(ctx, *rec)
	if err != nil {
		e.logger.Warn("enrichment failed",
			"id", rec.ID,
			"title", rec.Title,
			"error", &model.OracleError{ID: rec.ID, Err: err},
		)
		return false
	}

	subs := clampSubScores(a.SubScores)
	rec.Enrichment = &model.Enrichment{
		Score:           e.weights.Composite(subs),
		SubScores:       subs,
		Rationale:       a.Rationale,
		MatchedSkills:   a.MatchedSkills,
		PositiveSignals: a.PositiveSignals,
		NegativeSignals: a.NegativeSignals,
		EnrichedAt:      e.now(),
	}
	e.logger.Debug("scored job",
		"id", rec.ID,
		"score", rec.Enrichment.Score,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return true
}
