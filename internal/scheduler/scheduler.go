// Package scheduler runs the pipeline on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/DaveOps97/SmartJobHunter/internal/pipeline"
)

// Runner is one pipeline run.
type Runner interface {
	Run(ctx context.Context) (pipeline.Summary, error)
}

// Scheduler owns the daemon loop: one run at startup, then one per cron tick.
type Scheduler struct {
	runner Runner
	spec   string
	logger *slog.Logger
}

// NewScheduler creates a scheduler for spec, e.g. "@every 24h" or "0 6 * * *".
func NewScheduler(runner Runner, spec string, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		runner: runner,
		spec:   spec,
		logger: logger,
	}
}

// Run starts the cron loop and blocks until ctx is cancelled, then waits for
// an in-flight run to finish. A tick that fires while the previous run is
// still going is skipped. It returns nil on graceful shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	clog := cronLogger{s.logger}
	c := cron.New(cron.WithLogger(clog))
	job := s.job(ctx, clog)

	if _, err := c.AddJob(s.spec, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", "schedule", s.spec)
	c.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		job.Run()
	}()

	<-ctx.Done()
	s.logger.Info("shutting down scheduler")
	<-c.Stop().Done()
	wg.Wait()
	return nil
}

// job wraps a single run so that overlapping invocations are dropped.
func (s *Scheduler) job(ctx context.Context, clog cron.Logger) cron.Job {
	return cron.NewChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)).Then(cron.FuncJob(func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.runner.Run(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
	}))
}

// cronLogger routes cron's internal logging into slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
