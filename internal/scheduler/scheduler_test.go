package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DaveOps97/SmartJobHunter/internal/pipeline"
)

// --- Mock implementations ---

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(_ context.Context) (pipeline.Summary, error) {
	r.calls.Add(1)
	return pipeline.Summary{}, r.err
}

// blockingRunner holds every run until release is closed.
type blockingRunner struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *blockingRunner) Run(_ context.Context) (pipeline.Summary, error) {
	r.calls.Add(1)
	r.once.Do(func() { close(r.started) })
	<-r.release
	return pipeline.Summary{}, nil
}

type panickingRunner struct{}

func (panickingRunner) Run(_ context.Context) (pipeline.Summary, error) {
	panic("boom")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Tests ---

func TestRun_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, "@every 1h", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}

	if got := r.calls.Load(); got != 1 {
		t.Errorf("runner calls = %d, want 1", got)
	}
}

func TestRun_InvalidSpec(t *testing.T) {
	s := NewScheduler(&countingRunner{}, "every now and then", discardLogger())

	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestRun_FailedRunsDoNotStopTicks(t *testing.T) {
	r := &countingRunner{err: errors.New("store locked")}
	s := NewScheduler(r, "@every 1s", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(1500 * time.Millisecond)
	cancel()
	<-done

	if got := r.calls.Load(); got < 2 {
		t.Errorf("runner calls = %d, want >= 2", got)
	}
}

func TestJob_SkipsWhileRunning(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	s := NewScheduler(r, "@every 1h", discardLogger())
	job := s.job(context.Background(), cronLogger{discardLogger()})

	finished := make(chan struct{})
	go func() {
		job.Run()
		close(finished)
	}()
	<-r.started

	// The overlapping invocation returns without calling the runner.
	job.Run()
	if got := r.calls.Load(); got != 1 {
		t.Errorf("runner calls while busy = %d, want 1", got)
	}

	close(r.release)
	<-finished

	job.Run()
	if got := r.calls.Load(); got != 2 {
		t.Errorf("runner calls after release = %d, want 2", got)
	}
}

func TestJob_RecoversPanics(t *testing.T) {
	s := NewScheduler(panickingRunner{}, "@every 1h", discardLogger())
	job := s.job(context.Background(), cronLogger{discardLogger()})

	job.Run() // must not propagate
}

func TestJob_SkipsAfterCancel(t *testing.T) {
	r := &countingRunner{}
	s := NewScheduler(r, "@every 1h", discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.job(ctx, cronLogger{discardLogger()}).Run()

	if got := r.calls.Load(); got != 0 {
		t.Errorf("runner calls = %d, want 0", got)
	}
}
