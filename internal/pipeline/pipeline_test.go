package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaveOps97/SmartJobHunter/internal/enrich"
	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/ratelimit"
	"github.com/DaveOps97/SmartJobHunter/internal/retention"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

var runTime = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

// --- Fakes ---

type staticSource struct {
	name    string
	records []model.JobRecord
	err     error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) FetchBatch(_ context.Context) (model.Batch, error) {
	if s.err != nil {
		return model.Batch{}, s.err
	}
	return model.Batch{Source: s.name, Records: s.records}, nil
}

// stubScorer fails for ids listed in failIDs and records every call.
type stubScorer struct {
	mu      sync.Mutex
	failIDs map[string]bool
	calls   []string
}

func (s *stubScorer) Score(_ context.Context, job model.JobRecord) (model.Assessment, error) {
	s.mu.Lock()
	s.calls = append(s.calls, job.ID)
	s.mu.Unlock()
	if s.failIDs[job.ID] {
		return model.Assessment{}, errors.New("oracle unavailable")
	}
	return model.Assessment{
		SubScores: model.SubScores{Competence: 80, Company: 60, Salary: 60, Location: 70, Growth: 40},
		Rationale: "solid match",
	}, nil
}

type recordingNotifier struct {
	notified []model.JobRecord
	err      error
}

func (n *recordingNotifier) Notify(jobs []model.JobRecord) error {
	n.notified = append(n.notified, jobs...)
	return n.err
}

type titleFilter struct{ reject string }

func (f titleFilter) Match(job model.JobRecord) bool { return job.Title != f.reject }

// brokenStore fails every write.
type brokenStore struct{ store.NopStore }

func (brokenStore) Upsert(context.Context, []model.JobRecord) (store.UpsertReport, error) {
	return store.UpsertReport{}, &model.StorageError{Op: "upsert", Err: errors.New("disk full")}
}

// --- Helpers ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "jobs.db"), store.WithClock(func() time.Time { return runTime }))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func makeJobs(ids ...string) []model.JobRecord {
	out := make([]model.JobRecord, len(ids))
	for i, id := range ids {
		out[i] = model.JobRecord{
			ID: id,
			ScrapeFields: model.ScrapeFields{
				Site:        "linkedin",
				Title:       "Engineer " + id,
				Company:     "Acme",
				Description: "Build pipelines in Go.",
			},
		}
	}
	return out
}

func newEngine(scorer enrich.Scorer) *enrich.Engine {
	return enrich.NewEngine(scorer, ratelimit.Unlimited(), enrich.DefaultWeights, 1, discardLogger())
}

func newPipeline(sources []model.BatchSource, s Store, opts Options) *Pipeline {
	p := New(sources, s, opts, discardLogger())
	p.now = func() time.Time { return runTime }
	return p
}

// --- Tests ---

func TestRun_OracleFailureIsIsolated(t *testing.T) {
	st := openStore(t)
	scorer := &stubScorer{failIDs: map[string]bool{"b": true}}
	src := &staticSource{name: "linkedin", records: makeJobs("a", "b", "c")}

	p := newPipeline([]model.BatchSource{src}, st, Options{Enricher: newEngine(scorer)})
	sum, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Scraped)
	assert.Equal(t, 3, sum.New)
	assert.Equal(t, 2, sum.Enriched)
	assert.Equal(t, 1, sum.EnrichFailed)
	assert.NotEmpty(t, sum.RunID)

	ctx := context.Background()
	for _, id := range []string{"a", "c"} {
		rec, err := st.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, rec.Enrichment, id)
		assert.Equal(t, 68, rec.Enrichment.Score, id)
		assert.True(t, runTime.Equal(rec.ScrapedAt))
	}
	rec, err := st.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, rec.Enrichment)
}

func TestRun_NextRunRetriesFailuresOnly(t *testing.T) {
	st := openStore(t)
	src := &staticSource{name: "linkedin", records: makeJobs("a", "b")}
	ctx := context.Background()

	first := &stubScorer{failIDs: map[string]bool{"b": true}}
	_, err := newPipeline([]model.BatchSource{src}, st, Options{Enricher: newEngine(first)}).Run(ctx)
	require.NoError(t, err)

	_, err = st.SetFlags(ctx, "a", model.FlagUpdate{Interested: ptr(true)})
	require.NoError(t, err)

	second := &stubScorer{}
	sum, err := newPipeline([]model.BatchSource{src}, st, Options{Enricher: newEngine(second)}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"b"}, second.calls)
	assert.Equal(t, 0, sum.New)
	assert.Equal(t, 2, sum.Updated)
	assert.Equal(t, 1, sum.Enriched)

	a, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, a.Flags.Interested)
	require.NotNil(t, a.Enrichment)

	b, err := st.Get(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, b.Enrichment)
}

func TestRun_PicksUpStoredBacklog(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	_, err := st.Upsert(ctx, makeJobs("old"))
	require.NoError(t, err)

	scorer := &stubScorer{}
	src := &staticSource{name: "indeed", records: makeJobs("new")}
	sum, err := newPipeline([]model.BatchSource{src}, st, Options{Enricher: newEngine(scorer)}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"new", "old"}, scorer.calls)
	assert.Equal(t, 2, sum.Enriched)
}

func TestRun_AllSourcesFail(t *testing.T) {
	st := openStore(t)
	sources := []model.BatchSource{
		&staticSource{name: "linkedin", err: errors.New("timeout")},
		&staticSource{name: "indeed", err: errors.New("403")},
	}

	_, err := newPipeline(sources, st, Options{}).Run(context.Background())
	assert.ErrorIs(t, err, model.ErrNoBatches)
}

func TestRun_PartialSourceFailure(t *testing.T) {
	st := openStore(t)
	sources := []model.BatchSource{
		&staticSource{name: "linkedin", err: errors.New("timeout")},
		&staticSource{name: "indeed", records: makeJobs("a")},
	}

	sum, err := newPipeline(sources, st, Options{}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.SourcesFailed)
	assert.Equal(t, 1, sum.New)
	assert.Zero(t, sum.Enriched)
}

func TestRun_StorageErrorAborts(t *testing.T) {
	scorer := &stubScorer{}
	src := &staticSource{name: "linkedin", records: makeJobs("a")}

	sum, err := newPipeline([]model.BatchSource{src}, &brokenStore{}, Options{Enricher: newEngine(scorer)}).Run(context.Background())

	var se *model.StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, Summary{}, sum)
	assert.Empty(t, scorer.calls)
}

func TestRun_FilterAndDroppedRecords(t *testing.T) {
	st := openStore(t)
	recs := makeJobs("a", "b", "")
	recs[1].Title = "Sales Manager"
	src := &staticSource{name: "linkedin", records: recs}

	sum, err := newPipeline([]model.BatchSource{src}, st, Options{Filter: titleFilter{reject: "Sales Manager"}}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Dropped)
	assert.Equal(t, 1, sum.Filtered)
	assert.Equal(t, 1, sum.New)
}

func TestRun_NotifiesScoresAboveThreshold(t *testing.T) {
	st := openStore(t)
	n := &recordingNotifier{err: errors.New("webhook down")}
	src := &staticSource{name: "linkedin", records: makeJobs("a", "b")}
	scorer := &stubScorer{failIDs: map[string]bool{"b": true}}

	sum, err := newPipeline([]model.BatchSource{src}, st, Options{
		Enricher:       newEngine(scorer),
		Notifier:       n,
		NotifyMinScore: 60,
	}).Run(context.Background())
	require.NoError(t, err, "notification failures are not fatal")

	require.Len(t, n.notified, 1)
	assert.Equal(t, "a", n.notified[0].ID)
	assert.Zero(t, sum.Notified)
}

func TestRun_NotifyThresholdExcludesLowScores(t *testing.T) {
	st := openStore(t)
	n := &recordingNotifier{}
	src := &staticSource{name: "linkedin", records: makeJobs("a")}

	sum, err := newPipeline([]model.BatchSource{src}, st, Options{
		Enricher:       newEngine(&stubScorer{}),
		Notifier:       n,
		NotifyMinScore: 90,
	}).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, n.notified)
	assert.Zero(t, sum.Notified)
}

func TestRun_SweepsExpiredRecords(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	stale := makeJobs("stale")[0]
	stale.ScrapedAt = runTime.Add(-40 * 24 * time.Hour)
	_, err := st.Upsert(ctx, []model.JobRecord{stale})
	require.NoError(t, err)

	policy := retention.DefaultPolicy
	src := &staticSource{name: "linkedin", records: makeJobs("fresh")}
	sum, err := newPipeline([]model.BatchSource{src}, st, Options{Retention: &policy}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Deleted)

	_, err = st.Get(ctx, "stale")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = st.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestRun_NoSourcesStillEnrichesBacklog(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	_, err := st.Upsert(ctx, makeJobs("a"))
	require.NoError(t, err)

	sum, err := newPipeline(nil, st, Options{Enricher: newEngine(&stubScorer{})}).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Enriched)
}

func ptr[T any](v T) *T { return &v }
