package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededServer(t *testing.T) (*Server, *store.SQLiteStore) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := func(id, title string, score *int) model.JobRecord {
		r := model.JobRecord{
			ID:           id,
			ScrapeFields: model.ScrapeFields{Site: "linkedin", Title: title, Company: "Acme"},
			ScrapedAt:    now,
		}
		if score != nil {
			r.Enrichment = &model.Enrichment{Score: *score, EnrichedAt: now}
		}
		return r
	}
	score := func(n int) *int { return &n }

	_, err = s.Upsert(context.Background(), []model.JobRecord{
		rec("a", "Data Engineer", score(90)),
		rec("b", "Analyst", score(40)),
		rec("c", "ML Engineer", nil),
	})
	require.NoError(t, err)
	return NewServer(s, discardLogger()), s
}

func do(t *testing.T, srv *Server, method, target, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func rowIDs(t *testing.T, out map[string]any) []string {
	t.Helper()
	rows, ok := out["rows"].([]any)
	require.True(t, ok, "rows missing: %v", out)
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.(map[string]any)["id"].(string))
	}
	return ids
}

func TestHealth(t *testing.T) {
	srv, _ := seededServer(t)
	code, out := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
}

func TestListJobs_DefaultsToNotViewedByScore(t *testing.T) {
	srv, s := seededServer(t)
	_, err := s.SetFlags(context.Background(), "b", model.FlagUpdate{Viewed: ptr(true)})
	require.NoError(t, err)

	code, out := do(t, srv, http.MethodGet, "/jobs", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"a", "c"}, rowIDs(t, out))
	assert.EqualValues(t, 2, out["total_rows"])
	assert.EqualValues(t, 1, out["page"])
	assert.EqualValues(t, store.DefaultPageSize, out["page_size"])
}

func TestListJobs_QueryParams(t *testing.T) {
	srv, _ := seededServer(t)

	code, out := do(t, srv, http.MethodGet, "/jobs?mode=all&order_by=title&order_dir=asc&page=2&page_size=2", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"c"}, rowIDs(t, out))
	assert.EqualValues(t, 2, out["total_pages"])

	code, out = do(t, srv, http.MethodGet, "/jobs?mode=all&min_score=50", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"a"}, rowIDs(t, out))
}

func TestListJobs_EmptyPageIsArray(t *testing.T) {
	srv, _ := seededServer(t)
	code, out := do(t, srv, http.MethodGet, "/jobs?mode=applied", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{}, out["rows"])
}

func TestListJobs_BadRequests(t *testing.T) {
	srv, _ := seededServer(t)
	for _, target := range []string{
		"/jobs?order_by=description",
		"/jobs?order_dir=up",
		"/jobs?mode=starred",
		"/jobs?page=0",
		"/jobs?page_size=501",
		"/jobs?min_score=abc",
	} {
		code, out := do(t, srv, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.NotEmpty(t, out["error"], target)
	}
}

func TestGetJob(t *testing.T) {
	srv, _ := seededServer(t)

	code, out := do(t, srv, http.MethodGet, "/jobs/a", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Data Engineer", out["title"])
	enr := out["enrichment"].(map[string]any)
	assert.EqualValues(t, 90, enr["llm_score"])

	code, out = do(t, srv, http.MethodGet, "/jobs/missing", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, out["error"], "not found")
}

func TestUpdateFlags(t *testing.T) {
	srv, s := seededServer(t)

	code, out := do(t, srv, http.MethodPost, "/jobs/c/flags", `{"interested": true, "note": "ask about remote"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "c", out["job_id"])

	rec, err := s.Get(context.Background(), "c")
	require.NoError(t, err)
	assert.True(t, rec.Flags.Interested)
	assert.NotNil(t, rec.Flags.InterestedAt)
	assert.Equal(t, "ask about remote", rec.Flags.Notes)
	assert.False(t, rec.Flags.Viewed)
}

func TestUpdateFlags_Errors(t *testing.T) {
	srv, _ := seededServer(t)

	code, _ := do(t, srv, http.MethodPost, "/jobs/missing/flags", `{"viewed": true}`)
	assert.Equal(t, http.StatusNotFound, code)

	code, out := do(t, srv, http.MethodPost, "/jobs/a/flags", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "no flag to update", out["error"])

	code, _ = do(t, srv, http.MethodPost, "/jobs/a/flags", `{"viewed": "maybe"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func ptr[T any](v T) *T { return &v }
