package browse

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

type fakeStore struct {
	jobs     []model.JobRecord
	queries  []store.QueryOptions
	filters  []store.Filter
	updates  []model.FlagUpdate
	queryErr error
}

func (f *fakeStore) Query(_ context.Context, filter store.Filter, opts store.QueryOptions) (store.Page, error) {
	f.filters = append(f.filters, filter)
	f.queries = append(f.queries, opts)
	if f.queryErr != nil {
		return store.Page{}, f.queryErr
	}
	size := opts.PageSize
	start := min((opts.Page-1)*size, len(f.jobs))
	end := min(start+size, len(f.jobs))
	return store.Page{
		Records:    append([]model.JobRecord(nil), f.jobs[start:end]...),
		Total:      len(f.jobs),
		Page:       opts.Page,
		PageSize:   size,
		TotalPages: (len(f.jobs) + size - 1) / size,
	}, nil
}

func (f *fakeStore) SetFlags(_ context.Context, id string, u model.FlagUpdate) (model.JobRecord, error) {
	f.updates = append(f.updates, u)
	for i := range f.jobs {
		if f.jobs[i].ID != id {
			continue
		}
		if u.Viewed != nil {
			f.jobs[i].Flags.Viewed = *u.Viewed
		}
		if u.Interested != nil {
			f.jobs[i].Flags.Interested = *u.Interested
		}
		if u.Applied != nil {
			f.jobs[i].Flags.Applied = *u.Applied
		}
		return f.jobs[i], nil
	}
	return model.JobRecord{}, model.ErrNotFound
}

func seedJobs(n int) []model.JobRecord {
	jobs := make([]model.JobRecord, n)
	for i := range jobs {
		jobs[i] = model.JobRecord{
			ID: string(rune('a' + i)),
			ScrapeFields: model.ScrapeFields{
				Title:   "Engineer " + string(rune('A'+i)),
				Company: "Acme",
				JobURL:  "https://example.com/" + string(rune('a'+i)),
			},
			ScrapedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		}
	}
	jobs[0].Enrichment = &model.Enrichment{
		Score:         82,
		SubScores:     model.SubScores{Competence: 90, Company: 80, Salary: 70, Location: 85, Growth: 75},
		Rationale:     "Strong Go match.",
		MatchedSkills: []string{"go", "sql"},
	}
	return jobs
}

// step runs cmd and feeds its message back into m.
func step(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := m.Update(cmd())
	return next
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func started(t *testing.T, fs *fakeStore, pageSize int) browseModel {
	t.Helper()
	m := newModel(context.Background(), fs, store.Filter{}, store.QueryOptions{PageSize: pageSize})
	var tm tea.Model = m
	tm, _ = tm.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	tm = step(t, tm, m.Init())
	return tm.(browseModel)
}

func TestBrowse_InitialLoad(t *testing.T) {
	fs := &fakeStore{jobs: seedJobs(3)}
	m := started(t, fs, 10)

	require.Len(t, fs.queries, 1)
	assert.Equal(t, store.ModeNotViewed, fs.filters[0].Mode)
	assert.Equal(t, 1, fs.queries[0].Page)
	assert.Len(t, m.page.Records, 3)
	assert.False(t, m.loading)

	view := m.View()
	assert.Contains(t, view, "Engineer A")
	assert.Contains(t, view, "not_viewed")
}

func TestBrowse_LoadError(t *testing.T) {
	fs := &fakeStore{queryErr: errors.New("database is locked")}
	m := started(t, fs, 10)

	assert.Equal(t, "database is locked", m.err)
	assert.Contains(t, m.View(), "database is locked")
}

func TestBrowse_CursorIsClamped(t *testing.T) {
	fs := &fakeStore{jobs: seedJobs(2)}
	var tm tea.Model = started(t, fs, 10)

	tm, _ = tm.Update(key("k"))
	assert.Equal(t, 0, tm.(browseModel).cursor)

	for range 5 {
		tm, _ = tm.Update(key("j"))
	}
	assert.Equal(t, 1, tm.(browseModel).cursor)
}

func TestBrowse_Paging(t *testing.T) {
	fs := &fakeStore{jobs: seedJobs(5)}
	var tm tea.Model = started(t, fs, 2)

	_, cmd := tm.Update(key("p"))
	assert.Nil(t, cmd, "no page before the first")

	tm, cmd = tm.Update(key("n"))
	tm = step(t, tm, cmd)
	m := tm.(browseModel)
	assert.Equal(t, 2, m.page.Page)
	assert.Equal(t, "c", m.page.Records[0].ID)

	tm, cmd = tm.Update(key("n"))
	tm = step(t, tm, cmd)
	_, cmd = tm.Update(key("n"))
	assert.Nil(t, cmd, "no page after the last")
	assert.Equal(t, 3, tm.(browseModel).page.Page)
}

func TestBrowse_ModeAndOrderCycle(t *testing.T) {
	fs := &fakeStore{jobs: seedJobs(1)}
	var tm tea.Model = started(t, fs, 10)

	tm, cmd := tm.Update(key("m"))
	tm = step(t, tm, cmd)
	assert.Equal(t, store.ModeInterested, fs.filters[len(fs.filters)-1].Mode)

	tm, cmd = tm.Update(key("s"))
	tm = step(t, tm, cmd)
	assert.Equal(t, "date_posted", fs.queries[len(fs.queries)-1].OrderBy)

	_, cmd = tm.Update(key("d"))
	step(t, tm, cmd)
	assert.Equal(t, "asc", fs.queries[len(fs.queries)-1].OrderDir)
}

func TestBrowse_ToggleFlags(t *testing.T) {
	fs := &fakeStore{jobs: seedJobs(2)}
	var tm tea.Model = started(t, fs, 10)

	tm, cmd := tm.Update(key("v"))
	tm = step(t, tm, cmd)
	m := tm.(browseModel)
	require.Len(t, fs.updates, 1)
	require.NotNil(t, fs.updates[0].Viewed)
	assert.True(t, *fs.updates[0].Viewed)
	assert.Nil(t, fs.updates[0].Applied)
	assert.True(t, m.page.Records[0].Flags.Viewed)
	assert.Equal(t, "saved a", m.status)

	tm, cmd = tm.Update(key("v"))
	tm = step(t, tm, cmd)
	assert.False(t, tm.(browseModel).page.Records[0].Flags.Viewed)

	tm, _ = tm.Update(key("j"))
	tm, cmd = tm.Update(key("a"))
	tm = step(t, tm, cmd)
	m = tm.(browseModel)
	assert.True(t, m.page.Records[1].Flags.Applied)
	assert.True(t, m.page.Records[1].Flags.Viewed, "applying marks the job viewed")
}

func TestBrowse_FlagErrorIsShown(t *testing.T) {
	fs := &fakeStore{jobs: seedJobs(1)}
	var tm tea.Model = started(t, fs, 10)
	fs.jobs[0].ID = "gone"

	tm, cmd := tm.Update(key("i"))
	tm = step(t, tm, cmd)
	assert.Equal(t, model.ErrNotFound.Error(), tm.(browseModel).err)
}

func TestBrowse_DetailView(t *testing.T) {
	fs := &fakeStore{jobs: seedJobs(2)}
	var tm tea.Model = started(t, fs, 10)

	tm, _ = tm.Update(key("enter"))
	m := tm.(browseModel)
	require.Equal(t, viewDetail, m.view)
	assert.Contains(t, m.View(), "Job Details")

	tm, cmd := tm.Update(key("i"))
	tm = step(t, tm, cmd)
	assert.True(t, tm.(browseModel).page.Records[0].Flags.Interested)

	tm, _ = tm.Update(key("esc"))
	assert.Equal(t, viewList, tm.(browseModel).view)
}

func TestBrowse_Quit(t *testing.T) {
	fs := &fakeStore{jobs: seedJobs(1)}
	tm := started(t, fs, 10)

	_, cmd := tm.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestRenderDetail(t *testing.T) {
	job := seedJobs(1)[0]
	job.Description = "Build pipelines in Go."
	job.Flags.Applied = true

	out := renderDetail(job, false, 60)
	assert.Contains(t, out, "82")
	assert.Contains(t, out, "competence 90")
	assert.Contains(t, out, "go, sql")
	assert.Contains(t, out, "Strong Go match.")
	assert.NotContains(t, out, "Build pipelines")

	out = renderDetail(job, true, 60)
	assert.Contains(t, out, "Build pipelines in Go.")

	unscored := seedJobs(2)[1]
	assert.Contains(t, renderDetail(unscored, false, 60), "Not scored yet.")
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("the quick brown fox jumps", 10)
	for _, line := range strings.Split(got, "\n") {
		assert.LessOrEqual(t, len(line), 10)
	}
	assert.Equal(t, "the quick brown fox jumps", strings.Join(strings.Fields(got), " "))
	assert.Equal(t, "a\nb", wordWrap("a\nb", 10))
}

func TestNextMode(t *testing.T) {
	assert.Equal(t, store.ModeInterested, nextMode(store.ModeNotViewed))
	assert.Equal(t, store.ModeNotViewed, nextMode(store.ModeAll))
	assert.Equal(t, store.ModeNotViewed, nextMode("bogus"))
}
