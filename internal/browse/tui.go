// Package browse is an interactive terminal browser over the job store.
package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/store"
)

// Store is what the browser reads and writes. Only flags are ever written.
type Store interface {
	Query(ctx context.Context, f store.Filter, opts store.QueryOptions) (store.Page, error)
	SetFlags(ctx context.Context, id string, u model.FlagUpdate) (model.JobRecord, error)
}

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

// modeCycle is the order the m key walks through.
var modeCycle = []store.Mode{
	store.ModeNotViewed,
	store.ModeInterested,
	store.ModeApplied,
	store.ModeViewed,
	store.ModeAll,
}

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

type pageLoadedMsg struct {
	page store.Page
	err  error
}

type flagsSetMsg struct {
	job model.JobRecord
	err error
}

type browseModel struct {
	ctx    context.Context
	store  Store
	filter store.Filter
	opts   store.QueryOptions

	page    store.Page
	cursor  int
	loading bool
	status  string
	err     string

	listViewport   viewport.Model
	detailViewport viewport.Model
	view           viewState
	showDesc       bool

	width  int
	height int
	ready  bool
}

func newModel(ctx context.Context, s Store, filter store.Filter, opts store.QueryOptions) browseModel {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 {
		opts.PageSize = store.DefaultPageSize
	}
	if filter.Mode == "" {
		filter.Mode = store.ModeNotViewed
	}
	return browseModel{
		ctx:     ctx,
		store:   s,
		filter:  filter,
		opts:    opts,
		loading: true,
	}
}

func (m browseModel) Init() tea.Cmd {
	return m.loadPage()
}

func (m browseModel) loadPage() tea.Cmd {
	ctx, s, filter, opts := m.ctx, m.store, m.filter, m.opts
	return func() tea.Msg {
		page, err := s.Query(ctx, filter, opts)
		return pageLoadedMsg{page: page, err: err}
	}
}

func (m browseModel) setFlags(id string, u model.FlagUpdate) tea.Cmd {
	ctx, s := m.ctx, m.store
	return func() tea.Msg {
		job, err := s.SetFlags(ctx, id, u)
		return flagsSetMsg{job: job, err: err}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case pageLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.page = msg.page
		m.cursor = clamp(m.cursor, 0, max(len(m.page.Records)-1, 0))
		m.recalcContent()
		return m, nil

	case flagsSetMsg:
		if msg.err != nil {
			m.err = msg.err.Error()
			return m, nil
		}
		m.err = ""
		m.replace(msg.job)
		m.status = "saved " + msg.job.ID
		m.recalcContent()
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}
	return m, nil
}

func (m browseModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, max(len(m.page.Records)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, max(len(m.page.Records)-1, 0))
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "n", "pgdown":
		if m.page.Page < m.page.TotalPages {
			return m.reload(m.page.Page + 1)
		}
		return m, nil
	case "p", "pgup":
		if m.page.Page > 1 {
			return m.reload(m.page.Page - 1)
		}
		return m, nil
	case "m":
		m.filter.Mode = nextMode(m.filter.Mode)
		return m.reload(1)
	case "s":
		m.opts.OrderBy = nextOrder(m.opts.OrderBy)
		return m.reload(1)
	case "d":
		if m.opts.OrderDir == "asc" {
			m.opts.OrderDir = "desc"
		} else {
			m.opts.OrderDir = "asc"
		}
		return m.reload(1)
	case "r":
		return m.reload(max(m.opts.Page, 1))
	case "enter":
		if job, ok := m.selected(); ok {
			m.view = viewDetail
			m.showDesc = false
			m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
			m.detailViewport.SetContent(renderDetail(job, m.showDesc, max(m.width-8, 20)))
		}
		return m, nil
	case "v", "i", "a":
		return m.toggle(msg.String())
	case "o":
		if job, ok := m.selected(); ok {
			openURL(jobURL(job))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.listViewport, cmd = m.listViewport.Update(msg)
	return m, cmd
}

func (m browseModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "v", "i", "a":
		return m.toggle(msg.String())
	case "r":
		m.showDesc = !m.showDesc
		m.refreshDetail()
		m.detailViewport.SetYOffset(0)
		return m, nil
	case "o":
		if job, ok := m.selected(); ok {
			openURL(jobURL(job))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m browseModel) reload(page int) (tea.Model, tea.Cmd) {
	m.opts.Page = page
	m.cursor = 0
	m.loading = true
	m.status = ""
	return m, m.loadPage()
}

// toggle flips one flag on the selected job. Marking interested or applied
// also marks the job viewed.
func (m browseModel) toggle(key string) (tea.Model, tea.Cmd) {
	job, ok := m.selected()
	if !ok {
		return m, nil
	}

	var u model.FlagUpdate
	switch key {
	case "v":
		v := !job.Flags.Viewed
		u.Viewed = &v
	case "i":
		v := !job.Flags.Interested
		u.Interested = &v
	case "a":
		v := !job.Flags.Applied
		u.Applied = &v
	}
	if (u.Interested != nil && *u.Interested) || (u.Applied != nil && *u.Applied) {
		viewed := true
		u.Viewed = &viewed
	}
	return m, m.setFlags(job.ID, u)
}

func (m browseModel) selected() (model.JobRecord, bool) {
	if m.cursor < 0 || m.cursor >= len(m.page.Records) {
		return model.JobRecord{}, false
	}
	return m.page.Records[m.cursor], true
}

// replace swaps in an updated record. The row stays visible until the next
// reload even if it no longer matches the current mode.
func (m *browseModel) replace(job model.JobRecord) {
	for i := range m.page.Records {
		if m.page.Records[i].ID == job.ID {
			m.page.Records[i] = job
			break
		}
	}
	if m.view == viewDetail {
		m.refreshDetail()
	}
}

func (m *browseModel) refreshDetail() {
	if job, ok := m.selected(); ok {
		m.detailViewport.SetContent(renderDetail(job, m.showDesc, max(m.width-8, 20)))
	}
}

func (m *browseModel) ensureCursorVisible() {
	vp := &m.listViewport
	cursorTop := m.cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m *browseModel) recalcLayout() {
	// Header (1 line) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	width := max(m.width-2, 20)
	height := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.listViewport.Width = width
		m.listViewport.Height = height
	}
	if m.view == viewDetail {
		m.detailViewport.Width = max(m.width-4, 20)
		m.detailViewport.Height = height
		m.refreshDetail()
	}
	m.recalcContent()
}

func (m *browseModel) recalcContent() {
	m.listViewport.SetContent(renderJobs(m.page.Records, m.cursor))
}

func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.renderDetailView()
	}
	return m.renderListView()
}

func (m browseModel) renderListView() string {
	order := m.opts.OrderBy
	if order == "" {
		order = "score"
	}
	dir := m.opts.OrderDir
	if dir == "" {
		dir = "desc"
	}
	header := headerStyle.Render(fmt.Sprintf("Jobs · %s · %d total · page %d/%d · by %s %s",
		m.filter.Mode, m.page.Total, max(m.page.Page, 1), max(m.page.TotalPages, 1), order, dir))
	if m.loading {
		header += "  (loading...)"
	}

	pane := borderStyle.Width(m.listViewport.Width).Render(m.listViewport.View())

	status := " ↑/↓ move  n/p page  m mode  s sort  d dir  enter detail  v/i/a flag  o open  q quit"
	switch {
	case m.err != "":
		status = errorStyle.Render(" ⚠ " + m.err)
	case m.status != "":
		status = " " + m.status + "   " + status
	}
	return header + "\n" + pane + "\n" + statusBarStyle.Width(m.width).Render(status)
}

func (m browseModel) renderDetailView() string {
	title := detailTitleStyle.Render("Job Details")
	content := borderStyle.Width(max(m.width-2, 20)).Render(m.detailViewport.View())

	status := " v/i/a flag  r description  o open URL  esc back  ↑/↓ scroll  q quit"
	if m.err != "" {
		status = errorStyle.Render(" ⚠ " + m.err)
	}
	return title + "\n" + content + "\n" + statusBarStyle.Width(m.width).Render(status)
}

func nextMode(cur store.Mode) store.Mode {
	for i, mode := range modeCycle {
		if mode == cur {
			return modeCycle[(i+1)%len(modeCycle)]
		}
	}
	return modeCycle[0]
}

func nextOrder(cur string) string {
	keys := store.OrderKeys()
	if cur == "" {
		cur = keys[0]
	}
	for i, k := range keys {
		if k == cur {
			return keys[(i+1)%len(keys)]
		}
	}
	return keys[0]
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	if url == "" {
		return
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the browser in the alternate screen and blocks until the user
// quits.
func Run(ctx context.Context, s Store, filter store.Filter, opts store.QueryOptions) error {
	p := tea.NewProgram(newModel(ctx, s, filter, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
