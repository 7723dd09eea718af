package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todoboard/internal/auth"
	"todoboard/internal/calendar"
	"todoboard/internal/clock"
	"todoboard/internal/config"
	"todoboard/internal/model"
	"todoboard/internal/schedule"
	"todoboard/internal/todo"
	"todoboard/internal/view"
	"todoboard/internal/weather"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeRename
	modeDue
	modeLogin
	modeCalendar
	modeConfirmDelete
	modeImport
)

// Options are the collaborators the TUI drives.
type Options struct {
	Config config.Config
	Store  *todo.Store
	Gate   *auth.Gate
	Clock  clock.Clock
	// Weather is nil when the widget is disabled.
	Weather *weather.Client
}

// background holds what outlives a single Model value.
type background struct {
	wakes     chan schedule.Wake
	reports   chan weatherMsg
	refresher *weather.Refresher
}

func (bg *background) stop() {
	if bg.refresher != nil {
		bg.refresher.Stop()
	}
}

type Model struct {
	cfg     config.Config
	store   *todo.Store
	gate    *auth.Gate
	clock   clock.Clock
	loc     *time.Location
	sched   *schedule.Scheduler
	cal     *calendar.Machine
	weather *weather.Client
	bg      *background

	proj         view.Projection
	rows         []model.Item
	cursor       int
	mode         mode
	input        textinput.Model
	status       string
	showArchived bool
	pendingDel   *model.Item
	renameID     int64
	due          *dueState
	login        *loginState

	// badgeNow is the instant badges were last computed for. It moves only
	// on a render triggered by data or a scheduler wake.
	badgeNow    time.Time
	clockNow    time.Time
	showWeather bool
	weatherLine string
	width       int
}

func New(opts Options) Model {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	loc := opts.Store.Location()

	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 256
	ti.Width = 40

	bg := &background{
		wakes:   make(chan schedule.Wake, 1),
		reports: make(chan weatherMsg, 1),
	}
	m := Model{
		cfg:      opts.Config,
		store:    opts.Store,
		gate:     opts.Gate,
		clock:    clk,
		loc:      loc,
		cal:      calendar.New(clk, opts.Config.FirstWeekday()),
		weather:  opts.Weather,
		bg:       bg,
		input:    ti,
		mode:     modeList,
		status:   "Loading...",
		clockNow: clk.Now(),
	}
	m.sched = schedule.New(clk, func(w schedule.Wake) { offer(bg.wakes, w) })
	m.showWeather = opts.Weather != nil && opts.Config.Weather.Enabled
	m.rerender()
	return m
}

// Run starts the program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err := program.Run()
	m.sched.Cancel()
	m.bg.stop()
	return err
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.refreshCmd(),
		waitForWake(m.bg.wakes),
		clockTick(),
	}
	if m.showWeather {
		cmds = append(cmds, m.startWeather(), waitForWeather(m.bg.reports))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - 10
	case loadedMsg:
		return m.handleLoaded(msg)
	case mutatedMsg:
		return m.handleMutated(msg)
	case importedMsg:
		return m.handleImported(msg)
	case exportedMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Export failed: %v", msg.err)
		} else {
			m.status = "Exported to " + msg.path
		}
	case wakeMsg:
		return m.handleWake(msg)
	case clockMsg:
		m.clockNow = time.Time(msg)
		return m, clockTick()
	case weatherMsg:
		if msg.err != nil {
			m.weatherLine = "Error fetching weather data"
		} else {
			m.weatherLine = msg.line
		}
		return m, waitForWeather(m.bg.reports)
	}
	return m, nil
}

// rerender recomputes the projection and replaces the pending wake.
func (m *Model) rerender() {
	m.badgeNow = m.clock.Now()
	items := m.store.Items()
	opts := view.Options{ShowArchived: m.showArchived, Location: m.loc}
	if d, ok := m.store.Filter(); ok {
		opts.Filter = &d
	}
	m.proj = view.Project(items, opts)
	m.rows = append(append([]model.Item{}, m.proj.Active...), m.proj.Archived...)
	m.cursor = clampCursor(m.cursor, len(m.rows))
	m.sched.Schedule(items)
}

// busy reports whether a wake must wait: an inline edit or a dialog is open.
func (m Model) busy() bool {
	switch m.mode {
	case modeRename, modeDue, modeLogin:
		return true
	}
	return false
}

func (m Model) handleWake(msg wakeMsg) (tea.Model, tea.Cmd) {
	if !m.sched.Accept(msg.wake) {
		return m, waitForWake(m.bg.wakes)
	}
	if m.busy() {
		m.sched.Defer()
		return m, waitForWake(m.bg.wakes)
	}
	m.rerender()
	return m, waitForWake(m.bg.wakes)
}

func (m Model) handleLoaded(msg loadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.handleError("load", msg.err)
	}
	m.rerender()
	if m.mode == modeList {
		m.status = fmt.Sprintf("Loaded %d tasks", m.store.Len())
	}
	return m, nil
}

func (m Model) handleMutated(msg mutatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m.handleError(msg.op, msg.err)
	}
	m.rerender()
	if msg.id != 0 {
		m.selectID(msg.id)
	}
	m.status = msg.done
	return m, nil
}

func (m Model) handleImported(msg importedMsg) (tea.Model, tea.Cmd) {
	m.rerender()
	if msg.err != nil && !errors.Is(msg.err, todo.ErrAuthRequired) {
		m.status = fmt.Sprintf("Import failed: %v", msg.err)
		return m, nil
	}
	m.status = fmt.Sprintf("Imported %d of %d tasks", msg.res.Imported, msg.res.Total)
	if msg.res.Failed > 0 {
		m.status += fmt.Sprintf(" (%d failed)", msg.res.Failed)
	}
	if msg.res.AuthHalted {
		return m.openLogin(m.status + "; sign in and import again")
	}
	return m, nil
}

func (m Model) handleError(op string, err error) (tea.Model, tea.Cmd) {
	switch {
	case errors.Is(err, todo.ErrAuthRequired):
		return m.openLogin("Sign in to continue")
	case todo.IsValidation(err):
		m.status = err.Error()
	default:
		m.status = fmt.Sprintf("%s failed: %v", capitalize(op), err)
	}
	return m, nil
}

func (m *Model) selectID(id int64) {
	for i, it := range m.rows {
		if it.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m Model) selected() (model.Item, bool) {
	if len(m.rows) == 0 {
		return model.Item{}, false
	}
	return m.rows[clampCursor(m.cursor, len(m.rows))], true
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeAdd:
		return m.updateAddMode(key, msg)
	case modeRename:
		return m.updateRenameMode(key, msg)
	case modeDue:
		return m.updateDueMode(key, msg)
	case modeLogin:
		return m.updateLoginMode(key, msg)
	case modeCalendar:
		return m.updateCalendarMode(key)
	case modeConfirmDelete:
		return m.updateDeleteConfirm(key)
	case modeImport:
		return m.updateImportMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		title := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		if title == "" {
			m.status = "Title cannot be empty"
			return m, nil
		}
		return m, m.createCmd(title)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateRenameMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.Blur()
		m.status = "Rename cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		text := strings.TrimSpace(m.input.Value())
		id := m.renameID
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		if text == "" {
			m.status = "Title cannot be empty"
			return m, nil
		}
		return m, m.mutate("rename", id, "Renamed task", func(s *todo.Store) error {
			return s.Rename(bgctx(), id, text)
		})
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateImportMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.Blur()
		m.input.Placeholder = "Task title"
		m.status = "Import cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		path := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.input.Blur()
		m.input.Placeholder = "Task title"
		m.mode = modeList
		if path == "" {
			m.status = "No file given"
			return m, nil
		}
		m.status = "Importing " + path + "..."
		return m, m.importCmd(path)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	k := m.cfg.Keys
	switch key {
	case k.Quit:
		return m, tea.Quit
	case k.Down, "down":
		m.cursor = clampCursor(m.cursor+1, len(m.rows))
	case k.Up, "up":
		m.cursor = clampCursor(m.cursor-1, len(m.rows))
	case k.Add:
		m.mode = modeAdd
		m.input.SetValue("")
		m.input.Placeholder = "Task title"
		m.input.Focus()
		m.status = "Add mode: type a title and press Enter"
	case k.Toggle:
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		done := "Marked done"
		if it.Completed {
			done = "Marked not done"
		}
		return m, m.mutate("toggle", it.ID, done, func(s *todo.Store) error {
			return s.ToggleComplete(bgctx(), it.ID)
		})
	case k.Archive:
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		if it.Archived {
			return m, m.mutate("unarchive", it.ID, "Unarchived task", func(s *todo.Store) error {
				return s.Unarchive(bgctx(), it.ID)
			})
		}
		return m, m.mutate("archive", it.ID, "Archived task", func(s *todo.Store) error {
			return s.Archive(bgctx(), it.ID)
		})
	case k.Delete:
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.pendingDel = &it
		m.status = fmt.Sprintf("Delete \"%s\"? y/n", it.Text)
	case k.Rename:
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		if it.Completed {
			m.status = "Completed tasks cannot be renamed"
			return m, nil
		}
		m.mode = modeRename
		m.renameID = it.ID
		m.input.SetValue(it.Text)
		m.input.CursorEnd()
		m.input.Focus()
		m.status = "Rename: edit the title and press Enter"
	case k.Due:
		it, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m.startDueEdit(it)
	case k.ShowArchived:
		m.showArchived = !m.showArchived
		m.rerender()
		if m.showArchived {
			m.status = "Showing archived tasks"
		} else {
			m.status = "Hiding archived tasks"
		}
	case k.Calendar:
		m.cal.Open()
		m.mode = modeCalendar
		m.status = "Calendar: arrows move, enter picks, tab zooms out, . today, esc closes"
	case k.ResetFilter:
		if _, ok := m.store.Filter(); !ok {
			return m, nil
		}
		m.store.ResetFilter()
		m.rerender()
		m.status = "Showing all tasks"
	case k.Refresh:
		m.status = "Refreshing..."
		return m, m.refreshCmd()
	case k.Export:
		return m, m.exportCmd()
	case k.Import:
		m.mode = modeImport
		m.input.SetValue("")
		m.input.Placeholder = "Path to a backup .json file"
		m.input.Focus()
		m.status = "Import: type a file path and press Enter"
	case k.Weather:
		return m.toggleWeather()
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.mode = modeList
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		it := m.pendingDel
		m.mode = modeList
		m.pendingDel = nil
		if it == nil {
			m.status = "Nothing to delete"
			return m, nil
		}
		id := it.ID
		return m, m.mutate("delete", 0, "Deleted task", func(s *todo.Store) error {
			return s.Remove(bgctx(), id)
		})
	default:
		return m, nil
	}
}

func (m Model) toggleWeather() (tea.Model, tea.Cmd) {
	if m.weather == nil {
		m.status = "Weather is not configured"
		return m, nil
	}
	m.showWeather = !m.showWeather
	if !m.showWeather {
		m.weatherLine = ""
		return m, nil
	}
	m.weatherLine = "Fetching weather..."
	if m.bg.refresher != nil {
		go m.bg.refresher.RunOnce()
		return m, nil
	}
	return m, tea.Batch(m.startWeather(), waitForWeather(m.bg.reports))
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
