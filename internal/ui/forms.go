package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"todoboard/internal/model"
	"todoboard/internal/todo"
)

type dueState struct {
	itemID int64
	text   string
	date   string
	hour   string
	minute string
	index  int
}

func dueFields() []string {
	return []string{"date (YYYY-MM-DD)", "hour (0-23)", "minute (0-59)"}
}

func (ds dueState) currentLabel() string {
	return dueFields()[ds.index]
}

func (ds dueState) currentValue() string {
	switch ds.index {
	case 0:
		return ds.date
	case 1:
		return ds.hour
	case 2:
		return ds.minute
	default:
		return ""
	}
}

func (ds *dueState) setCurrentValue(v string) {
	switch ds.index {
	case 0:
		ds.date = v
	case 1:
		ds.hour = v
	case 2:
		ds.minute = v
	}
}

// input converts the fields into a DueInput. Blank or non-numeric hour and
// minute fields are reported here; ranges are checked by DueInput.Validate.
func (ds dueState) input() (todo.DueInput, error) {
	var in todo.DueInput
	if s := strings.TrimSpace(ds.date); s != "" {
		d, err := model.ParseDate(s)
		if err != nil {
			return in, &todo.ValidationError{Field: "date", Reason: "use YYYY-MM-DD"}
		}
		in.Date = &d
	}
	var err error
	if in.Hour, err = strconv.Atoi(strings.TrimSpace(ds.hour)); err != nil {
		return in, &todo.ValidationError{Field: "hour", Reason: "must be a number"}
	}
	if in.Minute, err = strconv.Atoi(strings.TrimSpace(ds.minute)); err != nil {
		return in, &todo.ValidationError{Field: "minute", Reason: "must be a number"}
	}
	return in, nil
}

// startDueEdit opens the due dialog with the item's due time, or today
// at the next full hour.
func (m Model) startDueEdit(it model.Item) (tea.Model, tea.Cmd) {
	ds := &dueState{itemID: it.ID, text: it.Text}
	if at, ok := it.DueAt(m.loc); ok {
		ds.date = model.DateOf(at).String()
		ds.hour = strconv.Itoa(at.Hour())
		ds.minute = strconv.Itoa(at.Minute())
	} else {
		now := m.clock.Now().In(m.loc)
		ds.date = model.DateOf(now).String()
		ds.hour = strconv.Itoa((now.Hour() + 1) % 24)
		ds.minute = "0"
	}
	m.due = ds
	m.mode = modeDue
	m.input.SetValue(ds.currentValue())
	m.input.Placeholder = ds.currentLabel()
	m.input.CursorEnd()
	m.input.Focus()
	m.status = m.duePrompt()
	return m, nil
}

func (m Model) updateDueMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		return m.closeDue("Due date unchanged"), nil
	case "tab", "down":
		m.due.setCurrentValue(m.input.Value())
		m.due.index = wrapIndex(m.due.index+1, len(dueFields()))
		m.loadDueField()
		return m, nil
	case "shift+tab", "up":
		m.due.setCurrentValue(m.input.Value())
		m.due.index = wrapIndex(m.due.index-1, len(dueFields()))
		m.loadDueField()
		return m, nil
	case "ctrl+d":
		id := m.due.itemID
		m = m.closeDue("Clearing due date...")
		return m, m.mutate("clear due", id, "Due date cleared", func(s *todo.Store) error {
			return s.ClearDueTime(bgctx(), id)
		})
	case m.cfg.Keys.Confirm:
		m.due.setCurrentValue(m.input.Value())
		if m.due.index < len(dueFields())-1 {
			m.due.index++
			m.loadDueField()
			return m, nil
		}
		return m.saveDue()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveDue() (tea.Model, tea.Cmd) {
	in, err := m.due.input()
	if err == nil {
		_, err = in.Validate(m.loc)
	}
	if err != nil {
		m.status = fmt.Sprintf("%v. %s", err, m.duePrompt())
		return m, nil
	}
	id := m.due.itemID
	m = m.closeDue("Saving due date...")
	return m, m.mutate("set due", id, "Due date saved", func(s *todo.Store) error {
		return s.SetDueTime(bgctx(), id, in)
	})
}

func (m *Model) loadDueField() {
	m.input.SetValue(m.due.currentValue())
	m.input.Placeholder = m.due.currentLabel()
	m.input.CursorEnd()
	m.status = m.duePrompt()
}

func (m Model) closeDue(status string) Model {
	m.due = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Placeholder = "Task title"
	m.input.Blur()
	m.status = status
	return m
}

func (m Model) duePrompt() string {
	if m.due == nil {
		return ""
	}
	return fmt.Sprintf("Due date: %s (field %d of %d). Enter to advance, ctrl+d clears, Esc cancels.",
		m.due.currentLabel(), m.due.index+1, len(dueFields()))
}

type loginState struct {
	username textinput.Model
	password textinput.Model
	index    int
}

func newLoginState() *loginState {
	u := textinput.New()
	u.Placeholder = "username"
	u.CharLimit = 128
	u.Focus()

	p := textinput.New()
	p.Placeholder = "password"
	p.CharLimit = 128
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '*'
	return &loginState{username: u, password: p}
}

func (ls *loginState) focus(i int) {
	ls.index = i
	if i == 0 {
		ls.username.Focus()
		ls.password.Blur()
		return
	}
	ls.password.Focus()
	ls.username.Blur()
}

// openLogin shows the login dialog. The gate has already recorded
// whether a held credential was rejected.
func (m Model) openLogin(status string) (tea.Model, tea.Cmd) {
	if m.mode == modeDue {
		m = m.closeDue("")
	}
	m.input.Blur()
	m.login = newLoginState()
	m.mode = modeLogin
	m.status = status
	return m, nil
}

func (m Model) updateLoginMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ls := m.login
	switch key {
	case m.cfg.Keys.Cancel:
		m.gate.DismissPrompt()
		m.login = nil
		m.mode = modeList
		m.status = "Login cancelled"
		return m, nil
	case "tab", "shift+tab", "up", "down":
		ls.focus(1 - ls.index)
		return m, nil
	case m.cfg.Keys.Confirm:
		if ls.index == 0 {
			ls.focus(1)
			return m, nil
		}
		user := strings.TrimSpace(ls.username.Value())
		pass := ls.password.Value()
		if user == "" || pass == "" {
			m.status = "Username and password are required"
			return m, nil
		}
		m.gate.Login(user, pass)
		m.login = nil
		m.mode = modeList
		m.status = "Signing in..."
		return m, m.refreshCmd()
	}
	var cmd tea.Cmd
	if ls.index == 0 {
		ls.username, cmd = ls.username.Update(msg)
	} else {
		ls.password, cmd = ls.password.Update(msg)
	}
	return m, cmd
}
