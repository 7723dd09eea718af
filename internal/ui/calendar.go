package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"todoboard/internal/calendar"
)

func (m Model) updateCalendarMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, m.cfg.Keys.Calendar, m.cfg.Keys.Quit:
		m.cal.Close()
		m.mode = modeList
		m.status = ""
		return m, nil
	case "left", "h":
		m.cal.Move(-1)
	case "right", "l":
		m.cal.Move(1)
	case "up", "k":
		m.cal.Move(-m.rowStep())
	case "down", "j":
		m.cal.Move(m.rowStep())
	case "<", ",":
		m.cal.PrevMonth()
	case ">":
		m.cal.NextMonth()
	case "[":
		m.cal.PrevYear()
	case "]":
		m.cal.NextYear()
	case "tab":
		m.cal.HeaderClick()
	case ".":
		m.cal.Today()
	case m.cfg.Keys.Confirm:
		d, picked := m.cal.Activate()
		if !picked {
			return m, nil
		}
		m.store.SetFilter(d)
		m.mode = modeList
		m.cursor = 0
		m.rerender()
		m.status = "Showing tasks due " + d.String()
	}
	return m, nil
}

// rowStep is the highlight step for up/down at the current level.
func (m Model) rowStep() int {
	switch m.cal.Level() {
	case calendar.LevelMonth:
		return 3
	case calendar.LevelYear:
		return 4
	default:
		return 7
	}
}
