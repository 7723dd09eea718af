package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"todoboard/internal/calendar"
	"todoboard/internal/config"
	"todoboard/internal/model"
	"todoboard/internal/view"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).MarginTop(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("8"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dialogStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	todayStyle    = lipgloss.NewStyle().Reverse(true).Bold(true)
	markedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Underline(true)
	dimStyle      = lipgloss.NewStyle().Faint(true)
	highlightCell = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)

	badgeStyles = map[view.Badge]lipgloss.Style{
		view.BadgeNone:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		view.BadgeFuture:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		view.BadgeToday:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		view.BadgeOverdue: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(m.renderTaskList())

	if m.weatherLine != "" && m.showWeather {
		b.WriteString("\n")
		b.WriteString(subtleStyle.Render(m.weatherLine))
	}
	b.WriteString("\n---\n")

	switch m.mode {
	case modeAdd, modeRename, modeImport:
		b.WriteString(m.input.View())
		b.WriteString("\n")
	case modeDue:
		b.WriteString(dialogStyle.Render(m.renderDueBox()))
		b.WriteString("\n")
	case modeLogin:
		b.WriteString(dialogStyle.Render(m.renderLoginBox()))
		b.WriteString("\n")
	case modeCalendar:
		b.WriteString(dialogStyle.Render(m.renderCalendar()))
		b.WriteString("\n")
	}

	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(subtleStyle.Render(renderHelp(m.cfg.Keys)))
	return b.String()
}

func (m Model) renderHeader() string {
	title := "Todo"
	if d, ok := m.store.Filter(); ok {
		title = fmt.Sprintf("Tasks due %s (%s to reset)", d.At(0, 0, m.loc).Format("Mon, Jan 2 2006"), keyName(m.cfg.Keys.ResetFilter))
	}
	done, total := view.Stats(m.store.Items())
	right := fmt.Sprintf("%d/%d done  %s", done, total, m.clockNow.In(m.loc).Format("Mon Jan 2 15:04"))
	return titleStyle.Render(title) + "  " + subtleStyle.Render(right)
}

func (m Model) renderTaskList() string {
	if !m.proj.HasAny {
		return fmt.Sprintf("No tasks yet. Press '%s' to add one.", m.cfg.Keys.Add)
	}
	var b strings.Builder
	if len(m.proj.Active) == 0 {
		if d, ok := m.store.Filter(); ok {
			b.WriteString(fmt.Sprintf("No tasks due on %s.\n", d))
		} else {
			b.WriteString("Nothing active.\n")
		}
	}
	for i, it := range m.proj.Active {
		b.WriteString(m.renderRow(i, it))
		b.WriteString("\n")
	}

	if m.proj.ArchivedCount > 0 {
		label := fmt.Sprintf("Archived (%d)", m.proj.ArchivedCount)
		if !m.showArchived {
			label += fmt.Sprintf(", %s to show", keyName(m.cfg.Keys.ShowArchived))
		}
		b.WriteString(sectionStyle.Render(label))
		b.WriteString("\n")
	}
	for i, it := range m.proj.Archived {
		b.WriteString(m.renderRow(len(m.proj.Active)+i, it))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderRow(i int, it model.Item) string {
	cursor := " "
	if m.cursor == i && (m.mode == modeList || m.mode == modeConfirmDelete) {
		cursor = cursorStyle.Render(">")
	}
	checkbox := "[ ]"
	if it.Completed {
		checkbox = "[x]"
	}
	text := it.Text
	if it.Completed {
		text = doneStyle.Render(text)
	}
	if m.mode == modeRename && m.renameID == it.ID {
		text = m.input.View()
	}
	return fmt.Sprintf("%s %s %s %s", cursor, checkbox, m.renderBadge(it), text)
}

func (m Model) renderBadge(it model.Item) string {
	badge := view.BadgeFor(it, m.badgeNow.In(m.loc))
	style := badgeStyles[badge]
	due, ok := it.DueAt(m.loc)
	if !ok {
		return style.Render("◷")
	}
	return style.Render(fmt.Sprintf("◷ %s (%s)", due.Format("Jan 2 15:04"), humanize.RelTime(due, m.badgeNow, "ago", "from now")))
}

func (m Model) renderDueBox() string {
	if m.due == nil {
		return ""
	}
	values := []string{m.due.date, m.due.hour, m.due.minute}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Due date for \"" + m.due.text + "\""))
	b.WriteString("\n")
	for i, name := range dueFields() {
		prefix := " "
		val := values[i]
		if i == m.due.index {
			prefix = ">"
			val = m.input.View()
		}
		b.WriteString(fmt.Sprintf("%s %-18s : %s\n", prefix, name, val))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderLoginBox() string {
	if m.login == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in"))
	b.WriteString("\n")
	if m.gate != nil && m.gate.Prompt().Rejected {
		b.WriteString(errorStyle.Render("Credentials rejected, try again"))
		b.WriteString("\n")
	}
	b.WriteString(m.login.username.View())
	b.WriteString("\n")
	b.WriteString(m.login.password.View())
	return b.String()
}

func (m Model) renderCalendar() string {
	var b strings.Builder
	header := m.cal.Header()
	if m.cal.Level() == calendar.LevelDay {
		header = "< " + header + " >"
	}
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n")

	grid := m.cal.Grid(calendar.DueDays(m.store.Items(), m.loc).Has)
	width := 3
	switch m.cal.Level() {
	case calendar.LevelDay:
		for _, l := range m.cal.WeekdayLabels() {
			b.WriteString(fmt.Sprintf("%*s", width, l))
		}
		b.WriteString("\n")
	case calendar.LevelMonth:
		width = 5
	case calendar.LevelYear:
		width = 6
	}
	for _, row := range grid.Rows() {
		for _, c := range row {
			b.WriteString(renderCell(c, width))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderCell(c calendar.Cell, width int) string {
	if c.Blank {
		return strings.Repeat(" ", width)
	}
	label := fmt.Sprintf("%*s", width, c.Label)
	switch {
	case c.Cursor:
		return highlightCell.Render(label)
	case c.Today:
		return todayStyle.Render(label)
	case c.Marked:
		return markedStyle.Render(label)
	case c.Dim:
		return dimStyle.Render(label)
	}
	return label
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s toggle • %s rename • %s due • %s archive • %s show archived • %s calendar • %s export • %s import • %s delete • %s quit",
		k.Up, k.Down, k.Add, keyName(k.Toggle), k.Rename, k.Due, k.Archive, k.ShowArchived, k.Calendar, k.Export, k.Import, k.Delete, k.Quit)
}
