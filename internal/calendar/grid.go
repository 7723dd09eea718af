package calendar

import (
	"strconv"
	"time"

	"todoboard/internal/model"
)

// Cell is one slot of a grid.
type Cell struct {
	Label string
	// Value is the day, month number or year the cell stands for.
	Value int
	// Blank cells pad the first week of the day grid.
	Blank bool
	// Today marks the present day, month or year.
	Today bool
	// Marked flags a day with something due. Today takes precedence.
	Marked bool
	// Dim flags year cells outside the nominal decade.
	Dim bool
	// Cursor flags the highlighted cell.
	Cursor bool
}

type Grid struct {
	Columns int
	Cells   []Cell
}

// Rows splits the cells into rows of Columns.
func (g Grid) Rows() [][]Cell {
	var rows [][]Cell
	for i := 0; i < len(g.Cells); i += g.Columns {
		end := i + g.Columns
		if end > len(g.Cells) {
			end = len(g.Cells)
		}
		rows = append(rows, g.Cells[i:end])
	}
	return rows
}

// Grid renders the current level. marked may be nil.
func (m *Machine) Grid(marked func(model.Date) bool) Grid {
	switch m.level {
	case LevelMonth:
		return m.monthGrid()
	case LevelYear:
		return m.yearGrid()
	default:
		return m.dayGrid(marked)
	}
}

func (m *Machine) dayGrid(marked func(model.Date) bool) Grid {
	today := m.today()
	first := time.Date(m.cursor.Year, m.cursor.Month, 1, 0, 0, 0, 0, time.UTC)
	lead := (int(first.Weekday()) - int(m.weekStart) + 7) % 7

	g := Grid{Columns: 7}
	for i := 0; i < lead; i++ {
		g.Cells = append(g.Cells, Cell{Blank: true})
	}
	for day := 1; day <= daysIn(m.cursor.Year, m.cursor.Month); day++ {
		d := model.Date{Year: m.cursor.Year, Month: m.cursor.Month, Day: day}
		c := Cell{
			Label:  strconv.Itoa(day),
			Value:  day,
			Today:  d == today,
			Cursor: day == m.cursor.Day,
		}
		if !c.Today && marked != nil {
			c.Marked = marked(d)
		}
		g.Cells = append(g.Cells, c)
	}
	return g
}

func (m *Machine) monthGrid() Grid {
	today := m.today()
	g := Grid{Columns: 3}
	for mo := time.January; mo <= time.December; mo++ {
		g.Cells = append(g.Cells, Cell{
			Label:  mo.String()[:3],
			Value:  int(mo),
			Today:  m.cursor.Year == today.Year && mo == today.Month,
			Cursor: mo == m.cursor.Month,
		})
	}
	return g
}

func (m *Machine) yearGrid() Grid {
	today := m.today()
	start := decadeStart(m.cursor.Year)
	g := Grid{Columns: 4}
	for y := start - 1; y <= start+10; y++ {
		g.Cells = append(g.Cells, Cell{
			Label:  strconv.Itoa(y),
			Value:  y,
			Today:  y == today.Year,
			Dim:    y < start || y > start+9,
			Cursor: y == m.cursor.Year,
		})
	}
	return g
}

// WeekdayLabels returns two-letter weekday names starting at the week start.
func (m *Machine) WeekdayLabels() []string {
	out := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, time.Weekday((int(m.weekStart)+i)%7).String()[:2])
	}
	return out
}

// DaySet is the set of days that have something due.
type DaySet map[model.Date]bool

func (s DaySet) Has(d model.Date) bool { return s[d] }

// DueDays collects the due days of non-archived items.
func DueDays(items []model.Item, loc *time.Location) DaySet {
	set := DaySet{}
	for _, it := range items {
		if it.Archived {
			continue
		}
		if d, ok := it.DueDate(loc); ok {
			set[d] = true
		}
	}
	return set
}
