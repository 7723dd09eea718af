// Package calendar is the day/month/year navigation state behind the
// calendar overlay.
package calendar

import (
	"fmt"
	"time"

	"todoboard/internal/clock"
	"todoboard/internal/model"
)

type Level int

const (
	LevelDay Level = iota
	LevelMonth
	LevelYear
)

func (l Level) String() string {
	switch l {
	case LevelMonth:
		return "month"
	case LevelYear:
		return "year"
	default:
		return "day"
	}
}

// Cursor is the navigation position. Day is the highlighted day in the
// day grid and 0 when none is highlighted.
type Cursor struct {
	Year  int
	Month time.Month
	Day   int
}

// Machine tracks the cursor and level of one calendar opening. The state
// is reset on Open and discarded on Close.
type Machine struct {
	clock     clock.Clock
	weekStart time.Weekday

	open   bool
	level  Level
	cursor Cursor
}

func New(c clock.Clock, weekStart time.Weekday) *Machine {
	return &Machine{clock: c, weekStart: weekStart}
}

func (m *Machine) today() model.Date {
	return model.DateOf(m.clock.Now())
}

// Open shows the calendar at today's month, day level.
func (m *Machine) Open() {
	m.open = true
	m.Today()
}

func (m *Machine) Close() {
	m.open = false
	m.level = LevelDay
	m.cursor = Cursor{}
}

func (m *Machine) IsOpen() bool { return m.open }

func (m *Machine) Level() Level { return m.level }

func (m *Machine) Cursor() Cursor { return m.cursor }

func (m *Machine) WeekStart() time.Weekday { return m.weekStart }

// Today jumps to the current date at day level.
func (m *Machine) Today() {
	t := m.today()
	m.cursor = Cursor{Year: t.Year, Month: t.Month, Day: t.Day}
	m.level = LevelDay
}

// Header is the label of the current level.
func (m *Machine) Header() string {
	switch m.level {
	case LevelMonth:
		return fmt.Sprintf("%d", m.cursor.Year)
	case LevelYear:
		start := decadeStart(m.cursor.Year)
		return fmt.Sprintf("%d-%d", start, start+9)
	default:
		return fmt.Sprintf("%s %d", m.cursor.Month, m.cursor.Year)
	}
}

// HeaderClick zooms out one level. It is a no-op at year level.
func (m *Machine) HeaderClick() {
	switch m.level {
	case LevelDay:
		m.level = LevelMonth
	case LevelMonth:
		m.level = LevelYear
	}
}

// SelectDay picks a day of the cursor month at day level. The calendar
// closes and the picked date is returned.
func (m *Machine) SelectDay(day int) (model.Date, bool) {
	if !m.open || m.level != LevelDay {
		return model.Date{}, false
	}
	if day < 1 || day > daysIn(m.cursor.Year, m.cursor.Month) {
		return model.Date{}, false
	}
	picked := model.Date{Year: m.cursor.Year, Month: m.cursor.Month, Day: day}
	m.Close()
	return picked, true
}

// SelectMonth sets the month and drills down to the day grid.
func (m *Machine) SelectMonth(month time.Month) bool {
	if m.level != LevelMonth || month < time.January || month > time.December {
		return false
	}
	m.cursor.Month = month
	m.clampDay()
	m.level = LevelDay
	return true
}

// SelectYear sets the year and drills down to the month grid.
func (m *Machine) SelectYear(year int) bool {
	if m.level != LevelYear {
		return false
	}
	m.cursor.Year = year
	m.clampDay()
	m.level = LevelMonth
	return true
}

// PrevMonth and NextMonth only work at day level.
func (m *Machine) PrevMonth() bool { return m.shiftMonth(-1) }

func (m *Machine) NextMonth() bool { return m.shiftMonth(1) }

func (m *Machine) shiftMonth(delta int) bool {
	if m.level != LevelDay {
		return false
	}
	months := m.cursor.Year*12 + int(m.cursor.Month-1) + delta
	m.cursor.Year = floorDiv(months, 12)
	m.cursor.Month = time.Month(months-m.cursor.Year*12) + 1
	m.clampDay()
	return true
}

// PrevYear and NextYear page by one year, or by a decade at year level.
func (m *Machine) PrevYear() { m.shiftYear(-1) }

func (m *Machine) NextYear() { m.shiftYear(1) }

func (m *Machine) shiftYear(dir int) {
	step := 1
	if m.level == LevelYear {
		step = 10
	}
	m.cursor.Year += dir * step
	m.clampDay()
}

// Move shifts the highlight: by days at day level, months at month level
// and years at year level. The month highlight stays inside its year and
// the year highlight inside the visible window.
func (m *Machine) Move(delta int) {
	switch m.level {
	case LevelDay:
		day := m.cursor.Day
		if day == 0 {
			day = 1
		}
		t := time.Date(m.cursor.Year, m.cursor.Month, day+delta, 12, 0, 0, 0, time.UTC)
		m.cursor = Cursor{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	case LevelMonth:
		mo := int(m.cursor.Month) + delta
		if mo < 1 {
			mo = 1
		}
		if mo > 12 {
			mo = 12
		}
		m.cursor.Month = time.Month(mo)
	case LevelYear:
		start := decadeStart(m.cursor.Year)
		y := m.cursor.Year + delta
		if y < start-1 {
			y = start - 1
		}
		if y > start+10 {
			y = start + 10
		}
		m.cursor.Year = y
	}
}

// Activate selects the highlighted cell. At day level it reports the
// picked date.
func (m *Machine) Activate() (model.Date, bool) {
	switch m.level {
	case LevelMonth:
		m.SelectMonth(m.cursor.Month)
	case LevelYear:
		m.SelectYear(m.cursor.Year)
	default:
		return m.SelectDay(m.cursor.Day)
	}
	return model.Date{}, false
}

func (m *Machine) clampDay() {
	if m.cursor.Day == 0 {
		return
	}
	if n := daysIn(m.cursor.Year, m.cursor.Month); m.cursor.Day > n {
		m.cursor.Day = n
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func decadeStart(year int) int {
	return floorDiv(year, 10) * 10
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
