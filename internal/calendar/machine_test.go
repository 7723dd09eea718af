package calendar

import (
	"reflect"
	"testing"
	"time"

	"todoboard/internal/clock"
	"todoboard/internal/model"
)

func newMachine(now time.Time, weekStart time.Weekday) *Machine {
	m := New(clock.NewFake(now), weekStart)
	m.Open()
	return m
}

func TestOpenStartsAtToday(t *testing.T) {
	m := newMachine(time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC), time.Sunday)
	if !m.IsOpen() || m.Level() != LevelDay {
		t.Fatalf("expected open day level, got %v %v", m.IsOpen(), m.Level())
	}
	if got := m.Cursor(); got != (Cursor{Year: 2024, Month: time.May, Day: 17}) {
		t.Fatalf("unexpected cursor %+v", got)
	}
	if m.Header() != "May 2024" {
		t.Fatalf("unexpected header %q", m.Header())
	}
}

func TestHeaderClickZoomsOut(t *testing.T) {
	m := newMachine(time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC), time.Sunday)
	m.HeaderClick()
	if m.Level() != LevelMonth || m.Header() != "2024" {
		t.Fatalf("expected month level, got %v %q", m.Level(), m.Header())
	}
	m.HeaderClick()
	if m.Level() != LevelYear || m.Header() != "2020-2029" {
		t.Fatalf("expected year level, got %v %q", m.Level(), m.Header())
	}
	m.HeaderClick()
	if m.Level() != LevelYear {
		t.Fatalf("expected header click at year level to be a no-op")
	}
}

func TestDecadeWindow(t *testing.T) {
	m := newMachine(time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC), time.Sunday)
	m.HeaderClick()
	m.HeaderClick()
	g := m.Grid(nil)
	if g.Columns != 4 || len(g.Cells) != 12 {
		t.Fatalf("expected 12 cells in 4 columns, got %d/%d", len(g.Cells), g.Columns)
	}
	if g.Cells[0].Value != 2019 || g.Cells[11].Value != 2030 {
		t.Fatalf("expected 2019..2030, got %d..%d", g.Cells[0].Value, g.Cells[11].Value)
	}
	for _, c := range g.Cells {
		wantDim := c.Value == 2019 || c.Value == 2030
		if c.Dim != wantDim {
			t.Fatalf("year %d: dim=%v", c.Value, c.Dim)
		}
		if c.Today != (c.Value == 2024) {
			t.Fatalf("year %d: today=%v", c.Value, c.Today)
		}
	}

	m.NextYear()
	if m.Cursor().Year != 2034 || m.Header() != "2030-2039" {
		t.Fatalf("expected decade paging, got %d %q", m.Cursor().Year, m.Header())
	}
	m.PrevYear()
	m.PrevYear()
	if m.Cursor().Year != 2014 {
		t.Fatalf("expected 2014, got %d", m.Cursor().Year)
	}
}

func TestSelectYearThenMonth(t *testing.T) {
	m := newMachine(time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC), time.Sunday)
	m.HeaderClick()
	m.HeaderClick()
	if !m.SelectYear(2021) || m.Level() != LevelMonth || m.Cursor().Year != 2021 {
		t.Fatalf("expected month level for 2021, got %v %+v", m.Level(), m.Cursor())
	}
	// The current month is only marked in the present year.
	for _, c := range m.Grid(nil).Cells {
		if c.Today {
			t.Fatalf("expected no current-month mark in 2021")
		}
	}
	if !m.SelectMonth(time.February) || m.Level() != LevelDay {
		t.Fatalf("expected day level after month pick")
	}
	if got := m.Cursor(); got.Month != time.February || got.Day != 17 {
		t.Fatalf("unexpected cursor %+v", got)
	}
	if m.SelectMonth(time.March) {
		t.Fatalf("expected month selection refused at day level")
	}
}

func TestMonthGridMarksCurrentMonth(t *testing.T) {
	m := newMachine(time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC), time.Sunday)
	m.HeaderClick()
	g := m.Grid(nil)
	if g.Columns != 3 || len(g.Cells) != 12 {
		t.Fatalf("unexpected month grid %d/%d", len(g.Cells), g.Columns)
	}
	for _, c := range g.Cells {
		if c.Today != (c.Value == 5) {
			t.Fatalf("month %d: today=%v", c.Value, c.Today)
		}
	}
	if g.Cells[0].Label != "Jan" {
		t.Fatalf("unexpected label %q", g.Cells[0].Label)
	}
}

func TestMonthNavigationWrapsYear(t *testing.T) {
	m := newMachine(time.Date(2024, 1, 31, 9, 0, 0, 0, time.UTC), time.Sunday)
	m.PrevMonth()
	if got := m.Cursor(); got.Year != 2023 || got.Month != time.December {
		t.Fatalf("expected Dec 2023, got %+v", got)
	}
	m.NextMonth()
	m.NextMonth()
	if got := m.Cursor(); got.Year != 2024 || got.Month != time.February || got.Day != 29 {
		t.Fatalf("expected Feb 29 2024, got %+v", got)
	}

	m.HeaderClick()
	if m.NextMonth() {
		t.Fatalf("expected month paging disabled at month level")
	}
	m.NextYear()
	if m.Cursor().Year != 2025 {
		t.Fatalf("expected one-year step at month level, got %d", m.Cursor().Year)
	}
}

func TestDayGridLeadingBlanks(t *testing.T) {
	// 1 May 2024 is a Wednesday.
	now := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		start time.Weekday
		blank int
	}{
		{time.Sunday, 3},
		{time.Monday, 2},
	} {
		m := newMachine(now, tc.start)
		g := m.Grid(nil)
		blanks := 0
		for _, c := range g.Cells {
			if !c.Blank {
				break
			}
			blanks++
		}
		if blanks != tc.blank {
			t.Fatalf("%v start: expected %d blanks, got %d", tc.start, tc.blank, blanks)
		}
		if len(g.Cells)-blanks != 31 {
			t.Fatalf("expected 31 days, got %d", len(g.Cells)-blanks)
		}
	}
}

func TestDayGridMarks(t *testing.T) {
	now := time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC)
	m := newMachine(now, time.Sunday)
	marks := DaySet{
		{Year: 2024, Month: time.May, Day: 17}: true,
		{Year: 2024, Month: time.May, Day: 20}: true,
	}
	var today, marked []int
	for _, c := range m.Grid(marks.Has).Cells {
		if c.Today {
			today = append(today, c.Value)
		}
		if c.Marked {
			marked = append(marked, c.Value)
		}
	}
	if !reflect.DeepEqual(today, []int{17}) {
		t.Fatalf("unexpected today cells %v", today)
	}
	if !reflect.DeepEqual(marked, []int{20}) {
		t.Fatalf("expected today to take precedence over the due mark, got %v", marked)
	}
}

func TestSelectDayClosesAndReportsDate(t *testing.T) {
	m := newMachine(time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC), time.Sunday)
	m.NextMonth()
	d, ok := m.SelectDay(3)
	if !ok || d != (model.Date{Year: 2024, Month: time.June, Day: 3}) {
		t.Fatalf("unexpected selection %v %v", d, ok)
	}
	if m.IsOpen() {
		t.Fatalf("expected calendar closed after day selection")
	}
	if _, ok := m.SelectDay(3); ok {
		t.Fatalf("expected no selection once closed")
	}
}

func TestSelectDayRejectsOutOfRange(t *testing.T) {
	m := newMachine(time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC), time.Sunday)
	if _, ok := m.SelectDay(30); ok {
		t.Fatalf("expected Feb 30 rejected")
	}
	if !m.IsOpen() {
		t.Fatalf("expected calendar to stay open")
	}
}

func TestTodayResetsFromAnyLevel(t *testing.T) {
	m := newMachine(time.Date(2024, 5, 17, 9, 0, 0, 0, time.UTC), time.Sunday)
	m.HeaderClick()
	m.HeaderClick()
	m.NextYear()
	m.Today()
	if m.Level() != LevelDay || m.Cursor() != (Cursor{Year: 2024, Month: time.May, Day: 17}) {
		t.Fatalf("expected reset to today, got %v %+v", m.Level(), m.Cursor())
	}
}

func TestMoveAndActivate(t *testing.T) {
	m := newMachine(time.Date(2024, 5, 30, 9, 0, 0, 0, time.UTC), time.Sunday)
	m.Move(3)
	if got := m.Cursor(); got.Month != time.June || got.Day != 2 {
		t.Fatalf("expected move across the month end, got %+v", got)
	}
	m.HeaderClick()
	m.Move(-10)
	if m.Cursor().Month != time.January {
		t.Fatalf("expected month highlight clamped, got %v", m.Cursor().Month)
	}
	if _, ok := m.Activate(); ok || m.Level() != LevelDay {
		t.Fatalf("expected month activation to drill down")
	}
	d, ok := m.Activate()
	if !ok || d != (model.Date{Year: 2024, Month: time.January, Day: 2}) {
		t.Fatalf("unexpected activation %v %v", d, ok)
	}
}

func TestDueDaysSkipsArchived(t *testing.T) {
	sec := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC).Unix()
	items := []model.Item{
		{ID: 1, MetaData: &model.MetaData{DueTime: &sec}},
		{ID: 2, Archived: true, MetaData: &model.MetaData{DueTime: &sec}},
		{ID: 3},
	}
	set := DueDays(items, time.UTC)
	if len(set) != 1 || !set.Has(model.Date{Year: 2024, Month: time.May, Day: 20}) {
		t.Fatalf("unexpected set %v", set)
	}
}

func TestWeekdayLabels(t *testing.T) {
	m := New(clock.NewFake(time.Now()), time.Monday)
	got := m.WeekdayLabels()
	if got[0] != "Mo" || got[6] != "Su" {
		t.Fatalf("unexpected labels %v", got)
	}
}
