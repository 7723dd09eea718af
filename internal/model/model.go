package model

import (
	"fmt"
	"time"
)

// Item is a todo as served by the remote API.
type Item struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Archived  bool      `json:"archived"`
	MetaData  *MetaData `json:"meta_data,omitempty"`
	// CreatedAt is an opaque server timestamp, compared only as a string.
	CreatedAt string `json:"createdAt,omitempty"`
}

// MetaData carries optional per-item attributes. DueTime is epoch seconds (UTC).
type MetaData struct {
	DueTime *int64 `json:"dueTime,omitempty"`
}

// Draft is the body of a create request.
type Draft struct {
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	Archived  bool      `json:"archived"`
	MetaData  *MetaData `json:"meta_data,omitempty"`
	CreatedAt string    `json:"createdAt,omitempty"`
}

// DueTime returns the due time in epoch seconds, if one is set.
func (it Item) DueTime() (int64, bool) {
	if it.MetaData == nil || it.MetaData.DueTime == nil {
		return 0, false
	}
	return *it.MetaData.DueTime, true
}

// DueAt returns the due time as an instant in loc.
func (it Item) DueAt(loc *time.Location) (time.Time, bool) {
	sec, ok := it.DueTime()
	if !ok {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(sec, 0).In(loc), true
}

// DueDate returns the local calendar day the item is due on.
func (it Item) DueDate(loc *time.Location) (Date, bool) {
	at, ok := it.DueAt(loc)
	if !ok {
		return Date{}, false
	}
	return DateOf(at), true
}

// WithDueTime returns a copy of the meta data with the due time replaced.
// A nil sec clears it.
func (m *MetaData) WithDueTime(sec *int64) *MetaData {
	out := &MetaData{}
	if m != nil {
		*out = *m
	}
	if sec == nil {
		out.DueTime = nil
		return out
	}
	v := *sec
	out.DueTime = &v
	return out
}

// Clone returns a deep copy of the item.
func (it Item) Clone() Item {
	if it.MetaData != nil {
		it.MetaData = it.MetaData.WithDueTime(it.MetaData.DueTime)
	}
	return it
}

// Date is a calendar day without a time or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// At returns the instant hour:minute on d in loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
