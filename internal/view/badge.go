package view

import (
	"time"

	"todoboard/internal/model"
)

// Badge is the due-date colouring of an item.
type Badge int

const (
	BadgeNone Badge = iota
	BadgeFuture
	BadgeToday
	BadgeOverdue
)

func (b Badge) String() string {
	switch b {
	case BadgeFuture:
		return "future"
	case BadgeToday:
		return "today"
	case BadgeOverdue:
		return "overdue"
	default:
		return "none"
	}
}

// BadgeFor classifies the item's due time against now, using now's location for
// the calendar day.
func BadgeFor(it model.Item, now time.Time) Badge {
	due, ok := it.DueAt(now.Location())
	if !ok {
		return BadgeNone
	}
	if due.Before(now) {
		return BadgeOverdue
	}
	if model.DateOf(due) == model.DateOf(now) {
		return BadgeToday
	}
	return BadgeFuture
}
