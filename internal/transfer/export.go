// Package transfer reads and writes todo backups.
package transfer

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	"todoboard/internal/model"
)

// ErrNothingToExport is returned for an empty collection.
var ErrNothingToExport = errors.New("nothing to export")

// ExportFileName is the backup name for the day of now.
func ExportFileName(now time.Time) string {
	return "todo_backup_" + now.Format("2006-01-02") + ".json"
}

// ExportJSON renders items as an indented JSON array.
func ExportJSON(items []model.Item) ([]byte, error) {
	if len(items) == 0 {
		return nil, ErrNothingToExport
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// ICSEventLength is the duration given to exported due events.
const ICSEventLength = 30 * time.Minute

// ExportICS renders every item with a due time as a VEVENT. Items without
// one are skipped; ErrNothingToExport is returned when none remain.
func ExportICS(items []model.Item, now time.Time) ([]byte, error) {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//todoboard//todo export//EN")

	n := 0
	for _, it := range items {
		due, ok := it.DueAt(time.UTC)
		if !ok {
			continue
		}
		ev := cal.AddEvent("todo-" + strconv.FormatInt(it.ID, 10) + "@todoboard")
		ev.SetDtStampTime(now.UTC())
		ev.SetStartAt(due)
		ev.SetEndAt(due.Add(ICSEventLength))
		ev.SetSummary(it.Text)
		if it.Completed {
			ev.SetDescription("completed")
		}
		n++
	}
	if n == 0 {
		return nil, ErrNothingToExport
	}
	return []byte(cal.Serialize()), nil
}
