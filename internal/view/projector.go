// Package view derives the ordered, filtered display lists from the todo
// collection. Nothing here mutates its input.
package view

import (
	"math"
	"sort"
	"time"

	"todoboard/internal/model"
)

type Options struct {
	// Filter restricts the output to items due on that local day.
	Filter       *model.Date
	ShowArchived bool
	Location     *time.Location
}

type Projection struct {
	Active []model.Item
	// Archived is nil unless Options.ShowArchived is set.
	Archived []model.Item
	// HasAny reports whether the collection is non-empty before filtering.
	HasAny bool
	// ArchivedCount counts archived items after filtering, shown or not.
	ArchivedCount int
}

// Project sorts, filters and partitions items.
func Project(items []model.Item, opts Options) Projection {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	sorted := make([]model.Item, len(items))
	copy(sorted, items)
	Sort(sorted)

	p := Projection{HasAny: len(items) > 0, Active: []model.Item{}}
	if opts.ShowArchived {
		p.Archived = []model.Item{}
	}
	for _, it := range sorted {
		if opts.Filter != nil {
			day, ok := it.DueDate(loc)
			if !ok || day != *opts.Filter {
				continue
			}
		}
		if !it.Archived {
			p.Active = append(p.Active, it)
			continue
		}
		p.ArchivedCount++
		if opts.ShowArchived {
			p.Archived = append(p.Archived, it)
		}
	}
	return p
}

// Sort orders items by due time (undated last), then createdAt, then text.
// The id breaks any remaining tie so the order is total.
func Sort(items []model.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
}

func less(a, b model.Item) bool {
	da, db := dueKey(a), dueKey(b)
	if da != db {
		return da < db
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	if a.Text != b.Text {
		return a.Text < b.Text
	}
	return a.ID < b.ID
}

func dueKey(it model.Item) int64 {
	if sec, ok := it.DueTime(); ok {
		return sec
	}
	return math.MaxInt64
}

// Stats counts completed and total items, ignoring archived ones.
func Stats(items []model.Item) (completed, total int) {
	for _, it := range items {
		if it.Archived {
			continue
		}
		total++
		if it.Completed {
			completed++
		}
	}
	return completed, total
}
