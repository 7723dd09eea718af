package view

import (
	"reflect"
	"testing"
	"time"

	"todoboard/internal/model"
)

func due(t time.Time) *model.MetaData {
	sec := t.Unix()
	return &model.MetaData{DueTime: &sec}
}

func ids(items []model.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestDatedItemsSortBeforeUndated(t *testing.T) {
	items := []model.Item{
		{ID: 1, Text: "A"},
		{ID: 2, Text: "B", MetaData: due(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))},
	}
	p := Project(items, Options{Location: time.UTC})
	if got := ids(p.Active); !reflect.DeepEqual(got, []int64{2, 1}) {
		t.Fatalf("expected dated item first, got %v", got)
	}
}

func TestSortTiebreaks(t *testing.T) {
	at := due(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	items := []model.Item{
		{ID: 1, Text: "z", CreatedAt: "2024-01-02"},
		{ID: 2, Text: "b", CreatedAt: "2024-01-01"},
		{ID: 3, Text: "a", CreatedAt: "2024-01-01"},
		{ID: 4, Text: "late", MetaData: due(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))},
		{ID: 5, Text: "early", MetaData: at, CreatedAt: "2024-03-01"},
	}
	p := Project(items, Options{Location: time.UTC})
	want := []int64{5, 4, 3, 2, 1}
	if got := ids(p.Active); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestProjectIsStable(t *testing.T) {
	items := []model.Item{
		{ID: 3, Text: "same"},
		{ID: 1, Text: "same"},
		{ID: 2, Text: "same"},
	}
	first := Project(items, Options{})
	reversed := []model.Item{items[2], items[1], items[0]}
	second := Project(reversed, Options{})
	if !reflect.DeepEqual(ids(first.Active), ids(second.Active)) {
		t.Fatalf("order depends on input order: %v vs %v", ids(first.Active), ids(second.Active))
	}
	if !reflect.DeepEqual(ids(first.Active), []int64{1, 2, 3}) {
		t.Fatalf("expected id tiebreak, got %v", ids(first.Active))
	}
	if items[0].ID != 3 {
		t.Fatalf("input was reordered")
	}
}

func TestFilterKeepsOnlyItemsDueThatDay(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		t.Skipf("no tz data: %v", err)
	}
	// 2024-05-01 20:00 UTC is already 2024-05-02 in Seoul.
	items := []model.Item{
		{ID: 1, Text: "late utc", MetaData: due(time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC))},
		{ID: 2, Text: "morning", MetaData: due(time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC))},
		{ID: 3, Text: "undated"},
	}
	day := model.Date{Year: 2024, Month: time.May, Day: 2}
	p := Project(items, Options{Filter: &day, Location: seoul})
	if got := ids(p.Active); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("expected only item 1 under filter, got %v", got)
	}
	if !p.HasAny {
		t.Fatalf("expected HasAny for a non-empty collection")
	}
}

func TestArchivePartition(t *testing.T) {
	items := []model.Item{
		{ID: 1, Text: "a"},
		{ID: 2, Text: "b", Archived: true},
		{ID: 3, Text: "c", Archived: true},
	}
	hidden := Project(items, Options{})
	if hidden.Archived != nil || hidden.ArchivedCount != 2 {
		t.Fatalf("expected archived hidden but counted, got %+v", hidden)
	}
	if got := ids(hidden.Active); !reflect.DeepEqual(got, []int64{1}) {
		t.Fatalf("unexpected active %v", got)
	}

	shown := Project(items, Options{ShowArchived: true})
	seen := map[int64]int{}
	for _, it := range append(append([]model.Item{}, shown.Active...), shown.Archived...) {
		seen[it.ID]++
	}
	if len(seen) != 3 {
		t.Fatalf("expected every item exactly once, got %v", seen)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("item %d appears %d times", id, n)
		}
	}
}

func TestEmptyCollection(t *testing.T) {
	p := Project(nil, Options{})
	if p.HasAny || len(p.Active) != 0 {
		t.Fatalf("unexpected projection %+v", p)
	}
}

func TestStats(t *testing.T) {
	items := []model.Item{
		{ID: 1, Completed: true},
		{ID: 2},
		{ID: 3, Completed: true, Archived: true},
	}
	done, total := Stats(items)
	if done != 1 || total != 2 {
		t.Fatalf("expected 1/2, got %d/%d", done, total)
	}
}

func TestBadgeFor(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		item model.Item
		want Badge
	}{
		{"none", model.Item{}, BadgeNone},
		{"overdue", model.Item{MetaData: due(now.Add(-time.Minute))}, BadgeOverdue},
		{"later today", model.Item{MetaData: due(now.Add(3 * time.Hour))}, BadgeToday},
		{"tomorrow", model.Item{MetaData: due(now.Add(13 * time.Hour))}, BadgeFuture},
	}
	for _, tc := range cases {
		if got := BadgeFor(tc.item, now); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}
