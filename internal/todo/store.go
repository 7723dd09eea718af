// Package todo owns the in-memory todo collection and keeps it consistent
// with the remote API.
package todo

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"todoboard/internal/api"
	"todoboard/internal/log"
	"todoboard/internal/model"
)

// Remote is the todo API.
type Remote interface {
	List(ctx context.Context) ([]model.Item, error)
	Create(ctx context.Context, d model.Draft) (model.Item, error)
	Update(ctx context.Context, it model.Item) error
	Delete(ctx context.Context, id int64) error
}

// Store is the collection of todos keyed by id, plus the date filter.
//
// Every mutation sends its request first and touches local state only after
// a success response. Two in-flight edits of the same item are not ordered:
// whichever response arrives last is what the collection shows.
type Store struct {
	remote Remote
	loc    *time.Location

	mu     sync.Mutex
	items  map[int64]model.Item
	filter *model.Date
}

func New(remote Remote, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		remote: remote,
		loc:    loc,
		items:  map[int64]model.Item{},
	}
}

// Location is the zone due dates are interpreted in.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Refresh replaces the collection with the server's list.
func (s *Store) Refresh(ctx context.Context) error {
	items, err := s.remote.List(ctx)
	if err != nil {
		return s.translate("list", 0, err)
	}
	next := make(map[int64]model.Item, len(items))
	for _, it := range items {
		next[it.ID] = it
	}
	s.mu.Lock()
	s.items = next
	s.mu.Unlock()
	return nil
}

// Create adds a todo. Blank text is ignored and returns (nil, nil).
func (s *Store) Create(ctx context.Context, text string) (*model.Item, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	created, err := s.remote.Create(ctx, model.Draft{Text: text})
	if err != nil {
		return nil, s.translate("create", 0, err)
	}
	s.mu.Lock()
	s.items[created.ID] = created
	s.mu.Unlock()
	return &created, nil
}

// ToggleComplete flips the completed flag as seen now. The new value is
// fixed before the request goes out, so a late response sets it rather than
// flipping whatever is local by then.
func (s *Store) ToggleComplete(ctx context.Context, id int64) error {
	cur, ok := s.Get(id)
	if !ok {
		return unknownItem(id)
	}
	completed := !cur.Completed
	return s.update(ctx, "toggle", id, func(it *model.Item) {
		it.Completed = completed
	})
}

func (s *Store) Archive(ctx context.Context, id int64) error {
	return s.update(ctx, "archive", id, func(it *model.Item) {
		it.Archived = true
	})
}

func (s *Store) Unarchive(ctx context.Context, id int64) error {
	return s.update(ctx, "unarchive", id, func(it *model.Item) {
		it.Archived = false
	})
}

// Rename changes the text. Blank text is ignored, as for Create.
func (s *Store) Rename(ctx context.Context, id int64, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.update(ctx, "rename", id, func(it *model.Item) {
		it.Text = text
	})
}

// DueInput is the due-date dialog's content.
type DueInput struct {
	Date   *model.Date
	Hour   int
	Minute int
}

// Validate checks the input and returns the due time in epoch seconds.
func (in DueInput) Validate(loc *time.Location) (int64, error) {
	if in.Date == nil || in.Date.IsZero() {
		return 0, &ValidationError{Field: "date", Reason: "a date is required"}
	}
	if in.Hour < 0 || in.Hour > 23 {
		return 0, &ValidationError{Field: "hour", Reason: "must be between 0 and 23"}
	}
	if in.Minute < 0 || in.Minute > 59 {
		return 0, &ValidationError{Field: "minute", Reason: "must be between 0 and 59"}
	}
	return in.Date.At(in.Hour, in.Minute, loc).Unix(), nil
}

func (s *Store) SetDueTime(ctx context.Context, id int64, in DueInput) error {
	sec, err := in.Validate(s.loc)
	if err != nil {
		return err
	}
	return s.update(ctx, "set due", id, func(it *model.Item) {
		it.MetaData = it.MetaData.WithDueTime(&sec)
	})
}

func (s *Store) ClearDueTime(ctx context.Context, id int64) error {
	return s.update(ctx, "clear due", id, func(it *model.Item) {
		it.MetaData = it.MetaData.WithDueTime(nil)
	})
}

func (s *Store) Remove(ctx context.Context, id int64) error {
	if _, ok := s.Get(id); !ok {
		return unknownItem(id)
	}
	if err := s.remote.Delete(ctx, id); err != nil {
		return s.translate("delete", id, err)
	}
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// update PUTs the item with set applied and, on success, applies set again to
// whatever the item looks like locally by then. set must only assign fields,
// so applying it twice yields the state that was sent. op labels errors.
func (s *Store) update(ctx context.Context, op string, id int64, set func(*model.Item)) error {
	cur, ok := s.Get(id)
	if !ok {
		return unknownItem(id)
	}
	next := cur.Clone()
	set(&next)
	if err := s.remote.Update(ctx, next); err != nil {
		return s.translate(op, id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	local, ok := s.items[id]
	if !ok {
		// Removed while the request was in flight.
		return nil
	}
	local = local.Clone()
	set(&local)
	s.items[id] = local
	return nil
}

// ImportResult summarises an import replay.
type ImportResult struct {
	Total      int
	Imported   int
	Failed     int
	AuthHalted bool
}

// ImportBatch replays drafts as creations, last record first, so a
// newest-first export comes back in its original chronological order.
// Failed records are counted and skipped; an auth failure stops the replay.
// The collection is reloaded when anything was imported.
func (s *Store) ImportBatch(ctx context.Context, drafts []model.Draft) (ImportResult, error) {
	res := ImportResult{Total: len(drafts)}
	for i := len(drafts) - 1; i >= 0; i-- {
		_, err := s.remote.Create(ctx, drafts[i])
		if err == nil {
			res.Imported++
			continue
		}
		if errors.Is(s.translate("import", 0, err), ErrAuthRequired) {
			res.AuthHalted = true
			break
		}
		res.Failed++
	}
	log.Info("import finished", "total", res.Total, "imported", res.Imported, "failed", res.Failed, "auth_halted", res.AuthHalted)

	if res.Imported > 0 {
		if err := s.Refresh(ctx); err != nil {
			return res, err
		}
	}
	if res.AuthHalted {
		return res, ErrAuthRequired
	}
	return res, nil
}

// ExportAll returns the whole collection, newest first.
func (s *Store) ExportAll() []model.Item {
	items := s.Items()
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items
}

// Items returns a copy of the collection ordered by id.
func (s *Store) Items() []model.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Item, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, it.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Get(id int64) (model.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[id]
	if !ok {
		return model.Item{}, false
	}
	return it.Clone(), true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// SetFilter restricts the view to items due on d.
func (s *Store) SetFilter(d model.Date) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = &d
}

func (s *Store) ResetFilter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = nil
}

func (s *Store) Filter() (model.Date, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filter == nil {
		return model.Date{}, false
	}
	return *s.filter, true
}

func (s *Store) translate(op string, id int64, err error) error {
	if errors.Is(err, api.ErrUnauthorized) {
		log.Info("request needs authentication", "op", op, "id", id)
		return ErrAuthRequired
	}
	log.Error("request failed", err, "op", op, "id", id)
	var se *api.StatusError
	if errors.As(err, &se) {
		return &RequestFailedError{Op: op, Status: se.Status, Err: err}
	}
	return &RequestFailedError{Op: op, Err: err}
}

func unknownItem(id int64) error {
	return &ValidationError{Field: "id", Reason: "no todo with id " + strconv.FormatInt(id, 10)}
}
