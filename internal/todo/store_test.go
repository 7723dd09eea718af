package todo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"todoboard/internal/api"
	"todoboard/internal/auth"
	"todoboard/internal/config"
	"todoboard/internal/model"
	"todoboard/internal/server"
	"todoboard/internal/session"
)

type fakeRemote struct {
	mu     sync.Mutex
	items  map[int64]model.Item
	nextID int64
	calls  int
	lists  int

	createErr func(d model.Draft) error
	updateErr func(it model.Item) error
}

func newFakeRemote(items ...model.Item) *fakeRemote {
	r := &fakeRemote{items: map[int64]model.Item{}}
	for _, it := range items {
		r.items[it.ID] = it
		if it.ID > r.nextID {
			r.nextID = it.ID
		}
	}
	return r
}

func (r *fakeRemote) List(context.Context) ([]model.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lists++
	out := make([]model.Item, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it)
	}
	return out, nil
}

func (r *fakeRemote) Create(_ context.Context, d model.Draft) (model.Item, error) {
	r.mu.Lock()
	r.calls++
	hook := r.createErr
	r.mu.Unlock()
	if hook != nil {
		if err := hook(d); err != nil {
			return model.Item{}, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	it := model.Item{ID: r.nextID, Text: d.Text, Completed: d.Completed, Archived: d.Archived, MetaData: d.MetaData, CreatedAt: d.CreatedAt}
	r.items[it.ID] = it
	return it, nil
}

func (r *fakeRemote) Update(_ context.Context, it model.Item) error {
	r.mu.Lock()
	r.calls++
	hook := r.updateErr
	r.mu.Unlock()
	if hook != nil {
		if err := hook(it); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.ID] = it
	return nil
}

func (r *fakeRemote) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	delete(r.items, id)
	return nil
}

func (r *fakeRemote) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func loadedStore(t *testing.T, remote Remote) *Store {
	t.Helper()
	s := New(remote, time.UTC)
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return s
}

// liveStore wires a store to a real server over HTTP.
func liveStore(t *testing.T, cfg *config.ServerConfig, sess auth.SessionStore) (*Store, *auth.Gate) {
	t.Helper()
	repo, err := server.OpenRepo(filepath.Join(t.TempDir(), "todos.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}
	srv := httptest.NewServer(server.New(cfg, repo).Handler())
	t.Cleanup(srv.Close)

	gate := auth.New(sess)
	return New(api.NewClient(srv.URL, gate), time.UTC), gate
}

func TestSetDueTimeRejectsBadHourWithoutRequest(t *testing.T) {
	remote := newFakeRemote(model.Item{ID: 1, Text: "pay rent"})
	s := loadedStore(t, remote)
	before := remote.callCount()

	day := model.Date{Year: 2024, Month: time.May, Day: 10}
	err := s.SetDueTime(context.Background(), 1, DueInput{Date: &day, Hour: 25, Minute: 0})
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "hour" {
		t.Fatalf("expected hour validation error, got %v", err)
	}
	if remote.callCount() != before {
		t.Fatalf("expected no request to be sent")
	}
	it, _ := s.Get(1)
	if _, ok := it.DueTime(); ok {
		t.Fatalf("expected no due time on the item")
	}

	err = s.SetDueTime(context.Background(), 1, DueInput{Hour: 9})
	if !IsValidation(err) {
		t.Fatalf("expected missing date to fail validation, got %v", err)
	}
	err = s.SetDueTime(context.Background(), 1, DueInput{Date: &day, Hour: 9, Minute: 60})
	if !IsValidation(err) {
		t.Fatalf("expected minute 60 to fail validation, got %v", err)
	}
}

func TestSetAndClearDueTime(t *testing.T) {
	remote := newFakeRemote(model.Item{ID: 1, Text: "pay rent"})
	s := loadedStore(t, remote)
	ctx := context.Background()

	day := model.Date{Year: 2024, Month: time.May, Day: 10}
	if err := s.SetDueTime(ctx, 1, DueInput{Date: &day, Hour: 14, Minute: 30}); err != nil {
		t.Fatalf("set due: %v", err)
	}
	it, _ := s.Get(1)
	want := time.Date(2024, time.May, 10, 14, 30, 0, 0, time.UTC).Unix()
	if got, ok := it.DueTime(); !ok || got != want {
		t.Fatalf("expected due %d, got %d %v", want, got, ok)
	}

	if err := s.ClearDueTime(ctx, 1); err != nil {
		t.Fatalf("clear due: %v", err)
	}
	it, _ = s.Get(1)
	if _, ok := it.DueTime(); ok {
		t.Fatalf("expected due time cleared")
	}
}

func TestUnknownIDIsValidationError(t *testing.T) {
	remote := newFakeRemote()
	s := loadedStore(t, remote)
	before := remote.callCount()

	ctx := context.Background()
	for name, err := range map[string]error{
		"toggle":  s.ToggleComplete(ctx, 42),
		"archive": s.Archive(ctx, 42),
		"rename":  s.Rename(ctx, 42, "x"),
		"remove":  s.Remove(ctx, 42),
	} {
		if !IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
	if remote.callCount() != before {
		t.Fatalf("expected no requests for unknown ids")
	}
}

func TestBlankTextIsIgnored(t *testing.T) {
	remote := newFakeRemote(model.Item{ID: 1, Text: "keep"})
	s := loadedStore(t, remote)
	before := remote.callCount()

	created, err := s.Create(context.Background(), "   ")
	if err != nil || created != nil {
		t.Fatalf("expected blank create to be a no-op, got %v %v", created, err)
	}
	if err := s.Rename(context.Background(), 1, ""); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if remote.callCount() != before {
		t.Fatalf("expected no requests for blank text")
	}
	if it, _ := s.Get(1); it.Text != "keep" {
		t.Fatalf("expected text unchanged, got %q", it.Text)
	}
}

func TestFailedUpdateLeavesItemUnchanged(t *testing.T) {
	remote := newFakeRemote(model.Item{ID: 1, Text: "a"})
	s := loadedStore(t, remote)
	remote.updateErr = func(model.Item) error {
		return &api.StatusError{Method: http.MethodPut, Path: "/api/todos/1", Status: http.StatusInternalServerError}
	}

	err := s.ToggleComplete(context.Background(), 1)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failure, got %v", err)
	}
	var rf *RequestFailedError
	if !errors.As(err, &rf) || rf.Status != http.StatusInternalServerError {
		t.Fatalf("expected status 500 in error, got %v", err)
	}
	if it, _ := s.Get(1); it.Completed {
		t.Fatalf("expected item not toggled")
	}
}

func TestConcurrentEditsLastResponseWins(t *testing.T) {
	remote := newFakeRemote(model.Item{ID: 1, Text: "start"})
	s := loadedStore(t, remote)

	release := map[string]chan struct{}{
		"first":  make(chan struct{}),
		"second": make(chan struct{}),
	}
	remote.updateErr = func(it model.Item) error {
		<-release[it.Text]
		return nil
	}

	var wg sync.WaitGroup
	done := map[string]chan struct{}{
		"first":  make(chan struct{}),
		"second": make(chan struct{}),
	}
	for _, text := range []string{"first", "second"} {
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			defer close(done[text])
			if err := s.Rename(context.Background(), 1, text); err != nil {
				t.Errorf("rename %s: %v", text, err)
			}
		}(text)
	}

	close(release["second"])
	<-done["second"]
	close(release["first"])
	wg.Wait()

	if it, _ := s.Get(1); it.Text != "first" {
		t.Fatalf("expected the later response to win, got %q", it.Text)
	}
}

func TestTogglesInFlightApplyTheSentState(t *testing.T) {
	remote := newFakeRemote(model.Item{ID: 1, Text: "a"})
	s := loadedStore(t, remote)

	entered := make(chan struct{}, 2)
	release := make(chan struct{})
	remote.updateErr = func(it model.Item) error {
		if !it.Completed {
			t.Errorf("expected both requests to send completed")
		}
		entered <- struct{}{}
		<-release
		return nil
	}
	errc := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errc <- s.ToggleComplete(context.Background(), 1) }()
	}
	<-entered
	<-entered
	close(release)
	for i := 0; i < 2; i++ {
		if err := <-errc; err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}
	if it, _ := s.Get(1); !it.Completed {
		t.Fatalf("expected local state to match what the server accepted")
	}
}

func TestLateToggleKeepsConcurrentRename(t *testing.T) {
	remote := newFakeRemote(model.Item{ID: 1, Text: "draft"})
	s := loadedStore(t, remote)

	entered := make(chan struct{})
	release := make(chan struct{})
	remote.updateErr = func(it model.Item) error {
		if it.Completed {
			close(entered)
			<-release
		}
		return nil
	}
	errc := make(chan error, 1)
	go func() { errc <- s.ToggleComplete(context.Background(), 1) }()
	<-entered
	if err := s.Rename(context.Background(), 1, "final"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if it, _ := s.Get(1); it.Text != "final" || !it.Completed {
		t.Fatalf("expected rename kept and item completed, got %+v", it)
	}
}

func TestRemoveDropsLateUpdate(t *testing.T) {
	remote := newFakeRemote(model.Item{ID: 1, Text: "gone soon"})
	s := loadedStore(t, remote)

	entered := make(chan struct{})
	release := make(chan struct{})
	remote.updateErr = func(model.Item) error {
		close(entered)
		<-release
		return nil
	}
	errc := make(chan error, 1)
	go func() { errc <- s.ToggleComplete(context.Background(), 1) }()
	<-entered
	if err := s.Remove(context.Background(), 1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if _, ok := s.Get(1); ok {
		t.Fatalf("expected removed item to stay removed")
	}
}

func TestImportReplaysInReverseAndCountsFailures(t *testing.T) {
	remote := newFakeRemote()
	s := loadedStore(t, remote)
	remote.createErr = func(d model.Draft) error {
		if d.Text == "broken" {
			return &api.StatusError{Method: http.MethodPost, Path: "/api/todos", Status: http.StatusUnprocessableEntity}
		}
		return nil
	}

	drafts := []model.Draft{{Text: "newest"}, {Text: "broken"}, {Text: "oldest"}}
	res, err := s.ImportBatch(context.Background(), drafts)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Total != 3 || res.Imported != 2 || res.Failed != 1 || res.AuthHalted {
		t.Fatalf("unexpected result %+v", res)
	}
	items := s.Items()
	if len(items) != 2 || items[0].Text != "oldest" || items[1].Text != "newest" {
		t.Fatalf("expected oldest created first, got %+v", items)
	}
}

func TestImportHaltsOnAuth(t *testing.T) {
	remote := newFakeRemote()
	s := loadedStore(t, remote)
	n := 0
	remote.createErr = func(model.Draft) error {
		n++
		if n == 2 {
			return api.ErrUnauthorized
		}
		return nil
	}
	lists := remote.lists

	res, err := s.ImportBatch(context.Background(), []model.Draft{{Text: "a"}, {Text: "b"}, {Text: "c"}})
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if !res.AuthHalted || res.Imported != 1 || n != 2 {
		t.Fatalf("expected halt after second record, got %+v (calls %d)", res, n)
	}
	if remote.lists != lists+1 {
		t.Fatalf("expected a refresh after a partial import")
	}
}

func TestImportNothingSkipsRefresh(t *testing.T) {
	remote := newFakeRemote()
	s := loadedStore(t, remote)
	lists := remote.lists
	if _, err := s.ImportBatch(context.Background(), nil); err != nil {
		t.Fatalf("import: %v", err)
	}
	if remote.lists != lists {
		t.Fatalf("expected no refresh when nothing was imported")
	}
}

func TestFilter(t *testing.T) {
	s := New(newFakeRemote(), nil)
	if _, ok := s.Filter(); ok {
		t.Fatalf("expected no filter initially")
	}
	day := model.Date{Year: 2024, Month: time.March, Day: 3}
	s.SetFilter(day)
	if got, ok := s.Filter(); !ok || got != day {
		t.Fatalf("expected filter %v, got %v %v", day, got, ok)
	}
	s.ResetFilter()
	if _, ok := s.Filter(); ok {
		t.Fatalf("expected filter cleared")
	}
}

func TestLiveUnauthorizedWithoutCredential(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	s, gate := liveStore(t, cfg, &session.Memory{})

	if err := s.Refresh(context.Background()); !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected auth required, got %v", err)
	}
	p := gate.Prompt()
	if !p.Open || p.Rejected {
		t.Fatalf("expected plain login prompt, got %+v", p)
	}

	gate.Login("u", "p")
	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after login: %v", err)
	}
	if gate.Prompt().Open {
		t.Fatalf("expected prompt closed after a successful request")
	}
}

func TestLiveRejectedCredentialClearsSession(t *testing.T) {
	cfg := config.DefaultServerConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	sess := &session.Memory{}
	_ = sess.Save(auth.Token("u", "wrong"))
	s, gate := liveStore(t, cfg, sess)

	_, err := s.Create(context.Background(), "x")
	if !errors.Is(err, ErrAuthRequired) {
		t.Fatalf("expected auth required, got %v", err)
	}
	if !gate.Prompt().Rejected {
		t.Fatalf("expected rejected indicator")
	}
	if tok, _ := sess.Load(); tok != "" {
		t.Fatalf("expected stored session cleared")
	}
	if s.Len() != 0 {
		t.Fatalf("expected nothing created locally")
	}
}

func TestLiveExportImportRoundTrip(t *testing.T) {
	src, _ := liveStore(t, nil, nil)
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		if _, err := src.Create(ctx, text); err != nil {
			t.Fatalf("create %s: %v", text, err)
		}
	}
	exported := src.ExportAll()
	if exported[0].Text != "three" {
		t.Fatalf("expected newest first, got %+v", exported)
	}

	drafts := make([]model.Draft, 0, len(exported))
	for _, it := range exported {
		drafts = append(drafts, model.Draft{Text: it.Text, Completed: it.Completed, Archived: it.Archived, MetaData: it.MetaData, CreatedAt: it.CreatedAt})
	}
	dst, _ := liveStore(t, nil, nil)
	res, err := dst.ImportBatch(ctx, drafts)
	if err != nil || res.Imported != 3 {
		t.Fatalf("import: %+v %v", res, err)
	}
	got := dst.ExportAll()
	for i := range exported {
		if got[i].Text != exported[i].Text || got[i].CreatedAt != exported[i].CreatedAt {
			t.Fatalf("record %d differs: %+v vs %+v", i, got[i], exported[i])
		}
	}
}
