package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
)

type memStore struct {
	mu        sync.Mutex
	seq       int
	rows      []domain.HistoryEntry
	listErr   error
	createErr error
	failIDs   map[string]bool
}

func (m *memStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.HistoryEntry, 0, len(m.rows))
	for i := len(m.rows) - 1; i >= 0; i-- {
		out = append(out, m.rows[i])
	}
	return out, nil
}

func (m *memStore) Create(ctx context.Context, r domain.GenerationResult) (domain.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return domain.HistoryEntry{}, m.createErr
	}
	m.seq++
	e := domain.HistoryEntry{ID: fmt.Sprintf("id-%d", m.seq), GenerationResult: r}
	m.rows = append(m.rows, e)
	return e, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[id] {
		return errors.New("store unavailable")
	}
	for i, e := range m.rows {
		if e.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			break
		}
	}
	return nil
}

type bulkStore struct {
	memStore
	bulkCalls int
}

func (b *bulkStore) DeleteAll(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bulkCalls++
	b.rows = nil
	return nil
}

func summary(t *testing.T, text string) domain.GenerationResult {
	t.Helper()
	r, err := domain.NewSummaryResult(text, "https://example.com/"+text)
	if err != nil {
		t.Fatalf("NewSummaryResult: %v", err)
	}
	return r
}

func ids(entries []domain.HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestCreateOrdersNewestFirst(t *testing.T) {
	store := &memStore{}
	s := NewSynchronizer(store, infra.DiscardLogger())
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C"} {
		if _, err := s.Create(ctx, summary(t, name)); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}
	if got := ids(s.Entries()); fmt.Sprint(got) != "[id-3 id-2 id-1]" {
		t.Fatalf("cached order = %v", got)
	}
	listed, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got := ids(listed); fmt.Sprint(got) != "[id-3 id-2 id-1]" {
		t.Fatalf("listed order = %v", got)
	}
	if listed[0].Text != "C" {
		t.Fatalf("head = %+v", listed[0])
	}
}

func TestCreateFailureLeavesCacheUntouched(t *testing.T) {
	store := &memStore{createErr: errors.New("boom")}
	s := NewSynchronizer(store, infra.DiscardLogger())
	if _, err := s.Create(context.Background(), summary(t, "A")); !errors.Is(err, domain.ErrStore) {
		t.Fatalf("err = %v, want ErrStore", err)
	}
	if len(s.Entries()) != 0 {
		t.Fatal("failed create must not be cached")
	}
}

func TestCreateRejectsInvalidResult(t *testing.T) {
	store := &memStore{}
	s := NewSynchronizer(store, infra.DiscardLogger())
	_, err := s.Create(context.Background(), domain.GenerationResult{Type: domain.ResultImage, Prompt: "x"})
	if !errors.Is(err, domain.ErrEmptyResult) {
		t.Fatalf("err = %v, want ErrEmptyResult", err)
	}
	if store.seq != 0 {
		t.Fatal("invalid result reached the store")
	}
}

func TestDeleteMissingIDIsNoop(t *testing.T) {
	store := &memStore{}
	s := NewSynchronizer(store, infra.DiscardLogger())
	ctx := context.Background()
	_, _ = s.Create(ctx, summary(t, "A"))
	_, _ = s.Create(ctx, summary(t, "B"))

	before := ids(s.Entries())
	if err := s.Delete(ctx, "does-not-exist"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if after := ids(s.Entries()); fmt.Sprint(after) != fmt.Sprint(before) {
		t.Fatalf("list changed: %v -> %v", before, after)
	}

	if err := s.Delete(ctx, "id-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if got := ids(s.Entries()); fmt.Sprint(got) != "[id-2]" {
		t.Fatalf("after delete = %v", got)
	}
}

func TestListFailureKeepsSnapshot(t *testing.T) {
	store := &memStore{}
	s := NewSynchronizer(store, infra.DiscardLogger())
	ctx := context.Background()
	_, _ = s.Create(ctx, summary(t, "A"))

	store.listErr = errors.New("offline")
	got, err := s.List(ctx)
	if !errors.Is(err, domain.ErrHistoryUnavailable) {
		t.Fatalf("err = %v, want ErrHistoryUnavailable", err)
	}
	if fmt.Sprint(ids(got)) != "[id-1]" || fmt.Sprint(ids(s.Entries())) != "[id-1]" {
		t.Fatalf("snapshot lost: %v", ids(got))
	}
}

func TestReloadReplacesRatherThanMerges(t *testing.T) {
	store := &memStore{}
	s := NewSynchronizer(store, infra.DiscardLogger())
	ctx := context.Background()
	_, _ = s.Create(ctx, summary(t, "A"))
	_, _ = s.Create(ctx, summary(t, "B"))

	store.mu.Lock()
	store.rows = []domain.HistoryEntry{{ID: "other", GenerationResult: summary(t, "Z")}}
	store.mu.Unlock()

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if fmt.Sprint(ids(got)) != "[other]" {
		t.Fatalf("reload merged instead of replacing: %v", ids(got))
	}
}

func TestClearPartialFailure(t *testing.T) {
	store := &memStore{}
	s := NewSynchronizer(store, infra.DiscardLogger())
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		_, _ = s.Create(ctx, summary(t, name))
	}
	store.failIDs = map[string]bool{"id-2": true}

	err := s.Clear(ctx)
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("err = %v, want ErrStore", err)
	}
	if got := ids(s.Entries()); fmt.Sprint(got) != "[id-2]" {
		t.Fatalf("cache after partial clear = %v", got)
	}
	remaining, _ := store.List(ctx)
	if fmt.Sprint(ids(remaining)) != "[id-2]" {
		t.Fatalf("store after partial clear = %v", ids(remaining))
	}
}

func TestClearUsesBulkDeleter(t *testing.T) {
	store := &bulkStore{}
	s := NewSynchronizer(store, infra.DiscardLogger())
	ctx := context.Background()
	_, _ = s.Create(ctx, summary(t, "A"))
	_, _ = s.Create(ctx, summary(t, "B"))

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if store.bulkCalls != 1 {
		t.Fatalf("bulkCalls = %d", store.bulkCalls)
	}
	if len(s.Entries()) != 0 {
		t.Fatal("cache not cleared")
	}
}

func TestGet(t *testing.T) {
	s := NewSynchronizer(&memStore{}, infra.DiscardLogger())
	e, _ := s.Create(context.Background(), summary(t, "A"))
	got, err := s.Get(e.ID)
	if err != nil || got.Text != "A" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := s.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// slowListStore takes its snapshot and then blocks until released, leaving a
// window in which other operations could commit.
type slowListStore struct {
	memStore
	listed  chan struct{}
	release chan struct{}
}

func (s *slowListStore) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	out, err := s.memStore.List(ctx)
	close(s.listed)
	<-s.release
	return out, err
}

func TestCreateDuringReloadStaysCached(t *testing.T) {
	store := &slowListStore{listed: make(chan struct{}), release: make(chan struct{})}
	s := NewSynchronizer(store, infra.DiscardLogger())
	ctx := context.Background()

	listDone := make(chan error, 1)
	go func() {
		_, err := s.List(ctx)
		listDone <- err
	}()
	<-store.listed

	createDone := make(chan error, 1)
	go func() {
		_, err := s.Create(ctx, summary(t, "late"))
		createDone <- err
	}()

	close(store.release)
	if err := <-listDone; err != nil {
		t.Fatalf("List error: %v", err)
	}
	if err := <-createDone; err != nil {
		t.Fatalf("Create error: %v", err)
	}

	store.mu.Lock()
	rows := len(store.rows)
	store.mu.Unlock()
	if got := len(s.Entries()); got != rows || rows != 1 {
		t.Fatalf("cache has %d entries, store has %d", got, rows)
	}
}
