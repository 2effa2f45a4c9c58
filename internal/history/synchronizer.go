// Package history keeps the in-memory history list in step with the durable
// store. The list is only ever replaced or spliced as a whole.
package history

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"genstudio/internal/domain"
	"genstudio/internal/infra"
	"genstudio/internal/metrics"
)

// Synchronizer mediates every read and write of history entries.
type Synchronizer struct {
	store  domain.HistoryStore
	logger infra.Logger

	// writeMu serializes List, Create, Delete and Clear across their store
	// calls so a reload never overwrites a concurrent mutation.
	writeMu sync.Mutex

	mu      sync.RWMutex
	entries []domain.HistoryEntry
}

func NewSynchronizer(store domain.HistoryStore, logger infra.Logger) *Synchronizer {
	return &Synchronizer{store: store, logger: logger}
}

// Entries returns a copy of the cached list, newest first.
func (s *Synchronizer) Entries() []domain.HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.HistoryEntry(nil), s.entries...)
}

// Get returns a cached entry by id.
func (s *Synchronizer) Get(id string) (domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.HistoryEntry{}, domain.ErrNotFound
}

// List reloads from the store and fully replaces the cache. When the store
// fails the previous snapshot is returned unchanged together with an error
// wrapping domain.ErrHistoryUnavailable.
func (s *Synchronizer) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	fresh, err := s.store.List(ctx)
	if err != nil {
		metrics.HistoryStoreErrors.WithLabelValues("list").Inc()
		s.logger.Warn().Err(err).Msg("history: list failed, serving cached snapshot")
		return s.Entries(), fmt.Errorf("%w: %w", domain.ErrHistoryUnavailable, err)
	}

	replaced := append([]domain.HistoryEntry(nil), fresh...)
	s.mu.Lock()
	s.entries = replaced
	s.mu.Unlock()
	metrics.HistoryEntries.Set(float64(len(replaced)))
	return append([]domain.HistoryEntry(nil), replaced...), nil
}

// Create persists result and prepends the stored entry to the cache. Nothing
// is cached unless the store accepted the record.
func (s *Synchronizer) Create(ctx context.Context, result domain.GenerationResult) (domain.HistoryEntry, error) {
	if err := result.Validate(); err != nil {
		return domain.HistoryEntry{}, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	entry, err := s.store.Create(ctx, result)
	if err != nil {
		metrics.HistoryStoreErrors.WithLabelValues("create").Inc()
		return domain.HistoryEntry{}, fmt.Errorf("%w: create: %w", domain.ErrStore, err)
	}

	s.mu.Lock()
	next := make([]domain.HistoryEntry, 0, len(s.entries)+1)
	next = append(next, entry)
	next = append(next, s.entries...)
	s.entries = next
	n := len(next)
	s.mu.Unlock()

	metrics.HistoryEntries.Set(float64(n))
	s.logger.Info().Str("entry_id", entry.ID).Str("type", string(entry.Type)).Msg("history: entry created")
	return entry, nil
}

// Delete removes id from the store and then from the cache. Deleting an id
// that does not exist is a no-op.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		metrics.HistoryStoreErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("%w: delete %s: %w", domain.ErrStore, id, err)
	}
	s.remove(map[string]struct{}{id: {}})
	return nil
}

// Clear removes every known entry. Stores implementing domain.BulkDeleter are
// cleared atomically. Otherwise each entry is deleted individually: on partial
// failure the successfully deleted entries leave the cache, the rest stay, and
// the joined errors are returned.
func (s *Synchronizer) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if bulk, ok := s.store.(domain.BulkDeleter); ok {
		if err := bulk.DeleteAll(ctx); err != nil {
			metrics.HistoryStoreErrors.WithLabelValues("clear").Inc()
			return fmt.Errorf("%w: clear: %w", domain.ErrStore, err)
		}
		s.mu.Lock()
		s.entries = nil
		s.mu.Unlock()
		metrics.HistoryEntries.Set(0)
		return nil
	}

	known := s.Entries()
	deleted := make(map[string]struct{}, len(known))
	var errs []error
	for _, e := range known {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.store.Delete(ctx, e.ID); err != nil {
			metrics.HistoryStoreErrors.WithLabelValues("delete").Inc()
			errs = append(errs, fmt.Errorf("delete %s: %w", e.ID, err))
			continue
		}
		deleted[e.ID] = struct{}{}
	}
	s.remove(deleted)

	if len(errs) > 0 {
		s.logger.Warn().
			Int("deleted", len(deleted)).
			Int("failed", len(known)-len(deleted)).
			Msg("history: clear finished with failures")
		return fmt.Errorf("%w: clear: %w", domain.ErrStore, errors.Join(errs...))
	}
	return nil
}

func (s *Synchronizer) remove(ids map[string]struct{}) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	next := make([]domain.HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if _, gone := ids[e.ID]; !gone {
			next = append(next, e)
		}
	}
	s.entries = next
	s.mu.Unlock()
	metrics.HistoryEntries.Set(float64(len(next)))
}
