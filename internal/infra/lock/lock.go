// Package lock guards against more than one in-flight generation per
// submitter.
package lock

import (
	"context"
	"sync"
	"time"

	"genstudio/internal/domain"
)

// Locker hands out exclusive, expiring locks keyed by submitter. Acquire
// returns domain.ErrGenerationInFlight when the key is already held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// MemoryLocker is an in-process Locker for single-instance deployments.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryHold
	now   func() time.Time
	token uint64
}

type memoryHold struct {
	token   uint64
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryHold), now: time.Now}
}

func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if h, ok := m.held[key]; ok && now.Before(h.expires) {
		return nil, domain.ErrGenerationInFlight
	}
	m.token++
	token := m.token
	m.held[key] = memoryHold{token: token, expires: now.Add(ttl)}

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			if h, ok := m.held[key]; ok && h.token == token {
				delete(m.held, key)
			}
		})
	}, nil
}

var _ Locker = (*MemoryLocker)(nil)
