package calls

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	state     State
	expiresAt time.Time
}

// MemoryStore is an in-process Store with per-call expiry.
type MemoryStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	calls map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{ttl: ttl, now: time.Now, calls: make(map[string]memoryEntry)}
}

func (m *MemoryStore) Put(ctx context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sweep(now)
	if cur, ok := m.calls[s.CallSID]; ok {
		s = cur.state.Merge(s)
	}
	m.calls[s.CallSID] = memoryEntry{state: s, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, callSID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.calls[callSID]
	if !ok || !m.now().Before(e.expiresAt) {
		return State{}, ErrNotFound
	}
	return e.state, nil
}

func (m *MemoryStore) sweep(now time.Time) {
	for sid, e := range m.calls {
		if !now.Before(e.expiresAt) {
			delete(m.calls, sid)
		}
	}
}
