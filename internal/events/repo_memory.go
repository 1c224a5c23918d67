package events

import (
	"context"
	"sync"
)

// MemoryRepo keeps the most recent events in process memory.
// Oldest events are dropped once the cap is reached.
type MemoryRepo struct {
	mu     sync.Mutex
	cap    int
	events []Event
}

func NewMemoryRepo(capacity int) *MemoryRepo {
	if capacity <= 0 {
		capacity = 1000
	}
	return &MemoryRepo{cap: capacity}
}

func (r *MemoryRepo) Append(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, cloneEvent(e))
	if over := len(r.events) - r.cap; over > 0 {
		r.events = append([]Event(nil), r.events[over:]...)
	}
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0)
	for i := len(r.events) - 1; i >= 0; i-- {
		e := r.events[i]
		if !f.matches(e) {
			continue
		}
		out = append(out, cloneEvent(e))
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

func cloneEvent(e Event) Event {
	fields := make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		fields[k] = v
	}
	e.Fields = fields
	return e
}
