package schedule

import (
	"context"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]Event
	now     func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]Event), now: time.Now}
}

func (r *MemoryRepository) Insert(_ context.Context, event Event) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[event.ID] = event
	return event, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.entries[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return event, nil
}

func (r *MemoryRepository) Find(_ context.Context, filter Filter) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.entries {
		if filter.AccountID != "" && e.AccountID != filter.AccountID {
			continue
		}
		if filter.ItemID != "" && e.Notification.ItemID != filter.ItemID {
			continue
		}
		if filter.Kind != "" && e.Kind != filter.Kind {
			continue
		}
		if filter.SendAtBefore != nil && e.SendAt.After(*filter.SendAtBefore) {
			continue
		}
		if filter.ClaimedBefore != nil && (e.ClaimedAt == nil || e.ClaimedAt.After(*filter.ClaimedBefore)) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *MemoryRepository) Claim(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.entries[id]
	if !ok || event.ClaimedAt != nil {
		return false, nil
	}
	now := r.now()
	event.ClaimedAt = &now
	r.entries[id] = event
	return true, nil
}

func (r *MemoryRepository) Unclaim(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.entries[id]
	if !ok {
		return nil
	}
	event.ClaimedAt = nil
	r.entries[id] = event
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	return nil
}

func (r *MemoryRepository) Put(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.entries[event.ID]
	if !ok {
		return ErrEventNotFound
	}
	if existing.ClaimedAt != nil {
		return ErrEventClaimed
	}
	r.entries[event.ID] = event
	return nil
}

func (r *MemoryRepository) DeleteAllForAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.entries {
		if e.AccountID == accountID {
			delete(r.entries, id)
		}
	}
	return nil
}
