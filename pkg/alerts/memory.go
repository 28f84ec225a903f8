package alerts

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryRepository is an in-process Repository for tests.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]Alert
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{entries: make(map[string]Alert)}
}

func (r *MemoryRepository) Insert(_ context.Context, alert Alert) (Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[alert.ID] = alert
	return alert, nil
}

func (r *MemoryRepository) Put(_ context.Context, alert Alert) (Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[alert.ID]; !ok {
		return Alert{}, ErrAlertNotFound
	}
	r.entries[alert.ID] = alert
	return alert, nil
}

func (r *MemoryRepository) Get(_ context.Context, alertID string) (Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.entries[alertID]
	if !ok {
		return Alert{}, ErrAlertNotFound
	}
	return alert, nil
}

func (r *MemoryRepository) Delete(_ context.Context, alertID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[alertID]; !ok {
		return ErrAlertNotFound
	}
	delete(r.entries, alertID)
	return nil
}

func (r *MemoryRepository) ActiveForAccount(_ context.Context, accountID string, now time.Time) ([]Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Alert
	for _, a := range r.entries {
		if len(a.AccountIDs) > 0 && !slices.Contains(a.AccountIDs, accountID) {
			continue
		}
		if !a.ActiveAt(now) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *MemoryRepository) All(_ context.Context) ([]Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, 0, len(r.entries))
	for _, a := range r.entries {
		out = append(out, a)
	}
	return out, nil
}
