package repository

import (
	"context"
	"sync"

	"github.com/templui/tutordesk/internal/model"
)

// MemoryStateRepository keeps encoded entries in process memory.
// Entries are stored encoded so it behaves like the durable drivers.
type MemoryStateRepository struct {
	mu      sync.Mutex
	entries map[string][]byte
	saves   int
}

func NewMemoryStateRepository() *MemoryStateRepository {
	return &MemoryStateRepository{entries: make(map[string][]byte)}
}

func (r *MemoryStateRepository) Load(ctx context.Context) (*model.GoalState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := make(map[string][]byte, len(r.entries))
	for k, v := range r.entries {
		entries[k] = v
	}
	return decodeState(entries)
}

func (r *MemoryStateRepository) Save(ctx context.Context, state *model.GoalState) error {
	entries, err := encodeState(state)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
	r.saves++
	return nil
}

func (r *MemoryStateRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string][]byte)
	return nil
}

// Put writes a raw entry, bypassing encoding.
func (r *MemoryStateRepository) Put(key string, raw []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = raw
}

// Saves returns how many times Save succeeded.
func (r *MemoryStateRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}
