package store

import (
	"context"
	"sync"

	"github.com/nibzard/task-cli/internal/task"
)

// MemoryStore is an in-memory Store. It round-trips every save through
// Encode/Decode so it behaves like the file store.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int

	// Error injection for testing
	LoadErr error
	SaveErr error
}

// NewMemoryStore creates a store holding tasks.
func NewMemoryStore(tasks task.Collection) *MemoryStore {
	m := &MemoryStore{}
	if tasks != nil {
		data, err := Encode(tasks)
		if err != nil {
			panic(err)
		}
		m.data = data
	}
	return m
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context) (task.Collection, error) {
	if err := canceled(ctx); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked()
}

// Save implements Store.
func (m *MemoryStore) Save(ctx context.Context, tasks task.Collection) error {
	if err := canceled(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked(tasks)
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, fn UpdateFunc) error {
	if err := canceled(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tasks, err := m.loadLocked()
	if err != nil {
		return err
	}
	next, err := fn(tasks)
	if err != nil {
		return err
	}
	return m.saveLocked(next)
}

// View implements Store.
func (m *MemoryStore) View(ctx context.Context, fn ViewFunc) error {
	if err := canceled(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	tasks, err := m.loadLocked()
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(tasks)
}

// Bytes returns the last saved encoding, or nil if nothing was saved.
func (m *MemoryStore) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}

// Saves returns how many successful saves happened.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

func (m *MemoryStore) loadLocked() (task.Collection, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.data == nil {
		return task.Collection{}, nil
	}
	return Decode(m.data)
}

func (m *MemoryStore) saveLocked(tasks task.Collection) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := Encode(tasks)
	if err != nil {
		return err
	}
	m.data = data
	m.saves++
	return nil
}
