package store

import (
	"context"
	"slices"
	"sync"

	"github.com/idilsaglam/todosync/internal/model"
)

// Memory is a Store that keeps everything in process memory. Nothing
// survives a restart.
type Memory struct {
	mu    sync.Mutex
	items map[int]model.Item
	order []int
}

// NewMemory returns an empty in-memory store, optionally seeded with items.
func NewMemory(seed ...model.Item) *Memory {
	m := &Memory{items: make(map[int]model.Item)}
	for _, it := range seed {
		m.put(it)
	}
	return m
}

func (m *Memory) put(it model.Item) {
	if _, ok := m.items[it.ID]; !ok {
		m.order = append(m.order, it.ID)
	}
	m.items[it.ID] = it
}

func (m *Memory) List(ctx context.Context) ([]model.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Item, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.items[id])
	}
	return out, nil
}

func (m *Memory) Upsert(ctx context.Context, item model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(item)
	return nil
}

func (m *Memory) Replace(ctx context.Context, item model.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; ok {
		m.items[item.ID] = item
	}
	return nil
}

func (m *Memory) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return nil
	}
	delete(m.items, id)
	m.order = slices.DeleteFunc(m.order, func(v int) bool { return v == id })
	return nil
}

func (m *Memory) Close() error { return nil }
