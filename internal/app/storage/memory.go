package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teamshop/teamshop/internal/app/domain/list"
)

// Memory is a thread-safe in-memory ListStore. It is the default backend for
// tests and single-process deployments and deliberately keeps the
// implementation simple.
type Memory struct {
	mu    sync.RWMutex
	lists map[string]list.List            // keyed by share code, Items unused
	items map[string]map[string]list.Item // code -> item ID -> item
}

var _ ListStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		lists: make(map[string]list.List),
		items: make(map[string]map[string]list.Item),
	}
}

func (m *Memory) CreateList(_ context.Context, l list.List) (list.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if l.Code == "" {
		return list.List{}, fmt.Errorf("list code required")
	}
	if _, exists := m.lists[l.Code]; exists {
		return list.List{}, fmt.Errorf("list %s already exists", l.Code)
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	l.Items = nil

	m.lists[l.Code] = l
	m.items[l.Code] = make(map[string]list.Item)
	return m.snapshotLocked(l.Code), nil
}

func (m *Memory) GetList(_ context.Context, code string) (list.List, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.lists[code]; !ok {
		return list.List{}, list.ErrNotFound
	}
	return m.snapshotLocked(code), nil
}

func (m *Memory) CreateItem(_ context.Context, code string, it list.Item) (list.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.items[code]
	if !ok {
		return list.Item{}, list.ErrNotFound
	}
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if it.CreatedAt.IsZero() {
		it.CreatedAt = now
	}
	it.UpdatedAt = now

	items[it.ID] = it
	return it, nil
}

func (m *Memory) GetItem(_ context.Context, code, itemID string) (list.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items, ok := m.items[code]
	if !ok {
		return list.Item{}, list.ErrNotFound
	}
	it, ok := items[itemID]
	if !ok {
		return list.Item{}, list.ErrNotFound
	}
	return it, nil
}

func (m *Memory) UpdateItem(_ context.Context, code string, it list.Item) (list.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.items[code]
	if !ok {
		return list.Item{}, list.ErrNotFound
	}
	original, ok := items[it.ID]
	if !ok {
		return list.Item{}, list.ErrNotFound
	}

	it.CreatedAt = original.CreatedAt
	if it.UpdatedAt.IsZero() {
		it.UpdatedAt = time.Now().UTC()
	}
	items[it.ID] = it
	return it, nil
}

func (m *Memory) DeleteItem(_ context.Context, code, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.items[code]
	if !ok {
		return list.ErrNotFound
	}
	if _, ok := items[itemID]; !ok {
		return list.ErrNotFound
	}
	delete(items, itemID)
	return nil
}

func (m *Memory) RenameClaimant(_ context.Context, code, old, new string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.items[code]
	if !ok {
		return 0, list.ErrNotFound
	}

	now := time.Now().UTC()
	changed := 0
	for id, it := range items {
		if it.ClaimedBy == old && old != "" {
			it.ClaimedBy = new
			it.UpdatedAt = now
			items[id] = it
			changed++
		}
	}
	return changed, nil
}

func (m *Memory) ResetItems(_ context.Context, code string) (list.List, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	items, ok := m.items[code]
	if !ok {
		return list.List{}, list.ErrNotFound
	}

	now := time.Now().UTC()
	for id, it := range items {
		it.Status = list.StatusPending
		it.ClaimedBy = ""
		it.UpdatedAt = now
		items[id] = it
	}
	return m.snapshotLocked(code), nil
}

// snapshotLocked builds a full list snapshot with items in creation order.
// Callers must hold at least the read lock.
func (m *Memory) snapshotLocked(code string) list.List {
	l := m.lists[code]
	items := m.items[code]

	l.Items = make([]list.Item, 0, len(items))
	for _, it := range items {
		l.Items = append(l.Items, it)
	}
	sort.Slice(l.Items, func(i, j int) bool {
		a, b := l.Items[i], l.Items[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return l
}
