// Package memory implements the default item backend: an ordered slice
// guarded by a single RWMutex.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Store)(nil)

// Store holds items in insertion order. Writers take the write lock for the
// whole read-modify-write so the ID counter and the slice move together.
type Store struct {
	mu       sync.RWMutex
	attached bool
	items    []types.Item
	nextID   int64
}

// New creates a detached store. Call Attach before use.
func New() *Store {
	return &Store{}
}

// Attach loads seed and sets the ID counter one past the largest numeric ID.
func (s *Store) Attach(seed []types.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attached {
		return types.ErrAlreadyAttached
	}

	seen := make(map[string]bool, len(seed))
	items := make([]types.Item, 0, len(seed))
	for _, it := range seed {
		if seen[it.ID] {
			return fmt.Errorf("%w: %s", types.ErrDuplicateID, it.ID)
		}
		seen[it.ID] = true
		items = append(items, it.Clone())
	}

	next, err := types.NextID(items)
	if err != nil {
		return err
	}

	s.items = items
	s.nextID = next
	s.attached = true
	return nil
}

// Detach drops the collection. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attached = false
	s.items = nil
	return nil
}

// List returns copies of all items in insertion order.
func (s *Store) List(ctx context.Context) ([]types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return nil, types.ErrStoreDetached
	}

	out := make([]types.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out, nil
}

// Get returns a copy of the item with the given ID.
func (s *Store) Get(ctx context.Context, id string) (types.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.attached {
		return types.Item{}, types.ErrStoreDetached
	}

	i := s.indexOf(id)
	if i < 0 {
		return types.Item{}, &types.NotFoundError{ID: id, Op: types.OpGet}
	}
	return s.items[i].Clone(), nil
}

// Create validates fields, assigns the next ID and appends the item.
func (s *Store) Create(ctx context.Context, fields types.Fields) (types.Item, error) {
	if err := types.ValidateFull(fields); err != nil {
		return types.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.Item{}, types.ErrStoreDetached
	}

	// The counter wraps negative once math.MaxInt64 has been handed out.
	if s.nextID < 1 {
		return types.Item{}, types.ErrIDsExhausted
	}
	it := types.NewItem(types.FormatID(s.nextID), fields)
	s.nextID++
	s.items = append(s.items, it)
	return it.Clone(), nil
}

// Update merges patch over the stored item in place, keeping its position.
func (s *Store) Update(ctx context.Context, id string, patch types.Fields) (types.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.Item{}, types.ErrStoreDetached
	}

	i := s.indexOf(id)
	if i < 0 {
		return types.Item{}, &types.NotFoundError{ID: id, Op: types.OpUpdate}
	}
	if err := types.ValidatePartial(patch); err != nil {
		return types.Item{}, err
	}

	s.items[i] = s.items[i].Merge(patch)
	return s.items[i].Clone(), nil
}

// Delete removes the item with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.attached {
		return types.ErrStoreDetached
	}

	i := s.indexOf(id)
	if i < 0 {
		return &types.NotFoundError{ID: id, Op: types.OpDelete}
	}
	s.items = slices.Delete(s.items, i, i+1)
	return nil
}

// indexOf scans for id. The caller must hold s.mu.
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(it types.Item) bool {
		return it.ID == id
	})
}
