// Package storetest holds the behavioural suite every types.Backend must
// pass. Backend packages call Run and RunProperties from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/itemstore/internal/seed"
	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// Factory returns a new, detached backend.
type Factory func() types.Backend

// DemoItems is the three-item collection the service ships with.
func DemoItems() []types.Item {
	return seed.Defaults()
}

// Attached creates a backend from newBackend, attaches initial and
// registers Detach as cleanup.
func Attached(t *testing.T, newBackend Factory, initial []types.Item) types.Backend {
	t.Helper()
	b := newBackend()
	require.NoError(t, b.Attach(initial))
	t.Cleanup(func() { b.Detach() })
	return b
}

// Run exercises the full Store contract against backends built by newBackend.
func Run(t *testing.T, newBackend Factory) {
	ctx := context.Background()

	tests := []struct {
		name  string
		seed  []types.Item
		check func(t *testing.T, s types.Store)
	}{
		{
			name: "list returns seed in order",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				items, err := s.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, DemoItems(), items)
			},
		},
		{
			name: "list on empty store is empty not nil",
			check: func(t *testing.T, s types.Store) {
				items, err := s.List(ctx)
				require.NoError(t, err)
				assert.NotNil(t, items)
				assert.Empty(t, items)
			},
		},
		{
			name: "listing twice without mutation is identical",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				first, err := s.List(ctx)
				require.NoError(t, err)
				second, err := s.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, first, second)
			},
		},
		{
			name: "create continues after largest seed id",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				it, err := s.Create(ctx, types.Fields{"name": "Monitor", "description": "Display"})
				require.NoError(t, err)
				assert.Equal(t, "4", it.ID)
			},
		},
		{
			name: "create on empty store starts at 1",
			check: func(t *testing.T, s types.Store) {
				it, err := s.Create(ctx, types.Fields{"name": "Monitor", "description": "Display"})
				require.NoError(t, err)
				assert.Equal(t, "1", it.ID)
			},
		},
		{
			name: "create then get round trips",
			check: func(t *testing.T, s types.Store) {
				created, err := s.Create(ctx, types.Fields{
					"name":        "Laptop",
					"description": "Powerful computing device",
				})
				require.NoError(t, err)

				got, err := s.Get(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, created, got)
			},
		},
		{
			name: "create ignores caller id and keeps extra fields",
			check: func(t *testing.T, s types.Store) {
				created, err := s.Create(ctx, types.Fields{
					"id":          "99",
					"name":        "Keyboard",
					"description": "Mechanical",
					"tags":        []any{"input", "usb"},
				})
				require.NoError(t, err)
				assert.Equal(t, "1", created.ID)
				assert.Equal(t, []any{"input", "usb"}, created.Extra["tags"])

				got, err := s.Get(ctx, "1")
				require.NoError(t, err)
				assert.Equal(t, created, got)
			},
		},
		{
			name: "create rejects blank name",
			check: func(t *testing.T, s types.Store) {
				_, err := s.Create(ctx, types.Fields{"name": "", "description": "x"})
				require.Error(t, err)
				assert.True(t, types.IsValidation(err))
				assert.Equal(t, types.MsgNameRequired, err.Error())

				items, err := s.List(ctx)
				require.NoError(t, err)
				assert.Empty(t, items)
			},
		},
		{
			name: "create rejects missing description",
			check: func(t *testing.T, s types.Store) {
				_, err := s.Create(ctx, types.Fields{"name": "Laptop"})
				require.Error(t, err)
				assert.Equal(t, types.MsgDescriptionRequired, err.Error())
			},
		},
		{
			name: "failed create does not consume an id",
			check: func(t *testing.T, s types.Store) {
				_, err := s.Create(ctx, types.Fields{"name": "   "})
				require.Error(t, err)

				it, err := s.Create(ctx, types.Fields{"name": "a", "description": "b"})
				require.NoError(t, err)
				assert.Equal(t, "1", it.ID)
			},
		},
		{
			name: "partial update preserves untouched fields",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				it, err := s.Update(ctx, "1", types.Fields{"name": "Laptop Pro"})
				require.NoError(t, err)
				assert.Equal(t, types.Item{ID: "1", Name: "Laptop Pro", Description: "Powerful computing device"}, it)

				got, err := s.Get(ctx, "1")
				require.NoError(t, err)
				assert.Equal(t, it, got)
			},
		},
		{
			name: "update never changes id or position",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				it, err := s.Update(ctx, "2", types.Fields{"id": "77", "color": "black"})
				require.NoError(t, err)
				assert.Equal(t, "2", it.ID)
				assert.Equal(t, "black", it.Extra["color"])

				items, err := s.List(ctx)
				require.NoError(t, err)
				require.Len(t, items, 3)
				assert.Equal(t, []string{"1", "2", "3"}, ids(items))
			},
		},
		{
			name: "update rejects blank description and leaves item intact",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				_, err := s.Update(ctx, "3", types.Fields{"name": "Earbuds", "description": " "})
				require.Error(t, err)
				assert.Equal(t, types.MsgDescriptionIfProvided, err.Error())

				got, err := s.Get(ctx, "3")
				require.NoError(t, err)
				assert.Equal(t, "Headphones", got.Name)
			},
		},
		{
			name: "update of missing id reports not found before validation",
			check: func(t *testing.T, s types.Store) {
				_, err := s.Update(ctx, "999", types.Fields{"name": ""})
				require.Error(t, err)
				assert.True(t, types.IsNotFound(err))
				assert.Equal(t, "Item with ID 999 not found.", err.Error())
			},
		},
		{
			name: "get, update and delete of missing id all report not found",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				_, err := s.Get(ctx, "999")
				assert.True(t, types.IsNotFound(err))

				_, err = s.Update(ctx, "999", types.Fields{"name": "x"})
				assert.True(t, types.IsNotFound(err))

				err = s.Delete(ctx, "999")
				assert.True(t, types.IsNotFound(err))
				assert.Equal(t, "Item with ID 999 not found for deletion.", err.Error())
			},
		},
		{
			name: "delete removes exactly one item",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				require.NoError(t, s.Delete(ctx, "2"))

				items, err := s.List(ctx)
				require.NoError(t, err)
				assert.Equal(t, []string{"1", "3"}, ids(items))

				_, err = s.Get(ctx, "2")
				assert.True(t, types.IsNotFound(err))
			},
		},
		{
			name: "ids are not reused after delete",
			seed: DemoItems(),
			check: func(t *testing.T, s types.Store) {
				require.NoError(t, s.Delete(ctx, "3"))
				it, err := s.Create(ctx, types.Fields{"name": "n", "description": "d"})
				require.NoError(t, err)
				assert.Equal(t, "4", it.ID)
			},
		},
		{
			name: "returned items are copies",
			check: func(t *testing.T, s types.Store) {
				created, err := s.Create(ctx, types.Fields{
					"name": "n", "description": "d",
					"meta": map[string]any{"k": "v"},
				})
				require.NoError(t, err)
				created.Name = "mutated"
				created.Extra["meta"].(map[string]any)["k"] = "mutated"

				got, err := s.Get(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, "n", got.Name)
				assert.Equal(t, "v", got.Extra["meta"].(map[string]any)["k"])
			},
		},
		{
			name: "non-numeric seed ids are kept but do not seed the counter",
			seed: []types.Item{{ID: "sku-a", Name: "a", Description: "b"}},
			check: func(t *testing.T, s types.Store) {
				it, err := s.Create(ctx, types.Fields{"name": "n", "description": "d"})
				require.NoError(t, err)
				assert.Equal(t, "1", it.ID)

				got, err := s.Get(ctx, "sku-a")
				require.NoError(t, err)
				assert.Equal(t, "a", got.Name)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Attached(t, newBackend, tt.seed)
			tt.check(t, s)
		})
	}

	t.Run("lifecycle", func(t *testing.T) {
		b := newBackend()

		_, err := b.List(ctx)
		assert.ErrorIs(t, err, types.ErrStoreDetached)

		require.NoError(t, b.Attach(DemoItems()))
		assert.ErrorIs(t, b.Attach(nil), types.ErrAlreadyAttached)

		require.NoError(t, b.Detach())
		require.NoError(t, b.Detach(), "Detach must be idempotent")

		_, err = b.Get(ctx, "1")
		assert.ErrorIs(t, err, types.ErrStoreDetached)
		_, err = b.Create(ctx, types.Fields{"name": "n", "description": "d"})
		assert.ErrorIs(t, err, types.ErrStoreDetached)
		_, err = b.Update(ctx, "1", types.Fields{})
		assert.ErrorIs(t, err, types.ErrStoreDetached)
		assert.ErrorIs(t, b.Delete(ctx, "1"), types.ErrStoreDetached)
	})

	t.Run("duplicate seed ids are rejected", func(t *testing.T) {
		b := newBackend()
		dup := append(DemoItems(), types.Item{ID: "2", Name: "dup", Description: "dup"})
		err := b.Attach(dup)
		assert.ErrorIs(t, err, types.ErrDuplicateID)
	})

	t.Run("seed at the id limit is rejected", func(t *testing.T) {
		b := newBackend()
		err := b.Attach([]types.Item{{ID: "9223372036854775807", Name: "max", Description: "max"}})
		assert.ErrorIs(t, err, types.ErrIDsExhausted)
	})

	t.Run("create stops at the id limit", func(t *testing.T) {
		ctx := context.Background()
		b := Attached(t, newBackend, []types.Item{{ID: "9223372036854775806", Name: "n", Description: "d"}})

		last, err := b.Create(ctx, types.Fields{"name": "last", "description": "d"})
		require.NoError(t, err)
		assert.Equal(t, "9223372036854775807", last.ID)

		_, err = b.Create(ctx, types.Fields{"name": "over", "description": "d"})
		assert.ErrorIs(t, err, types.ErrIDsExhausted)

		items, err := b.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"9223372036854775806", "9223372036854775807"}, ids(items))
	})

	t.Run("concurrent creates yield distinct ids", func(t *testing.T) {
		s := Attached(t, newBackend, nil)

		const workers, perWorker = 8, 25
		var wg sync.WaitGroup
		errs := make(chan error, workers*perWorker)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					_, err := s.Create(ctx, types.Fields{
						"name":        fmt.Sprintf("w%d-%d", w, i),
						"description": "concurrent",
					})
					if err != nil {
						errs <- err
					}
				}
			}(w)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		items, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, workers*perWorker)

		seen := make(map[string]bool, len(items))
		for _, it := range items {
			assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
			seen[it.ID] = true
		}
	})
}

func ids(items []types.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

