package storetest

import (
	"context"
	"reflect"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// op is one step of a generated workload. Kind 0 creates, 1 updates, 2
// deletes. Target picks an existing item by position modulo the list length.
type op struct {
	Kind   int
	Target int
	Name   string
}

func genOps() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(op{}), map[string]gopter.Gen{
		"Kind":   gen.IntRange(0, 2),
		"Target": gen.IntRange(0, 50),
		"Name":   gen.AlphaString(),
	}))
}

func genName() gopter.Gen {
	return gen.AlphaString().SuchThat(func(s string) bool { return s != "" })
}

// RunProperties checks the store invariants over random workloads.
func RunProperties(t *testing.T, newBackend Factory) {
	if testing.Short() {
		t.Skip("property suite skipped in -short mode")
	}
	ctx := context.Background()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("ids stay unique and every created id exceeds all earlier ones", prop.ForAll(
		func(ops []op) bool {
			b := newBackend()
			if err := b.Attach(DemoItems()); err != nil {
				return false
			}
			defer b.Detach()

			var last int64 = 3
			for _, o := range ops {
				if !apply(ctx, b, o, &last) {
					return false
				}
			}

			items, err := b.List(ctx)
			if err != nil {
				return false
			}
			seen := make(map[string]bool, len(items))
			for _, it := range items {
				if seen[it.ID] {
					return false
				}
				seen[it.ID] = true
			}
			return true
		},
		genOps(),
	))

	properties.Property("create then get returns the created item", prop.ForAll(
		func(name, description string) bool {
			b := newBackend()
			if err := b.Attach(nil); err != nil {
				return false
			}
			defer b.Detach()

			created, err := b.Create(ctx, types.Fields{"name": name, "description": description})
			if err != nil {
				return false
			}
			got, err := b.Get(ctx, created.ID)
			return err == nil &&
				got.ID == created.ID &&
				got.Name == name &&
				got.Description == description
		},
		genName(),
		genName(),
	))

	properties.Property("delete of an existing id shrinks the list by one", prop.ForAll(
		func(n, pick int) bool {
			b := newBackend()
			if err := b.Attach(nil); err != nil {
				return false
			}
			defer b.Detach()

			for i := 0; i < n; i++ {
				if _, err := b.Create(ctx, types.Fields{"name": "n", "description": "d"}); err != nil {
					return false
				}
			}
			before, _ := b.List(ctx)
			target := before[pick%len(before)].ID
			if err := b.Delete(ctx, target); err != nil {
				return false
			}
			after, _ := b.List(ctx)
			_, err := b.Get(ctx, target)
			return len(after) == len(before)-1 && types.IsNotFound(err)
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 100),
	))

	properties.Property("invalid create leaves the store unchanged", prop.ForAll(
		func(blank string) bool {
			b := newBackend()
			if err := b.Attach(DemoItems()); err != nil {
				return false
			}
			defer b.Detach()

			_, err := b.Create(ctx, types.Fields{"name": blank, "description": "d"})
			if !types.IsValidation(err) {
				return false
			}
			items, _ := b.List(ctx)
			return len(items) == len(DemoItems())
		},
		gen.OneConstOf("", " ", "\t", "\n  "),
	))

	properties.TestingRun(t)
}

// apply runs o against b and checks that creates receive an ID above last.
func apply(ctx context.Context, b types.Store, o op, last *int64) bool {
	switch o.Kind {
	case 0:
		it, err := b.Create(ctx, types.Fields{"name": "item" + o.Name, "description": "generated"})
		if err != nil {
			return false
		}
		id, err := strconv.ParseInt(it.ID, 10, 64)
		if err != nil || id <= *last {
			return false
		}
		*last = id
	case 1, 2:
		items, err := b.List(ctx)
		if err != nil {
			return false
		}
		if len(items) == 0 {
			return true
		}
		target := items[o.Target%len(items)].ID
		if o.Kind == 1 {
			_, err = b.Update(ctx, target, types.Fields{"name": "upd" + o.Name})
		} else {
			err = b.Delete(ctx, target)
		}
		if err != nil {
			return false
		}
	}
	return true
}
