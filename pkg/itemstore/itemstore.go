// Package itemstore provides the public API for creating item backends.
// Implementation packages stay internal; callers pick a backend by name.
package itemstore

import (
	"fmt"

	"github.com/mesh-intelligence/itemstore/internal/memory"
	"github.com/mesh-intelligence/itemstore/internal/seed"
	"github.com/mesh-intelligence/itemstore/internal/sqlite"
	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// Version is the release version of itemstore.
const Version = "0.1.0"

// ModulePath is the Go module path.
const ModulePath = "github.com/mesh-intelligence/itemstore"

// NewBackend creates a detached backend of the named kind.
// Returns ErrBackendUnknown for names other than BackendMemory and
// BackendSQLite.
func NewBackend(name string) (types.Backend, error) {
	switch name {
	case types.BackendMemory:
		return memory.New(), nil
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case "":
		return nil, types.ErrBackendEmpty
	default:
		return nil, fmt.Errorf("%w: %s", types.ErrBackendUnknown, name)
	}
}

// Open validates cfg, builds the backend and attaches it with the seed
// collection cfg describes. The caller owns the returned backend and must
// Detach it.
//
// Example:
//
//	store, err := itemstore.Open(types.Config{
//	    Backend:      types.BackendMemory,
//	    SeedDefaults: true,
//	})
//	defer store.Detach()
func Open(cfg types.Config) (types.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	items, _, err := seed.Collect(cfg)
	if err != nil {
		return nil, fmt.Errorf("loading seed items: %w", err)
	}
	b, err := NewBackend(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(items); err != nil {
		return nil, err
	}
	return b, nil
}
