// Package sqlite implements an item backend on an in-memory SQLite database.
// Nothing is written to disk; the database lives for one Attach/Detach cycle.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// Compile-time interface check.
var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend using SQLite as the query engine.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	db       *sql.DB
	nextID   int64
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens a private in-memory database, creates the schema and
// inserts seed in order.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(seed []types.Item) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	next, err := types.NextID(seed)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(seed))
	for _, it := range seed {
		if seen[it.ID] {
			return fmt.Errorf("%w: %s", types.ErrDuplicateID, it.ID)
		}
		seen[it.ID] = true
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return err
	}
	// Each connection to :memory: is a separate database, so pin the pool
	// to one connection that never expires.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := insertSeed(db, seed); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.nextID = next
	b.attached = true
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.attached = false
	db := b.db
	b.db = nil
	return db.Close()
}

func insertSeed(db *sql.DB, seed []types.Item) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, it := range seed {
		extra, err := encodeExtra(it.Extra)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(insertItem, it.ID, it.Name, it.Description, extra); err != nil {
			return fmt.Errorf("seeding item %s: %w", it.ID, err)
		}
	}
	return tx.Commit()
}
