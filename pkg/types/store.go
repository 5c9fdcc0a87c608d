package types

import "context"

// Store provides the item operations. Implementations guard their
// collection so that each call is atomic with respect to the others, and
// return copies that callers may mutate freely.
type Store interface {
	// List returns every item in insertion order. The slice is never nil.
	List(ctx context.Context) ([]Item, error)

	// Get returns the item with the given ID.
	// Returns a *NotFoundError if no item has that ID.
	Get(ctx context.Context, id string) (Item, error)

	// Create validates fields in full, assigns the next ID, appends the
	// item and returns it. Returns a *ValidationError on bad input.
	Create(ctx context.Context, fields Fields) (Item, error)

	// Update looks up id, validates patch partially and shallow-merges it
	// over the stored item. The ID never changes.
	// Returns a *NotFoundError or *ValidationError.
	Update(ctx context.Context, id string, patch Fields) (Item, error)

	// Delete removes the item with the given ID.
	// Returns a *NotFoundError if no item has that ID.
	Delete(ctx context.Context, id string) error
}

// Backend is a Store with a lifecycle. Attach loads the initial collection
// and seeds the ID counter from it; Detach releases resources.
type Backend interface {
	Store

	// Attach loads seed into an empty backend. Returns ErrAlreadyAttached
	// when called twice and ErrDuplicateID when two seed items share an ID.
	Attach(seed []Item) error

	// Detach releases backend resources. Idempotent. After Detach every
	// operation returns ErrStoreDetached.
	Detach() error
}
