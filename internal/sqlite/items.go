package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/itemstore/pkg/types"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// List returns every item ordered by insertion.
func (b *Backend) List(ctx context.Context) ([]types.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.QueryContext(ctx, selectItemColumns+" ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []types.Item{}
	for rows.Next() {
		it, err := hydrateItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// Get retrieves an item by ID.
func (b *Backend) Get(ctx context.Context, id string) (types.Item, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.Item{}, types.ErrStoreDetached
	}

	it, err := hydrateItem(b.db.QueryRowContext(ctx, selectItemColumns+" WHERE item_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Item{}, &types.NotFoundError{ID: id, Op: types.OpGet}
	}
	if err != nil {
		return types.Item{}, fmt.Errorf("getting item %s: %w", id, err)
	}
	return it, nil
}

// Create validates fields, assigns the next ID and inserts the row. The
// counter only advances once the insert succeeds.
func (b *Backend) Create(ctx context.Context, fields types.Fields) (types.Item, error) {
	if err := types.ValidateFull(fields); err != nil {
		return types.Item{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Item{}, types.ErrStoreDetached
	}

	// The counter wraps negative once math.MaxInt64 has been handed out.
	if b.nextID < 1 {
		return types.Item{}, types.ErrIDsExhausted
	}
	it := types.NewItem(types.FormatID(b.nextID), fields)
	extra, err := encodeExtra(it.Extra)
	if err != nil {
		return types.Item{}, err
	}
	if _, err := b.db.ExecContext(ctx, insertItem, it.ID, it.Name, it.Description, extra); err != nil {
		return types.Item{}, fmt.Errorf("creating item: %w", err)
	}
	b.nextID++

	// Return what a later Get would see.
	it.Extra, err = decodeExtra(extra)
	if err != nil {
		return types.Item{}, err
	}
	return it, nil
}

// Update merges patch over the stored row inside a transaction.
func (b *Backend) Update(ctx context.Context, id string, patch types.Fields) (types.Item, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Item{}, types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Item{}, err
	}
	defer tx.Rollback()

	current, err := hydrateItem(tx.QueryRowContext(ctx, selectItemColumns+" WHERE item_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Item{}, &types.NotFoundError{ID: id, Op: types.OpUpdate}
	}
	if err != nil {
		return types.Item{}, fmt.Errorf("getting item %s: %w", id, err)
	}
	if err := types.ValidatePartial(patch); err != nil {
		return types.Item{}, err
	}

	merged := current.Merge(patch)
	extra, err := encodeExtra(merged.Extra)
	if err != nil {
		return types.Item{}, err
	}
	if _, err := tx.ExecContext(ctx, updateItem, merged.Name, merged.Description, extra, id); err != nil {
		return types.Item{}, fmt.Errorf("updating item %s: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return types.Item{}, err
	}

	merged.Extra, err = decodeExtra(extra)
	if err != nil {
		return types.Item{}, err
	}
	return merged, nil
}

// Delete removes the row with the given ID.
func (b *Backend) Delete(ctx context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	res, err := b.db.ExecContext(ctx, deleteItem, id)
	if err != nil {
		return fmt.Errorf("deleting item %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &types.NotFoundError{ID: id, Op: types.OpDelete}
	}
	return nil
}

// hydrateItem converts a row into an Item.
func hydrateItem(row rowScanner) (types.Item, error) {
	var it types.Item
	var extra sql.NullString
	if err := row.Scan(&it.ID, &it.Name, &it.Description, &extra); err != nil {
		return types.Item{}, err
	}
	var err error
	it.Extra, err = decodeExtra(extra)
	if err != nil {
		return types.Item{}, fmt.Errorf("item %s: %w", it.ID, err)
	}
	return it, nil
}
