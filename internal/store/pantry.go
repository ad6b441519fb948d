package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/larder/internal/model"
	"github.com/google/uuid"
)

type PantryStore struct {
	db DBTX
}

func NewPantryStore(db DBTX) *PantryStore {
	return &PantryStore{db: db}
}

// PantryInput holds the user-editable fields of a pantry item.
type PantryInput struct {
	Name       string
	Quantity   int
	Unit       model.Unit
	Category   model.Category
	ExpiryDate *time.Time
}

func scanPantryItem(s scanner) (*model.PantryItem, error) {
	var item model.PantryItem
	var unit, category string
	var expiry sql.NullTime

	err := s.Scan(
		&item.ID, &item.OwnerID, &item.Name, &item.Quantity, &unit, &category,
		&expiry, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Unit = model.Unit(unit)
	item.Category = model.Category(category)
	item.ExpiryDate = timePtr(expiry)
	return &item, nil
}

const pantryCols = `id, owner_id, name, quantity, unit, category, expiry_date, created_at, updated_at`

func (s *PantryStore) queryItems(ctx context.Context, query string, args ...any) ([]model.PantryItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.PantryItem
	for rows.Next() {
		item, err := scanPantryItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pantry item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *PantryStore) Create(ctx context.Context, ownerID string, in PantryInput) (*model.PantryItem, error) {
	id := uuid.NewString()
	ts := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pantry_items (`+pantryCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, in.Name, in.Quantity, string(in.Unit), string(in.Category),
		nullTime(in.ExpiryDate), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert pantry item: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

// Get returns the item only if ownerID owns it; (nil, nil) otherwise.
func (s *PantryStore) Get(ctx context.Context, ownerID, id string) (*model.PantryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pantryCols+` FROM pantry_items WHERE id = ? AND owner_id = ?`, id, ownerID)
	item, err := scanPantryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pantry item: %w", err)
	}
	return item, nil
}

// FindByName does a case-insensitive exact name lookup within one owner's
// pantry. When several rows share a name the oldest wins. Only offers stored
// without a source item id reach this; new offers always record one.
func (s *PantryStore) FindByName(ctx context.Context, ownerID, name string) (*model.PantryItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pantryCols+` FROM pantry_items
		 WHERE owner_id = ? AND name = ? COLLATE NOCASE
		 ORDER BY created_at ASC, id ASC LIMIT 1`,
		ownerID, name,
	)
	item, err := scanPantryItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find pantry item by name: %w", err)
	}
	return item, nil
}

// List returns ownerID's items newest first, optionally filtered by category.
func (s *PantryStore) List(ctx context.Context, ownerID string, category model.Category) ([]model.PantryItem, error) {
	var items []model.PantryItem
	var err error
	if category == "" {
		items, err = s.queryItems(ctx,
			`SELECT `+pantryCols+` FROM pantry_items WHERE owner_id = ? ORDER BY created_at DESC, id DESC`,
			ownerID)
	} else {
		items, err = s.queryItems(ctx,
			`SELECT `+pantryCols+` FROM pantry_items WHERE owner_id = ? AND category = ? ORDER BY created_at DESC, id DESC`,
			ownerID, string(category))
	}
	if err != nil {
		return nil, fmt.Errorf("list pantry items: %w", err)
	}
	return items, nil
}

func (s *PantryStore) Update(ctx context.Context, ownerID, id string, in PantryInput) (*model.PantryItem, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pantry_items SET name = ?, quantity = ?, unit = ?, category = ?, expiry_date = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		in.Name, in.Quantity, string(in.Unit), string(in.Category), nullTime(in.ExpiryDate), now(),
		id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update pantry item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.Get(ctx, ownerID, id)
}

// SetQuantity overwrites the quantity of an owned item. It reports whether a
// row was updated.
func (s *PantryStore) SetQuantity(ctx context.Context, ownerID, id string, quantity int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE pantry_items SET quantity = ?, updated_at = ? WHERE id = ? AND owner_id = ?`,
		quantity, now(), id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("set pantry quantity: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *PantryStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete pantry item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteMany removes the listed items that ownerID owns in one statement.
// Ids belonging to other owners are ignored.
func (s *PantryStore) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, ownerID)
	for _, id := range ids {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM pantry_items WHERE owner_id = ? AND id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("bulk delete pantry items: %w", err)
	}
	return res.RowsAffected()
}

// DeleteAll clears ownerID's pantry.
func (s *PantryStore) DeleteAll(ctx context.Context, ownerID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pantry_items WHERE owner_id = ?`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("clear pantry: %w", err)
	}
	return res.RowsAffected()
}
