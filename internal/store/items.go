package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/scantrack/internal/model"
)

const itemColumns = `id, box_id, barcode, timestamp, status`

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	if err := s.Scan(&item.ID, &item.BoxID, &item.Barcode, &item.Timestamp, &item.Status); err != nil {
		return nil, err
	}
	return item, nil
}

// ItemExists reports whether an item with this barcode was already scanned
// into any box.
func ItemExists(ctx context.Context, db *sql.DB, barcode string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE barcode = ?`, barcode,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking item: %w", err)
	}
	return count > 0, nil
}

// AddItem records a scanned item in a box.
func AddItem(ctx context.Context, db *sql.DB, boxID, barcode string, now time.Time) (*model.Item, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, box_id, barcode, status, timestamp) VALUES (?, ?, ?, ?, ?)`,
		id, boxID, barcode, model.ItemStatusScanned, now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("adding item %s: %w", barcode, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("adding item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListBoxItems returns the items of a box in scan order.
func ListBoxItems(ctx context.Context, db *sql.DB, boxID string) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE box_id = ? ORDER BY timestamp, id`, boxID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing box items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// DeleteItem removes an item from its box.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting item %s: %w", id, ErrNotFound)
	}
	return nil
}
