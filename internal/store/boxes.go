package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/scantrack/internal/model"
)

const boxColumns = `id, barcode, status, start_location, created_at, sealed_at, in_transit_at, received_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBox(s rowScanner) (*model.Box, error) {
	b := &model.Box{}
	err := s.Scan(&b.ID, &b.Barcode, &b.Status, &b.StartLocation, &b.CreatedAt,
		&b.SealedAt, &b.InTransitAt, &b.ReceivedAt)
	if err != nil {
		return nil, err
	}
	b.Items = []model.Item{}
	return b, nil
}

// CreateBox creates an ACTIVE box at the given start location.
func CreateBox(ctx context.Context, db *sql.DB, barcode, startLocation string, now time.Time) (*model.Box, error) {
	if startLocation == "" {
		startLocation = model.DefaultStartLocation
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO boxes (id, barcode, status, start_location, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, barcode, model.BoxStatusActive, startLocation, now.UTC(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating box %s: %w", barcode, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("creating box: %w", err)
	}

	return GetBox(ctx, db, id)
}

// GetBox returns a box by ID with its items.
func GetBox(ctx context.Context, db *sql.DB, id string) (*model.Box, error) {
	b, err := scanBox(db.QueryRowContext(ctx,
		`SELECT `+boxColumns+` FROM boxes WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting box: %w", err)
	}

	items, err := ListBoxItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if items != nil {
		b.Items = items
	}
	return b, nil
}

// ListBoxes returns all boxes, newest first, with their items nested.
func ListBoxes(ctx context.Context, db *sql.DB) ([]model.Box, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+boxColumns+` FROM boxes ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing boxes: %w", err)
	}
	defer rows.Close()

	var boxes []model.Box
	index := make(map[string]int)
	for rows.Next() {
		b, err := scanBox(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning box: %w", err)
		}
		index[b.ID] = len(boxes)
		boxes = append(boxes, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing boxes: %w", err)
	}
	rows.Close()

	items, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY timestamp, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing box items: %w", err)
	}
	defer items.Close()

	for items.Next() {
		item, err := scanItem(items)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if i, ok := index[item.BoxID]; ok {
			boxes[i].Items = append(boxes[i].Items, *item)
		}
	}
	return boxes, items.Err()
}

// ActiveBoxExists reports whether a box with this barcode is still in use.
func ActiveBoxExists(ctx context.Context, db *sql.DB, barcode string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM boxes WHERE barcode = ? AND status <> ?`,
		barcode, model.BoxStatusReceived,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking active box: %w", err)
	}
	return count > 0, nil
}

// FindOpenBoxByBarcode returns the box with this barcode that has not been
// received yet.
func FindOpenBoxByBarcode(ctx context.Context, db *sql.DB, barcode string) (*model.Box, error) {
	var id string
	err := db.QueryRowContext(ctx,
		`SELECT id FROM boxes WHERE barcode = ? AND status <> ? LIMIT 1`,
		barcode, model.BoxStatusReceived,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding open box: %w", err)
	}
	return GetBox(ctx, db, id)
}

// UpdateBoxStatus moves a box to a new status in a single transaction. The
// status timestamps follow the box's ApplyStatus rules and the items are
// marked delivered when the box is received (and scanned again when a
// received box is reverted).
func UpdateBoxStatus(ctx context.Context, db *sql.DB, id string, status model.BoxStatus, now time.Time) (*model.Box, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	box, err := scanBox(tx.QueryRowContext(ctx,
		`SELECT `+boxColumns+` FROM boxes WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("updating box %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading box: %w", err)
	}

	previous := box.Status
	if err := box.ApplyStatus(status, now.UTC()); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE boxes SET status = ?, sealed_at = ?, in_transit_at = ?, received_at = ?
		 WHERE id = ?`,
		box.Status, box.SealedAt, box.InTransitAt, box.ReceivedAt, id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("box %s is already in use again: %w", box.Barcode, ErrConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("updating box status: %w", err)
	}

	var itemStatus model.ItemStatus
	switch {
	case status == model.BoxStatusReceived:
		itemStatus = model.ItemStatusDelivered
	case previous == model.BoxStatusReceived:
		itemStatus = model.ItemStatusScanned
	}
	if itemStatus != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ? WHERE box_id = ?`, itemStatus, id,
		); err != nil {
			return nil, fmt.Errorf("updating item status: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}

	return GetBox(ctx, db, id)
}

// DeleteBox removes a box and all of its items.
func DeleteBox(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE box_id = ?`, id); err != nil {
		return fmt.Errorf("deleting box items: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM boxes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting box: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("deleting box %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing box deletion: %w", err)
	}
	return nil
}
