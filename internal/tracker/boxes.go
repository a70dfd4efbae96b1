package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erazemk/scantrack/internal/model"
	"github.com/erazemk/scantrack/internal/notify"
	"github.com/erazemk/scantrack/internal/store"
)

// AdvanceBox moves a box one step forward in the workflow.
func (t *Tracker) AdvanceBox(ctx context.Context, id string) (*model.Box, error) {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	box, err := t.loadBox(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := model.NextStatus(box.Status)
	if !ok {
		return nil, fmt.Errorf("box %s is %s: %w", box.Barcode, box.Status, ErrInvalidTransition)
	}
	return t.setStatus(ctx, box, next)
}

// RevertBox moves a box one step back in the workflow. It requires the
// admin password.
func (t *Tracker) RevertBox(ctx context.Context, id, password string) (*model.Box, error) {
	if err := t.Authorize(ctx, password); err != nil {
		return nil, err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	box, err := t.loadBox(ctx, id)
	if err != nil {
		return nil, err
	}

	prev, ok := model.PreviousStatus(box.Status)
	if !ok {
		return nil, fmt.Errorf("box %s is %s: %w", box.Barcode, box.Status, ErrInvalidTransition)
	}
	return t.setStatus(ctx, box, prev)
}

// DeleteBox deletes a box and its items. It requires the admin password.
func (t *Tracker) DeleteBox(ctx context.Context, id, password string) error {
	if err := t.Authorize(ctx, password); err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	box, err := t.loadBox(ctx, id)
	if err != nil {
		return err
	}

	if err := store.DeleteBox(ctx, t.db, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrBoxNotFound
		}
		return err
	}

	slog.Info("box deleted", "box", box.Barcode, "items", box.ItemCount())
	t.changed(ctx, notify.TableBoxes, notify.OpDelete, id)
	return nil
}

// DeleteItem removes an item from its box. Items can only be removed while
// the box is still being packed.
func (t *Tracker) DeleteItem(ctx context.Context, itemID string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	item, err := store.GetItem(ctx, t.db, itemID)
	if err != nil {
		return err
	}
	if item == nil {
		return ErrItemNotFound
	}

	box, err := t.loadBox(ctx, item.BoxID)
	if err != nil {
		return err
	}
	if box.Status != model.BoxStatusActive {
		return fmt.Errorf("box %s is %s: %w", box.Barcode, box.Status, ErrBoxNotActive)
	}

	if err := store.DeleteItem(ctx, t.db, itemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}

	slog.Info("item removed", "box", box.Barcode, "item", item.Barcode)
	t.changed(ctx, notify.TableItems, notify.OpDelete, itemID)
	return nil
}

func (t *Tracker) loadBox(ctx context.Context, id string) (*model.Box, error) {
	box, err := store.GetBox(ctx, t.db, id)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, ErrBoxNotFound
	}
	return box, nil
}

// setStatus persists a status change for box. Callers hold writeMu.
func (t *Tracker) setStatus(ctx context.Context, box *model.Box, status model.BoxStatus) (*model.Box, error) {
	updated, err := store.UpdateBoxStatus(ctx, t.db, box.ID, status, t.now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrBoxNotFound
	case errors.Is(err, store.ErrConflict):
		return nil, fmt.Errorf("box %s: %w", box.Barcode, ErrBoxActive)
	case err != nil:
		return nil, err
	}

	t.recorder.IncTransition(string(box.Status), string(status))
	slog.Info("box status changed", "box", box.Barcode, "from", box.Status, "to", status)
	t.changed(ctx, notify.TableBoxes, notify.OpUpdate, box.ID)
	return updated, nil
}
