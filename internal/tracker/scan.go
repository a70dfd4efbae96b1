package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/erazemk/scantrack/internal/metrics"
	"github.com/erazemk/scantrack/internal/model"
	"github.com/erazemk/scantrack/internal/notify"
	"github.com/erazemk/scantrack/internal/store"
)

// Mode selects what a scanned barcode means.
type Mode string

// Scan modes.
const (
	ModeNewBox     Mode = "NEW_BOX"
	ModeAddItem    Mode = "ADD_ITEM"
	ModeReceiveBox Mode = "RECEIVE_BOX"
)

// Valid reports whether m is a known scan mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNewBox, ModeAddItem, ModeReceiveBox:
		return true
	}
	return false
}

// ScanRequest is one decoded barcode together with the scanner context it
// was read in. BoxID is the selected box for ADD_ITEM; Location is the start
// location for NEW_BOX.
type ScanRequest struct {
	Mode     Mode
	Barcode  string
	BoxID    string
	Location string
}

// ScanResult describes what a scan did. Box is the box that should be
// selected afterwards, if any.
type ScanResult struct {
	Outcome string      `json:"outcome"`
	Box     *model.Box  `json:"box,omitempty"`
	Item    *model.Item `json:"item,omitempty"`
}

type scanKey struct {
	mode    Mode
	boxID   string
	barcode string
}

// Scan applies a barcode scan.
func (t *Tracker) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if !req.Mode.Valid() {
		t.recorder.IncScan(string(req.Mode), metrics.OutcomeRejected)
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	barcode, err := model.NormalizeBarcode(req.Barcode)
	if err != nil {
		t.recorder.IncScan(string(req.Mode), metrics.OutcomeRejected)
		return nil, ErrEmptyBarcode
	}

	key := scanKey{mode: req.Mode, barcode: barcode}
	if req.Mode == ModeAddItem {
		key.boxID = req.BoxID
	}
	if t.repeated(key) {
		t.recorder.IncScan(string(req.Mode), metrics.OutcomeIgnored)
		return &ScanResult{Outcome: metrics.OutcomeIgnored}, nil
	}

	t.writeMu.Lock()
	var result *ScanResult
	switch req.Mode {
	case ModeNewBox:
		result, err = t.scanNewBox(ctx, barcode, req.Location)
	case ModeAddItem:
		result, err = t.scanAddItem(ctx, req.BoxID, barcode)
	case ModeReceiveBox:
		result, err = t.scanReceiveBox(ctx, barcode)
	}
	t.writeMu.Unlock()

	if err != nil {
		outcome := metrics.OutcomeFailed
		if isRejection(err) {
			outcome = metrics.OutcomeRejected
		}
		t.recorder.IncScan(string(req.Mode), outcome)
		return nil, err
	}

	t.recorder.IncScan(string(req.Mode), result.Outcome)
	return result, nil
}

// repeated reports whether the same scan was seen within the debounce
// window, and records this one.
func (t *Tracker) repeated(key scanKey) bool {
	if t.debounce <= 0 {
		return false
	}

	now := t.now()
	t.scanMu.Lock()
	defer t.scanMu.Unlock()

	for k, at := range t.lastScans {
		if now.Sub(at) >= t.debounce {
			delete(t.lastScans, k)
		}
	}

	if _, ok := t.lastScans[key]; ok {
		return true
	}
	t.lastScans[key] = now
	return false
}

func (t *Tracker) scanNewBox(ctx context.Context, barcode, location string) (*ScanResult, error) {
	exists, err := store.ActiveBoxExists(ctx, t.db, barcode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("box %s: %w", barcode, ErrBoxActive)
	}

	location = strings.TrimSpace(location)
	if location == "" {
		location = model.DefaultStartLocation
	}

	box, err := store.CreateBox(ctx, t.db, barcode, location, t.now())
	if errors.Is(err, store.ErrConflict) {
		return nil, fmt.Errorf("box %s: %w", barcode, ErrBoxActive)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("box created", "box", barcode, "location", location)
	t.changed(ctx, notify.TableBoxes, notify.OpInsert, box.ID)
	return &ScanResult{Outcome: metrics.OutcomeCreated, Box: box}, nil
}

func (t *Tracker) scanAddItem(ctx context.Context, boxID, barcode string) (*ScanResult, error) {
	if strings.TrimSpace(boxID) == "" {
		return nil, ErrNoBoxSelected
	}

	box, err := store.GetBox(ctx, t.db, boxID)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, ErrBoxNotFound
	}
	if box.Status != model.BoxStatusActive {
		return nil, fmt.Errorf("box %s is %s: %w", box.Barcode, box.Status, ErrBoxNotActive)
	}

	exists, err := store.ItemExists(ctx, t.db, barcode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("item %s: %w", barcode, ErrItemExists)
	}

	item, err := store.AddItem(ctx, t.db, box.ID, barcode, t.now())
	if errors.Is(err, store.ErrConflict) {
		return nil, fmt.Errorf("item %s: %w", barcode, ErrItemExists)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("item scanned", "box", box.Barcode, "item", barcode)
	t.changed(ctx, notify.TableItems, notify.OpInsert, item.ID)

	box, err = store.GetBox(ctx, t.db, box.ID)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Outcome: metrics.OutcomeAdded, Box: box, Item: item}, nil
}

func (t *Tracker) scanReceiveBox(ctx context.Context, barcode string) (*ScanResult, error) {
	box, err := store.FindOpenBoxByBarcode(ctx, t.db, barcode)
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, fmt.Errorf("box %s: %w", barcode, ErrBoxNotFound)
	}

	updated, err := t.setStatus(ctx, box, model.BoxStatusReceived)
	if err != nil {
		return nil, err
	}
	return &ScanResult{Outcome: metrics.OutcomeReceived, Box: updated}, nil
}

// isRejection reports whether err is a workflow rule rather than a failure.
func isRejection(err error) bool {
	for _, target := range []error{
		ErrBoxActive, ErrNoBoxSelected, ErrBoxNotFound, ErrBoxNotActive,
		ErrItemExists, ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

