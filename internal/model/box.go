package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTransition is returned when a status change breaks the workflow.
var ErrInvalidTransition = errors.New("invalid status transition")

// BoxStatus is the lifecycle state of a transport box.
type BoxStatus string

// Box statuses, in workflow order.
const (
	BoxStatusPending   BoxStatus = "PENDING"
	BoxStatusActive    BoxStatus = "ACTIVE"
	BoxStatusSealed    BoxStatus = "SEALED"
	BoxStatusInTransit BoxStatus = "IN_TRANSIT"
	BoxStatusReceived  BoxStatus = "RECEIVED"
)

// DefaultStartLocation is used when a box is created without a location.
const DefaultStartLocation = "Unknown"

// Box is a transport box and the items scanned into it.
type Box struct {
	ID            string     `json:"id"`
	Barcode       string     `json:"barcode"`
	Status        BoxStatus  `json:"status"`
	StartLocation string     `json:"start_location"`
	CreatedAt     time.Time  `json:"created_at"`
	SealedAt      *time.Time `json:"sealed_at,omitempty"`
	InTransitAt   *time.Time `json:"in_transit_at,omitempty"`
	ReceivedAt    *time.Time `json:"received_at,omitempty"`
	Items         []Item     `json:"items"`
}

// statusOrder gives each status its position in the workflow.
var statusOrder = map[BoxStatus]int{
	BoxStatusPending:   0,
	BoxStatusActive:    1,
	BoxStatusSealed:    2,
	BoxStatusInTransit: 3,
	BoxStatusReceived:  4,
}

// Valid reports whether s is a known box status.
func (s BoxStatus) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Open reports whether a box in this status still counts as in use, which
// is what barcode uniqueness is checked against.
func (s BoxStatus) Open() bool {
	return s.Valid() && s != BoxStatusReceived
}

// NextStatus returns the status a box moves to when advanced.
func NextStatus(s BoxStatus) (BoxStatus, bool) {
	switch s {
	case BoxStatusPending:
		return BoxStatusActive, true
	case BoxStatusActive:
		return BoxStatusSealed, true
	case BoxStatusSealed:
		return BoxStatusInTransit, true
	case BoxStatusInTransit:
		return BoxStatusReceived, true
	default:
		return "", false
	}
}

// PreviousStatus returns the status a box is reverted to. Only sealed,
// in-transit and received boxes can be reverted.
func PreviousStatus(s BoxStatus) (BoxStatus, bool) {
	switch s {
	case BoxStatusReceived:
		return BoxStatusInTransit, true
	case BoxStatusInTransit:
		return BoxStatusSealed, true
	case BoxStatusSealed:
		return BoxStatusActive, true
	default:
		return "", false
	}
}

// CanTransition reports whether a box may move from one status to another.
// Allowed moves are one step forward, one step back, and receiving any
// box that is already in use.
func CanTransition(from, to BoxStatus) bool {
	if next, ok := NextStatus(from); ok && next == to {
		return true
	}
	if prev, ok := PreviousStatus(from); ok && prev == to {
		return true
	}
	return to == BoxStatusReceived && from.Open() && from != BoxStatusPending
}

// ApplyStatus moves the box to status to and updates its timestamps: the
// timestamp of the entered status is set to now and the timestamps of all
// later statuses are cleared.
func (b *Box) ApplyStatus(to BoxStatus, now time.Time) error {
	if !CanTransition(b.Status, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, b.Status, to)
	}

	stamp := now
	switch to {
	case BoxStatusSealed:
		b.SealedAt = &stamp
	case BoxStatusInTransit:
		b.InTransitAt = &stamp
	case BoxStatusReceived:
		b.ReceivedAt = &stamp
	}

	rank := statusOrder[to]
	if rank < statusOrder[BoxStatusSealed] {
		b.SealedAt = nil
	}
	if rank < statusOrder[BoxStatusInTransit] {
		b.InTransitAt = nil
	}
	if rank < statusOrder[BoxStatusReceived] {
		b.ReceivedAt = nil
	}

	b.Status = to
	return nil
}

// ItemCount returns the number of items in the box.
func (b *Box) ItemCount() int {
	return len(b.Items)
}

// NormalizeBarcode trims a scanned barcode and rejects empty input.
func NormalizeBarcode(raw string) (string, error) {
	barcode := strings.TrimSpace(raw)
	if barcode == "" {
		return "", fmt.Errorf("barcode is empty")
	}
	return barcode, nil
}
