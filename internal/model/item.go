package model

import "time"

// ItemStatus is the delivery state of a scanned item.
type ItemStatus string

// Item statuses.
const (
	ItemStatusScanned   ItemStatus = "SCANNED"
	ItemStatusDelivered ItemStatus = "DELIVERED"
)

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	return s == ItemStatusScanned || s == ItemStatusDelivered
}

// Item is a single barcoded article packed into a box.
type Item struct {
	ID        string     `json:"id"`
	BoxID     string     `json:"box_id"`
	Barcode   string     `json:"barcode"`
	Timestamp time.Time  `json:"timestamp"`
	Status    ItemStatus `json:"status"`
}
