// Package notify carries change events between the parts of scantrack that
// write to the database and the parts that keep client views fresh.
package notify

import (
	"context"
	"time"
)

// Tables that change events refer to.
const (
	TableBoxes     = "boxes"
	TableItems     = "items"
	TableLocations = "locations"
	TableSettings  = "settings"
)

// Operations that change events describe.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Event describes one committed change to a table.
type Event struct {
	Table  string    `json:"table"`
	Op     string    `json:"op"`
	ID     string    `json:"id"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin,omitempty"`
}

// Notifier publishes change events and fans them out to subscribers.
type Notifier interface {
	// Publish announces a change. It does not block on slow subscribers.
	Publish(ctx context.Context, evt Event) error
	// Subscribe returns a channel of events and a function that cancels the
	// subscription and closes the channel.
	Subscribe(buffer int) (<-chan Event, func())
	Close() error
}
