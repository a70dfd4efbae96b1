// Package tracker coordinates the box workflow. It applies scans and status
// changes to the store, keeps an in-memory snapshot of all boxes and
// locations for readers, and announces every change on the change feed.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/scantrack/internal/metrics"
	"github.com/erazemk/scantrack/internal/model"
	"github.com/erazemk/scantrack/internal/notify"
	"github.com/erazemk/scantrack/internal/store"
)

// DefaultDebounce is the usual repeat-scan window.
const DefaultDebounce = 2 * time.Second

// Snapshot is a point-in-time view of all boxes and locations.
type Snapshot struct {
	Boxes       []model.Box      `json:"boxes"`
	Locations   []model.Location `json:"locations"`
	RefreshedAt time.Time        `json:"refreshed_at"`
}

// Options configure a Tracker.
type Options struct {
	Notifier notify.Notifier
	Recorder metrics.Recorder
	// Debounce is the window in which an identical scan is ignored. Zero
	// or a negative value disables suppression; DefaultDebounce is the
	// usual setting.
	Debounce time.Duration
	Now      func() time.Time
}

// Tracker is the workflow coordinator. It is safe for concurrent use.
type Tracker struct {
	db       *sql.DB
	notifier notify.Notifier
	recorder metrics.Recorder
	debounce time.Duration
	now      func() time.Time
	origin   string

	mu       sync.RWMutex
	snapshot Snapshot

	// refreshMu is held from the store read through the snapshot swap, so
	// a refresh that read before a commit cannot replace a later one.
	refreshMu sync.Mutex

	// writeMu serializes workflow mutations so that check-then-write
	// sequences (active box lookup, item existence) see a stable store.
	writeMu sync.Mutex

	scanMu    sync.Mutex
	lastScans map[scanKey]time.Time

	stop func()
	done chan struct{}
}

// New creates a tracker over db.
func New(db *sql.DB, opts Options) *Tracker {
	t := &Tracker{
		db:        db,
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		debounce:  opts.Debounce,
		now:       opts.Now,
		origin:    uuid.NewString(),
		lastScans: make(map[scanKey]time.Time),
		snapshot: Snapshot{
			Boxes:     []model.Box{},
			Locations: []model.Location{},
		},
	}
	if t.recorder == nil {
		t.recorder = metrics.NoopRecorder{}
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Start loads the initial snapshot and begins following the change feed, so
// that writes made by other instances show up in the snapshot.
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.Refresh(ctx); err != nil {
		return fmt.Errorf("loading initial snapshot: %w", err)
	}
	if t.notifier == nil {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	events, unsubscribe := t.notifier.Subscribe(64)
	t.done = make(chan struct{})
	t.stop = func() {
		cancel()
		unsubscribe()
	}
	go t.follow(ctx, events)
	return nil
}

// Stop stops following the change feed.
func (t *Tracker) Stop() {
	if t.stop == nil {
		return
	}
	t.stop()
	<-t.done
	t.stop = nil
}

func (t *Tracker) follow(ctx context.Context, events <-chan notify.Event) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if evt.Origin == t.origin {
				continue
			}
			slog.Debug("remote change", "table", evt.Table, "op", evt.Op, "id", evt.ID)
			if err := t.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Error("failed to refresh snapshot", "error", err)
			}
		}
	}
}

// Refresh reloads the snapshot from the store.
func (t *Tracker) Refresh(ctx context.Context) error {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	start := time.Now()

	boxes, err := store.ListBoxes(ctx, t.db)
	if err != nil {
		return err
	}
	locations, err := store.ListLocations(ctx, t.db)
	if err != nil {
		return err
	}
	if boxes == nil {
		boxes = []model.Box{}
	}
	if locations == nil {
		locations = []model.Location{}
	}

	t.mu.Lock()
	t.snapshot = Snapshot{Boxes: boxes, Locations: locations, RefreshedAt: t.now()}
	t.mu.Unlock()

	counts := make(map[string]int)
	for _, b := range boxes {
		counts[string(b.Status)]++
	}
	t.recorder.SetBoxesByStatus(counts)
	t.recorder.ObserveRefreshDuration(time.Since(start))
	return nil
}

// Snapshot returns a deep copy of the current snapshot.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return Snapshot{
		Boxes:       cloneBoxes(t.snapshot.Boxes),
		Locations:   append([]model.Location{}, t.snapshot.Locations...),
		RefreshedAt: t.snapshot.RefreshedAt,
	}
}

// Boxes returns all boxes in the snapshot, newest first.
func (t *Tracker) Boxes() []model.Box {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return cloneBoxes(t.snapshot.Boxes)
}

// Box returns a box from the snapshot.
func (t *Tracker) Box(id string) (*model.Box, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := range t.snapshot.Boxes {
		if t.snapshot.Boxes[i].ID == id {
			b := cloneBox(t.snapshot.Boxes[i])
			return &b, true
		}
	}
	return nil, false
}

// Locations returns all locations in the snapshot, sorted by name.
func (t *Tracker) Locations() []model.Location {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]model.Location{}, t.snapshot.Locations...)
}

// changed announces a committed change and refreshes the snapshot. Neither
// step can undo the change, so failures are logged.
func (t *Tracker) changed(ctx context.Context, table, op, id string) {
	if t.notifier != nil {
		evt := notify.Event{Table: table, Op: op, ID: id, At: t.now(), Origin: t.origin}
		if err := t.notifier.Publish(ctx, evt); err != nil {
			slog.Warn("failed to publish change", "table", table, "id", id, "error", err)
		}
	}
	if err := t.Refresh(ctx); err != nil {
		slog.Error("failed to refresh snapshot", "error", err)
	}
}

func cloneBoxes(boxes []model.Box) []model.Box {
	out := make([]model.Box, len(boxes))
	for i, b := range boxes {
		out[i] = cloneBox(b)
	}
	return out
}

func cloneBox(b model.Box) model.Box {
	b.Items = append([]model.Item{}, b.Items...)
	b.SealedAt = cloneTime(b.SealedAt)
	b.InTransitAt = cloneTime(b.InTransitAt)
	b.ReceivedAt = cloneTime(b.ReceivedAt)
	return b
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
