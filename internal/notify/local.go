package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned when publishing on a closed notifier.
var ErrClosed = errors.New("notifier is closed")

// Local is an in-process Notifier. Subscribers whose buffer is full miss
// the event instead of holding up the publisher.
type Local struct {
	mu        sync.RWMutex
	subs      map[uint64]chan Event
	nextID    atomic.Uint64
	isClosed  atomic.Bool
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// NewLocal creates an in-process notifier.
func NewLocal() *Local {
	return &Local{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a new subscriber.
func (l *Local) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	l.mu.Lock()
	if l.isClosed.Load() {
		l.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := l.nextID.Add(1)
	l.subs[id] = ch
	l.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if _, ok := l.subs[id]; ok {
				delete(l.subs, id)
				close(ch)
			}
		})
	}
}

// Publish delivers evt to every subscriber with room in its buffer.
func (l *Local) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if l.isClosed.Load() {
		return ErrClosed
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, ch := range l.subs {
		select {
		case ch <- evt:
		default:
			l.dropped.Add(1)
			slog.Warn("dropping change event for slow subscriber", "table", evt.Table, "id", evt.ID)
		}
	}
	return nil
}

// SubscriberCount returns the number of active subscribers.
func (l *Local) SubscriberCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (l *Local) Dropped() uint64 {
	return l.dropped.Load()
}

// Close closes all subscription channels.
func (l *Local) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.isClosed.Store(true)
		for id, ch := range l.subs {
			close(ch)
			delete(l.subs, id)
		}
		l.mu.Unlock()
	})
	return nil
}
