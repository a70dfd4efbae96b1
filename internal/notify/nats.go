package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the subject prefix used when none is configured.
const DefaultSubject = "scantrack.changes"

// NATS is a Notifier backed by a NATS server, so that several scantrack
// instances sharing one database see each other's writes. Events received
// from the server are fanned out to local subscribers.
type NATS struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	prefix string
	local  *Local
}

// NewNATS connects to the NATS server at url and subscribes to all events
// below prefix.
func NewNATS(url, prefix string) (*NATS, error) {
	if prefix == "" {
		prefix = DefaultSubject
	}

	conn, err := nats.Connect(url,
		nats.Name("scantrack"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n := &NATS{conn: conn, prefix: prefix, local: NewLocal()}

	n.sub, err = conn.Subscribe(prefix+".>", n.handle)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", prefix, err)
	}

	slog.Info("NATS change feed connected", "url", url, "subject", prefix)
	return n, nil
}

func (n *NATS) handle(msg *nats.Msg) {
	evt, err := decodeEvent(msg.Data)
	if err != nil {
		slog.Warn("ignoring malformed change event", "subject", msg.Subject, "error", err)
		return
	}
	if err := n.local.Publish(context.Background(), evt); err != nil {
		slog.Debug("change event not delivered", "error", err)
	}
}

// Publish sends evt to the NATS server. Local subscribers receive it when
// the server echoes it back.
func (n *NATS) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := n.conn.Publish(subjectFor(n.prefix, evt.Table), data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe registers a local subscriber for events from every instance.
func (n *NATS) Subscribe(buffer int) (<-chan Event, func()) {
	return n.local.Subscribe(buffer)
}

// Close drains the subscription and closes the connection.
func (n *NATS) Close() error {
	var err error
	if n.sub != nil {
		err = n.sub.Unsubscribe()
	}
	if n.conn != nil {
		n.conn.Close()
	}
	n.local.Close()
	return err
}

func subjectFor(prefix, table string) string {
	table = strings.TrimSpace(table)
	if table == "" {
		table = "unknown"
	}
	return prefix + "." + table
}

func decodeEvent(data []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return Event{}, fmt.Errorf("decoding event: %w", err)
	}
	if evt.Table == "" {
		return Event{}, fmt.Errorf("decoding event: missing table")
	}
	return evt, nil
}
