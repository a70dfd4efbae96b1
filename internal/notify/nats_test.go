package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectFor(t *testing.T) {
	assert.Equal(t, "scantrack.changes.boxes", subjectFor(DefaultSubject, TableBoxes))
	assert.Equal(t, "site1.unknown", subjectFor("site1", " "))
}

func TestDecodeEvent(t *testing.T) {
	at := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	data, err := json.Marshal(Event{Table: TableItems, Op: OpDelete, ID: "i1", At: at, Origin: "node-a"})
	require.NoError(t, err)

	evt, err := decodeEvent(data)
	require.NoError(t, err)
	assert.Equal(t, TableItems, evt.Table)
	assert.Equal(t, OpDelete, evt.Op)
	assert.Equal(t, "node-a", evt.Origin)
	assert.True(t, evt.At.Equal(at))

	_, err = decodeEvent([]byte(`{"op":"INSERT"}`))
	assert.Error(t, err)

	_, err = decodeEvent([]byte(`not json`))
	assert.Error(t, err)
}

// TestNATS_RoundTrip needs a NATS server on the default URL.
func TestNATS_RoundTrip(t *testing.T) {
	n, err := NewNATS(nats.DefaultURL, "scantrack-test")
	if err != nil {
		t.Skipf("no NATS server available: %v", err)
	}
	defer n.Close()

	ch, unsubscribe := n.Subscribe(1)
	defer unsubscribe()

	require.NoError(t, n.Publish(context.Background(), Event{Table: TableBoxes, Op: OpUpdate, ID: "b1"}))

	select {
	case got := <-ch:
		assert.Equal(t, "b1", got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for echoed event")
	}
}
