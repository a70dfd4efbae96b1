package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PublishSubscribe(t *testing.T) {
	l := NewLocal()
	defer l.Close()

	ch, unsubscribe := l.Subscribe(1)
	defer unsubscribe()

	evt := Event{Table: TableBoxes, Op: OpInsert, ID: "b1", At: time.Now()}
	require.NoError(t, l.Publish(context.Background(), evt))

	select {
	case got := <-ch:
		assert.Equal(t, "b1", got.ID)
		assert.Equal(t, TableBoxes, got.Table)
	case <-time.After(250 * time.Millisecond):
		t.Fatal("timed out waiting for event")
	}
}

func TestLocal_FanOut(t *testing.T) {
	l := NewLocal()
	defer l.Close()

	a, unsubA := l.Subscribe(1)
	defer unsubA()
	b, unsubB := l.Subscribe(1)
	defer unsubB()

	require.NoError(t, l.Publish(context.Background(), Event{Table: TableItems, ID: "i1"}))

	assert.Equal(t, "i1", (<-a).ID)
	assert.Equal(t, "i1", (<-b).ID)
}

func TestLocal_SlowSubscriberDoesNotBlock(t *testing.T) {
	l := NewLocal()
	defer l.Close()

	_, unsubscribe := l.Subscribe(0)
	defer unsubscribe()

	done := make(chan error, 1)
	go func() { done <- l.Publish(context.Background(), Event{Table: TableBoxes}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(250 * time.Millisecond):
		t.Fatal("publish blocked on a full subscriber")
	}
	assert.Equal(t, uint64(1), l.Dropped())
}

func TestLocal_Unsubscribe(t *testing.T) {
	l := NewLocal()
	defer l.Close()

	ch, unsubscribe := l.Subscribe(1)
	require.Equal(t, 1, l.SubscriberCount())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, l.SubscriberCount())

	_, ok := <-ch
	assert.False(t, ok, "channel must be closed after unsubscribe")
}

func TestLocal_Close(t *testing.T) {
	l := NewLocal()

	ch, unsubscribe := l.Subscribe(1)
	require.NoError(t, l.Close())

	_, ok := <-ch
	assert.False(t, ok, "channel must be closed on close")

	// Unsubscribing after close must not panic.
	unsubscribe()

	err := l.Publish(context.Background(), Event{Table: TableBoxes})
	assert.ErrorIs(t, err, ErrClosed)

	late, _ := l.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok, "subscribing after close returns a closed channel")
}

func TestLocal_PublishCanceledContext(t *testing.T) {
	l := NewLocal()
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, l.Publish(ctx, Event{Table: TableBoxes}), context.Canceled)
}
