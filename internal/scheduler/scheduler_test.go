package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/scantrack/internal/db"
	"github.com/erazemk/scantrack/internal/store"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls.Add(1)
	return nil
}

func TestScheduleEvery(t *testing.T) {
	t.Run("returns job id for valid interval", func(t *testing.T) {
		s, err := New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		id, err := s.ScheduleEvery("test", 10*time.Second, func() {})
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		s, err := New()
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Stop() })

		_, err = s.ScheduleEvery("test", 0, func() {})
		require.Error(t, err)
	})
}

func TestScheduleRefreshRuns(t *testing.T) {
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	r := &countingRefresher{}
	require.NoError(t, s.ScheduleRefresh(context.Background(), r, 20*time.Millisecond))
	s.Start()

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduleTokenPurge(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, err := database.ExecContext(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)`,
		"stale", time.Now().Add(-time.Hour).UTC(),
	)
	require.NoError(t, err)

	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })

	require.NoError(t, s.ScheduleTokenPurge(ctx, database, time.Hour))
	s.Start()

	require.Eventually(t, func() bool {
		revoked, err := store.IsTokenRevoked(ctx, database, "stale")
		return err == nil && !revoked
	}, 2*time.Second, 20*time.Millisecond)
}
