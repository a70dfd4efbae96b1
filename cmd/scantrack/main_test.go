package main

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/scantrack/internal/config"
	"github.com/erazemk/scantrack/internal/db"
	"github.com/erazemk/scantrack/internal/tracker"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "scantrack "+version)
}

func TestPasswordReset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scantrack.sqlite3")

	out, err := run(t, "--db", path, "password", "reset", "4321")
	require.NoError(t, err)
	assert.Contains(t, out, "Admin password reset")

	database, err := db.Open(path)
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	tr := tracker.New(database, tracker.Options{})
	assert.NoError(t, tr.Authorize(ctx, "4321"))
	assert.ErrorIs(t, tr.Authorize(ctx, "0000"), tracker.ErrWrongPassword)

	// Without an argument the default comes back.
	_, err = run(t, "--db", path, "password", "reset")
	require.NoError(t, err)
	assert.NoError(t, tr.Authorize(ctx, "0000"))
}

func TestPasswordResetRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scantrack.sqlite3")
	_, err := run(t, "--db", path, "password", "reset", "12ab")
	assert.ErrorIs(t, err, tracker.ErrInvalidPassword)
}

func TestLevelRouter(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(newLevelRouter(&out, &errOut, slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("box created", "box", "BOX-1")
	logger.With("component", "scan").Warn("repeat scan")
	logger.Error("refresh failed")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "box=BOX-1")
	assert.Contains(t, out.String(), "component=scan")
	assert.NotContains(t, out.String(), "refresh failed")
	assert.Contains(t, errOut.String(), "refresh failed")
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := &config.Config{
		DB:                 filepath.Join(t.TempDir(), "scantrack.sqlite3"),
		Addr:               "127.0.0.1:0",
		JWTTTL:             time.Minute,
		RefreshInterval:    time.Minute,
		TokenPurgeInterval: time.Minute,
		Metrics:            config.MetricsConfig{Enabled: true},
		Unlock:             config.UnlockConfig{Rate: 1, Burst: 1},
	}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg) }()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not stop")
	}
}
