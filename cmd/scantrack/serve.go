package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"

	"github.com/erazemk/scantrack/internal/api"
	"github.com/erazemk/scantrack/internal/config"
	"github.com/erazemk/scantrack/internal/db"
	"github.com/erazemk/scantrack/internal/metrics"
	"github.com/erazemk/scantrack/internal/notify"
	"github.com/erazemk/scantrack/internal/scheduler"
	"github.com/erazemk/scantrack/internal/store"
	"github.com/erazemk/scantrack/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			closeLog, err := setupLogger(cfg.Log, debug)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("addr", "a", ":8080", "listen address")
	flags.Duration("jwt-ttl", 15*time.Minute, "admin session lifetime")
	flags.Duration("debounce", 2*time.Second, "window in which a repeated scan is ignored (0 disables)")
	flags.String("nats-url", "", "NATS server URL for the shared change feed (default: in-process feed)")
	flags.Bool("metrics", true, "serve Prometheus metrics on /metrics")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	bindFlags(v, flags, map[string]string{
		"addr":     config.KeyAddr,
		"jwt-ttl":  config.KeyJWTTTL,
		"debounce": config.KeyScanDebounce,
		"nats-url": config.KeyNATSURL,
		"metrics":  config.KeyMetricsEnabled,
	})
	return cmd
}

// serve runs the server until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	database, err := db.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DB)

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("loading JWT secret: %w", err)
	}

	notifier, err := newNotifier(cfg.NATS)
	if err != nil {
		return err
	}
	defer notifier.Close()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prom.Registry
	if cfg.Metrics.Enabled {
		registry = prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	tr := tracker.New(database, tracker.Options{
		Notifier: notifier,
		Recorder: recorder,
		Debounce: cfg.ScanDebounce,
	})
	if err := tr.Start(ctx); err != nil {
		return err
	}
	defer tr.Stop()

	sched, err := scheduler.New()
	if err != nil {
		return err
	}
	if cfg.RefreshInterval > 0 {
		if err := sched.ScheduleRefresh(ctx, tr, cfg.RefreshInterval); err != nil {
			return err
		}
	}
	if cfg.TokenPurgeInterval > 0 {
		if err := sched.ScheduleTokenPurge(ctx, database, cfg.TokenPurgeInterval); err != nil {
			return err
		}
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			slog.Error("failed to stop scheduler", "error", err)
		}
	}()

	streamsDone := make(chan struct{})
	mux := http.NewServeMux()
	mux.Handle("/", api.NewRouter(api.Options{
		DB:          database,
		Tracker:     tr,
		Notifier:    notifier,
		JWTSecret:   jwtSecret,
		TokenTTL:    cfg.JWTTTL,
		UnlockRate:  rate.Limit(cfg.Unlock.Rate),
		UnlockBurst: cfg.Unlock.Burst,
		Shutdown:    streamsDone,
	}))
	if registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(registry))
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	server.RegisterOnShutdown(func() { close(streamsDone) })

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newNotifier returns the NATS change feed when a URL is configured and the
// in-process feed otherwise.
func newNotifier(cfg config.NATSConfig) (notify.Notifier, error) {
	if cfg.URL == "" {
		slog.Info("using in-process change feed")
		return notify.NewLocal(), nil
	}

	return notify.NewNATS(cfg.URL, cfg.Subject)
}
