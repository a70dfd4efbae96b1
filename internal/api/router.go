package api

import (
	"database/sql"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/erazemk/scantrack/internal/notify"
	"github.com/erazemk/scantrack/internal/tracker"
)

// Options holds the dependencies of the API router.
type Options struct {
	DB        *sql.DB
	Tracker   *tracker.Tracker
	Notifier  notify.Notifier
	JWTSecret string
	TokenTTL  time.Duration

	// Shutdown, when closed, ends open event streams.
	Shutdown <-chan struct{}

	// UnlockRate and UnlockBurst limit password attempts per client IP.
	UnlockRate  rate.Limit
	UnlockBurst int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	mux := http.NewServeMux()

	boxesHandler := &BoxesHandler{Tracker: opts.Tracker}
	scanHandler := &ScanHandler{Tracker: opts.Tracker}
	itemsHandler := &ItemsHandler{Tracker: opts.Tracker}
	locationsHandler := &LocationsHandler{Tracker: opts.Tracker}
	eventsHandler := &EventsHandler{Notifier: opts.Notifier, Done: opts.Shutdown}
	authHandler := &AuthHandler{
		DB:        opts.DB,
		Tracker:   opts.Tracker,
		JWTSecret: opts.JWTSecret,
		TokenTTL:  opts.TokenTTL,
	}

	if opts.UnlockRate <= 0 {
		opts.UnlockRate = rate.Every(5 * time.Second)
	}
	if opts.UnlockBurst < 1 {
		opts.UnlockBurst = 5
	}

	requireAdmin := RequireAdmin(opts.JWTSecret, opts.DB)
	limit := RateLimit(opts.UnlockRate, opts.UnlockBurst)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := opts.DB.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Boxes.
	mux.HandleFunc("GET /api/snapshot", boxesHandler.Snapshot)
	mux.HandleFunc("GET /api/boxes", boxesHandler.List)
	mux.HandleFunc("GET /api/boxes/{id}", boxesHandler.Get)
	mux.HandleFunc("POST /api/boxes/{id}/advance", boxesHandler.Advance)
	mux.Handle("POST /api/boxes/{id}/revert", limit(http.HandlerFunc(boxesHandler.Revert)))
	mux.Handle("DELETE /api/boxes/{id}", limit(http.HandlerFunc(boxesHandler.Delete)))
	mux.HandleFunc("GET /api/boxes/{id}/label", boxesHandler.Label)

	// Items and scans.
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)
	mux.HandleFunc("POST /api/scan", scanHandler.Scan)

	// Locations: read (all), write (admin).
	mux.HandleFunc("GET /api/locations", locationsHandler.List)
	mux.Handle("POST /api/locations", requireAdmin(http.HandlerFunc(locationsHandler.Create)))
	mux.Handle("DELETE /api/locations/{id}", requireAdmin(http.HandlerFunc(locationsHandler.Delete)))

	// Admin session and settings.
	mux.Handle("POST /api/auth/unlock", limit(http.HandlerFunc(authHandler.Unlock)))
	mux.Handle("POST /api/auth/lock", requireAdmin(http.HandlerFunc(authHandler.Lock)))
	mux.Handle("PUT /api/settings/password", requireAdmin(limit(http.HandlerFunc(authHandler.ChangePassword))))

	// Live updates.
	mux.HandleFunc("GET /api/events", eventsHandler.Stream)

	return mux
}
