package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/scantrack/internal/auth"
	"github.com/erazemk/scantrack/internal/store"
	"github.com/erazemk/scantrack/internal/tracker"
)

// AuthHandler handles the admin unlock/lock endpoints and password changes.
type AuthHandler struct {
	DB        *sql.DB
	Tracker   *tracker.Tracker
	JWTSecret string
	TokenTTL  time.Duration
}

type unlockResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required,max=64"`
	NewPassword     string `json:"new_password" validate:"required,numeric,min=4,max=12"`
}

// Unlock handles POST /api/auth/unlock.
func (h *AuthHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Tracker.Authorize(r.Context(), req.Password); err != nil {
		if errors.Is(err, tracker.ErrWrongPassword) {
			slog.Warn("unlock failed", "remote", r.RemoteAddr)
		}
		trackerError(w, err, "check password")
		return
	}

	token, err := auth.GenerateToken(h.JWTSecret, h.TokenTTL)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	claims, err := auth.ValidateToken(h.JWTSecret, token)
	if err != nil {
		slog.Error("failed to read back token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("admin unlocked", "remote", r.RemoteAddr)
	jsonResponse(w, http.StatusOK, unlockResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time})
}

// Lock handles POST /api/auth/lock. It revokes the caller's token.
func (h *AuthHandler) Lock(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expiresAt := time.Now().Add(auth.DefaultTokenTTL)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		slog.Error("failed to revoke token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to lock")
		return
	}

	slog.Info("admin locked", "remote", r.RemoteAddr)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "locked"})
}

// ChangePassword handles PUT /api/settings/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Tracker.ChangeAdminPassword(r.Context(), req.CurrentPassword, req.NewPassword); err != nil {
		trackerError(w, err, "update password")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
