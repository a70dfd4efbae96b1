package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/scantrack/internal/label"
	"github.com/erazemk/scantrack/internal/tracker"
)

// BoxesHandler handles box endpoints.
type BoxesHandler struct {
	Tracker *tracker.Tracker
}

type passwordRequest struct {
	Password string `json:"password" validate:"required,max=64"`
}

// Snapshot handles GET /api/snapshot.
func (h *BoxesHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Tracker.Snapshot())
}

// List handles GET /api/boxes.
func (h *BoxesHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Tracker.Boxes())
}

// Get handles GET /api/boxes/{id}.
func (h *BoxesHandler) Get(w http.ResponseWriter, r *http.Request) {
	box, ok := h.Tracker.Box(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "box not found")
		return
	}
	jsonResponse(w, http.StatusOK, box)
}

// Advance handles POST /api/boxes/{id}/advance.
func (h *BoxesHandler) Advance(w http.ResponseWriter, r *http.Request) {
	box, err := h.Tracker.AdvanceBox(r.Context(), r.PathValue("id"))
	if err != nil {
		trackerError(w, err, "advance box")
		return
	}
	jsonResponse(w, http.StatusOK, box)
}

// Revert handles POST /api/boxes/{id}/revert.
func (h *BoxesHandler) Revert(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	box, err := h.Tracker.RevertBox(r.Context(), r.PathValue("id"), req.Password)
	if err != nil {
		if errors.Is(err, tracker.ErrWrongPassword) {
			slog.Warn("revert rejected", "box", r.PathValue("id"), "remote", r.RemoteAddr)
		}
		trackerError(w, err, "revert box")
		return
	}
	jsonResponse(w, http.StatusOK, box)
}

// Delete handles DELETE /api/boxes/{id}.
func (h *BoxesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.Tracker.DeleteBox(r.Context(), r.PathValue("id"), req.Password); err != nil {
		if errors.Is(err, tracker.ErrWrongPassword) {
			slog.Warn("delete rejected", "box", r.PathValue("id"), "remote", r.RemoteAddr)
		}
		trackerError(w, err, "delete box")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "box deleted"})
}

// Label handles GET /api/boxes/{id}/label.
func (h *BoxesHandler) Label(w http.ResponseWriter, r *http.Request) {
	box, ok := h.Tracker.Box(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "box not found")
		return
	}

	data, err := label.Render(box)
	if err != nil {
		slog.Error("failed to render label", "box", box.Barcode, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to render label")
		return
	}

	w.Header().Set("Content-Type", label.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "box-"+box.Barcode+".png"))
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}
