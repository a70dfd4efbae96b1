package api

import (
	"net/http"

	"github.com/erazemk/scantrack/internal/tracker"
)

// LocationsHandler handles start location endpoints.
type LocationsHandler struct {
	Tracker *tracker.Tracker
}

type locationRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// List handles GET /api/locations.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, h.Tracker.Locations())
}

// Create handles POST /api/locations.
func (h *LocationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	loc, err := h.Tracker.AddLocation(r.Context(), req.Name)
	if err != nil {
		trackerError(w, err, "create location")
		return
	}
	jsonResponse(w, http.StatusCreated, loc)
}

// Delete handles DELETE /api/locations/{id}.
func (h *LocationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracker.DeleteLocation(r.Context(), r.PathValue("id")); err != nil {
		trackerError(w, err, "delete location")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "location deleted"})
}
