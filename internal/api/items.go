package api

import (
	"net/http"

	"github.com/erazemk/scantrack/internal/tracker"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Tracker *tracker.Tracker
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Tracker.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		trackerError(w, err, "delete item")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}
