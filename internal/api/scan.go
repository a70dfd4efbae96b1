package api

import (
	"net/http"

	"github.com/erazemk/scantrack/internal/metrics"
	"github.com/erazemk/scantrack/internal/tracker"
)

// ScanHandler handles barcode scans.
type ScanHandler struct {
	Tracker *tracker.Tracker
}

type scanRequest struct {
	Mode     string `json:"mode" validate:"required"`
	Barcode  string `json:"barcode" validate:"required,max=128"`
	BoxID    string `json:"box_id" validate:"max=64"`
	Location string `json:"location" validate:"max=100"`
}

// Scan handles POST /api/scan.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.Tracker.Scan(r.Context(), tracker.ScanRequest{
		Mode:     tracker.Mode(req.Mode),
		Barcode:  req.Barcode,
		BoxID:    req.BoxID,
		Location: req.Location,
	})
	if err != nil {
		trackerError(w, err, "process scan")
		return
	}

	status := http.StatusOK
	if result.Outcome == metrics.OutcomeCreated {
		status = http.StatusCreated
	}
	jsonResponse(w, status, result)
}
