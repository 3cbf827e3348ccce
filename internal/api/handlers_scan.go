package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/pshenley/hollow/internal/scanner"
)

// handleScanRun triggers a scan. An optional JSON body may override the
// configured root path and policy flags.
// POST /api/v1/scans
func (r *Router) handleScanRun(w http.ResponseWriter, req *http.Request) {
	var body scanner.Request
	if strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	// The scan outlives the request; detach it from the request context.
	result, err := r.scannerService.Run(context.WithoutCancel(req.Context()), body)
	if err != nil {
		if errors.Is(err, scanner.ErrScanInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		r.logger.Error("starting scan", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusAccepted, result)
}

// handleScanStatus returns the current or most recent scan status.
// GET /api/v1/scans/current
func (r *Router) handleScanStatus(w http.ResponseWriter, req *http.Request) {
	status := r.scannerService.Status()
	if status == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "idle"})
		return
	}

	writeJSON(w, http.StatusOK, status)
}
