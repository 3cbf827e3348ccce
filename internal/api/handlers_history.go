package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pshenley/hollow/internal/history"
	"github.com/pshenley/hollow/internal/report"
)

// handleListScans returns all stored scans, newest first.
// GET /api/v1/scans
func (r *Router) handleListScans(w http.ResponseWriter, req *http.Request) {
	entries, err := r.historyService.List(req.Context())
	if err != nil {
		r.logger.Error("listing scans", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleGetScan returns the full stored report for one scan.
// GET /api/v1/scans/{id}
func (r *Router) handleGetScan(w http.ResponseWriter, req *http.Request) {
	doc, ok := r.loadDocument(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDeleteScan removes one stored scan.
// DELETE /api/v1/scans/{id}
func (r *Router) handleDeleteScan(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	if err := r.historyService.Delete(req.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return
		}
		r.logger.Error("deleting scan", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleExportJSON serves the stored report as a JSON download.
// GET /api/v1/scans/{id}/export.json
func (r *Router) handleExportJSON(w http.ResponseWriter, req *http.Request) {
	doc, ok := r.loadDocument(w, req)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename("missing_files_report", "json")))
	if err := report.WriteJSON(w, *doc); err != nil {
		r.logger.Error("writing json export", "error", err)
	}
}

// handleExportCSV serves the problematic folders of a stored report as CSV.
// GET /api/v1/scans/{id}/export.csv
func (r *Router) handleExportCSV(w http.ResponseWriter, req *http.Request) {
	doc, ok := r.loadDocument(w, req)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exportFilename("problematic_folders", "csv")))
	if err := report.WriteCSV(w, *doc); err != nil {
		r.logger.Error("writing csv export", "error", err)
	}
}

func (r *Router) loadDocument(w http.ResponseWriter, req *http.Request) (*report.Document, bool) {
	id := req.PathValue("id")
	doc, err := r.historyService.GetDocument(req.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			writeError(w, http.StatusNotFound, "scan not found")
			return nil, false
		}
		r.logger.Error("loading scan report", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return doc, true
}

func exportFilename(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), ext)
}
