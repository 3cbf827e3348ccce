package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pshenley/hollow/internal/api/middleware"
	"github.com/pshenley/hollow/internal/history"
	"github.com/pshenley/hollow/internal/scanner"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
type RouterDeps struct {
	ScannerService *scanner.Service
	HistoryService *history.Service
	Logger         *slog.Logger
	BasePath       string
}

// Router sets up all HTTP routes for the application.
type Router struct {
	scannerService *scanner.Service
	historyService *history.Service
	logger         *slog.Logger
	basePath       string
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		scannerService: deps.ScannerService,
		historyService: deps.HistoryService,
		logger:         deps.Logger,
		basePath:       deps.BasePath,
	}
}

// Handler returns the fully configured HTTP handler with middleware applied.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	bp := r.basePath

	scanLimiter := middleware.NewScanRateLimiter(12*time.Second, 5)

	mux.HandleFunc("GET "+bp+"/api/v1/health", r.handleHealth)
	mux.Handle("POST "+bp+"/api/v1/scans",
		scanLimiter.Middleware(http.HandlerFunc(r.handleScanRun)))
	mux.HandleFunc("GET "+bp+"/api/v1/scans/current", r.handleScanStatus)
	mux.HandleFunc("GET "+bp+"/api/v1/scans", r.handleListScans)
	mux.HandleFunc("GET "+bp+"/api/v1/scans/{id}", r.handleGetScan)
	mux.HandleFunc("DELETE "+bp+"/api/v1/scans/{id}", r.handleDeleteScan)
	mux.HandleFunc("GET "+bp+"/api/v1/scans/{id}/export.json", r.handleExportJSON)
	mux.HandleFunc("GET "+bp+"/api/v1/scans/{id}/export.csv", r.handleExportCSV)

	return middleware.Logging(r.logger)(mux)
}
