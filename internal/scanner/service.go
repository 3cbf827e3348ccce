// Package scanner runs folder-classification scans asynchronously and hands
// the finished reports to the history store.
package scanner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pshenley/hollow/internal/classify"
	"github.com/pshenley/hollow/internal/event"
	"github.com/pshenley/hollow/internal/history"
	"github.com/pshenley/hollow/internal/report"
)

// ErrScanInProgress indicates a scan is already running.
var ErrScanInProgress = errors.New("scan already in progress")

// Service runs scans against the configured ingestion root. Only one scan
// runs at a time.
type Service struct {
	history  *history.Service
	logger   *slog.Logger
	eventBus *event.Bus

	mu          sync.Mutex
	defaultRoot string
	defaultOpts classify.Options
	retention   int
	currentScan *Scan
}

// NewService creates a scanner service with the given defaults.
func NewService(historyService *history.Service, logger *slog.Logger, root string, opts classify.Options, retention int) *Service {
	return &Service{
		history:     historyService,
		logger:      logger,
		defaultRoot: root,
		defaultOpts: opts,
		retention:   retention,
	}
}

// SetEventBus sets the event bus for publishing scan lifecycle events.
func (s *Service) SetEventBus(bus *event.Bus) {
	s.eventBus = bus
}

// SetDefaults replaces the default root, options, and retention count.
// Used by config hot reload; a running scan keeps the values it started with.
func (s *Service) SetDefaults(root string, opts classify.Options, retention int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultRoot = root
	s.defaultOpts = opts
	s.retention = retention
}

// Run starts a scan with the configured defaults plus any request overrides.
// Returns a snapshot of the initial scan state (safe to read without
// synchronization), or ErrScanInProgress.
func (s *Service) Run(ctx context.Context, req Request) (*Scan, error) {
	s.mu.Lock()
	if s.currentScan != nil && s.currentScan.Status == StatusRunning {
		s.mu.Unlock()
		return nil, ErrScanInProgress
	}

	root := s.defaultRoot
	if req.RootPath != "" {
		root = req.RootPath
	}
	opts := s.defaultOpts
	if req.LeafOnly != nil {
		opts.LeafOnly = *req.LeafOnly
	}
	if req.IncludeValid != nil {
		opts.IncludeValid = *req.IncludeValid
	}
	retention := s.retention

	scan := &Scan{
		ID:        uuid.New().String(),
		Status:    StatusRunning,
		RootPath:  root,
		StartedAt: time.Now().UTC(),
	}
	s.currentScan = scan
	snapshot := *scan
	s.mu.Unlock()

	s.publish(event.ScanStarted, map[string]any{
		"scan_id":   scan.ID,
		"root_path": root,
	})

	go s.runScan(ctx, scan, root, opts, retention)

	return &snapshot, nil
}

// Status returns a snapshot of the current or most recent scan, or nil if no
// scan has run yet.
func (s *Service) Status() *Scan {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentScan == nil {
		return nil
	}
	snapshot := *s.currentScan
	return &snapshot
}

func (s *Service) runScan(ctx context.Context, scan *Scan, root string, opts classify.Options, retention int) {
	result, err := classify.Scan(ctx, root, opts)

	s.mu.Lock()
	now := time.Now().UTC()
	scan.CompletedAt = &now
	if err != nil {
		scan.Status = StatusFailed
		scan.Error = err.Error()
	} else {
		scan.Status = StatusCompleted
		summary := result.Summary
		scan.Summary = &summary
	}
	snapshot := *scan
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scan failed", "scan_id", scan.ID, "path", root, "error", err)
		s.publish(event.ScanFailed, map[string]any{
			"scan_id":   snapshot.ID,
			"root_path": root,
			"error":     snapshot.Error,
		})
		return
	}

	if n := len(result.Inaccessible); n > 0 {
		s.logger.Warn("scan skipped inaccessible directories", "scan_id", scan.ID, "count", n)
	}

	s.persist(scan.ID, result, retention)

	s.logger.Info("scan completed",
		"scan_id", snapshot.ID,
		"path", root,
		"total_scanned", result.Summary.TotalScannedFolders,
		"problematic", result.Summary.TotalProblematicFolders,
	)
	s.publish(event.ScanCompleted, map[string]any{
		"scan_id":           snapshot.ID,
		"root_path":         root,
		"total_scanned":     result.Summary.TotalScannedFolders,
		"total_problematic": result.Summary.TotalProblematicFolders,
		"total_empty":       result.Summary.TotalEmptyFolders,
		"total_json_only":   result.Summary.TotalJSONOnlyFolders,
		"total_valid":       result.Summary.TotalValidFolders,
	})
}

// persist stores the finished report and prunes history to the retention
// count. Storage failures are logged, not fatal: the in-memory scan result
// remains available through Status.
func (s *Service) persist(id string, result *classify.Report, retention int) {
	if s.history == nil {
		return
	}
	ctx := context.Background()
	if err := s.history.Create(ctx, id, report.NewDocument(result)); err != nil {
		s.logger.Error("persisting scan report", "scan_id", id, "error", err)
		return
	}
	if pruned, err := s.history.Prune(ctx, retention); err != nil {
		s.logger.Warn("pruning scan history", "error", err)
	} else if pruned > 0 {
		s.logger.Debug("pruned scan history", "removed", pruned)
	}
}

func (s *Service) publish(t event.Type, data map[string]any) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(event.Event{Type: t, Data: data})
}
