package scanner

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pshenley/hollow/internal/classify"
	"github.com/pshenley/hollow/internal/database"
	"github.com/pshenley/hollow/internal/history"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for rel, files := range map[string][]string{
		"A": nil,
		"B": {"only.json"},
		"C": {"doc.md"},
	} {
		dir := filepath.Join(root, rel)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("creating dir: %v", err)
		}
		for _, f := range files {
			if err := os.WriteFile(filepath.Join(dir, f), []byte("test"), 0o644); err != nil {
				t.Fatalf("creating file: %v", err)
			}
		}
	}
	return root
}

// waitForScan polls Status until the scan leaves the running state.
func waitForScan(t *testing.T, svc *Service) *Scan {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if scan := svc.Status(); scan != nil && scan.Status != StatusRunning {
			return scan
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("scan did not finish in time")
	return nil
}

func TestRun_CompletesAndPersists(t *testing.T) {
	historyService := history.NewService(setupTestDB(t))
	svc := NewService(historyService, testLogger(), makeTree(t), classify.DefaultOptions(), 20)

	started, err := svc.Run(context.Background(), Request{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if started.Status != StatusRunning {
		t.Errorf("initial status = %q, want %q", started.Status, StatusRunning)
	}

	scan := waitForScan(t, svc)
	if scan.Status != StatusCompleted {
		t.Fatalf("status = %q (error %q), want %q", scan.Status, scan.Error, StatusCompleted)
	}
	if scan.Summary == nil || scan.Summary.TotalScannedFolders != 3 {
		t.Errorf("Summary = %+v, want 3 scanned folders", scan.Summary)
	}
	if scan.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}

	doc, err := historyService.GetDocument(context.Background(), scan.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if doc.Summary.TotalProblematicFolders != 2 {
		t.Errorf("persisted TotalProblematicFolders = %d, want 2", doc.Summary.TotalProblematicFolders)
	}
}

func TestRun_FailsOnMissingRoot(t *testing.T) {
	historyService := history.NewService(setupTestDB(t))
	root := filepath.Join(t.TempDir(), "missing")
	svc := NewService(historyService, testLogger(), root, classify.DefaultOptions(), 20)

	if _, err := svc.Run(context.Background(), Request{}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	scan := waitForScan(t, svc)
	if scan.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", scan.Status, StatusFailed)
	}
	if scan.Error == "" {
		t.Error("failed scan has no error message")
	}

	// Failed scans are not persisted.
	entries, err := historyService.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("history has %d entries, want 0", len(entries))
	}
}

func TestRun_RequestOverrides(t *testing.T) {
	historyService := history.NewService(setupTestDB(t))
	svc := NewService(historyService, testLogger(), "/nonexistent-default", classify.DefaultOptions(), 20)

	root := makeTree(t)
	hide := false
	_, err := svc.Run(context.Background(), Request{RootPath: root, IncludeValid: &hide})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	scan := waitForScan(t, svc)
	if scan.Status != StatusCompleted {
		t.Fatalf("status = %q (error %q)", scan.Status, scan.Error)
	}
	if scan.RootPath != root {
		t.Errorf("RootPath = %q, want override %q", scan.RootPath, root)
	}

	doc, err := historyService.GetDocument(context.Background(), scan.ID)
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if len(doc.ValidFolders) != 0 {
		t.Errorf("ValidFolders = %d records, want 0 with include_valid=false", len(doc.ValidFolders))
	}
	if doc.Summary.TotalValidFolders != 1 {
		t.Errorf("TotalValidFolders = %d, want 1", doc.Summary.TotalValidFolders)
	}
}

func TestRun_RejectsConcurrentScan(t *testing.T) {
	svc := NewService(nil, testLogger(), makeTree(t), classify.DefaultOptions(), 20)

	// Hold the running state open by marking a scan in progress directly.
	svc.mu.Lock()
	svc.currentScan = &Scan{ID: "held", Status: StatusRunning}
	svc.mu.Unlock()

	if _, err := svc.Run(context.Background(), Request{}); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("Run = %v, want ErrScanInProgress", err)
	}
}

func TestStatus_NilBeforeFirstScan(t *testing.T) {
	svc := NewService(nil, testLogger(), t.TempDir(), classify.DefaultOptions(), 20)
	if svc.Status() != nil {
		t.Error("Status should be nil before the first scan")
	}
}

func TestSetDefaults(t *testing.T) {
	historyService := history.NewService(setupTestDB(t))
	svc := NewService(historyService, testLogger(), "/nonexistent-default", classify.DefaultOptions(), 20)

	root := makeTree(t)
	svc.SetDefaults(root, classify.DefaultOptions(), 5)

	if _, err := svc.Run(context.Background(), Request{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	scan := waitForScan(t, svc)
	if scan.Status != StatusCompleted {
		t.Errorf("status = %q (error %q), want completed after defaults update", scan.Status, scan.Error)
	}
	if scan.RootPath != root {
		t.Errorf("RootPath = %q, want %q", scan.RootPath, root)
	}
}
