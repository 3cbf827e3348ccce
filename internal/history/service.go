// Package history persists completed scan reports so past results remain
// available after the process restarts.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pshenley/hollow/internal/report"
)

// ErrNotFound indicates no stored scan matches the given ID.
var ErrNotFound = errors.New("scan not found")

const entryColumns = `id, root_path, scan_date, total_scanned, total_problematic, total_empty, total_json_only, total_valid, created_at`

// Service provides scan history operations over SQLite.
type Service struct {
	db *sql.DB
}

// NewService creates a history service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Create stores a finished report under the given scan ID.
func (s *Service) Create(ctx context.Context, id string, doc report.Document) error {
	if id == "" {
		return fmt.Errorf("scan id is required")
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scans (id, root_path, scan_date, total_scanned, total_problematic,
			total_empty, total_json_only, total_valid, report, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id, doc.RootPath, doc.ScanDate,
		doc.Summary.TotalScannedFolders, doc.Summary.TotalProblematicFolders,
		doc.Summary.TotalEmptyFolders, doc.Summary.TotalJSONOnlyFolders,
		doc.Summary.TotalValidFolders,
		string(raw), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting scan: %w", err)
	}
	return nil
}

// Get retrieves one scan's summary entry.
func (s *Service) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM scans WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting scan: %w", err)
	}
	return entry, nil
}

// GetDocument retrieves the full stored report for one scan.
func (s *Service) GetDocument(ctx context.Context, id string) (*report.Document, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT report FROM scans WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting scan report: %w", err)
	}

	var doc report.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decoding stored report: %w", err)
	}
	return &doc, nil
}

// List returns all stored scans, newest first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM scans ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scans: %w", err)
	}
	return entries, nil
}

// Delete removes one stored scan.
func (s *Service) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting scan: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Prune deletes the oldest scans beyond the retention count and returns how
// many were removed.
func (s *Service) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("retention count must be at least 1")
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM scans WHERE id NOT IN (
			SELECT id FROM scans ORDER BY created_at DESC, id LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("pruning scans: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var scanDate, createdAt string
	if err := row.Scan(
		&e.ID, &e.RootPath, &scanDate,
		&e.Summary.TotalScannedFolders, &e.Summary.TotalProblematicFolders,
		&e.Summary.TotalEmptyFolders, &e.Summary.TotalJSONOnlyFolders,
		&e.Summary.TotalValidFolders,
		&createdAt,
	); err != nil {
		return nil, err
	}
	e.ScanDate, _ = time.Parse(time.RFC3339, scanDate)
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}
