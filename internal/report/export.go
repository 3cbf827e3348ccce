// Package report serializes finished scan reports. Both exporters are pure
// functions of the report; they perform no traversal and never re-derive a
// classification.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pshenley/hollow/internal/classify"
)

// Issue strings used in CSV rows.
const (
	issueTypeEmpty    = "Empty Folder"
	issueTypeJSONOnly = "JSON-Only Folder"

	issueDescEmpty    = "Completely empty folder"
	issueDescJSONOnly = "Contains only JSON files, missing main content files (.md)"
)

// csvHeader is the fixed column set of the problematic-folders CSV.
var csvHeader = []string{"Path", "Issue Type", "Issue Description", "MD Files Count", "JSON Files Count"}

// Document is the JSON wire form of a scan report.
type Document struct {
	ScanDate            string                  `json:"scan_date"`
	RootPath            string                  `json:"root_path"`
	EmptyFolders        []classify.FolderRecord `json:"empty_folders"`
	JSONOnlyFolders     []classify.FolderRecord `json:"json_only_folders"`
	ValidFolders        []classify.FolderRecord `json:"valid_folders"`
	InaccessibleFolders []string                `json:"inaccessible_folders,omitempty"`
	Summary             classify.Summary        `json:"summary"`
}

// NewDocument converts a finished report into its wire form. When the report
// was built without IncludeValid, the Valid detail list is emptied; the
// summary keeps the full counts either way.
func NewDocument(r *classify.Report) Document {
	doc := Document{
		ScanDate:            r.ScanDate.Format(time.RFC3339),
		RootPath:            r.RootPath,
		EmptyFolders:        nonNil(r.Empty),
		JSONOnlyFolders:     nonNil(r.JSONOnly),
		ValidFolders:        nonNil(r.Valid),
		InaccessibleFolders: r.Inaccessible,
		Summary:             r.Summary,
	}
	if !r.IncludeValid {
		doc.ValidFolders = []classify.FolderRecord{}
	}
	return doc
}

// WriteJSON writes the indented JSON report.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// WriteCSV writes the problematic folders (Empty + JSONOnly) as CSV, one row
// per folder, in walk order.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, rec := range doc.EmptyFolders {
		if err := cw.Write(csvRow(rec, issueTypeEmpty, issueDescEmpty)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	for _, rec := range doc.JSONOnlyFolders {
		if err := cw.Write(csvRow(rec, issueTypeJSONOnly, issueDescJSONOnly)); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}

func csvRow(rec classify.FolderRecord, issueType, issueDesc string) []string {
	return []string{
		rec.Path,
		issueType,
		issueDesc,
		strconv.Itoa(rec.MDFileCount),
		strconv.Itoa(rec.JSONFileCount),
	}
}

func nonNil(recs []classify.FolderRecord) []classify.FolderRecord {
	if recs == nil {
		return []classify.FolderRecord{}
	}
	return recs
}
