package classify

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound indicates the scan root does not exist.
var ErrNotFound = errors.New("root path not found")

// Lister lists the immediate entries of a directory. The filesystem lister is
// the default; tests inject fakes for deterministic, disk-free classification.
type Lister interface {
	List(path string) ([]fs.DirEntry, error)
}

// OSLister lists directories from the local filesystem. os.ReadDir returns
// entries sorted by filename, which gives reports their deterministic order.
type OSLister struct{}

// List implements Lister.
func (OSLister) List(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// Scan walks the tree rooted at root and classifies every folder below it.
// The walk is single-threaded and read-only. The root itself is the scan
// boundary and is not classified.
func Scan(ctx context.Context, root string, opts Options) (*Report, error) {
	return ScanWith(ctx, OSLister{}, root, opts)
}

// ScanWith is Scan with an injected directory lister.
func ScanWith(ctx context.Context, lister Lister, root string, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	entries, err := lister.List(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		// Includes permission errors at the root, which are fatal.
		return nil, fmt.Errorf("listing root: %w", err)
	}

	w := &walker{
		lister: lister,
		rule:   NewRule(opts),
		opts:   opts,
		report: &Report{
			ScanDate:     time.Now().UTC(),
			RootPath:     root,
			IncludeValid: opts.IncludeValid,
		},
	}

	if err := w.walk(ctx, root, "", entries); err != nil {
		// A canceled scan produces no report.
		return nil, err
	}

	w.report.summarize()
	return w.report, nil
}

type walker struct {
	lister Lister
	rule   *Rule
	opts   Options
	report *Report
}

// walk classifies dir's subdirectories depth-first. rel is dir's path
// relative to the root ("" for the root itself). entries is dir's listing,
// already fetched by the caller.
func (w *walker) walk(ctx context.Context, dir, rel string, entries []fs.DirEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		// Hidden directories and their subtrees are skipped.
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		subPath := filepath.Join(dir, entry.Name())
		subRel := entry.Name()
		if rel != "" {
			subRel = filepath.Join(rel, entry.Name())
		}

		subEntries, err := w.lister.List(subPath)
		if err != nil {
			// Non-fatal: one unreadable subtree must not stop the scan.
			if w.opts.Inaccessible == RecordInaccessible {
				w.report.Inaccessible = append(w.report.Inaccessible, subRel)
			}
			continue
		}

		w.classify(subRel, subEntries)

		if err := w.walk(ctx, subPath, subRel, subEntries); err != nil {
			return err
		}
	}

	return nil
}

// classify appends a record for the folder at rel, based on its own direct
// file listing only.
func (w *walker) classify(rel string, entries []fs.DirEntry) {
	var files []string
	leaf := true
	for _, e := range entries {
		if e.IsDir() {
			if !strings.HasPrefix(e.Name(), ".") {
				leaf = false
			}
			continue
		}
		files = append(files, e.Name())
	}

	if w.opts.LeafOnly && !leaf {
		return
	}

	cat, rec := w.rule.Evaluate(rel, files)
	switch cat {
	case Empty:
		w.report.Empty = append(w.report.Empty, rec)
	case JSONOnly:
		w.report.JSONOnly = append(w.report.JSONOnly, rec)
	case Valid:
		w.report.Valid = append(w.report.Valid, rec)
	}
}
