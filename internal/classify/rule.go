package classify

import (
	"path/filepath"
	"strings"
)

// InaccessiblePolicy controls how unreadable subdirectories are reported.
type InaccessiblePolicy string

// Inaccessible policies.
const (
	SkipInaccessible   InaccessiblePolicy = "skip"
	RecordInaccessible InaccessiblePolicy = "record"
)

// Options configures a scan.
type Options struct {
	// ContentExtensions qualify a folder as Valid. Default: .md
	ContentExtensions []string
	// MetadataExtensions qualify toward JSONOnly when no content file is
	// present. Default: .json, .log
	MetadataExtensions []string
	// IgnoreFiles are exact filenames excluded from all counts.
	// Default: common OS artifacts.
	IgnoreFiles []string
	// LeafOnly restricts classification to leaf folders (no subdirectories).
	// When false, every folder below the root is classified.
	LeafOnly bool
	// IncludeValid controls whether Valid folders appear in exported detail
	// lists. Summary counts are unaffected.
	IncludeValid bool
	// Inaccessible selects the policy for unreadable subdirectories.
	Inaccessible InaccessiblePolicy
}

// DefaultOptions returns the options matching the ingestion pipeline's
// conventions: markdown content, JSON/log sidecars.
func DefaultOptions() Options {
	return Options{
		ContentExtensions:  []string{".md"},
		MetadataExtensions: []string{".json", ".log"},
		IgnoreFiles:        []string{".DS_Store", "Thumbs.db", "desktop.ini"},
		IncludeValid:       true,
		Inaccessible:       RecordInaccessible,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ContentExtensions == nil {
		o.ContentExtensions = def.ContentExtensions
	}
	if o.MetadataExtensions == nil {
		o.MetadataExtensions = def.MetadataExtensions
	}
	if o.IgnoreFiles == nil {
		o.IgnoreFiles = def.IgnoreFiles
	}
	if o.Inaccessible != SkipInaccessible && o.Inaccessible != RecordInaccessible {
		o.Inaccessible = def.Inaccessible
	}
	return o
}

// Rule is the classification policy: a pure function from a folder's direct
// file listing to a category. Extension and ignore matching is
// case-insensitive.
type Rule struct {
	content  map[string]bool
	metadata map[string]bool
	ignore   map[string]bool
}

// NewRule builds a Rule from the given options.
func NewRule(opts Options) *Rule {
	opts = opts.withDefaults()
	r := &Rule{
		content:  make(map[string]bool, len(opts.ContentExtensions)),
		metadata: make(map[string]bool, len(opts.MetadataExtensions)),
		ignore:   make(map[string]bool, len(opts.IgnoreFiles)),
	}
	for _, ext := range opts.ContentExtensions {
		r.content[normalizeExt(ext)] = true
	}
	for _, ext := range opts.MetadataExtensions {
		r.metadata[normalizeExt(ext)] = true
	}
	for _, name := range opts.IgnoreFiles {
		r.ignore[strings.ToLower(name)] = true
	}
	return r
}

// Evaluate classifies a folder given its direct file listing and returns the
// category with the populated record. Ignore-list names and dot-prefixed
// files with unrecognized extensions never count.
func (r *Rule) Evaluate(path string, files []string) (Category, FolderRecord) {
	rec := FolderRecord{Path: path}
	var metaNames []string

	for _, name := range files {
		lower := strings.ToLower(name)
		if r.ignore[lower] {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		isContent := r.content[ext]
		isMetadata := r.metadata[ext]
		if strings.HasPrefix(name, ".") && !isContent && !isMetadata {
			continue
		}
		rec.FileCount++
		if isContent {
			rec.MDFileCount++
		}
		if isMetadata {
			rec.JSONFileCount++
			metaNames = append(metaNames, name)
		}
	}

	switch {
	case rec.FileCount == 0:
		return Empty, rec
	case rec.MDFileCount == 0 && rec.JSONFileCount > 0:
		rec.JSONFiles = metaNames
		return JSONOnly, rec
	default:
		return Valid, rec
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
