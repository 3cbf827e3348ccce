package classify

import "time"

// Category is the classification assigned to a scanned folder.
type Category string

// Known categories.
const (
	Empty    Category = "empty"
	JSONOnly Category = "json_only"
	Valid    Category = "valid"
)

// FolderRecord describes one classified folder. Counts only cover files that
// survive the ignore rules; MDFileCount covers content extensions and
// JSONFileCount metadata extensions, whatever sets are configured.
type FolderRecord struct {
	Path          string `json:"path"`
	FileCount     int    `json:"file_count"`
	MDFileCount   int    `json:"md_files_count"`
	JSONFileCount int    `json:"json_files_count"`
	// JSONFiles lists the metadata filenames present; populated only for
	// folders classified JSONOnly.
	JSONFiles []string `json:"json_files,omitempty"`
}

// Summary holds the derived counts of a finished scan.
type Summary struct {
	TotalScannedFolders     int `json:"total_scanned_folders"`
	TotalProblematicFolders int `json:"total_problematic_folders"`
	TotalEmptyFolders       int `json:"total_empty_folders"`
	TotalJSONOnlyFolders    int `json:"total_json_only_folders"`
	TotalValidFolders       int `json:"total_valid_folders"`
}

// Report is the aggregate result of one scan. It is built during the walk,
// owned by the caller that invoked the scan, and never mutated afterward.
// List order is walk order: depth-first, lexicographic per directory.
type Report struct {
	ScanDate time.Time
	RootPath string
	Empty    []FolderRecord
	JSONOnly []FolderRecord
	Valid    []FolderRecord
	// Inaccessible holds relative paths of directories that could not be
	// listed, when Options.Inaccessible is RecordInaccessible. These folders
	// are not counted in Summary.TotalScannedFolders.
	Inaccessible []string
	Summary      Summary
	// IncludeValid controls whether exporters emit the Valid detail list.
	// Summary counts are unaffected.
	IncludeValid bool
}

func (r *Report) summarize() {
	r.Summary = Summary{
		TotalScannedFolders:     len(r.Empty) + len(r.JSONOnly) + len(r.Valid),
		TotalProblematicFolders: len(r.Empty) + len(r.JSONOnly),
		TotalEmptyFolders:       len(r.Empty),
		TotalJSONOnlyFolders:    len(r.JSONOnly),
		TotalValidFolders:       len(r.Valid),
	}
}
