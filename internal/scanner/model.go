package scanner

import (
	"time"

	"github.com/pshenley/hollow/internal/classify"
)

// Scan statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Scan tracks one scan invocation. The full report is stored in history under
// the same ID once the scan completes.
type Scan struct {
	ID          string            `json:"id"`
	Status      string            `json:"status"`
	RootPath    string            `json:"root_path"`
	StartedAt   time.Time         `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Summary     *classify.Summary `json:"summary,omitempty"`
	Error       string            `json:"error,omitempty"`
}

// Request carries per-scan overrides of the configured defaults.
type Request struct {
	RootPath     string `json:"root_path,omitempty"`
	LeafOnly     *bool  `json:"leaf_only,omitempty"`
	IncludeValid *bool  `json:"include_valid,omitempty"`
}
