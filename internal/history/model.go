package history

import (
	"time"

	"github.com/pshenley/hollow/internal/classify"
)

// Entry is one stored scan, without the folder detail lists.
type Entry struct {
	ID        string           `json:"id"`
	RootPath  string           `json:"root_path"`
	ScanDate  time.Time        `json:"scan_date"`
	Summary   classify.Summary `json:"summary"`
	CreatedAt time.Time        `json:"created_at"`
}
