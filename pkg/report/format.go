package report

import (
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

// Run is the JSON document written by --report.
type Run struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Elapsed    Duration  `json:"elapsed_seconds"`
	Summary    Summary   `json:"summary"`
}

// NewRun starts a run over root with a fresh ULID.
func NewRun(root string, dryRun bool) *Run {
	return &Run{
		ID:        ulid.Make().String(),
		Root:      root,
		DryRun:    dryRun,
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end of the run and attaches its summary.
func (r *Run) Finish(s Summary) {
	r.FinishedAt = time.Now().UTC()
	r.Elapsed = Duration(r.FinishedAt.Sub(r.StartedAt).Seconds())
	r.Summary = s
}

// Duration is a number of seconds that always serializes with one decimal
// place (e.g. 294.0).
type Duration float64

func (d Duration) MarshalJSON() ([]byte, error) {
	s := strconv.FormatFloat(float64(d), 'f', 1, 64)
	return []byte(s), nil
}
