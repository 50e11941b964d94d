// Package report tallies per-file outcomes and renders the end-of-run summary.
package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// Status is the outcome of processing one file.
type Status string

const (
	StatusProcessed Status = "processed"
	StatusSkipped   Status = "skipped"
	StatusErrored   Status = "errored"
)

// FileResult describes what happened to one file.
type FileResult struct {
	Path    string `json:"path"`
	NewPath string `json:"new_path,omitempty"`
	Status  Status `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Artist  string `json:"artist,omitempty"`
	Title   string `json:"title,omitempty"`
	Year    string `json:"year,omitempty"`
	Genre   string `json:"genre,omitempty"`
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Total     int          `json:"total"`
	Processed int          `json:"processed"`
	Skipped   int          `json:"skipped"`
	Errored   int          `json:"errored"`
	Results   []FileResult `json:"results"`
}

// Add records one file result.
func (s *Summary) Add(r FileResult) {
	s.Total++
	switch r.Status {
	case StatusProcessed:
		s.Processed++
	case StatusSkipped:
		s.Skipped++
	case StatusErrored:
		s.Errored++
	}
	s.Results = append(s.Results, r)
}

// Print writes the summary to w. With verbose, one line per file precedes it.
func Print(w io.Writer, s Summary, verbose bool) {
	if verbose {
		for _, r := range s.Results {
			line := fmt.Sprintf("%-9s %s", r.Status, r.Path)
			if r.NewPath != "" && r.NewPath != r.Path {
				line += " -> " + r.NewPath
			}
			if r.Reason != "" {
				line += " (" + r.Reason + ")"
			}
			fmt.Fprintln(w, line)
		}
	}

	fmt.Fprintf(w, "\n--- Summary ---\n")
	fmt.Fprintf(w, "Total:     %s\n", humanize.Comma(int64(s.Total)))
	fmt.Fprintf(w, "Processed: %s\n", humanize.Comma(int64(s.Processed)))
	fmt.Fprintf(w, "Skipped:   %s\n", humanize.Comma(int64(s.Skipped)))
	fmt.Fprintf(w, "Errored:   %s\n", humanize.Comma(int64(s.Errored)))
}
