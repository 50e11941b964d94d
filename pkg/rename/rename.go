// Package rename moves parsed tracks to their canonical filename.
package rename

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/simon/album-tagger/pkg/parser"
)

var (
	// ErrConflict means the target name is taken or the source vanished.
	ErrConflict = errors.New("rename conflict")
	// ErrRename covers every other failure of the rename itself.
	ErrRename = errors.New("rename failed")
)

// Renamer renames tracks within their directory. It never overwrites an
// existing file, and a target path can only be claimed by one rename at a
// time, so a Renamer may be shared between goroutines.
type Renamer struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

// New creates a Renamer.
func New() *Renamer {
	return &Renamer{claimed: make(map[string]struct{})}
}

// Apply renames the track's file to its canonical name and returns the track
// at its new path. On error the returned track keeps its original path.
func (r *Renamer) Apply(track parser.Track) (parser.Track, error) {
	if !track.NeedsRename() {
		return track, nil
	}

	from := track.SourcePath
	to := track.CanonicalPath()

	if !r.claim(to) {
		return track, fmt.Errorf("renaming %q to %q: target in use: %w", from, to, ErrConflict)
	}
	defer r.release(to)

	src, err := os.Lstat(from)
	if err != nil {
		return track, classify(from, to, err)
	}

	dst, err := os.Lstat(to)
	switch {
	case err == nil:
		// A case-only change on a case-insensitive filesystem finds the
		// source itself under the new name.
		if !os.SameFile(src, dst) {
			return track, fmt.Errorf("renaming %q to %q: %w: %w", from, to, ErrConflict, fs.ErrExist)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return track, fmt.Errorf("renaming %q to %q: %w: %w", from, to, ErrRename, err)
	}

	if err := os.Rename(from, to); err != nil {
		return track, classify(from, to, err)
	}

	return track.WithPath(to), nil
}

func (r *Renamer) claim(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.claimed[path]; ok {
		return false
	}
	r.claimed[path] = struct{}{}
	return true
}

func (r *Renamer) release(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.claimed, path)
}

func classify(from, to string, err error) error {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("renaming %q to %q: %w: %w", from, to, ErrConflict, err)
	}
	return fmt.Errorf("renaming %q to %q: %w: %w", from, to, ErrRename, err)
}
