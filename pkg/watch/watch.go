// Package watch reports audio files that appear in a music folder.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/simon/album-tagger/pkg/scanner"
)

// Handler receives a sorted batch of audio files that were created or
// modified. Calls never overlap.
type Handler func(ctx context.Context, paths []string)

// Watcher collects audio file events under a root folder and hands them to a
// Handler once the folder has been quiet for the debounce period.
type Watcher struct {
	root      string
	recursive bool
	debounce  time.Duration
	handle    Handler
	logger    zerolog.Logger

	fsw     *fsnotify.Watcher
	pending map[string]struct{}
}

// New creates a Watcher for root.
func New(root string, recursive bool, debounce time.Duration, handle Handler, logger zerolog.Logger) *Watcher {
	return &Watcher{
		root:      root,
		recursive: recursive,
		debounce:  debounce,
		handle:    handle,
		logger:    logger,
		pending:   make(map[string]struct{}),
	}
}

// Start registers root (and its subdirectories when recursive) with the OS.
// Events that happen after Start returns are not lost.
func (w *Watcher) Start() error {
	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("watching music folder: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watching music folder: %s is not a directory", w.root)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.fsw.Add(w.root); err != nil {
		fsw.Close()
		return fmt.Errorf("watching music folder: %w", err)
	}
	if w.recursive {
		w.addTree(w.root, false)
	}
	return nil
}

// Run delivers batches to the handler until ctx is done. Start must have
// succeeded first.
func (w *Watcher) Run(ctx context.Context) error {
	if w.fsw == nil {
		return errors.New("watcher not started")
	}
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watcher error")
		case <-timer.C:
			w.flush(ctx)
		}
	}
}

// handleEvent records event and reports whether anything became pending.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}

	if event.Has(fsnotify.Create) && w.recursive {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Files may land in the new directory before it is watched.
			return w.addTree(event.Name, true)
		}
	}

	if !scanner.IsAudioFile(event.Name) {
		return false
	}
	w.pending[event.Name] = struct{}{}
	return true
}

// addTree watches every directory below dir. With collect, audio files found
// along the way are queued.
func (w *Watcher) addTree(dir string, collect bool) bool {
	queued := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path == w.root {
				return nil
			}
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn().Err(err).Str("dir", path).Msg("cannot watch directory")
			}
			return nil
		}
		if collect && d.Type().IsRegular() && scanner.IsAudioFile(path) {
			w.pending[path] = struct{}{}
			queued = true
		}
		return nil
	})
	return queued
}

func (w *Watcher) flush(ctx context.Context) {
	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		// Renamed or deleted again before the batch was due.
		if _, err := os.Stat(path); err == nil {
			paths = append(paths, path)
		}
	}
	clear(w.pending)

	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	w.logger.Debug().Int("files", len(paths)).Msg("processing changes")
	w.handle(ctx, paths)
}
