// Package cache remembers which files were already tagged so unchanged files
// are not parsed and rewritten on every run.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/simon/album-tagger/pkg/tags"
)

type fileKey struct {
	Size    int64 `json:"size"`
	ModTime int64 `json:"mod_time"` // UnixNano
}

type entry struct {
	Key    fileKey     `json:"key"`
	Record tags.Record `json:"record"`
}

// Ledger maps the path of a processed file to the record written to it,
// validated by size+mtime. It is not safe for concurrent use.
type Ledger struct {
	path    string
	entries map[string]entry // key = absolute file path
	dirty   bool
	logger  zerolog.Logger
}

// Load reads the ledger from path. Returns an empty ledger on any error.
func Load(path string, logger zerolog.Logger) *Ledger {
	l := &Ledger{
		path:    path,
		entries: make(map[string]entry),
		logger:  logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Msg("reading ledger file")
		}
		return l
	}

	if err := json.Unmarshal(data, &l.entries); err != nil {
		logger.Warn().Err(err).Msg("parsing ledger file")
		l.entries = make(map[string]entry)
	}

	return l
}

// Len returns the number of entries in the ledger.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Lookup returns the recorded metadata if the file's size and mtime still
// match the entry.
func (l *Ledger) Lookup(filePath string) (tags.Record, bool) {
	e, ok := l.entries[filePath]
	if !ok {
		return tags.Record{}, false
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return tags.Record{}, false
	}

	if info.Size() != e.Key.Size || info.ModTime().UnixNano() != e.Key.ModTime {
		return tags.Record{}, false
	}

	return e.Record, true
}

// Store records that rec was written to filePath. Call it after the tags are
// saved so the entry captures the final size and mtime.
func (l *Ledger) Store(filePath string, rec tags.Record) {
	info, err := os.Stat(filePath)
	if err != nil {
		l.logger.Debug().Err(err).Str("file", filePath).Msg("not recording file in ledger")
		return
	}

	l.entries[filePath] = entry{
		Key: fileKey{
			Size:    info.Size(),
			ModTime: info.ModTime().UnixNano(),
		},
		Record: rec,
	}
	l.dirty = true
}

// Forget drops the entry for filePath, e.g. after the file was renamed away.
func (l *Ledger) Forget(filePath string) {
	if _, ok := l.entries[filePath]; ok {
		delete(l.entries, filePath)
		l.dirty = true
	}
}

// Save writes the ledger to disk if it has been modified.
func (l *Ledger) Save() error {
	if !l.dirty {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	data, err := json.Marshal(l.entries)
	if err != nil {
		return fmt.Errorf("encoding ledger: %w", err)
	}

	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("writing ledger file: %w", err)
	}

	l.dirty = false
	return nil
}
