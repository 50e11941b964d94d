package parser

import (
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Track is the metadata recovered from a single music filename.
type Track struct {
	SourcePath string `json:"source_path"`
	FileName   string `json:"file_name"`
	Extension  string `json:"extension"`
	Artist     string `json:"artist"`
	Title      string `json:"title"`
	Year       string `json:"year,omitempty"`
	Genre      string `json:"genre,omitempty"`
}

// CanonicalName returns the "Artist - Title.ext" form of the track.
func (t Track) CanonicalName() string {
	return CanonicalName(t.Artist, t.Title, t.Extension)
}

// Dir returns the directory holding the track.
func (t Track) Dir() string {
	return filepath.Dir(t.SourcePath)
}

// CanonicalPath returns the path the track would have after renaming.
func (t Track) CanonicalPath() string {
	return filepath.Join(t.Dir(), t.CanonicalName())
}

// NeedsRename reports whether the file on disk is not yet named canonically.
// Names are compared in NFC so a decomposed name on disk is not renamed to
// its own composed spelling.
func (t Track) NeedsRename() bool {
	return norm.NFC.String(t.FileName) != norm.NFC.String(t.CanonicalName())
}

// WithPath returns a copy of t located at path.
func (t Track) WithPath(path string) Track {
	t.SourcePath = path
	t.FileName = filepath.Base(path)
	return t
}

// CanonicalName builds "artist - title" followed by ext. An empty title
// yields a name ending right after the separator.
func CanonicalName(artist, title, ext string) string {
	return strings.TrimSpace(artist+" - "+title) + ext
}
