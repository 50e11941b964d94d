package parser

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Expected reasons for a filename to be skipped. They are wrapped in a
// *Failure and can be matched with errors.Is.
var (
	ErrNoSeparator = errors.New("no separator")
	ErrEmptyArtist = errors.New("empty artist")
	ErrNoExtension = errors.New("no extension")
	ErrEmptyTitle  = errors.New("empty title")
)

// Failure reports why a path could not be parsed into a Track.
type Failure struct {
	Path string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("parsing %q: %v", filepath.Base(f.Path), f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Reason returns a short, stable identifier for err suitable for reports,
// e.g. "no-separator". Errors that are not parse failures yield "".
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoSeparator):
		return "no-separator"
	case errors.Is(err, ErrEmptyArtist):
		return "empty-artist"
	case errors.Is(err, ErrNoExtension):
		return "no-extension"
	case errors.Is(err, ErrEmptyTitle):
		return "empty-title"
	}
	return ""
}

func fail(path string, err error) error {
	return &Failure{Path: path, Err: err}
}
