package tags

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"go.senan.xyz/taglib"
)

// Distinct failure kinds of a tag update, matched with errors.Is.
var (
	ErrTagLoad = errors.New("could not load tags")
	ErrTagSave = errors.New("could not save tags")
)

// Op names the stage of a tag update that failed.
type Op string

const (
	OpLoad Op = "loading"
	OpSave Op = "saving"
)

// Error is returned by Read and Writer.Write.
type Error struct {
	Op   Op
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s tags of %q: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrTagLoad or ErrTagSave depending on the stage.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTagLoad:
		return e.Op == OpLoad
	case ErrTagSave:
		return e.Op == OpSave
	}
	return false
}

// Writer updates the managed fields of audio files through taglib.
type Writer struct {
	logger zerolog.Logger
	read   func(path string) (Record, error)
	write  func(path string, tags map[string][]string, opts taglib.WriteOption) error
}

// NewWriter creates a Writer.
func NewWriter(logger zerolog.Logger) *Writer {
	return &Writer{
		logger: logger,
		read:   Read,
		write:  writeTags,
	}
}

// Write stores the non-empty fields of rec in the file at path. Fields that
// already hold the same value are left alone, and nothing is saved when no
// field changes. Other tags in the file are preserved.
func (w *Writer) Write(ctx context.Context, path string, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	have, err := w.read(path)
	if err != nil {
		var tagErr *Error
		if errors.As(err, &tagErr) {
			return err
		}
		return &Error{Op: OpLoad, Path: path, Err: err}
	}

	changes := diff(have, rec)
	if len(changes) == 0 {
		w.logger.Debug().Str("file", path).Msg("tags already up to date")
		return nil
	}

	if err := w.write(path, changes, 0); err != nil {
		return &Error{Op: OpSave, Path: path, Err: err}
	}

	ev := w.logger.Debug().Str("file", path)
	for key, vals := range changes {
		ev = ev.Strs(key, vals)
	}
	ev.Msg("tags written")
	return nil
}

func writeTags(path string, tags map[string][]string, opts taglib.WriteOption) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("taglib panic: %v", r)
		}
	}()
	return taglib.WriteTags(path, tags, opts)
}

// diff returns the tag values of want that are set and differ from have.
func diff(have, want Record) map[string][]string {
	changes := make(map[string][]string)
	set := func(key, old, value string) {
		if value != "" && value != old {
			changes[key] = []string{value}
		}
	}

	set(keyArtist, have.Artist, want.Artist)
	set(keyTitle, have.Title, want.Title)
	set(keyAlbum, have.Album, want.Album)
	set(keyGenre, have.Genre, want.Genre)
	if want.Year > 0 && want.Year != have.Year {
		changes[keyDate] = []string{strconv.Itoa(want.Year)}
	}

	return changes
}
