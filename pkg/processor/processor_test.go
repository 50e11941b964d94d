package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simon/album-tagger/pkg/report"
	"github.com/simon/album-tagger/pkg/tags"
)

type fakeWriter struct {
	mu     sync.Mutex
	calls  map[string]tags.Record
	errFor map[string]error // keyed by base name
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		calls:  make(map[string]tags.Record),
		errFor: make(map[string]error),
	}
}

func (w *fakeWriter) Write(ctx context.Context, path string, rec tags.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err, ok := w.errFor[filepath.Base(path)]; ok {
		return err
	}
	w.calls[path] = rec
	return nil
}

type fakeLedger struct {
	seen      map[string]tags.Record
	stored    map[string]tags.Record
	forgotten []string
}

func newFakeLedger(seen ...string) *fakeLedger {
	l := &fakeLedger{seen: make(map[string]tags.Record), stored: make(map[string]tags.Record)}
	for _, p := range seen {
		l.seen[p] = tags.Record{Artist: "Artist", Title: "Seen", Album: "Seen", Genre: "Rock", Year: 1999}
	}
	return l
}

func (l *fakeLedger) Lookup(path string) (tags.Record, bool) {
	rec, ok := l.seen[path]
	return rec, ok
}

func (l *fakeLedger) Store(path string, rec tags.Record) {
	l.stored[path] = rec
}

func (l *fakeLedger) Forget(path string) {
	l.forgotten = append(l.forgotten, path)
}

func genreDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Rock")
	require.NoError(t, os.Mkdir(dir, 0o755))
	return dir
}

func touch(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	paths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte("audio"), 0o644))
		paths = append(paths, p)
	}
	return paths
}

func resultFor(t *testing.T, s report.Summary, path string) report.FileResult {
	t.Helper()
	for _, r := range s.Results {
		if r.Path == path {
			return r
		}
	}
	t.Fatalf("no result for %s", path)
	return report.FileResult{}
}

func TestRun_RenamesAndTags(t *testing.T) {
	t.Parallel()

	dir := genreDir(t)
	paths := touch(t, dir, "Artist-Title 2020.mp3", "NoSeparator.mp3")
	w := newFakeWriter()

	s := New(w, Options{Workers: 2}, zerolog.Nop()).Run(context.Background(), paths)

	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Processed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 0, s.Errored)

	renamed := filepath.Join(dir, "Artist - Title.mp3")
	assert.FileExists(t, renamed)
	assert.NoFileExists(t, paths[0])
	assert.FileExists(t, paths[1])

	got := resultFor(t, s, paths[0])
	assert.Equal(t, report.StatusProcessed, got.Status)
	assert.Equal(t, renamed, got.NewPath)
	assert.Equal(t, "Artist", got.Artist)
	assert.Equal(t, "Title", got.Title)
	assert.Equal(t, "2020", got.Year)
	assert.Equal(t, "Rock", got.Genre)

	assert.Equal(t, map[string]tags.Record{
		renamed: {Artist: "Artist", Title: "Title", Album: "Title", Genre: "Rock", Year: 2020},
	}, w.calls)

	skipped := resultFor(t, s, paths[1])
	assert.Equal(t, report.StatusSkipped, skipped.Status)
	assert.Equal(t, "no-separator", skipped.Reason)
}

func TestRun_AlreadyCanonical(t *testing.T) {
	t.Parallel()

	dir := genreDir(t)
	paths := touch(t, dir, "Artist - Title.flac")
	w := newFakeWriter()

	s := New(w, Options{}, zerolog.Nop()).Run(context.Background(), paths)

	got := resultFor(t, s, paths[0])
	assert.Equal(t, report.StatusProcessed, got.Status)
	assert.Empty(t, got.NewPath)
	assert.Contains(t, w.calls, paths[0])
}

func TestRun_RenameConflictStillWritesTags(t *testing.T) {
	t.Parallel()

	dir := genreDir(t)
	touch(t, dir, "Artist - Title.mp3")
	paths := touch(t, dir, "Artist-Title.mp3")
	w := newFakeWriter()

	s := New(w, Options{}, zerolog.Nop()).Run(context.Background(), paths)

	got := resultFor(t, s, paths[0])
	assert.Equal(t, report.StatusErrored, got.Status)
	assert.Equal(t, "rename-conflict", got.Reason)
	assert.Empty(t, got.NewPath)
	assert.FileExists(t, paths[0])
	assert.Contains(t, w.calls, paths[0], "tags go to the file under its old name")
}

func TestRun_TagFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"load", &tags.Error{Op: tags.OpLoad, Err: errors.New("corrupt")}, "tag-load-failed"},
		{"save", &tags.Error{Op: tags.OpSave, Err: errors.New("read-only")}, "tag-save-failed"},
		{"other", errors.New("boom"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := genreDir(t)
			paths := touch(t, dir, "Artist - Bad.mp3", "Artist - Good.mp3")
			w := newFakeWriter()
			w.errFor["Artist - Bad.mp3"] = tt.err

			s := New(w, Options{Workers: 2}, zerolog.Nop()).Run(context.Background(), paths)

			bad := resultFor(t, s, paths[0])
			assert.Equal(t, report.StatusErrored, bad.Status)
			assert.Equal(t, tt.reason, bad.Reason)

			good := resultFor(t, s, paths[1])
			assert.Equal(t, report.StatusProcessed, good.Status)
			assert.Equal(t, 1, s.Errored)
			assert.Equal(t, 1, s.Processed)
		})
	}
}

func TestRun_DryRun(t *testing.T) {
	t.Parallel()

	dir := genreDir(t)
	paths := touch(t, dir, "Artist-Title (Full Album).mp3")
	w := newFakeWriter()

	s := New(w, Options{DryRun: true}, zerolog.Nop()).Run(context.Background(), paths)

	got := resultFor(t, s, paths[0])
	assert.Equal(t, report.StatusProcessed, got.Status)
	assert.Equal(t, filepath.Join(dir, "Artist - Title.mp3"), got.NewPath)
	assert.FileExists(t, paths[0])
	assert.NoFileExists(t, got.NewPath)
	assert.Empty(t, w.calls)
}

func TestRun_Ledger(t *testing.T) {
	t.Parallel()

	t.Run("skips unchanged files", func(t *testing.T) {
		t.Parallel()

		dir := genreDir(t)
		paths := touch(t, dir, "Artist - Seen.mp3", "Artist-New.mp3")
		w := newFakeWriter()
		l := newFakeLedger(paths[0])

		s := New(w, Options{}, zerolog.Nop()).WithLedger(l).Run(context.Background(), paths)

		seen := resultFor(t, s, paths[0])
		assert.Equal(t, report.StatusSkipped, seen.Status)
		assert.Equal(t, "unchanged", seen.Reason)
		assert.Equal(t, "Artist", seen.Artist)
		assert.Equal(t, "Seen", seen.Title)
		assert.Equal(t, "Rock", seen.Genre)
		assert.Equal(t, "1999", seen.Year)
		assert.NotContains(t, w.calls, paths[0])

		renamed := filepath.Join(dir, "Artist - New.mp3")
		assert.Equal(t, []string{paths[1]}, l.forgotten)
		assert.Contains(t, l.stored, renamed)
	})

	t.Run("force ignores the ledger", func(t *testing.T) {
		t.Parallel()

		dir := genreDir(t)
		paths := touch(t, dir, "Artist - Seen.mp3")
		w := newFakeWriter()
		l := newFakeLedger(paths[0])

		s := New(w, Options{Force: true}, zerolog.Nop()).WithLedger(l).Run(context.Background(), paths)

		assert.Equal(t, report.StatusProcessed, resultFor(t, s, paths[0]).Status)
		assert.Contains(t, w.calls, paths[0])
	})

	t.Run("failed writes are not recorded", func(t *testing.T) {
		t.Parallel()

		dir := genreDir(t)
		paths := touch(t, dir, "Artist - Bad.mp3")
		w := newFakeWriter()
		w.errFor["Artist - Bad.mp3"] = &tags.Error{Op: tags.OpSave, Err: errors.New("nope")}
		l := newFakeLedger()

		New(w, Options{}, zerolog.Nop()).WithLedger(l).Run(context.Background(), paths)

		assert.Empty(t, l.stored)
	})
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	dir := genreDir(t)
	paths := touch(t, dir, "Artist-One.mp3", "Artist-Two.mp3")
	w := newFakeWriter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(w, Options{}, zerolog.Nop()).Run(ctx, paths)

	assert.Equal(t, 2, s.Skipped)
	for _, r := range s.Results {
		assert.Equal(t, "cancelled", r.Reason)
	}
	assert.FileExists(t, paths[0])
	assert.Empty(t, w.calls)
}

func TestRun_Progress(t *testing.T) {
	t.Parallel()

	dir := genreDir(t)
	paths := touch(t, dir, "A - One.mp3", "A - Two.mp3", "A - Three.mp3")

	var mu sync.Mutex
	var last, seenTotal int
	p := New(newFakeWriter(), Options{Workers: 3}, zerolog.Nop()).WithProgress(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if done > last {
			last = done
		}
		seenTotal = total
	})

	s := p.Run(context.Background(), paths)

	assert.Equal(t, 3, s.Processed)
	assert.Equal(t, 3, last)
	assert.Equal(t, 3, seenTotal)
}

func TestReason(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "boom", reason(errors.New("boom")))
	assert.Equal(t, "tag-load-failed", reason(&tags.Error{Op: tags.OpLoad}))
}
