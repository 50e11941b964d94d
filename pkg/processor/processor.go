// Package processor runs the parse, rename and tag steps over a batch of
// files, isolating failures per file.
package processor

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/simon/album-tagger/pkg/parser"
	"github.com/simon/album-tagger/pkg/rename"
	"github.com/simon/album-tagger/pkg/report"
	"github.com/simon/album-tagger/pkg/tags"
	"github.com/simon/album-tagger/pkg/worker"
)

// TagWriter stores a record in the tag container of an audio file.
type TagWriter interface {
	Write(ctx context.Context, path string, rec tags.Record) error
}

// Ledger remembers files that were already processed and the tags written
// to them.
type Ledger interface {
	Lookup(path string) (tags.Record, bool)
	Store(path string, rec tags.Record)
	Forget(path string)
}

// Options control a Processor.
type Options struct {
	// DryRun computes and logs the intended changes without touching files.
	DryRun bool
	// Force processes files even when the ledger says they are unchanged.
	Force bool
	// Workers is the number of concurrent tag writes.
	Workers int
}

// Processor turns music files into canonically named, tagged files.
type Processor struct {
	writer   TagWriter
	renamer  *rename.Renamer
	ledger   Ledger
	opts     Options
	logger   zerolog.Logger
	progress worker.ProgressFunc
}

// New creates a Processor writing tags through writer.
func New(writer TagWriter, opts Options, logger zerolog.Logger) *Processor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Processor{
		writer:  writer,
		renamer: rename.New(),
		opts:    opts,
		logger:  logger,
	}
}

// WithLedger makes the processor skip files recorded in l and record the
// files it tags.
func (p *Processor) WithLedger(l Ledger) *Processor {
	p.ledger = l
	return p
}

// WithProgress reports tag-write progress to fn.
func (p *Processor) WithProgress(fn worker.ProgressFunc) *Processor {
	p.progress = fn
	return p
}

type job struct {
	idx       int
	res       report.FileResult
	track     parser.Track
	renameErr error
}

// Run processes paths and returns one result per path. Renames happen one
// at a time in path order; tag writes run concurrently afterwards. A failure
// on one file never stops the batch. Run must not be called concurrently
// when a ledger is attached.
func (p *Processor) Run(ctx context.Context, paths []string) report.Summary {
	results := make([]report.FileResult, len(paths))
	var jobs []job

	for i, path := range paths {
		if ctx.Err() != nil {
			results[i] = report.FileResult{Path: path, Status: report.StatusSkipped, Reason: "cancelled"}
			continue
		}
		res, j, ok := p.prepare(path)
		results[i] = res
		if ok {
			j.idx = i
			jobs = append(jobs, j)
		}
	}

	_, errs := worker.Process(ctx, jobs, p.opts.Workers, p.writeTags, p.progress)

	for k, j := range jobs {
		results[j.idx] = p.finish(j, errs[k])
	}

	var summary report.Summary
	for _, r := range results {
		summary.Add(r)
	}
	return summary
}

// prepare parses and renames one file. ok reports whether tags still have to
// be written.
func (p *Processor) prepare(path string) (res report.FileResult, j job, ok bool) {
	logger := p.logger.With().Str("file", path).Logger()
	res = report.FileResult{Path: path}

	if p.ledger != nil && !p.opts.Force {
		if prev, seen := p.ledger.Lookup(path); seen {
			logger.Debug().Interface("tags", prev).Msg("unchanged since last run")
			fillRecord(&res, prev)
			res.Status, res.Reason = report.StatusSkipped, "unchanged"
			return res, j, false
		}
	}

	track, err := parser.Parse(path)
	if err != nil {
		logger.Warn().Err(err).Msg("skipping file")
		res.Status, res.Reason = report.StatusSkipped, reason(err)
		return res, j, false
	}
	fillTrack(&res, track)

	logger.Debug().
		Str("artist", track.Artist).
		Str("title", track.Title).
		Str("year", track.Year).
		Str("genre", track.Genre).
		Msg("parsed")

	if p.opts.DryRun {
		if track.NeedsRename() {
			res.NewPath = track.CanonicalPath()
			logger.Info().Str("to", track.CanonicalName()).Msg("would rename")
		}
		logger.Info().Interface("tags", tags.FromTrack(track)).Msg("would write tags")
		res.Status = report.StatusProcessed
		return res, j, false
	}

	renamed, err := p.renamer.Apply(track)
	if err != nil {
		// The tags are still written to the file under its old name.
		logger.Error().Err(err).Msg("renaming file")
	} else if renamed.SourcePath != path {
		logger.Info().Str("to", renamed.FileName).Msg("renamed")
		res.NewPath = renamed.SourcePath
		if p.ledger != nil {
			p.ledger.Forget(path)
		}
	}

	return res, job{res: res, track: renamed, renameErr: err}, true
}

func (p *Processor) writeTags(ctx context.Context, j job) (struct{}, error) {
	return struct{}{}, p.writer.Write(ctx, j.track.SourcePath, tags.FromTrack(j.track))
}

func (p *Processor) finish(j job, writeErr error) report.FileResult {
	res := j.res

	if errors.Is(writeErr, context.Canceled) || errors.Is(writeErr, context.DeadlineExceeded) {
		res.Status, res.Reason = report.StatusSkipped, "cancelled"
		return res
	}

	if writeErr != nil {
		p.logger.Error().Err(writeErr).Str("file", j.track.SourcePath).Msg("writing tags")
	}

	var reasons []string
	for _, err := range []error{j.renameErr, writeErr} {
		if err != nil {
			reasons = append(reasons, reason(err))
		}
	}
	if len(reasons) > 0 {
		res.Status, res.Reason = report.StatusErrored, strings.Join(reasons, ",")
		return res
	}

	res.Status = report.StatusProcessed
	if p.ledger != nil {
		p.ledger.Store(j.track.SourcePath, tags.FromTrack(j.track))
	}
	return res
}

func fillTrack(res *report.FileResult, t parser.Track) {
	res.Artist = t.Artist
	res.Title = t.Title
	res.Year = t.Year
	res.Genre = t.Genre
}

// fillRecord reports the tags a previous run wrote to a file.
func fillRecord(res *report.FileResult, rec tags.Record) {
	res.Artist = rec.Artist
	res.Title = rec.Title
	res.Genre = rec.Genre
	if rec.Year > 0 {
		res.Year = strconv.Itoa(rec.Year)
	}
}

// reason maps an error to the short token shown in the summary.
func reason(err error) string {
	if r := parser.Reason(err); r != "" {
		return r
	}
	switch {
	case errors.Is(err, rename.ErrConflict):
		return "rename-conflict"
	case errors.Is(err, rename.ErrRename):
		return "rename-failed"
	case errors.Is(err, tags.ErrTagLoad):
		return "tag-load-failed"
	case errors.Is(err, tags.ErrTagSave):
		return "tag-save-failed"
	default:
		return err.Error()
	}
}
