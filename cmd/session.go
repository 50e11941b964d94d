package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/simon/album-tagger/pkg/cache"
	"github.com/simon/album-tagger/pkg/config"
	"github.com/simon/album-tagger/pkg/processor"
	"github.com/simon/album-tagger/pkg/report"
	"github.com/simon/album-tagger/pkg/scanner"
	"github.com/simon/album-tagger/pkg/tags"
)

// session holds what stays the same across the batches of one invocation.
type session struct {
	opts   config.Options
	logger zerolog.Logger
	ledger *cache.Ledger
	proc   *processor.Processor
}

func newSession(opts config.Options, logger zerolog.Logger) *session {
	s := &session{opts: opts, logger: logger}
	s.proc = processor.New(tags.NewWriter(logger), processor.Options{
		DryRun:  opts.DryRun,
		Force:   opts.Force,
		Workers: opts.Workers,
	}, logger)

	// A dry run never records anything, so it also reports files the
	// ledger would skip.
	if !opts.NoCache && !opts.DryRun {
		s.ledger = cache.Load(opts.CachePath, logger)
		logger.Debug().Str("path", opts.CachePath).Int("entries", s.ledger.Len()).Msg("ledger loaded")
		s.proc.WithLedger(s.ledger)
	}
	return s
}

// tagFolder processes every audio file under dir once and prints the summary.
func (s *session) tagFolder(ctx context.Context, dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	run := report.NewRun(abs, s.opts.DryRun)

	s.logger.Info().Str("dir", abs).Msg("scanning music folder...")
	paths, err := scanner.Scan(abs, s.opts.Recursive, s.logger)
	if err != nil {
		return err
	}
	s.logger.Info().Int("count", len(paths)).Msg("audio files found")

	summary := s.process(ctx, paths)
	report.Print(os.Stderr, summary, s.opts.Verbose)

	run.Finish(summary)
	if s.opts.ReportPath != "" {
		if err := report.Write(s.opts.ReportPath, run); err != nil {
			return err
		}
		s.logger.Info().Str("output", s.opts.ReportPath).Str("run", run.ID).Msg("report written")
	}
	return nil
}

// process runs one batch and persists the ledger afterwards.
func (s *session) process(ctx context.Context, paths []string) report.Summary {
	var bar *progressbar.ProgressBar
	if !s.opts.Verbose && !s.opts.DryRun && len(paths) > 0 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("writing tags"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		s.proc.WithProgress(func(_, total int) {
			bar.ChangeMax(total)
			_ = bar.Add(1)
		})
	} else {
		s.proc.WithProgress(nil)
	}

	summary := s.proc.Run(ctx, paths)
	if bar != nil {
		_ = bar.Finish()
	}

	if s.ledger != nil {
		if err := s.ledger.Save(); err != nil {
			s.logger.Warn().Err(err).Msg("saving ledger")
		}
	}
	return summary
}
