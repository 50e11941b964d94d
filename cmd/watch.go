package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simon/album-tagger/pkg/config"
	"github.com/simon/album-tagger/pkg/watch"
)

func newWatchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [flags] <folder>",
		Short: "Process the folder, then keep processing audio files as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(v)
			if err != nil {
				return err
			}
			logger := newLogger(opts)
			s := newSession(opts, logger)
			ctx := cmd.Context()

			if err := s.tagFolder(ctx, args[0]); err != nil {
				return err
			}

			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			w := watch.New(root, opts.Recursive, opts.Debounce, func(ctx context.Context, paths []string) {
				summary := s.process(ctx, paths)
				logger.Info().
					Int("processed", summary.Processed).
					Int("skipped", summary.Skipped).
					Int("errored", summary.Errored).
					Msg("batch done")
			}, logger)
			if err := w.Start(); err != nil {
				return err
			}

			logger.Info().Str("dir", root).Dur("debounce", opts.Debounce).Msg("watching for new files...")
			return w.Run(ctx)
		},
	}

	cmd.Flags().Duration(config.KeyDebounce, config.DefaultDebounce, "Quiet period before a batch of new files is processed")
	mustBind(v, cmd.Flags())
	return cmd
}
