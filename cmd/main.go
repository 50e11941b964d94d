// Package main is the entry point for the album-tagger CLI.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/simon/album-tagger/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "album-tagger [flags] <folder>",
		Short: `Rename music files to "Artist - Title" and tag them from their names`,
		Long: `album-tagger scans a music folder, derives artist, title and year from each
"Artist - Title" filename, renames the file to its canonical form and writes
the metadata into the file's tags. The parent folder becomes the genre.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.ReadFile(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := config.Load(v)
			if err != nil {
				return err
			}
			s := newSession(opts, newLogger(opts))
			return s.tagFolder(cmd.Context(), args[0])
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "YAML config file (default $XDG_CONFIG_HOME/album-tagger/config.yaml)")
	defineFlags(flags)
	mustBind(v, flags)

	root.AddCommand(newWatchCmd(v))
	return root
}

func defineFlags(flags *pflag.FlagSet) {
	flags.BoolP(config.KeyRecursive, "r", true, "Descend into subfolders")
	flags.BoolP(config.KeyDryRun, "n", false, "Show intended renames and tags without changing anything")
	flags.BoolP(config.KeyVerbose, "v", false, "Debug logging and one summary line per file")
	flags.Int(config.KeyWorkers, 4, "Number of parallel tag writers")
	flags.Bool(config.KeyForce, false, "Process files even if the ledger says they are unchanged")
	flags.String(config.KeyCache, "", "Ledger file (default $XDG_CACHE_HOME/album-tagger/ledger.json)")
	flags.Bool(config.KeyNoCache, false, "Do not read or write the ledger")
	flags.String(config.KeyReport, "", "Write a JSON report of the run to this file")
	flags.String(config.KeyLogLevel, "info", "Log level: trace, debug, info, warn, error")
}

// mustBind makes every flag the highest-priority source for its key.
func mustBind(v *viper.Viper, flags *pflag.FlagSet) {
	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}
}

func newLogger(opts config.Options) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(opts.Level())
}
