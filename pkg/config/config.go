// Package config resolves run options from flags, environment variables, an
// optional YAML file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	appDir     = "album-tagger"
	ledgerFile = "ledger.json"
	configName = "config"
	envPrefix  = "ALBUM_TAGGER"
)

// DefaultDebounce is how long watch mode waits for a folder to settle.
const DefaultDebounce = 2 * time.Second

// Keys shared by flags, environment variables and the config file.
const (
	KeyRecursive = "recursive"
	KeyDryRun    = "dry-run"
	KeyVerbose   = "verbose"
	KeyWorkers   = "workers"
	KeyForce     = "force"
	KeyCache     = "cache"
	KeyNoCache   = "no-cache"
	KeyReport    = "report"
	KeyLogLevel  = "log-level"
	KeyDebounce  = "debounce"
)

// Options holds everything a run needs to know besides the music folder.
type Options struct {
	Recursive  bool
	DryRun     bool
	Verbose    bool
	Workers    int
	Force      bool
	CachePath  string
	NoCache    bool
	ReportPath string
	LogLevel   string
	Debounce   time.Duration
}

// New returns a viper instance with defaults set and ALBUM_TAGGER_* variables
// bound, e.g. ALBUM_TAGGER_DRY_RUN for "dry-run".
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyRecursive, true)
	v.SetDefault(KeyDryRun, false)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyWorkers, 4)
	v.SetDefault(KeyForce, false)
	v.SetDefault(KeyCache, "")
	v.SetDefault(KeyNoCache, false)
	v.SetDefault(KeyReport, "")
	v.SetDefault(KeyLogLevel, zerolog.InfoLevel.String())
	v.SetDefault(KeyDebounce, DefaultDebounce)
}

// ReadFile merges a YAML config file into v. An explicit path must exist.
// Without one, config.yaml in the user config directory is read if present.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file: %w", err)
		}
		return nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return nil
	}
	v.AddConfigPath(filepath.Join(dir, appDir))
	v.SetConfigName(configName)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}
	return nil
}

// Load builds validated Options from v.
func Load(v *viper.Viper) (Options, error) {
	o := Options{
		Recursive:  v.GetBool(KeyRecursive),
		DryRun:     v.GetBool(KeyDryRun),
		Verbose:    v.GetBool(KeyVerbose),
		Workers:    v.GetInt(KeyWorkers),
		Force:      v.GetBool(KeyForce),
		CachePath:  v.GetString(KeyCache),
		NoCache:    v.GetBool(KeyNoCache),
		ReportPath: v.GetString(KeyReport),
		LogLevel:   v.GetString(KeyLogLevel),
		Debounce:   v.GetDuration(KeyDebounce),
	}

	if o.CachePath == "" && !o.NoCache {
		path, err := DefaultCachePath()
		if err != nil {
			// Nowhere to keep the ledger; run without it.
			o.NoCache = true
		}
		o.CachePath = path
	}

	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

// Validate reports the first invalid option.
func (o Options) Validate() error {
	if o.Workers < 1 {
		return fmt.Errorf("invalid workers %d: must be at least 1", o.Workers)
	}
	if _, err := zerolog.ParseLevel(o.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", o.LogLevel, err)
	}
	if o.Debounce <= 0 {
		return fmt.Errorf("invalid debounce %s: must be positive", o.Debounce)
	}
	return nil
}

// Level returns the log level to run with. Verbose always means debug.
func (o Options) Level() zerolog.Level {
	if o.Verbose {
		return zerolog.DebugLevel
	}
	lvl, err := zerolog.ParseLevel(o.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// DefaultCachePath returns the ledger location in the user cache directory.
func DefaultCachePath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("determining cache directory: %w", err)
	}
	return filepath.Join(dir, appDir, ledgerFile), nil
}
