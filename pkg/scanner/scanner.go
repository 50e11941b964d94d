// Package scanner lists the audio files of a music folder.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// IsAudioFile reports whether the filename has a supported audio extension.
func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

// Supported audio file extensions.
var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
	".wav":  true,
	".wma":  true,
	".aac":  true,
	".dsf":  true,
	".aiff": true,
	".aif":  true,
	".ape":  true,
	".wv":   true,
	".mpc":  true,
}

// Scan returns the sorted absolute paths of the audio files under root.
// Without recursive only the direct children of root are listed. Problems
// with root itself are returned; unreadable subdirectories are logged and
// skipped.
func Scan(root string, recursive bool, logger zerolog.Logger) ([]string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading music folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reading music folder: %s is not a directory", abs)
	}

	var files []string

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			logger.Warn().Err(err).Str("path", path).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != abs && !recursive {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsAudioFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading music folder: %w", err)
	}

	sort.Strings(files)
	return files, nil
}
