// Package parser turns "Artist - Title [year] [tags].ext" filenames into
// Track metadata.
package parser

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/simon/album-tagger/pkg/textnorm"
)

const noisePhrase = `(?:full album|complete album|high quality|hq)`

var (
	// Marketing and quality tags, either wrapped in a matching bracket pair
	// or standing alone as whole words.
	noisePattern = regexp.MustCompile(`(?i)\[\s*` + noisePhrase + `\s*\]|\(\s*` + noisePhrase + `\s*\)|\b` + noisePhrase + `\b`)

	// Leftovers of a phrase removed from inside a longer bracket group.
	bracketPadding = regexp.MustCompile(`([\[(])\s+|\s+([\])])`)
	emptyBrackets  = regexp.MustCompile(`\[\]|\(\)`)

	// A 4-digit year, optionally bracketed, optionally followed by the
	// hyphen of a "1999-2016" range.
	yearPattern = regexp.MustCompile(`[\[(]?(\d{4})[\])]?-?`)

	capsRunPattern = regexp.MustCompile(`[A-Z]{4,}`)
	whitespaceRun  = regexp.MustCompile(`\s+`)
)

// Parse extracts a Track from the file at path. It never touches the
// filesystem. Expected failures are returned as *Failure.
//
// The artist ends at the first separator, so an artist whose name contains
// the separator ("A-Ha - Take On Me") is truncated.
func Parse(path string) (Track, error) {
	base := filepath.Base(path)

	// NFC first so accents spelled as base + mark on disk (macOS) survive
	// the removal of free-standing marks.
	name := textnorm.Normalize(norm.NFC.String(base))

	sep, err := DetectSeparator(name)
	if err != nil {
		return Track{}, fail(path, err)
	}
	idx := strings.IndexRune(name, sep)

	artist := textnorm.Normalize(strings.TrimSpace(name[:idx]))
	if artist == "" {
		return Track{}, fail(path, ErrEmptyArtist)
	}

	dot := strings.LastIndexByte(name, '.')
	if dot < idx {
		return Track{}, fail(path, ErrNoExtension)
	}
	ext := name[dot:]

	rest := strings.TrimSpace(name[idx+utf8.RuneLen(sep):])
	title, year := cleanTitle(rest[:len(rest)-len(ext)])
	if title == "" {
		return Track{}, fail(path, ErrEmptyTitle)
	}

	return Track{
		SourcePath: path,
		FileName:   base,
		Extension:  ext,
		Artist:     artist,
		Title:      title,
		Year:       year,
		Genre:      filepath.Base(filepath.Dir(path)),
	}, nil
}

func cleanTitle(title string) (string, string) {
	if noisePattern.MatchString(title) {
		title = noisePattern.ReplaceAllString(title, " ")
		title = bracketPadding.ReplaceAllString(title, "$1$2")
		title = emptyBrackets.ReplaceAllString(title, " ")
	}
	title = collapse(title)

	title, year := extractYear(title)

	if len(capsRunPattern.FindAllString(title, 2)) > 1 {
		title = cases.Title(language.Und).String(title)
	}
	return title, year
}

// extractYear returns the title without its year and the year itself. When
// more than one year-like token is present the first one is reported and the
// title is left as is, since there is no telling which is the release year.
func extractYear(title string) (string, string) {
	matches := yearPattern.FindAllStringSubmatchIndex(title, -1)
	switch len(matches) {
	case 0:
		return title, ""
	case 1:
		m := matches[0]
		year := title[m[2]:m[3]]
		// A title that was only the year ends up empty and is rejected by Parse.
		return trimBareDash(collapse(title[:m[0]] + " " + title[m[1]:])), year
	default:
		m := matches[0]
		return title, title[m[2]:m[3]]
	}
}

// trimBareDash drops a dash left dangling at either end of s once the year
// next to it is gone ("Album - 2023" -> "Album").
func trimBareDash(s string) string {
	for _, sep := range separators {
		d := string(sep)
		if s == d {
			return ""
		}
		s = strings.TrimPrefix(s, d+" ")
		s = strings.TrimSuffix(s, " "+d)
	}
	return s
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
