package tags

import (
	"fmt"
	"regexp"
	"strconv"

	"go.senan.xyz/taglib"

	"github.com/simon/album-tagger/pkg/parser"
)

// Tag keys written by this tool.
const (
	keyTitle  = "TITLE"
	keyArtist = "ARTIST"
	keyAlbum  = "ALBUM"
	keyGenre  = "GENRE"
	keyDate   = "DATE"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// Record holds the fields this tool manages in a file's tag container.
// Zero values mean "not set".
type Record struct {
	Artist string `json:"artist,omitempty"`
	Title  string `json:"title,omitempty"`
	Album  string `json:"album,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
}

// FromTrack builds the record to write for a parsed track. The title doubles
// as the album name, since every file is one album.
func FromTrack(t parser.Track) Record {
	return Record{
		Artist: t.Artist,
		Title:  t.Title,
		Album:  t.Title,
		Genre:  t.Genre,
		Year:   cleanYear(t.Year),
	}
}

// Read loads the managed fields from the file at path.
func Read(path string) (Record, error) {
	raw, err := readTags(path)
	if err != nil {
		return Record{}, &Error{Op: OpLoad, Path: path, Err: err}
	}
	return recordFromTags(raw), nil
}

// readTags calls into taglib, which can panic on malformed files.
func readTags(path string) (tags map[string][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("taglib panic: %v", r)
		}
	}()
	return taglib.ReadTags(path)
}

func recordFromTags(tags map[string][]string) Record {
	return Record{
		Artist: firstTag(tags, keyArtist),
		Title:  firstTag(tags, keyTitle),
		Album:  firstTag(tags, keyAlbum),
		Genre:  firstTag(tags, keyGenre),
		Year:   parseYear(firstTag(tags, keyDate)),
	}
}

func firstTag(tags map[string][]string, key string) string {
	if vals, ok := tags[key]; ok && len(vals) > 0 && vals[0] != "" {
		return vals[0]
	}
	return ""
}

// parseYear extracts a 4-digit year from a string that may be a full ISO date.
func parseYear(s string) int {
	if len(s) >= 4 {
		if y, err := strconv.Atoi(s[:4]); err == nil {
			return y
		}
	}
	return 0
}

// cleanYear keeps only the digits of s. Anything unparsable is 0.
func cleanYear(s string) int {
	y, err := strconv.Atoi(nonDigits.ReplaceAllString(s, ""))
	if err != nil || y < 0 {
		return 0
	}
	return y
}
