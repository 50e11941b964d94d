// Package textnorm strips disguise formatting ("zalgo" marks, underline
// overlays, decorative bullets) from filenames.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	dotBelow       = '\u0323'
	diaeresisBelow = '\u0324'
)

// disguisedLetters are precomposed letters that only show up in filenames as
// decoration. Their marks sit above the letter, so the below-mark rule in
// undisguise does not catch them.
var disguisedLetters = map[rune]rune{
	'Ḧ': 'H',
	'ḧ': 'h',
	'Ẍ': 'X',
	'ẍ': 'x',
}

// Normalize removes combining marks, disguised letters and the noise glyphs
// '_' and '∙' from s, then trims surrounding whitespace. Precomposed letters
// such as 'ä' are kept. Normalize is idempotent.
func Normalize(s string) string {
	// transform.Chain keeps internal buffers, so it is built per call.
	t := transform.Chain(
		runes.Remove(runes.Predicate(isCombiningMark)),
		runes.Map(undisguise),
		runes.Remove(runes.Predicate(isNoiseGlyph)),
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(out)
}

func isCombiningMark(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Me)
}

func isNoiseGlyph(r rune) bool {
	return r == '_' || r == '∙'
}

// undisguise maps a letter carrying a single dot-below or diaeresis-below mark
// to its base letter. All such letters live in Latin Extended Additional.
func undisguise(r rune) rune {
	if base, ok := disguisedLetters[r]; ok {
		return base
	}
	if r < 0x1E00 || r > 0x1EFF {
		return r
	}
	d := []rune(norm.NFD.String(string(r)))
	if len(d) == 2 && (d[1] == dotBelow || d[1] == diaeresisBelow) {
		return d[0]
	}
	return r
}
