package parser

import "strings"

// separators in priority order. The order is fixed: an ASCII hyphen anywhere
// in the name wins over dashes that appear earlier.
var separators = []rune{'-', '–', '—'}

// DetectSeparator returns the dash-like rune that splits artist from title in s.
func DetectSeparator(s string) (rune, error) {
	for _, sep := range separators {
		if strings.ContainsRune(s, sep) {
			return sep, nil
		}
	}
	return 0, ErrNoSeparator
}
