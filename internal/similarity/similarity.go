// Package similarity scores a typed answer against the expected card text.
package similarity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = cases.Fold()

// Normalize folds case, strips diacritics and punctuation and collapses
// whitespace, so "  Köpek! " and "kopek" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := folder.String(stripped)

	var b strings.Builder
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Ratio returns 1 - levenshtein/maxLen over the normalized strings.
func Ratio(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	longest := max(utf8.RuneCountInString(na), utf8.RuneCountInString(nb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(na, nb))/float64(longest)
}

// Score compares given against expected. Expected may list alternatives
// separated by "/" or ";"; the best alternative wins.
func Score(given, expected string) (correct bool, ratio float64) {
	alternatives := strings.FieldsFunc(expected, func(r rune) bool { return r == '/' || r == ';' })
	alternatives = append(alternatives, expected)

	g := Normalize(given)
	for _, alt := range alternatives {
		if Normalize(alt) == "" {
			continue
		}
		if g == Normalize(alt) {
			return true, 1
		}
		if r := Ratio(given, alt); r > ratio {
			ratio = r
		}
	}
	return false, ratio
}
