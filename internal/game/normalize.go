package game

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Separators are the characters shown verbatim in clues and ignored
// when comparing a guess against the solution.
const Separators = "'();-, "

// stripMarks decomposes characters and drops their combining marks, so
// "é" compares equal to "e".
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize maps a string to the canonical form used for answer
// matching: accent-stripped, lower-cased, separators removed. The
// transform is idempotent.
func Normalize(s string) string {
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}
	stripped = strings.ToLower(stripped)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(Separators, r) {
			return -1
		}
		return r
	}, stripped)
}

// Matches reports whether a guess names the solution: the normalized
// solution must appear as a substring of the normalized guess.
func Matches(guess, solution string) bool {
	normalized := Normalize(solution)
	if normalized == "" {
		return false
	}
	return strings.Contains(Normalize(guess), normalized)
}
