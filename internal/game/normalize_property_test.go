package game

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// nameAlphabet approximates the characters substance names are made of,
// including accented letters and every separator.
var nameAlphabet = []rune("abcdefghijklmnopqrstuvwxyzéèêëüöäçñ0123456789" + Separators)

func substanceNames() *rapid.Generator[string] {
	return rapid.StringOfN(rapid.SampledFrom(nameAlphabet), 0, 40, -1)
}

// TestNormalizeIdempotentProperty verifies normalize(normalize(s)) ==
// normalize(s) for arbitrary strings, not just name-like ones.
func TestNormalizeIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")

		once := Normalize(s)
		twice := Normalize(once)
		if once != twice {
			t.Fatalf("Normalize not idempotent: %q -> %q -> %q", s, once, twice)
		}
	})
}

// TestNormalizeCaseInsensitiveProperty verifies that upper-casing a
// name-like string never changes its normalized form.
func TestNormalizeCaseInsensitiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := substanceNames().Draw(t, "s")

		if Normalize(s) != Normalize(strings.ToUpper(s)) {
			t.Fatalf("case sensitivity leak: %q normalizes to %q but %q to %q",
				s, Normalize(s), strings.ToUpper(s), Normalize(strings.ToUpper(s)))
		}
	})
}

// TestMatchesReflexiveProperty verifies that any name with at least one
// guessable character matches itself.
func TestMatchesReflexiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := substanceNames().Draw(t, "s")
		if Normalize(s) == "" {
			t.Skip("nothing guessable")
		}

		if !Matches(s, s) {
			t.Fatalf("%q does not match itself", s)
		}
	})
}
