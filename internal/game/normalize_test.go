package game

import (
	"strings"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lower case", "Aspirin", "aspirin"},
		{"accents stripped", "ÉTHANOL", "ethanol"},
		{"separators stripped", "2C-B", "2cb"},
		{"spaces and commas", "Lysergic acid, diethylamide", "lysergicaciddiethylamide"},
		{"apostrophes and parens", "O'Substance (beta)", "osubstancebeta"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeAccentAndCaseInsensitive(t *testing.T) {
	if Normalize("ÉTHANOL") != Normalize("ethanol") {
		t.Fatalf("Normalize(ÉTHANOL) = %q, Normalize(ethanol) = %q",
			Normalize("ÉTHANOL"), Normalize("ethanol"))
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		guess    string
		solution string
		want     bool
	}{
		{"exact", "aspirin", "ASPIRIN", true},
		{"inside a sentence", "I think it's Aspirin!", "ASPIRIN", true},
		{"punctuation insensitive", "as-pi rin", "Aspirin", true},
		{"partial guess", "aceta", "ASPIRIN", false},
		{"solution longer than guess", "aspirin", "Aspirin lysine", false},
		{"accented guess", "éthanol", "Ethanol", true},
		{"empty solution never matches", "anything", "", false},
		{"separator-only solution never matches", "anything", "-- ;;", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.guess, tt.solution); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.guess, tt.solution, got, tt.want)
			}
		})
	}
}

func TestSeparatorsAreStable(t *testing.T) {
	for _, r := range Separators {
		if strings.ContainsRune(Normalize("a"+string(r)+"b"), r) {
			t.Errorf("separator %q survived normalization", r)
		}
	}
}
