// Package slug turns display names into URL path segments.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds slugs so label paths stay readable.
const MaxLength = 64

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	wellFormed      = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Make converts a display name to a slug.
//
//	"Science Fiction"  -> "science-fiction"
//	"Café Reads"       -> "cafe-reads"
//	"Sci-Fi / Fantasy" -> "sci-fi-fantasy"
//
// Names with no ASCII letters or digits produce "".
func Make(s string) string {
	// Decompose accents so "é" becomes "e" plus a combining mark we drop.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxLength {
		s = strings.TrimRight(s[:MaxLength], "-")
	}
	return s
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return len(s) <= MaxLength && wellFormed.MatchString(s)
}
