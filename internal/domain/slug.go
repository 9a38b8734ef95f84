package domain

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a subject name to the prefix of a raid id.
// "Lugia" -> "lugia", "Mr. Mime" -> "mr-mime", "Flabébé" -> "flabebe".
func Slugify(s string) string {
	s = norm.NFKD.String(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// FoldKey returns the case-insensitive lookup key for a raid id.
// Casers keep state, so a fresh one is built per call.
func FoldKey(id string) string {
	return cases.Fold().String(strings.TrimSpace(id))
}
