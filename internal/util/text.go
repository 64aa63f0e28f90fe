package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reNonAlnum = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Fold applies NFKC so full-width letters and digits compare like ASCII, maps
// hyphen look-alikes to '-' and trims invisible edge characters.
func Fold(input string) string {
	s := norm.NFKC.String(input)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\u2010', '\u2011', '\u2012', '\u2013', '\u2014', '\u2212':
			return '-'
		}
		return r
	}, s)
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\u200B' || r == '\u200C' || r == '\u200D' || r == '\uFEFF'
	})
}

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// Tokenize lower-cases input and splits it on anything that is not a letter or digit.
func Tokenize(input string) []string {
	return strings.Fields(reNonAlnum.ReplaceAllString(strings.ToLower(input), " "))
}

// Truncate cuts s to at most limit runes. A non-positive limit leaves s untouched.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
