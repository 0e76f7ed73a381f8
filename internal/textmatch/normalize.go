// Package textmatch scores recognized document text against the register
// using weighted fuzzy field matching.
package textmatch

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAllowedRe  = regexp.MustCompile(`[^A-Z0-9 \-]`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	containsDigit = regexp.MustCompile(`[0-9]`)
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jérôme" -> "Jerome").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Normalize prepares a string for fuzzy comparison: diacritics stripped,
// uppercased, anything outside [A-Z0-9 -] replaced by a space, whitespace
// collapsed and trimmed. Normalize is idempotent.
func Normalize(s string) string {
	s = RemoveDiacritics(s)
	s = strings.ToUpper(s)
	s = nonAllowedRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ContainsDigits reports whether the string holds at least one digit.
func ContainsDigits(s string) bool {
	return containsDigit.MatchString(s)
}
