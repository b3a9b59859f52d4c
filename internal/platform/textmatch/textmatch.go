// Package textmatch holds the fuzzy identity rules used for class names and
// student names. There is no canonical identifier for either, so every
// comparison in the service goes through these helpers.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns the comparison key of s: NFC-normalized, case-folded, with
// runs of whitespace collapsed to a single space.
func Fold(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Fold().String(s)
}

// NameEquals reports whether two student names denote the same student.
// The match is anchored on both ends; "Priya" does not equal "Priyanka".
func NameEquals(a, b string) bool {
	fa := Fold(a)
	return fa != "" && fa == Fold(b)
}

// ClassMatches reports whether the stored class name ends with the filter
// value on a token boundary, ignoring case. "7B" matches "Class 7B" and "7b"
// but not "17B"; "10A" does not match "10A-West".
func ClassMatches(stored, filter string) bool {
	s, f := Fold(stored), Fold(filter)
	if f == "" {
		return false
	}
	if s == f {
		return true
	}
	if !strings.HasSuffix(s, f) {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:len(s)-len(f)])
	return !unicode.IsLetter(prev) && !unicode.IsDigit(prev)
}

// ClassExact reports fold-equality of two class names.
func ClassExact(a, b string) bool {
	return Fold(a) == Fold(b)
}
