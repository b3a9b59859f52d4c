// Package roster answers "which students belong to this class" and manages
// the class_rosters table behind it.
package roster

import (
	"context"
	"sort"
	"strings"

	"ROLLCALL-backend/internal/platform/apperr"
	"ROLLCALL-backend/internal/platform/textmatch"
)

// Resolver returns the ordered, distinct student names of a class.
// An unknown class is a NOT_FOUND error, never an empty roster.
type Resolver interface {
	Resolve(ctx context.Context, className string) ([]string, error)
}

// pick chooses the roster class a spoken class name refers to. An exact
// (case-folded) match wins; otherwise exactly one class may suffix-match in
// either direction ("7B" finds "Class 7B", "Class 7B" finds "7B").
func pick(classes []string, want string) (string, error) {
	want = strings.TrimSpace(want)
	if want == "" {
		return "", apperr.ErrInvalid("className is required")
	}
	var hits []string
	for _, c := range classes {
		if textmatch.ClassExact(c, want) {
			return c, nil
		}
		if textmatch.ClassMatches(c, want) || textmatch.ClassMatches(want, c) {
			hits = append(hits, c)
		}
	}
	switch len(hits) {
	case 0:
		return "", apperr.ErrNotFound("class " + want + " is not on any roster")
	case 1:
		return hits[0], nil
	}
	sort.Strings(hits)
	return "", apperr.ErrInvalid("class name " + want + " is ambiguous").
		WithDetail("matches " + strings.Join(hits, ", "))
}

// distinct trims names and drops blanks and case-folded repeats, keeping first occurrence.
func distinct(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		k := textmatch.Fold(n)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Static serves rosters from configuration.
type Static struct {
	classes map[string][]string
	names   []string
}

func NewStatic(classes map[string][]string) *Static {
	s := &Static{classes: make(map[string][]string, len(classes))}
	for c, names := range classes {
		c = strings.TrimSpace(c)
		s.classes[c] = distinct(names)
		s.names = append(s.names, c)
	}
	sort.Strings(s.names)
	return s
}

func (s *Static) Resolve(_ context.Context, className string) ([]string, error) {
	c, err := pick(s.names, className)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), s.classes[c]...), nil
}
