// Package version implements version parsing and ordering for conflict
// resolution.
//
// The default ordering follows the Gradle version ordering rules:
//
//   - A version is split into parts on '.', '-', '_' and '+', and between
//     digits and letters ("1a1" is 1, a, 1).
//   - Numeric parts compare numerically and are higher than non-numeric parts.
//   - Non-numeric parts compare alphabetically, except for the special
//     qualifiers: dev < (anything else) < rc < snapshot < final < ga < release < sp.
//   - An extra numeric part makes a version higher (1.1 < 1.1.1); an extra
//     non-numeric part makes it lower (1.1-alpha < 1.1).
//
// Reference: https://docs.gradle.org/current/userguide/dependency_versions.html#sec:version-ordering
//
// [Semantic] is a strict SemVer 2.0 ordering backed by Masterminds/semver,
// falling back to [Compare] for versions it cannot parse.
package version

import (
	"cmp"
	"slices"
	"strings"
)

// Part is one segment of a version.
type Part struct {
	IsNumeric bool
	Text      string
}

// specialQualifiers orders the well-known qualifiers relative to plain
// qualifiers, which rank 0.
var specialQualifiers = map[string]int{
	"dev":      -1,
	"rc":       1,
	"snapshot": 2,
	"final":    3,
	"ga":       4,
	"release":  5,
	"sp":       6,
}

// Version is a parsed version string.
type Version struct {
	source string
	parts  []Part
	base   string
}

// Parse splits s into parts. Every string is a valid version.
func Parse(s string) Version {
	v := Version{source: s, base: s}
	start := -1
	kind := 0 // 0 none, 1 digits, 2 letters
	baseFound := false
	flush := func(end int) {
		if start < 0 {
			return
		}
		text := s[start:end]
		numeric := kind == 1
		if !numeric && !baseFound {
			v.base = strings.TrimRight(s[:start], ".-_+")
			baseFound = true
		}
		v.parts = append(v.parts, Part{IsNumeric: numeric, Text: text})
		start, kind = -1, 0
	}
	for i, r := range s {
		switch {
		case r == '.' || r == '-' || r == '_' || r == '+':
			flush(i)
		case r >= '0' && r <= '9':
			if kind == 2 {
				flush(i)
			}
			if start < 0 {
				start, kind = i, 1
			}
		default:
			if kind == 1 {
				flush(i)
			}
			if start < 0 {
				start, kind = i, 2
			}
		}
	}
	flush(len(s))
	return v
}

// String returns the source string.
func (v Version) String() string { return v.source }

// Parts returns the parsed segments.
func (v Version) Parts() []Part { return slices.Clone(v.parts) }

// IsQualified reports whether the version has a non-numeric part.
func (v Version) IsQualified() bool {
	return slices.ContainsFunc(v.parts, func(p Part) bool { return !p.IsNumeric })
}

// BaseVersion returns the version up to its first qualifier ("1.2" for
// "1.2-rc1"). An unqualified version is its own base.
func (v Version) BaseVersion() Version {
	if !v.IsQualified() {
		return v
	}
	return Parse(v.base)
}

// Comparator orders two version strings, returning a negative number, zero
// or a positive number.
type Comparator func(a, b string) int

// Compare orders two version strings with the default rules.
func Compare(a, b string) int {
	return CompareVersions(Parse(a), Parse(b))
}

// CompareVersions orders two parsed versions with the default rules.
func CompareVersions(a, b Version) int {
	if a.source == b.source {
		return 0
	}
	n := min(len(a.parts), len(b.parts))
	for i := range n {
		if c := compareParts(a.parts[i], b.parts[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.parts) == len(b.parts):
		return 0
	case len(a.parts) > len(b.parts):
		if a.parts[n].IsNumeric {
			return 1
		}
		return -1
	default:
		if b.parts[n].IsNumeric {
			return -1
		}
		return 1
	}
}

func compareParts(a, b Part) int {
	if a.Text == b.Text {
		return 0
	}
	switch {
	case a.IsNumeric && b.IsNumeric:
		return compareNumeric(a.Text, b.Text)
	case a.IsNumeric:
		return 1
	case b.IsNumeric:
		return -1
	}
	sa, oka := specialQualifiers[strings.ToLower(a.Text)]
	sb, okb := specialQualifiers[strings.ToLower(b.Text)]
	if oka || okb {
		if c := cmp.Compare(sa, sb); c != 0 {
			return c
		}
	}
	return strings.Compare(a.Text, b.Text)
}

// compareNumeric compares digit strings of any length.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// Sort sorts versions in ascending order using c, or Compare when c is nil.
func Sort(versions []string, c Comparator) {
	if c == nil {
		c = Compare
	}
	slices.SortStableFunc(versions, c)
}

// Max returns the higher of two versions.
func Max(a, b string) string {
	if Compare(a, b) >= 0 {
		return a
	}
	return b
}
