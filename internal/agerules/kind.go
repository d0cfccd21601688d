// Package agerules maps content-rating certifications from national rating boards to a
// minimum viewing age and resolves one age for a title across a region priority list.
//
// Every function in this package is pure: the lookup tables are built at init and never
// mutated, so callers may resolve titles concurrently without synchronization.
package agerules

import (
	"strconv"
	"strings"
)

// Kind selects which certification scheme applies to a title.
type Kind string

const (
	KindMovie Kind = "movie"
	KindTV    Kind = "tv"
)

// Valid returns true if this is a recognized content kind.
func (k Kind) Valid() bool {
	return k == KindMovie || k == KindTV
}

// ParseKind converts a user-supplied kind ("movie", "TV", "series", "show") to a Kind.
// The second return value is false for unrecognized input.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "film":
		return KindMovie, true
	case "tv", "series", "show":
		return KindTV, true
	}
	return "", false
}

// Age is a resolved minimum viewing age, or Unknown.
// The zero value is Unknown.
type Age struct {
	years int
	known bool
}

// Unknown is the Age returned when no certification yields a usable signal.
var Unknown = Age{}

// AgeOf returns a known Age. Values outside 0..21 yield Unknown.
func AgeOf(years int) Age {
	if years < minAge || years > maxAge {
		return Unknown
	}
	return Age{years: years, known: true}
}

// Known reports whether the age carries a value.
func (a Age) Known() bool { return a.known }

// Value returns the age in years. It is 0 for Unknown; check Known first.
func (a Age) Value() int { return a.years }

// Ptr returns a pointer to the age value, or nil when Unknown.
// Convenient for JSON responses where unknown is null.
func (a Age) Ptr() *int {
	if !a.known {
		return nil
	}
	v := a.years
	return &v
}

func (a Age) String() string {
	if !a.known {
		return "unknown"
	}
	return strconv.Itoa(a.years)
}
