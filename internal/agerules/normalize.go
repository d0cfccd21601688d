package agerules

import (
	"strings"
)

// Normalize canonicalizes a raw certification string.
//
//	"fr-16"     -> "16"
//	"US:PG-13"  -> "PG-13"
//	"us_pg-13"  -> "PG-13"
//	"tv_14"     -> "TV-14"
//	"  "        -> ""
//
// Underscores become hyphens before the prefix check, so "US_" is a prefix like "US-".
// At most one region prefix is stripped, and only when what follows it is not itself
// prefixed, so "FR-US-12" stays as is and Normalize(Normalize(x)) == Normalize(x).
// Unknown tokens pass through unchanged.
func Normalize(raw string) string {
	c := strings.TrimSpace(raw)
	if c == "" {
		return ""
	}

	c = strings.ToUpper(c)
	c = strings.ReplaceAll(c, "_", "-")
	c = stripRegionPrefix(c)

	return strings.TrimSpace(c)
}

// stripRegionPrefix removes one leading "<REGION><sep>" where REGION has a table and sep
// is '-', ':' or whitespace, with any whitespace around the separator.
// A bare region code with no separator is left alone ("FR", "CA14A"), and so is
// "FR-" which carries no certification after the prefix.
func stripRegionPrefix(c string) string {
	rest, ok := cutRegionPrefix(c)
	if !ok {
		return c
	}
	if _, stacked := cutRegionPrefix(rest); stacked {
		// Stacked prefixes are ambiguous.
		return c
	}
	return rest
}

// cutRegionPrefix splits a leading region prefix off c. ok is false when c has no
// prefix or nothing follows it.
func cutRegionPrefix(c string) (rest string, ok bool) {
	if len(c) < 3 || !isPrefixRegion(c[:2]) {
		return c, false
	}

	after := c[2:]
	trimmed := strings.TrimLeft(after, " \t")

	switch {
	case strings.HasPrefix(trimmed, "-"), strings.HasPrefix(trimmed, ":"):
		trimmed = strings.TrimLeft(trimmed[1:], " \t")
	case len(trimmed) < len(after):
		// Whitespace alone is the separator.
	default:
		return c, false
	}

	if trimmed == "" {
		return c, false
	}
	return trimmed, true
}

// isPrefixRegion reports whether code is a region that can appear as a redundant prefix.
// RU is tabulated but never stripped: "RU-16+" is kept as published.
func isPrefixRegion(code string) bool {
	switch code {
	case "US":
		return true
	case "RU":
		return false
	}
	_, ok := sharedSchemes[code]
	return ok
}
