package agerules

import (
	"strconv"
	"strings"
)

// MapToAge returns the minimum age a certification denotes in region for kind.
//
// The certification is normalized first, so raw provider strings are accepted.
// Lookup order matters:
//  1. blank region or certification -> Unknown
//  2. unrated sentinels (NR, UNRATED, NOT RATED, N/A, NONE) -> Unknown
//  3. TV aliases (Y, Y7, MA), TV only
//  4. the region's table; a region with no table -> Unknown
//  5. numeric fallback: the certification's digits, if they form an age in 0..21
func MapToAge(region, cert string, kind Kind) Age {
	r := strings.ToUpper(strings.TrimSpace(region))
	c := Normalize(cert)
	if r == "" || c == "" {
		return Unknown
	}

	if unknownCerts[c] {
		return Unknown
	}

	if kind == KindTV {
		if age, ok := tvAliases[c]; ok {
			return AgeOf(age)
		}
	}

	scheme, ok := tables[kind][r]
	if !ok {
		return Unknown
	}

	if age, ok := scheme[c]; ok {
		return AgeOf(age)
	}

	return numericFallback(c)
}

// numericFallback keeps only the digits of c ("12+" -> 12, "M/16" -> 16) and accepts
// the result if it is a plausible age.
func numericFallback(c string) Age {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, c)
	if digits == "" {
		return Unknown
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		// Overflow on absurdly long digit runs.
		return Unknown
	}
	return AgeOf(n)
}
