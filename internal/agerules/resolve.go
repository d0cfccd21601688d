package agerules

import (
	"slices"
	"strings"
)

// ReleaseType is the provider's tag for a movie release event.
// Its meaning and ordering belong to the provider; resolution never reorders by it.
type ReleaseType int

// Release types as defined by TMDB.
const (
	ReleasePremiere          ReleaseType = 1
	ReleaseTheatricalLimited ReleaseType = 2
	ReleaseTheatrical        ReleaseType = 3
	ReleaseDigital           ReleaseType = 4
	ReleasePhysical          ReleaseType = 5
	ReleaseTV                ReleaseType = 6
)

func (t ReleaseType) String() string {
	switch t {
	case ReleasePremiere:
		return "premiere"
	case ReleaseTheatricalLimited:
		return "theatrical_limited"
	case ReleaseTheatrical:
		return "theatrical"
	case ReleaseDigital:
		return "digital"
	case ReleasePhysical:
		return "physical"
	case ReleaseTV:
		return "tv"
	default:
		return "unknown"
	}
}

// Release is one certified release event of a movie in a region.
type Release struct {
	Type          ReleaseType `json:"type"`
	Certification string      `json:"certification"`
}

// TVRatings holds one raw certification per region. Region keys should be uppercase;
// lookups fall back to a case-insensitive match.
type TVRatings map[string]string

// MovieRatings holds, per region, the certified releases in provider order.
// Region keys should be uppercase; lookups fall back to a case-insensitive match.
type MovieRatings map[string][]Release

// Ratings is the raw regional certification data for one title.
// Only the field matching the title's kind is consulted.
type Ratings struct {
	TV    TVRatings    `json:"tv,omitempty"`
	Movie MovieRatings `json:"movie,omitempty"`
}

// Regions returns how many regions carry data for kind.
func (r Ratings) Regions(kind Kind) int {
	if kind == KindTV {
		return len(r.TV)
	}
	return len(r.Movie)
}

// Resolution is the outcome of resolving a title, with the source of the age.
// Region, Certification and Release are empty when Age is Unknown.
type Resolution struct {
	Age           Age
	Region        string
	Certification string
	// Release is set for movies only.
	Release ReleaseType
}

// Resolve picks one age for a title by walking priority in order.
// See ResolveDetailed.
func Resolve(kind Kind, priority []string, ratings Ratings) Age {
	return ResolveDetailed(kind, priority, ratings).Age
}

// ResolveDetailed walks priority in order and stops at the first region that yields an age.
//
// For TV the region's single certification is mapped. For movies each release in the
// region is mapped in stored order and the first known one is the region's candidate.
// A stricter rating in a later region never overrides an earlier one.
func ResolveDetailed(kind Kind, priority []string, ratings Ratings) Resolution {
	for _, region := range priority {
		r := strings.ToUpper(strings.TrimSpace(region))
		if r == "" {
			continue
		}

		switch kind {
		case KindTV:
			raw, ok := lookupRegion(ratings.TV, r)
			if !ok {
				continue
			}
			if age := MapToAge(r, raw, KindTV); age.Known() {
				return Resolution{Age: age, Region: r, Certification: Normalize(raw)}
			}

		case KindMovie:
			releases, _ := lookupRegion(ratings.Movie, r)
			for _, rel := range releases {
				if age := MapToAge(r, rel.Certification, KindMovie); age.Known() {
					return Resolution{
						Age:           age,
						Region:        r,
						Certification: Normalize(rel.Certification),
						Release:       rel.Type,
					}
				}
			}
		}
	}

	return Resolution{Age: Unknown}
}

// lookupRegion returns m[region], falling back to keys that differ only in case or
// surrounding whitespace. When several keys match, the lexically smallest wins.
func lookupRegion[V any](m map[string]V, region string) (V, bool) {
	if v, ok := m[region]; ok {
		return v, true
	}

	var keys []string
	for k := range m {
		if strings.EqualFold(strings.TrimSpace(k), region) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		var zero V
		return zero, false
	}
	slices.Sort(keys)
	return m[keys[0]], true
}
