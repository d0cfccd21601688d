package agerules

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		home string
		want []string
	}{
		{"home moved to front", "US,FR,US", "FR", []string{"FR", "US"}},
		{"home absent from csv", "US,GB", "DE", []string{"DE", "US", "GB"}},
		{"no home", "us, fr ,gb", "", []string{"US", "FR", "GB"}},
		{"blank home", "US", "   ", []string{"US"}},
		{"home lowercase", "US", " fr ", []string{"FR", "US"}},
		{"invalid tokens dropped", "U,USA,FRANCE,,  ,GB", "", []string{"USA", "GB"}},
		{"dedupe case-insensitive", "us,US,Us", "", []string{"US"}},
		{"empty csv", "", "", []string{}},
		{"empty csv with home", "", "FR", []string{"FR"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePriority(tt.csv, tt.home))
		})
	}
}

func TestResolve_TVContinuesPastUnknown(t *testing.T) {
	ratings := Ratings{TV: TVRatings{"FR": "-", "US": "TV-14"}}

	age := Resolve(KindTV, []string{"FR", "US"}, ratings)
	assert.Equal(t, AgeOf(14), age)
}

func TestResolve_TVStopsAtFirstRegion(t *testing.T) {
	ratings := Ratings{TV: TVRatings{"US": "TV-PG", "FR": "18"}}

	age := Resolve(KindTV, []string{"US", "FR"}, ratings)
	assert.Equal(t, AgeOf(10), age)
}

func TestResolve_MovieFirstReleaseInStoredOrder(t *testing.T) {
	ratings := Ratings{Movie: MovieRatings{
		"FR": {
			{Type: ReleaseTheatrical, Certification: ""},
			{Type: ReleaseDigital, Certification: "NR"},
			{Type: ReleasePhysical, Certification: "12"},
			{Type: ReleaseTV, Certification: "16"},
		},
		"US": {
			{Type: ReleaseTheatrical, Certification: "R"},
		},
	}}

	res := ResolveDetailed(KindMovie, []string{"FR", "US"}, ratings)

	want := Resolution{
		Age:           AgeOf(12),
		Region:        "FR",
		Certification: "12",
		Release:       ReleasePhysical,
	}
	if diff := cmp.Diff(want, res, cmp.AllowUnexported(Age{})); diff != "" {
		t.Errorf("ResolveDetailed mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_MovieSkipsRegionWithoutCandidate(t *testing.T) {
	ratings := Ratings{Movie: MovieRatings{
		"FR": {{Type: ReleaseTheatrical, Certification: "unrated"}},
		"US": {{Type: ReleaseTheatrical, Certification: "PG-13"}},
	}}

	res := ResolveDetailed(KindMovie, []string{"FR", "US"}, ratings)
	assert.Equal(t, AgeOf(13), res.Age)
	assert.Equal(t, "US", res.Region)
	assert.Equal(t, "PG-13", res.Certification)
	assert.Equal(t, ReleaseTheatrical, res.Release)
}

func TestResolve_Unknown(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		priority []string
		ratings  Ratings
	}{
		{"empty priority", KindTV, nil, Ratings{TV: TVRatings{"US": "TV-14"}}},
		{"no data", KindMovie, []string{"US"}, Ratings{}},
		{"region not in priority", KindTV, []string{"FR"}, Ratings{TV: TVRatings{"US": "TV-14"}}},
		{"only unknown certs", KindTV, []string{"US", "FR"}, Ratings{TV: TVRatings{"US": "NR", "FR": "none"}}},
		{"movie data for tv title", KindTV, []string{"US"}, Ratings{Movie: MovieRatings{"US": {{Certification: "R"}}}}},
		{"unknown kind", Kind("radio"), []string{"US"}, Ratings{TV: TVRatings{"US": "TV-14"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ResolveDetailed(tt.kind, tt.priority, tt.ratings)
			assert.False(t, res.Age.Known())
			assert.Empty(t, res.Region)
			assert.Empty(t, res.Certification)
		})
	}
}

func TestResolve_PriorityEntriesNormalized(t *testing.T) {
	ratings := Ratings{TV: TVRatings{"GB": "15"}}

	res := ResolveDetailed(KindTV, []string{"", " gb "}, ratings)
	assert.Equal(t, AgeOf(15), res.Age)
	assert.Equal(t, "GB", res.Region)
}

func TestResolve_RegionKeysCaseInsensitive(t *testing.T) {
	priority := ParsePriority("fr,us", "")

	tv := ResolveDetailed(KindTV, priority, Ratings{TV: TVRatings{"fr": "16", "Us": "TV-MA"}})
	assert.Equal(t, AgeOf(16), tv.Age)
	assert.Equal(t, "FR", tv.Region)

	movie := ResolveDetailed(KindMovie, priority, Ratings{Movie: MovieRatings{
		" us ": {{Type: ReleaseTheatrical, Certification: "R"}},
	}})
	assert.Equal(t, AgeOf(17), movie.Age)
	assert.Equal(t, "US", movie.Region)
	assert.Equal(t, ReleaseTheatrical, movie.Release)
}

func TestResolve_ExactRegionKeyPreferred(t *testing.T) {
	ratings := Ratings{TV: TVRatings{"GB": "15", "gb": "18"}}

	for range 20 {
		assert.Equal(t, AgeOf(15), Resolve(KindTV, []string{"GB"}, ratings))
	}
}

func TestResolve_WithParsedPriority(t *testing.T) {
	priority := ParsePriority("US,FR,US", "FR")
	require.Equal(t, []string{"FR", "US"}, priority)

	ratings := Ratings{TV: TVRatings{"FR": "tv_14", "US": "TV-MA"}}
	assert.Equal(t, AgeOf(14), Resolve(KindTV, priority, ratings))
}

func TestResolve_Deterministic(t *testing.T) {
	priority := []string{"DE", "FR", "US", "GB"}
	ratings := Ratings{Movie: MovieRatings{
		"DE": {{Type: ReleaseTheatrical, Certification: "none"}},
		"FR": {{Type: ReleaseDigital, Certification: "-"}, {Type: ReleaseTheatrical, Certification: "fr-16"}},
		"US": {{Type: ReleaseTheatrical, Certification: "R"}},
		"GB": {{Type: ReleaseTheatrical, Certification: "18"}},
	}}

	first := ResolveDetailed(KindMovie, priority, ratings)
	for range 100 {
		if got := ResolveDetailed(KindMovie, priority, ratings); got != first {
			t.Fatalf("ResolveDetailed not deterministic: %+v then %+v", first, got)
		}
	}
	assert.Equal(t, AgeOf(16), first.Age)
}

func TestResolve_ConcurrentCallers(t *testing.T) {
	priority := ParsePriority("US,GB", "FR")
	ratings := Ratings{TV: TVRatings{"FR": "NR", "US": "TV-Y7", "GB": "12"}}

	var wg sync.WaitGroup
	results := make([]Age, 64)
	for i := range results {
		wg.Go(func() {
			results[i] = Resolve(KindTV, priority, ratings)
		})
	}
	wg.Wait()

	for i, age := range results {
		assert.Equal(t, AgeOf(7), age, "caller %d", i)
	}
}

func TestReleaseType_String(t *testing.T) {
	assert.Equal(t, "theatrical", ReleaseTheatrical.String())
	assert.Equal(t, "digital", ReleaseDigital.String())
	assert.Equal(t, "unknown", ReleaseType(42).String())
}

func TestRatings_Regions(t *testing.T) {
	r := Ratings{
		TV:    TVRatings{"US": "TV-14", "FR": "12"},
		Movie: MovieRatings{"US": nil},
	}
	assert.Equal(t, 2, r.Regions(KindTV))
	assert.Equal(t, 1, r.Regions(KindMovie))
}
