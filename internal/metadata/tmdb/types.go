// Package tmdb provides a client for the certification endpoints of The Movie Database API.
package tmdb

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// Raw API response types (internal)

type rawContentRatings struct {
	Results []rawContentRating `json:"results"`
}

type rawContentRating struct {
	Region string `json:"iso_3166_1"`
	Rating string `json:"rating"`
}

type rawReleaseDates struct {
	Results []rawReleaseRegion `json:"results"`
}

type rawReleaseRegion struct {
	Region       string           `json:"iso_3166_1"`
	ReleaseDates []rawReleaseDate `json:"release_dates"`
}

type rawReleaseDate struct {
	Certification string `json:"certification"`
	Type          int    `json:"type"`
	ReleaseDate   string `json:"release_date"`
	Note          string `json:"note"`
}
