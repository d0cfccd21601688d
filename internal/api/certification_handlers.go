package api

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/agetags-server/internal/agerules"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
)

func (s *Server) registerCertificationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "normalizeCertification",
		Method:      http.MethodPost,
		Path:        "/api/v1/certifications/normalize",
		Summary:     "Normalize certification",
		Description: "Canonicalizes a raw certification string: uppercase, trimmed, region prefix removed",
		Tags:        []string{"Certifications"},
	}, s.handleNormalize)

	huma.Register(s.api, huma.Operation{
		OperationID: "certificationAge",
		Method:      http.MethodPost,
		Path:        "/api/v1/certifications/age",
		Summary:     "Map certification to age",
		Description: "Maps one regional certification to a minimum viewing age",
		Tags:        []string{"Certifications"},
	}, s.handleCertificationAge)

	huma.Register(s.api, huma.Operation{
		OperationID: "parsePriority",
		Method:      http.MethodPost,
		Path:        "/api/v1/regions/priority",
		Summary:     "Parse region priority",
		Description: "Parses a comma-separated region list into the ordered list the resolver walks",
		Tags:        []string{"Certifications"},
	}, s.handleParsePriority)

	huma.Register(s.api, huma.Operation{
		OperationID: "resolveAge",
		Method:      http.MethodPost,
		Path:        "/api/v1/resolve",
		Summary:     "Resolve age",
		Description: "Resolves one age from supplied regional certifications. Uses the configured priority when priority_csv is omitted.",
		Tags:        []string{"Certifications"},
	}, s.handleResolve)
}

// === DTOs ===

// NormalizeRequest is the request body for normalizing a certification.
type NormalizeRequest struct {
	Certification string `json:"certification" doc:"Raw certification as published by a provider"`
}

// NormalizeInput wraps the normalize request for Huma.
type NormalizeInput struct {
	Body NormalizeRequest
}

// NormalizeResponse contains a normalized certification.
type NormalizeResponse struct {
	Normalized string `json:"normalized" doc:"Canonical certification"`
}

// NormalizeOutput wraps the normalize response for Huma.
type NormalizeOutput struct {
	Body NormalizeResponse
}

// CertificationAgeRequest is the request body for mapping a certification.
type CertificationAgeRequest struct {
	Region        string `json:"region" doc:"ISO 3166-1 region code, e.g. FR"`
	Certification string `json:"certification" doc:"Raw certification"`
	Kind          string `json:"kind" doc:"movie or tv"`
}

// CertificationAgeInput wraps the certification age request for Huma.
type CertificationAgeInput struct {
	Body CertificationAgeRequest
}

// AgeResponse contains one mapped age.
type AgeResponse struct {
	Age   *int `json:"age" doc:"Minimum viewing age, null when unknown"`
	Known bool `json:"known" doc:"Whether the certification yielded an age"`
}

// AgeOutput wraps the age response for Huma.
type AgeOutput struct {
	Body AgeResponse
}

// PriorityRequest is the request body for parsing a region priority list.
type PriorityRequest struct {
	CSV        string `json:"csv" doc:"Comma-separated region codes"`
	HomeRegion string `json:"home_region,omitempty" doc:"Region placed first"`
}

// PriorityInput wraps the priority request for Huma.
type PriorityInput struct {
	Body PriorityRequest
}

// PriorityResponse contains a parsed priority list.
type PriorityResponse struct {
	Regions []string `json:"regions" doc:"Ordered unique region codes"`
}

// PriorityOutput wraps the priority response for Huma.
type PriorityOutput struct {
	Body PriorityResponse
}

// ReleaseDTO is one movie release event.
type ReleaseDTO struct {
	Type          int    `json:"type" doc:"TMDB release type (1 premiere .. 6 TV)"`
	Certification string `json:"certification" doc:"Raw certification"`
}

// ResolveRequest is the request body for resolving an age from raw ratings.
type ResolveRequest struct {
	Kind         string                  `json:"kind" doc:"movie or tv"`
	PriorityCSV  string                  `json:"priority_csv,omitempty" doc:"Region priority; the configured one when empty"`
	HomeRegion   string                  `json:"home_region,omitempty" doc:"Region placed first when priority_csv is given"`
	TVRatings    map[string]string       `json:"tv_ratings,omitempty" doc:"TV certification per region; region codes are case-insensitive"`
	MovieRatings map[string][]ReleaseDTO `json:"movie_ratings,omitempty" doc:"Movie releases per region, in provider order; region codes are case-insensitive"`
}

// ResolveInput wraps the resolve request for Huma.
type ResolveInput struct {
	Body ResolveRequest
}

// ResolutionResponse describes a resolved age and where it came from.
type ResolutionResponse struct {
	Kind          string   `json:"kind" doc:"movie or tv"`
	Age           *int     `json:"age" doc:"Minimum viewing age, null when unknown"`
	Known         bool     `json:"known" doc:"Whether any region yielded an age"`
	Region        string   `json:"region,omitempty" doc:"Region that supplied the age"`
	Certification string   `json:"certification,omitempty" doc:"Normalized certification that supplied the age"`
	ReleaseType   string   `json:"release_type,omitempty" doc:"Movie release type that supplied the age"`
	Priority      []string `json:"priority" doc:"Region priority that was walked"`
}

// ResolutionOutput wraps the resolution response for Huma.
type ResolutionOutput struct {
	Body ResolutionResponse
}

// === Handlers ===

func (s *Server) handleNormalize(_ context.Context, input *NormalizeInput) (*NormalizeOutput, error) {
	return &NormalizeOutput{
		Body: NormalizeResponse{Normalized: agerules.Normalize(input.Body.Certification)},
	}, nil
}

func (s *Server) handleCertificationAge(_ context.Context, input *CertificationAgeInput) (*AgeOutput, error) {
	kind, err := parseKind(input.Body.Kind)
	if err != nil {
		return nil, apiError(err)
	}

	age := agerules.MapToAge(input.Body.Region, input.Body.Certification, kind)
	return &AgeOutput{
		Body: AgeResponse{Age: age.Ptr(), Known: age.Known()},
	}, nil
}

func (s *Server) handleParsePriority(_ context.Context, input *PriorityInput) (*PriorityOutput, error) {
	return &PriorityOutput{
		Body: PriorityResponse{Regions: agerules.ParsePriority(input.Body.CSV, input.Body.HomeRegion)},
	}, nil
}

func (s *Server) handleResolve(_ context.Context, input *ResolveInput) (*ResolutionOutput, error) {
	kind, err := parseKind(input.Body.Kind)
	if err != nil {
		return nil, apiError(err)
	}

	priority := s.services.Rating.Priority()
	if input.Body.PriorityCSV != "" {
		priority = agerules.ParsePriority(input.Body.PriorityCSV, input.Body.HomeRegion)
	}

	ratings := toRatings(input.Body.TVRatings, input.Body.MovieRatings)

	res := agerules.ResolveDetailed(kind, priority, ratings)
	return &ResolutionOutput{Body: toResolutionResponse(kind, priority, res)}, nil
}

// === Helpers ===

// toRatings builds resolver input with trimmed uppercase region keys. Blank keys are
// dropped. When keys collide after folding, the one already in canonical form wins.
func toRatings(tv map[string]string, movie map[string][]ReleaseDTO) agerules.Ratings {
	var ratings agerules.Ratings

	if len(tv) > 0 {
		ratings.TV = make(agerules.TVRatings, len(tv))
		for _, key := range regionKeys(tv) {
			region := regionKey(key)
			if _, dup := ratings.TV[region]; region == "" || dup {
				continue
			}
			ratings.TV[region] = tv[key]
		}
	}

	if len(movie) > 0 {
		ratings.Movie = make(agerules.MovieRatings, len(movie))
		for _, key := range regionKeys(movie) {
			region := regionKey(key)
			if _, dup := ratings.Movie[region]; region == "" || dup {
				continue
			}
			releases := make([]agerules.Release, 0, len(movie[key]))
			for _, rel := range movie[key] {
				releases = append(releases, agerules.Release{
					Type:          agerules.ReleaseType(rel.Type),
					Certification: rel.Certification,
				})
			}
			ratings.Movie[region] = releases
		}
	}

	return ratings
}

// regionKeys orders canonical keys first, then the rest lexically.
func regionKeys[V any](m map[string]V) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b string) int {
		aCanon, bCanon := a == regionKey(a), b == regionKey(b)
		if aCanon != bCanon {
			if aCanon {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	return keys
}

func regionKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func parseKind(s string) (agerules.Kind, error) {
	kind, ok := agerules.ParseKind(s)
	if !ok {
		return "", domainerrors.Validationf("unknown kind %q: must be movie or tv", s)
	}
	return kind, nil
}

func toResolutionResponse(kind agerules.Kind, priority []string, res agerules.Resolution) ResolutionResponse {
	resp := ResolutionResponse{
		Kind:          string(kind),
		Age:           res.Age.Ptr(),
		Known:         res.Age.Known(),
		Region:        res.Region,
		Certification: res.Certification,
		Priority:      priority,
	}
	if resp.Priority == nil {
		resp.Priority = []string{}
	}
	if kind == agerules.KindMovie && res.Age.Known() {
		resp.ReleaseType = res.Release.String()
	}
	return resp
}
