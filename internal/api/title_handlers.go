package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/agetags-server/internal/domain"
	"github.com/listenupapp/agetags-server/internal/service"
)

func (s *Server) registerTitleRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTitles",
		Method:      http.MethodGet,
		Path:        "/api/v1/titles",
		Summary:     "List titles",
		Description: "Returns every catalog title ordered by name",
		Tags:        []string{"Titles"},
	}, s.handleListTitles)

	huma.Register(s.api, huma.Operation{
		OperationID: "createTitle",
		Method:      http.MethodPost,
		Path:        "/api/v1/titles",
		Summary:     "Create title",
		Description: "Adds a movie or TV title to the catalog",
		Tags:        []string{"Titles"},
	}, s.handleCreateTitle)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTitle",
		Method:      http.MethodGet,
		Path:        "/api/v1/titles/{id}",
		Summary:     "Get title",
		Description: "Returns a title by ID",
		Tags:        []string{"Titles"},
	}, s.handleGetTitle)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteTitle",
		Method:      http.MethodDelete,
		Path:        "/api/v1/titles/{id}",
		Summary:     "Delete title",
		Description: "Removes a title from the catalog",
		Tags:        []string{"Titles"},
	}, s.handleDeleteTitle)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTitleAge",
		Method:      http.MethodGet,
		Path:        "/api/v1/titles/{id}/age",
		Summary:     "Resolve title age",
		Description: "Fetches TMDB certifications for the title (cached) and resolves its minimum viewing age",
		Tags:        []string{"Titles"},
	}, s.handleGetTitleAge)
}

// === DTOs ===

// TitleResponse contains title data in API responses.
type TitleResponse struct {
	ID        string    `json:"id" doc:"Title ID"`
	Kind      string    `json:"kind" doc:"movie or tv"`
	TMDBID    int       `json:"tmdb_id" doc:"TMDB ID"`
	Name      string    `json:"name" doc:"Display name"`
	Tags      []string  `json:"tags" doc:"Tags in display order"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// ListTitlesResponse contains a list of titles.
type ListTitlesResponse struct {
	Titles []TitleResponse `json:"titles" doc:"List of titles"`
	Total  int             `json:"total" doc:"Number of titles"`
}

// ListTitlesOutput wraps the list titles response for Huma.
type ListTitlesOutput struct {
	Body ListTitlesResponse
}

// CreateTitleRequest is the request body for creating a title.
type CreateTitleRequest struct {
	Kind   string   `json:"kind" doc:"movie or tv (aliases: film, series, show)"`
	TMDBID int      `json:"tmdb_id" doc:"TMDB ID"`
	Name   string   `json:"name" doc:"Display name"`
	Tags   []string `json:"tags,omitempty" doc:"Initial tags"`
}

// CreateTitleInput wraps the create title request for Huma.
type CreateTitleInput struct {
	Body CreateTitleRequest
}

// TitleOutput wraps the title response for Huma.
type TitleOutput struct {
	Body TitleResponse
}

// TitleIDInput contains the path parameter for single-title operations.
type TitleIDInput struct {
	ID string `path:"id" doc:"Title ID"`
}

// TitleAgeInput contains parameters for resolving a title's age.
type TitleAgeInput struct {
	ID      string `path:"id" doc:"Title ID"`
	Refresh bool   `query:"refresh" doc:"Bypass the certification cache"`
}

// TitleAgeResponse contains a title's resolved age with provenance.
type TitleAgeResponse struct {
	TitleID string `json:"title_id" doc:"Title ID"`
	TMDBID  int    `json:"tmdb_id" doc:"TMDB ID"`
	ResolutionResponse
	Cached    bool      `json:"cached" doc:"Whether certifications came from the cache"`
	FetchedAt time.Time `json:"fetched_at" doc:"When certifications were fetched from TMDB"`
}

// TitleAgeOutput wraps the title age response for Huma.
type TitleAgeOutput struct {
	Body TitleAgeResponse
}

// === Handlers ===

func (s *Server) handleListTitles(ctx context.Context, _ *struct{}) (*ListTitlesOutput, error) {
	titles, err := s.services.Catalog.ListTitles(ctx)
	if err != nil {
		return nil, apiError(err)
	}

	resp := make([]TitleResponse, len(titles))
	for i, t := range titles {
		resp[i] = toTitleResponse(t)
	}

	return &ListTitlesOutput{Body: ListTitlesResponse{Titles: resp, Total: len(resp)}}, nil
}

func (s *Server) handleCreateTitle(ctx context.Context, input *CreateTitleInput) (*TitleOutput, error) {
	t, err := s.services.Catalog.CreateTitle(ctx, service.CreateTitleInput{
		Kind:   input.Body.Kind,
		TMDBID: input.Body.TMDBID,
		Name:   input.Body.Name,
		Tags:   input.Body.Tags,
	})
	if err != nil {
		return nil, apiError(err)
	}

	return &TitleOutput{Body: toTitleResponse(t)}, nil
}

func (s *Server) handleGetTitle(ctx context.Context, input *TitleIDInput) (*TitleOutput, error) {
	t, err := s.services.Catalog.GetTitle(ctx, input.ID)
	if err != nil {
		return nil, apiError(err)
	}

	return &TitleOutput{Body: toTitleResponse(t)}, nil
}

func (s *Server) handleDeleteTitle(ctx context.Context, input *TitleIDInput) (*MessageOutput, error) {
	if err := s.services.Catalog.DeleteTitle(ctx, input.ID); err != nil {
		return nil, apiError(err)
	}
	return &MessageOutput{Body: MessageResponse{Message: "Title deleted"}}, nil
}

func (s *Server) handleGetTitleAge(ctx context.Context, input *TitleAgeInput) (*TitleAgeOutput, error) {
	t, err := s.services.Catalog.GetTitle(ctx, input.ID)
	if err != nil {
		return nil, apiError(err)
	}

	resolve := s.services.Rating.Resolve
	if input.Refresh {
		resolve = s.services.Rating.Refresh
	}

	result, err := resolve(ctx, t.Kind, t.TMDBID)
	if err != nil {
		return nil, apiError(err)
	}

	return &TitleAgeOutput{
		Body: TitleAgeResponse{
			TitleID:            t.ID,
			TMDBID:             t.TMDBID,
			ResolutionResponse: toResolutionResponse(t.Kind, result.Priority, result.Resolution),
			Cached:             result.Cached,
			FetchedAt:          result.FetchedAt,
		},
	}, nil
}

// === Helpers ===

func toTitleResponse(t *domain.Title) TitleResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return TitleResponse{
		ID:        t.ID,
		Kind:      string(t.Kind),
		TMDBID:    t.TMDBID,
		Name:      t.Name,
		Tags:      tags,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}
