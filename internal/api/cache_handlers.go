package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
)

func (s *Server) registerCacheRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "purgeCertificationCache",
		Method:      http.MethodDelete,
		Path:        "/api/v1/cache/certifications",
		Summary:     "Purge certification cache",
		Description: "Drops every cached TMDB certification snapshot so the next lookups refetch",
		Tags:        []string{"Cache"},
	}, s.handlePurgeCache)
}

// PurgeCacheResponse reports how many snapshots were dropped.
type PurgeCacheResponse struct {
	Purged int `json:"purged" doc:"Number of snapshots removed"`
}

// PurgeCacheOutput wraps the purge response for Huma.
type PurgeCacheOutput struct {
	Body PurgeCacheResponse
}

func (s *Server) handlePurgeCache(ctx context.Context, _ *struct{}) (*PurgeCacheOutput, error) {
	if s.cache == nil {
		return nil, apiError(domainerrors.Conflict("certification cache is not configured"))
	}

	n, err := s.cache.Purge(ctx)
	if err != nil {
		return nil, apiError(err)
	}

	s.logger.Info("certification cache purged", "entries", n)
	return &PurgeCacheOutput{Body: PurgeCacheResponse{Purged: n}}, nil
}
