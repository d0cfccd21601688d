package api

import (
	"github.com/listenupapp/agetags-server/internal/service"
)

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Rating  *service.RatingService  // TMDB certifications and age resolution
	Catalog *service.CatalogService // Catalog titles
	AgeTag  *service.AgeTagService  // Age-tag task runs
}
