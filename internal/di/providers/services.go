package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/agetags-server/internal/config"
	"github.com/listenupapp/agetags-server/internal/logger"
	"github.com/listenupapp/agetags-server/internal/service"
	"github.com/listenupapp/agetags-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideRatingService provides the certification and age resolution service.
func ProvideRatingService(i do.Injector) (*service.RatingService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	clientHandle := do.MustInvoke[*TMDBClientHandle](i)
	cacheHandle := do.MustInvoke[*CacheHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRatingService(
		clientHandle.Client,
		cacheHandle.RatingsCache,
		cfg.Tagging.Priority(),
		log.Logger,
	), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, validator, log.Logger), nil
}

// ProvideAgeTagService provides the age-tag task service.
// Runs left in the running state by a previous process are marked aborted.
func ProvideAgeTagService(i do.Injector) (*service.AgeTagService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	ratingService := do.MustInvoke[*service.RatingService](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewAgeTagService(storeHandle.Store, ratingService, service.AgeTagConfig{
		TagPrefix:   cfg.Tagging.TagPrefix,
		Concurrency: cfg.Tagging.Concurrency,
		EnableWrite: cfg.Tagging.EnableWrite,
	}, log.Logger)

	if err := svc.RecoverStaleRuns(context.Background()); err != nil {
		return nil, err
	}

	return svc, nil
}
