// Package di provides dependency injection configuration for the AgeTags server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/agetags-server/internal/config"
	"github.com/listenupapp/agetags-server/internal/di/providers"
	"github.com/listenupapp/agetags-server/internal/logger"
	"github.com/listenupapp/agetags-server/internal/service"
	"github.com/listenupapp/agetags-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideCache)

	// Metadata layer
	do.Provide(injector, providers.ProvideTMDBClient)

	// Business services
	do.Provide(injector, providers.ProvideRatingService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideAgeTagService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the services shared by every entry point.
// It does not start the HTTP server; see StartServer.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CacheHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.TMDBClientHandle](injector)

	_ = do.MustInvoke[*service.RatingService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	if _, err := do.Invoke[*service.AgeTagService](injector); err != nil {
		return err
	}

	return nil
}

// StartServer starts the HTTP server in the background.
func StartServer(injector *do.RootScope) error {
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}
