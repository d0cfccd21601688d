package providers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/listenupapp/agetags-server/internal/cache"
	"github.com/listenupapp/agetags-server/internal/config"
	"github.com/listenupapp/agetags-server/internal/logger"
	"github.com/listenupapp/agetags-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the catalog database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if err := os.MkdirAll(filepath.Dir(cfg.Data.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sqlite.Open(cfg.Data.DatabasePath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Data.DatabasePath)

	return &StoreHandle{Store: db}, nil
}

// CacheHandle wraps the certification cache with shutdown capability.
type CacheHandle struct {
	*cache.RatingsCache
}

// Shutdown implements do.Shutdownable.
func (h *CacheHandle) Shutdown() error {
	return h.Close()
}

// ProvideCache provides the TMDB certification cache.
func ProvideCache(i do.Injector) (*CacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	c, err := cache.New(cfg.Data.CachePath, cfg.TMDB.CacheTTL, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Certification cache initialized",
		"path", cfg.Data.CachePath,
		"ttl", cfg.TMDB.CacheTTL,
	)

	return &CacheHandle{RatingsCache: c}, nil
}
