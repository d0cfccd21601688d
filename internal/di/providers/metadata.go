package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/agetags-server/internal/config"
	"github.com/listenupapp/agetags-server/internal/logger"
	"github.com/listenupapp/agetags-server/internal/metadata/tmdb"
)

// TMDBClientHandle wraps the TMDB client with shutdown capability.
type TMDBClientHandle struct {
	*tmdb.Client
}

// Shutdown implements do.Shutdownable.
func (h *TMDBClientHandle) Shutdown() error {
	h.Client.Close()
	return nil
}

// ProvideTMDBClient provides the TMDB API client.
// A missing API key is not an error here; it is reported when a run or lookup needs TMDB.
func ProvideTMDBClient(i do.Injector) (*TMDBClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	client := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, log.Logger)

	if client.HasAPIKey() {
		log.Info("TMDB client initialized", "base_url", client.BaseURL())
	} else {
		log.Warn("TMDB API key is not configured; age lookups and runs will fail until it is set",
			"base_url", client.BaseURL(),
		)
	}

	return &TMDBClientHandle{Client: client}, nil
}
