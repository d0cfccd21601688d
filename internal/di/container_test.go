package di

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/agetags-server/internal/config"
	"github.com/listenupapp/agetags-server/internal/domain"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
	"github.com/listenupapp/agetags-server/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Logger: config.LoggerConfig{Level: "error"},
		Data: config.DataConfig{
			BasePath:     base,
			DatabasePath: filepath.Join(base, "agetags.db"),
			CachePath:    filepath.Join(base, "cache"),
		},
		TMDB: config.TMDBConfig{
			BaseURL:  "http://127.0.0.1:0",
			CacheTTL: time.Hour,
		},
		Tagging: config.TaggingConfig{
			CountryPriority: "FR,US",
			HomeRegion:      "FR",
			TagPrefix:       "age-",
			Concurrency:     2,
		},
	}
}

func TestBootstrap_WiresServices(t *testing.T) {
	injector := NewContainer()
	do.OverrideValue(injector, testConfig(t))

	require.NoError(t, Bootstrap(injector))
	t.Cleanup(func() { _ = injector.Shutdown() })

	ctx := context.Background()

	catalog := do.MustInvoke[*service.CatalogService](injector)
	_, err := catalog.CreateTitle(ctx, service.CreateTitleInput{Kind: "movie", TMDBID: 550, Name: "Fight Club"})
	require.NoError(t, err)

	rating := do.MustInvoke[*service.RatingService](injector)
	assert.Equal(t, []string{"FR", "US"}, rating.Priority())

	// No API key is configured, so a run is recorded as aborted.
	ageTag := do.MustInvoke[*service.AgeTagService](injector)
	assert.False(t, ageTag.WriteEnabled())

	run, err := ageTag.Run(ctx, service.RunOptions{})
	require.ErrorIs(t, err, domainerrors.ErrMissingCredentials)
	require.NotNil(t, run)
	assert.Equal(t, domain.TagRunAborted, run.Status)
	assert.True(t, run.DryRun)

	runs, err := ageTag.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}

func TestBootstrap_InvalidDataPath(t *testing.T) {
	cfg := testConfig(t)
	// A regular file where the data directory should be.
	blocker := filepath.Join(cfg.Data.BasePath, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	cfg.Data.DatabasePath = filepath.Join(blocker, "agetags.db")

	injector := NewContainer()
	do.OverrideValue(injector, cfg)

	assert.Error(t, Bootstrap(injector))
}
