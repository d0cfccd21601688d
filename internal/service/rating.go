package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/listenupapp/agetags-server/internal/agerules"
	"github.com/listenupapp/agetags-server/internal/cache"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
	"github.com/listenupapp/agetags-server/internal/metadata/tmdb"
	"github.com/listenupapp/agetags-server/internal/metrics"
)

// CertificationSource fetches raw regional certifications for a title.
// *tmdb.Client implements it.
type CertificationSource interface {
	Certifications(ctx context.Context, kind agerules.Kind, id int) (agerules.Ratings, error)
	HasAPIKey() bool
}

// RatingsCache stores raw certification snapshots.
// *cache.RatingsCache implements it.
type RatingsCache interface {
	Get(ctx context.Context, kind agerules.Kind, tmdbID int) (*cache.Entry, error)
	Set(ctx context.Context, kind agerules.Kind, tmdbID int, ratings agerules.Ratings) error
	Delete(ctx context.Context, kind agerules.Kind, tmdbID int) error
}

// AgeResult is the resolved age of one TMDB title with its provenance.
type AgeResult struct {
	Kind       agerules.Kind
	TMDBID     int
	Resolution agerules.Resolution
	Priority   []string
	Cached     bool
	FetchedAt  time.Time
}

// RatingService orchestrates certification fetching with caching and resolves ages.
type RatingService struct {
	source   CertificationSource
	cache    RatingsCache
	priority []string
	logger   *slog.Logger
	now      func() time.Time
}

// NewRatingService creates a new rating service. cache may be nil.
func NewRatingService(source CertificationSource, cache RatingsCache, priority []string, logger *slog.Logger) *RatingService {
	return &RatingService{
		source:   source,
		cache:    cache,
		priority: priority,
		logger:   logger,
		now:      time.Now,
	}
}

// Priority returns the configured region priority list.
func (s *RatingService) Priority() []string {
	return s.priority
}

// CheckCredentials returns a MISSING_CREDENTIALS error when no TMDB API key is configured.
func (s *RatingService) CheckCredentials() error {
	if !s.source.HasAPIKey() {
		return domainerrors.MissingCredentials("TMDB API key is not configured").WithCause(tmdb.ErrMissingAPIKey)
	}
	return nil
}

// Ratings returns the raw certifications of a title, using the cache if fresh.
// cached reports whether the data came from the cache.
func (s *RatingService) Ratings(ctx context.Context, kind agerules.Kind, tmdbID int) (ratings agerules.Ratings, fetchedAt time.Time, cached bool, err error) {
	if s.cache != nil {
		entry, err := s.cache.Get(ctx, kind, tmdbID)
		if err != nil {
			metrics.RatingCacheTotal.WithLabelValues("error").Inc()
			s.logger.Warn("cache lookup failed",
				"error", err,
				"kind", kind,
				"tmdb_id", tmdbID,
			)
			// Continue to fetch fresh
		}
		if entry != nil {
			s.logger.Debug("cache hit for certifications",
				"kind", kind,
				"tmdb_id", tmdbID,
				"fetched_at", entry.FetchedAt,
			)
			return entry.Ratings, entry.FetchedAt, true, nil
		}
	}

	ratings, fetchedAt, err = s.fetch(ctx, kind, tmdbID)
	return ratings, fetchedAt, false, err
}

// Refresh fetches fresh certifications, bypassing and updating the cache, and resolves
// the title's age from them. The result is never marked cached.
func (s *RatingService) Refresh(ctx context.Context, kind agerules.Kind, tmdbID int) (*AgeResult, error) {
	s.logger.Info("refreshing certifications",
		"kind", kind,
		"tmdb_id", tmdbID,
	)
	ratings, fetchedAt, err := s.fetch(ctx, kind, tmdbID)
	if err != nil {
		return nil, err
	}
	return s.resolve(kind, tmdbID, ratings, fetchedAt, false), nil
}

// Resolve fetches (or reuses cached) certifications and resolves the title's age
// against the configured priority.
func (s *RatingService) Resolve(ctx context.Context, kind agerules.Kind, tmdbID int) (*AgeResult, error) {
	ratings, fetchedAt, cached, err := s.Ratings(ctx, kind, tmdbID)
	if err != nil {
		return nil, err
	}
	return s.resolve(kind, tmdbID, ratings, fetchedAt, cached), nil
}

func (s *RatingService) resolve(kind agerules.Kind, tmdbID int, ratings agerules.Ratings, fetchedAt time.Time, cached bool) *AgeResult {
	res := agerules.ResolveDetailed(kind, s.priority, ratings)
	metrics.RecordResolution(string(kind), res.Region, res.Age.Known())

	s.logger.Debug("resolved age",
		"kind", kind,
		"tmdb_id", tmdbID,
		"age", res.Age.String(),
		"region", res.Region,
		"certification", res.Certification,
		"regions_with_data", ratings.Regions(kind),
		"cached", cached,
	)

	return &AgeResult{
		Kind:       kind,
		TMDBID:     tmdbID,
		Resolution: res,
		Priority:   s.priority,
		Cached:     cached,
		FetchedAt:  fetchedAt,
	}
}

func (s *RatingService) fetch(ctx context.Context, kind agerules.Kind, tmdbID int) (agerules.Ratings, time.Time, error) {
	s.logger.Debug("fetching certifications from TMDB",
		"kind", kind,
		"tmdb_id", tmdbID,
	)

	ratings, err := s.source.Certifications(ctx, kind, tmdbID)
	if err != nil {
		return agerules.Ratings{}, time.Time{}, mapSourceError(err, kind, tmdbID)
	}
	fetchedAt := s.now().UTC()

	if s.cache != nil {
		if err := s.cache.Set(ctx, kind, tmdbID, ratings); err != nil {
			s.logger.Warn("failed to cache certifications",
				"error", err,
				"kind", kind,
				"tmdb_id", tmdbID,
			)
			// Don't fail the request
		}
	}

	return ratings, fetchedAt, nil
}

// mapSourceError converts TMDB client errors to domain errors.
// Context errors pass through so callers can tell cancellation apart.
func mapSourceError(err error, kind agerules.Kind, tmdbID int) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, tmdb.ErrMissingAPIKey):
		return domainerrors.MissingCredentials("TMDB API key is not configured").WithCause(err)
	case errors.Is(err, tmdb.ErrNotFound):
		return domainerrors.NotFoundf("%s %d not found on TMDB", kind, tmdbID).WithCause(err)
	case errors.Is(err, tmdb.ErrInvalidID):
		return domainerrors.Validationf("invalid TMDB id %d", tmdbID).WithCause(err)
	default:
		return domainerrors.Wrapf(err, domainerrors.CodeUpstream, "TMDB request for %s %d failed", kind, tmdbID)
	}
}
