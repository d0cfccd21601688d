package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/agetags-server/internal/agerules"
	domainerrors "github.com/listenupapp/agetags-server/internal/errors"
	"github.com/listenupapp/agetags-server/internal/metadata/tmdb"
)

func TestRatingService_ResolveUsesCache(t *testing.T) {
	src := newFakeSource()
	src.set(agerules.KindTV, 1399, agerules.Ratings{TV: agerules.TVRatings{"FR": "-", "US": "TV-MA"}})

	svc := NewRatingService(src, newTestCache(t), []string{"FR", "US"}, discardLogger())
	ctx := context.Background()

	first, err := svc.Resolve(ctx, agerules.KindTV, 1399)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, agerules.AgeOf(17), first.Resolution.Age)
	assert.Equal(t, "US", first.Resolution.Region)
	assert.Equal(t, "TV-MA", first.Resolution.Certification)

	second, err := svc.Resolve(ctx, agerules.KindTV, 1399)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Resolution, second.Resolution)

	assert.Equal(t, 1, src.callCount(agerules.KindTV, 1399))
}

func TestRatingService_Refresh(t *testing.T) {
	src := newFakeSource()
	src.set(agerules.KindMovie, 550, agerules.Ratings{Movie: agerules.MovieRatings{"US": {{Type: agerules.ReleaseTheatrical, Certification: "R"}}}})

	svc := NewRatingService(src, newTestCache(t), []string{"US"}, discardLogger())
	ctx := context.Background()

	_, err := svc.Resolve(ctx, agerules.KindMovie, 550)
	require.NoError(t, err)

	// Upstream changed since the first lookup.
	src.set(agerules.KindMovie, 550, agerules.Ratings{Movie: agerules.MovieRatings{"US": {{Type: agerules.ReleaseTheatrical, Certification: "NC-17"}}}})

	fresh, err := svc.Refresh(ctx, agerules.KindMovie, 550)
	require.NoError(t, err)
	assert.False(t, fresh.Cached)
	assert.Equal(t, agerules.AgeOf(18), fresh.Resolution.Age)
	assert.Equal(t, 2, src.callCount(agerules.KindMovie, 550))

	// The refreshed snapshot now serves cached lookups.
	cached, err := svc.Resolve(ctx, agerules.KindMovie, 550)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, agerules.AgeOf(18), cached.Resolution.Age)
	assert.Equal(t, 2, src.callCount(agerules.KindMovie, 550))
}

func TestRatingService_RefreshWithoutCache(t *testing.T) {
	src := newFakeSource()
	src.set(agerules.KindTV, 1399, agerules.Ratings{TV: agerules.TVRatings{"US": "TV-MA"}})

	svc := NewRatingService(src, nil, []string{"US"}, discardLogger())

	res, err := svc.Refresh(context.Background(), agerules.KindTV, 1399)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	assert.Equal(t, agerules.AgeOf(17), res.Resolution.Age)
	assert.Equal(t, 1, src.callCount(agerules.KindTV, 1399))
}

func TestRatingService_WithoutCache(t *testing.T) {
	src := newFakeSource()
	src.set(agerules.KindMovie, 7, agerules.Ratings{})

	svc := NewRatingService(src, nil, []string{"FR"}, discardLogger())

	res, err := svc.Resolve(context.Background(), agerules.KindMovie, 7)
	require.NoError(t, err)
	assert.False(t, res.Resolution.Age.Known())
	assert.Empty(t, res.Resolution.Region)
}

func TestRatingService_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   bool
		err      error
		wantCode domainerrors.Code
	}{
		{"missing key", false, nil, domainerrors.CodeMissingCredentials},
		{"not found", true, &tmdb.Error{Op: "tvCertifications", ID: 1, Err: tmdb.ErrNotFound}, domainerrors.CodeNotFound},
		{"invalid id", true, tmdb.ErrInvalidID, domainerrors.CodeValidation},
		{"server", true, &tmdb.Error{Op: "tvCertifications", ID: 1, Err: tmdb.ErrServer}, domainerrors.CodeUpstream},
		{"rate limited", true, tmdb.ErrRateLimited, domainerrors.CodeUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newFakeSource()
			src.apiKey = tt.apiKey
			if tt.err != nil {
				src.fail(agerules.KindTV, 1, tt.err)
			}

			svc := NewRatingService(src, nil, []string{"US"}, discardLogger())
			_, err := svc.Resolve(context.Background(), agerules.KindTV, 1)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.wantCode, domainErr.Code)
		})
	}
}

func TestRatingService_ContextErrorsPassThrough(t *testing.T) {
	src := newFakeSource()
	src.fail(agerules.KindTV, 1, context.DeadlineExceeded)

	svc := NewRatingService(src, nil, []string{"US"}, discardLogger())
	_, err := svc.Resolve(context.Background(), agerules.KindTV, 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRatingService_CheckCredentials(t *testing.T) {
	src := newFakeSource()
	svc := NewRatingService(src, nil, nil, discardLogger())
	assert.NoError(t, svc.CheckCredentials())

	src.apiKey = false
	err := svc.CheckCredentials()
	assert.ErrorIs(t, err, domainerrors.ErrMissingCredentials)
	assert.ErrorIs(t, err, tmdb.ErrMissingAPIKey)
}
