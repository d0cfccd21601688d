package tmdb

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/agetags-server/internal/agerules"
)

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to load fixture %s: %v", name, err)
	}
	return data
}

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := New(apiKey, server.URL, slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})))
	client.http = server.Client()
	t.Cleanup(client.Close)

	return client
}

func TestNew_Defaults(t *testing.T) {
	c := New("  key  ", "", slog.Default())
	defer c.Close()

	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.True(t, c.HasAPIKey())
	assert.Equal(t, "key", c.apiKey)

	c2 := New("", "https://example.test/3/", slog.Default())
	defer c2.Close()

	assert.Equal(t, "https://example.test/3", c2.BaseURL())
	assert.False(t, c2.HasAPIKey())
}

func TestClient_TVCertifications(t *testing.T) {
	fixture := loadFixture(t, "tv_content_ratings.json")

	var gotPath, gotKey string
	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("api_key")
		w.WriteHeader(http.StatusOK)
		w.Write(fixture)
	})

	ratings, err := client.TVCertifications(context.Background(), 1399)
	require.NoError(t, err)

	assert.Equal(t, "/tv/1399/content_ratings", gotPath)
	assert.Equal(t, "secret", gotKey)

	assert.Equal(t, agerules.TVRatings{
		"US": "TV-MA",
		"FR": "16",
		"GB": "15",
		"BR": "br-16",
	}, ratings)
}

func TestClient_MovieCertifications(t *testing.T) {
	fixture := loadFixture(t, "movie_release_dates.json")

	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550/release_dates", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write(fixture)
	})

	ratings, err := client.MovieCertifications(context.Background(), 550)
	require.NoError(t, err)

	require.Len(t, ratings, 2, "JP has no certified release and must be omitted")
	assert.Equal(t, []agerules.Release{
		{Type: agerules.ReleaseTheatrical, Certification: "R"},
	}, ratings["US"])
	assert.Equal(t, []agerules.Release{
		{Type: agerules.ReleasePhysical, Certification: "16"},
		{Type: agerules.ReleaseTV, Certification: "12"},
	}, ratings["FR"])

	// Release order from TMDB decides the French candidate.
	age := agerules.Resolve(agerules.KindMovie, []string{"FR", "US"}, agerules.Ratings{Movie: ratings})
	assert.Equal(t, agerules.AgeOf(16), age)
}

func TestClient_Certifications_ByKind(t *testing.T) {
	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/tv/"):
			w.Write([]byte(`{"results":[{"iso_3166_1":"US","rating":"TV-14"}]}`))
		case strings.HasPrefix(r.URL.Path, "/movie/"):
			w.Write([]byte(`{"results":[{"iso_3166_1":"US","release_dates":[{"certification":"PG","type":3}]}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	tv, err := client.Certifications(context.Background(), agerules.KindTV, 1)
	require.NoError(t, err)
	assert.Equal(t, "TV-14", tv.TV["US"])
	assert.Nil(t, tv.Movie)

	movie, err := client.Certifications(context.Background(), agerules.KindMovie, 2)
	require.NoError(t, err)
	assert.Equal(t, "PG", movie.Movie["US"][0].Certification)

	_, err = client.Certifications(context.Background(), agerules.Kind("radio"), 3)
	assert.Error(t, err)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantErr    error
	}{
		{"not found", http.StatusNotFound, `{"status_code":34}`, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"status_code":7}`, ErrUnauthorized},
		{"rate limited", http.StatusTooManyRequests, "", ErrRateLimited},
		{"server error", http.StatusBadGateway, "", ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			})

			_, err := client.TVCertifications(context.Background(), 42)
			require.Error(t, err)

			var tmdbErr *Error
			require.True(t, errors.As(err, &tmdbErr))
			assert.Equal(t, "tvCertifications", tmdbErr.Op)
			assert.Equal(t, 42, tmdbErr.ID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_UnexpectedStatus(t *testing.T) {
	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	_, err := client.MovieCertifications(context.Background(), 7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 418")
}

func TestClient_MalformedJSON(t *testing.T) {
	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	})

	_, err := client.TVCertifications(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse response")
}

func TestClient_MissingAPIKey(t *testing.T) {
	called := false
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := client.TVCertifications(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = client.MovieCertifications(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	assert.False(t, called, "no request may be sent without an API key")
}

func TestClient_InvalidID(t *testing.T) {
	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.TVCertifications(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidID)

	_, err = client.MovieCertifications(context.Background(), -5)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestClient_ContextCanceled(t *testing.T) {
	client := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.TVCertifications(ctx, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
