package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/agetags-server/internal/agerules"
	"github.com/listenupapp/agetags-server/internal/cache"
	"github.com/listenupapp/agetags-server/internal/metadata/tmdb"
	"github.com/listenupapp/agetags-server/internal/store/sqlite"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource serves canned certifications and counts calls per title.
type fakeSource struct {
	mu      sync.Mutex
	apiKey  bool
	ratings map[string]agerules.Ratings
	errs    map[string]error
	calls   map[string]int
	block   chan struct{} // when set, Certifications waits on it
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		apiKey:  true,
		ratings: make(map[string]agerules.Ratings),
		errs:    make(map[string]error),
		calls:   make(map[string]int),
	}
}

func sourceKey(kind agerules.Kind, id int) string {
	return fmt.Sprintf("%s/%d", kind, id)
}

func (f *fakeSource) set(kind agerules.Kind, id int, r agerules.Ratings) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratings[sourceKey(kind, id)] = r
}

func (f *fakeSource) fail(kind agerules.Kind, id int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[sourceKey(kind, id)] = err
}

func (f *fakeSource) callCount(kind agerules.Kind, id int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[sourceKey(kind, id)]
}

func (f *fakeSource) HasAPIKey() bool { return f.apiKey }

func (f *fakeSource) Certifications(ctx context.Context, kind agerules.Kind, id int) (agerules.Ratings, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return agerules.Ratings{}, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.apiKey {
		return agerules.Ratings{}, tmdb.ErrMissingAPIKey
	}
	key := sourceKey(kind, id)
	f.calls[key]++
	if err, ok := f.errs[key]; ok {
		return agerules.Ratings{}, err
	}
	return f.ratings[key], nil
}

func newTestCache(t *testing.T) *cache.RatingsCache {
	t.Helper()
	c, err := cache.New("", cache.DefaultTTL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
