// Package cache keeps TMDB certification snapshots in a Badger database so
// repeated lookups of the same title skip the network.
package cache

import (
	"context"
	"encoding/json/v2"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/agetags-server/internal/agerules"
	"github.com/listenupapp/agetags-server/internal/metrics"
)

// DefaultTTL applies when New is given a non-positive ttl.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "ratings:"

// Entry is a cached certification snapshot.
type Entry struct {
	Ratings   agerules.Ratings `json:"ratings"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// RatingsCache wraps a Badger database instance.
type RatingsCache struct {
	db     *badger.DB
	logger *slog.Logger
	ttl    time.Duration
	now    func() time.Time
}

// New opens a cache at path. An empty path opens an in-memory database.
func New(path string, ttl time.Duration, logger *slog.Logger) (*RatingsCache, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil            // Disable Badger's internal logging
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if ttl <= 0 {
		ttl = DefaultTTL
	}

	if logger != nil {
		logger.Info("ratings cache opened", "path", path, "ttl", ttl)
	}

	return &RatingsCache{
		db:     db,
		logger: logger,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Close gracefully closes the database.
func (c *RatingsCache) Close() error {
	return c.db.Close()
}

// TTL returns how long entries stay valid.
func (c *RatingsCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the snapshot for a title. Returns nil, nil on a miss or an expired entry.
func (c *RatingsCache) Get(_ context.Context, kind agerules.Kind, tmdbID int) (*Entry, error) {
	var entry Entry
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(kind, tmdbID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		metrics.RatingCacheTotal.WithLabelValues("miss").Inc()
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %s/%d: %w", kind, tmdbID, err)
	}

	// Badger expires entries lazily; check the stored timestamp too.
	if c.now().Sub(entry.FetchedAt) > c.ttl {
		metrics.RatingCacheTotal.WithLabelValues("expired").Inc()
		return nil, nil
	}

	metrics.RatingCacheTotal.WithLabelValues("hit").Inc()
	return &entry, nil
}

// Set stores a snapshot for a title, replacing any previous one.
func (c *RatingsCache) Set(_ context.Context, kind agerules.Kind, tmdbID int, ratings agerules.Ratings) error {
	data, err := json.Marshal(Entry{Ratings: ratings, FetchedAt: c.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key(kind, tmdbID), data).WithTTL(c.ttl))
	})
}

// Delete removes a title's snapshot. This operation is idempotent.
func (c *RatingsCache) Delete(_ context.Context, kind agerules.Kind, tmdbID int) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key(kind, tmdbID))
	})
}

// Purge removes every snapshot and returns how many were dropped.
func (c *RatingsCache) Purge(_ context.Context) (int, error) {
	var keys [][]byte
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()
	for _, k := range keys {
		if err := wb.Delete(k); err != nil {
			return 0, err
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, err
	}

	if c.logger != nil {
		c.logger.Info("ratings cache purged", "entries", len(keys))
	}
	return len(keys), nil
}

func key(kind agerules.Kind, tmdbID int) []byte {
	return []byte(keyPrefix + string(kind) + ":" + strconv.Itoa(tmdbID))
}
