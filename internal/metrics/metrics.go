// Package metrics provides Prometheus metrics for certification retrieval and age tagging.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values stay low-cardinality: no title ids, no TMDB ids.

//nolint:gochecknoglobals // Prometheus collectors are process-wide
var (
	// TMDBRequestsTotal counts TMDB API responses by endpoint family and status class.
	TMDBRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agetags_tmdb_requests_total",
		Help: "Total number of TMDB API requests, by endpoint and status class.",
	}, []string{"endpoint", "status"})

	// TMDBRequestDuration tracks TMDB round-trip latency.
	TMDBRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agetags_tmdb_request_duration_seconds",
		Help:    "TMDB API request latency in seconds, by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// RatingCacheTotal counts certification cache lookups by result (hit, miss, error).
	RatingCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agetags_rating_cache_total",
		Help: "Total number of certification cache lookups, by result.",
	}, []string{"result"})

	// ResolutionsTotal counts age resolutions by content kind and outcome (known, unknown).
	ResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agetags_resolutions_total",
		Help: "Total number of age resolutions, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// ResolvedRegionTotal counts which region supplied the resolved age.
	ResolvedRegionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agetags_resolved_region_total",
		Help: "Total number of known resolutions, by the region that supplied the age.",
	}, []string{"region"})

	// TagRunsTotal counts age-tag task runs by mode (dry_run, write) and result (ok, aborted).
	TagRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agetags_tag_runs_total",
		Help: "Total number of age-tag task runs, by mode and result.",
	}, []string{"mode", "result"})

	// TagChangesTotal counts planned or applied tag changes by action (set, remove).
	TagChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agetags_tag_changes_total",
		Help: "Total number of age tag changes, by mode and action.",
	}, []string{"mode", "action"})

	// TagRunActive is 1 while an age-tag run is in progress.
	TagRunActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agetags_tag_run_active",
		Help: "Whether an age-tag task run is currently in progress.",
	})
)

// RecordResolution records one resolution outcome.
func RecordResolution(kind string, region string, known bool) {
	if !known {
		ResolutionsTotal.WithLabelValues(kind, "unknown").Inc()
		return
	}
	ResolutionsTotal.WithLabelValues(kind, "known").Inc()
	ResolvedRegionTotal.WithLabelValues(region).Inc()
}
