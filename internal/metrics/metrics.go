// LyricsFlip Store - Music Platform Recommendation Engine
// Copyright 2026 Songifi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/songifi/lyricsflip-store-sub000

// Package metrics exposes the Prometheus collectors for the service:
// recommendation request outcomes and latency, cache efficiency, store
// errors, and circuit breaker state.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Recommendation pipeline metrics
	RecommendationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total recommendation requests by outcome",
		},
		[]string{"status"}, // "ok", "validation_error", "cancelled", "degraded"
	)

	RecommendationLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_latency_seconds",
			Help:    "End-to-end recommendation request latency",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationCount = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_result_count",
			Help:    "Number of recommendations returned per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	CandidatePoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_candidate_pool_size",
			Help:    "Candidate tracks considered per request",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000},
		},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Recommendation responses served from cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_misses_total",
			Help: "Recommendation requests that missed the cache",
		},
	)

	// Store metrics
	DataAccessErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_data_access_errors_total",
			Help: "Store read/write failures by operation",
		},
		[]string{"operation"}, // "interactions", "candidates", "track", "feedback"
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Feedback metrics
	FeedbackRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_feedback_total",
			Help: "Feedback submissions by type",
		},
		[]string{"feedback_type"},
	)

	FeedbackRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_feedback_rejected_total",
			Help: "Feedback submissions rejected by validation or rate limiting",
		},
	)
)
