// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/geotrail/internal/config"
)

// Metrics holds the engine's Prometheus collectors, registered into a
// private registry rather than the global default one.
type Metrics struct {
	registry *prometheus.Registry
	enabled  bool

	MutationsTotal         *prometheus.CounterVec
	StoreQueryDuration     *prometheus.HistogramVec
	DetectionPhaseDuration *prometheus.HistogramVec
	DetectionRunsTotal     *prometheus.CounterVec
	CacheHits              *prometheus.CounterVec
	CacheMisses            *prometheus.CounterVec
}

// New builds the engine's metrics collectors under cfg.Namespace. When
// cfg.Enabled is false, the collectors still exist (so callers never nil
// check) but every recording method is a no-op.
func New(cfg config.MetricsConfig) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	ns := cfg.Namespace

	return &Metrics{
		registry: registry,
		enabled:  cfg.Enabled,

		MutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "mutations_total",
			Help:      "Total number of engine mutations, per §4 mutator.",
		}, []string{"operation"}),

		StoreQueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "store_query_duration_seconds",
			Help:      "Duration of store reads and writes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		DetectionPhaseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "detection_phase_duration_seconds",
			Help:      "Duration of each detection pipeline phase.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"phase"}),

		DetectionRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "detection_runs_total",
			Help:      "Total number of detection runs, by outcome.",
		}, []string{"outcome"}), // complete, error, cancelled

		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_hits_total",
			Help:      "Total number of in-process cache hits.",
		}, []string{"cache"}),

		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_misses_total",
			Help:      "Total number of in-process cache misses.",
		}, []string{"cache"}),
	}
}

// Registry returns the private Prometheus registry backing these
// collectors. The embedding process decides whether to expose it.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordMutation records one completed mutator call.
func (m *Metrics) RecordMutation(operation string) {
	if !m.enabled {
		return
	}
	m.MutationsTotal.WithLabelValues(operation).Inc()
}

// ObserveStoreQuery records a store operation's duration.
func (m *Metrics) ObserveStoreQuery(operation string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.StoreQueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveDetectionPhase records one detection phase's duration.
func (m *Metrics) ObserveDetectionPhase(phase string, d time.Duration) {
	if !m.enabled {
		return
	}
	m.DetectionPhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordDetectionRun records one completed detection run's outcome.
func (m *Metrics) RecordDetectionRun(outcome string) {
	if !m.enabled {
		return
	}
	m.DetectionRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheHit records one cache hit for the named cache.
func (m *Metrics) RecordCacheHit(cache string) {
	if !m.enabled {
		return
	}
	m.CacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records one cache miss for the named cache.
func (m *Metrics) RecordCacheMiss(cache string) {
	if !m.enabled {
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}
