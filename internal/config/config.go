// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import "time"

// Config holds all engine configuration loaded from defaults, an optional
// YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Store      StoreConfig      `koanf:"store"`
	Detection  DetectionConfig  `koanf:"detection"`
	Aggregate  AggregateConfig  `koanf:"aggregate"`
	Cache      CacheConfig      `koanf:"cache"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Progress   ProgressConfig   `koanf:"progress"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// StoreConfig holds DuckDB-backed store settings.
type StoreConfig struct {
	Path                   string `koanf:"path" validate:"required"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // 0 = runtime.NumCPU()
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // DuckDB default: true
	SkipIndexes            bool   `koanf:"skip_indexes"`             // skip RTREE/B-tree index creation (fast test setup)
}

// DetectionConfig controls the overlap-detection background job, per the
// engine's multi-phase Detect operation.
type DetectionConfig struct {
	// MinOverlapMeters is the per-point distance threshold, in metres, used
	// when section-detection windows are matched against each other: a point
	// counts as overlapping when it lies within this distance of the other
	// window.
	MinOverlapMeters float64 `koanf:"min_overlap_meters" validate:"gt=0"`

	// MinOverlapFraction is the minimum symmetric overlap ratio [0,1] two
	// section-detection windows must reach to join the same candidate section.
	MinOverlapFraction float64 `koanf:"min_overlap_fraction" validate:"gte=0,lte=1"`

	// ClusterEpsilonMeters is loaded and validated but not read by the
	// detection pipeline; route groups are connected components of the
	// overlap graph (see GroupOverlapThreshold).
	ClusterEpsilonMeters float64 `koanf:"cluster_epsilon_meters" validate:"gt=0"`

	// MinClusterSize is loaded and validated but not read by the detection
	// pipeline: a route group always needs at least two members, and
	// sections use MinSectionVisits.
	MinClusterSize int `koanf:"min_cluster_size" validate:"gte=1"`

	// MaxConcurrentComparisons is loaded and validated but not read by the
	// detection pipeline; the find_overlaps phase compares pairs sequentially.
	MaxConcurrentComparisons int `koanf:"max_concurrent_comparisons" validate:"gte=1"`

	// ProgressPersistence selects where job progress/cancel state is kept:
	// "memory" (default) or "badger" (survives process restart).
	ProgressPersistence string `koanf:"progress_persistence" validate:"oneof=memory badger"`

	// GroupOverlapThreshold is the minimum overlap_ratio for two whole tracks
	// to join the same route group ("GROUP_THRESHOLD" in the detection
	// algorithm, nominally 0.80).
	GroupOverlapThreshold float64 `koanf:"group_overlap_threshold" validate:"gt=0,lte=1"`

	// MinSectionVisits is the minimum number of distinct activities a
	// candidate window must see to become a section ("MIN_VISITS", default 3).
	MinSectionVisits int `koanf:"min_section_visits" validate:"gte=1"`

	// ScaleWindowMeters parameterises the three section-detection scales
	// (short, medium, long), per §9's open question that the source's
	// ~200m/1km/5km constants should not be hardcoded.
	ScaleWindowMeters ScaleWindows `koanf:"scale_window_meters"`
}

// ScaleWindows holds the sliding-window length, in metres, used for each of
// the three section-detection scales.
type ScaleWindows struct {
	Short  float64 `koanf:"short" validate:"gt=0"`
	Medium float64 `koanf:"medium" validate:"gt=0"`
	Long   float64 `koanf:"long" validate:"gt=0"`
}

// AggregateConfig controls rollup and FTP-history window sizing.
type AggregateConfig struct {
	// HeatmapCellSizeMeters is loaded and validated but not read:
	// GetActivityHeatmap buckets by UTC calendar day, not by a spatial grid.
	HeatmapCellSizeMeters float64 `koanf:"heatmap_cell_size_meters" validate:"gt=0"`

	// FTPHistoryWindow bounds how far back GetFTPHistory looks.
	FTPHistoryWindow time.Duration `koanf:"ftp_history_window"`

	// PowerZoneBounds are power-zone boundaries expressed as fractions of
	// FTP; the six defaults separate seven zones. Validate requires them to
	// be strictly increasing. GetZoneDistribution does not read them: it sums
	// the per-zone seconds already stored with each activity's metrics.
	PowerZoneBounds []float64 `koanf:"power_zone_bounds"`
}

// CacheConfig controls the in-process LRU caches fronting the store.
type CacheConfig struct {
	SignatureCacheSize int           `koanf:"signature_cache_size" validate:"gte=0"`
	PolylineCacheSize  int           `koanf:"polyline_cache_size" validate:"gte=0"`
	DefaultTTL         time.Duration `koanf:"default_ttl"`
}

// ServerConfig holds the demo/reporting binary's settings. geotrail is an
// embedded library first; ServerConfig only matters to cmd/geotrail-demo.
type ServerConfig struct {
	Latitude    float64 `koanf:"latitude"`
	Longitude   float64 `koanf:"longitude"`
	Environment string  `koanf:"environment" validate:"oneof=development staging production"`
}

// LoggingConfig holds logging settings for zerolog.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// ProgressConfig controls BadgerDB-backed detection-job progress persistence,
// used when DetectionConfig.ProgressPersistence is "badger".
type ProgressConfig struct {
	DataDir string `koanf:"data_dir"`
}

// MetricsConfig controls the Prometheus metrics registry.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
}
