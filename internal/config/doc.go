// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package config provides centralized configuration management for geotrail.

It loads engine configuration from built-in defaults, an optional YAML config
file, and environment variables, in that order of increasing precedence.

# Configuration Structure

  - StoreConfig: DuckDB file path, memory limit, thread count, index skipping
  - DetectionConfig: overlap thresholds, clustering radius, progress persistence
  - AggregateConfig: heatmap cell size, FTP history window, power zone bounds
  - CacheConfig: LRU cache sizes and default TTL
  - ServerConfig: demo-binary location and environment mode
  - LoggingConfig: zerolog level, format, caller info
  - ProgressConfig: BadgerDB data directory for resumable detection jobs
  - MetricsConfig: Prometheus registry toggle and metric namespace

# Environment Variables

All variables are prefixed GEOTRAIL_ and map onto nested koanf paths, e.g.
GEOTRAIL_STORE_PATH -> store.path, GEOTRAIL_DETECTION_MIN_OVERLAP_METERS ->
detection.min_overlap_meters.

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal().Err(err).Msg("failed to load config")
	}
	eng := engine.New(*cfg)
	err = eng.Init(cfg.Store.Path)

# Validation

Load() validates the result with go-playground/validator struct tags plus a
handful of cross-field checks (e.g. progress.data_dir is required when
detection.progress_persistence is "badger").

# Thread Safety

Config is immutable after Load() returns and safe for concurrent read access.
*/
package config
