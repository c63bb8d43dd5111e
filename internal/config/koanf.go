// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order
// of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geotrail/config.yaml",
	"/etc/geotrail/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "GEOTRAIL_CONFIG_PATH"

// defaultConfig returns a Config with sensible defaults. Defaults are applied
// first, then overridden by the config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path:                   "/data/geotrail.duckdb",
			MaxMemory:              "2GB",
			Threads:                0,
			PreserveInsertionOrder: true,
			SkipIndexes:            false,
		},
		Detection: DetectionConfig{
			MinOverlapMeters:         150,
			MinOverlapFraction:       0.6,
			ClusterEpsilonMeters:     75,
			MinClusterSize:           2,
			MaxConcurrentComparisons: 8,
			ProgressPersistence:      "memory",
			GroupOverlapThreshold:    0.80,
			MinSectionVisits:         3,
			ScaleWindowMeters:        ScaleWindows{Short: 200, Medium: 1000, Long: 5000},
		},
		Aggregate: AggregateConfig{
			HeatmapCellSizeMeters: 50,
			FTPHistoryWindow:      365 * 24 * time.Hour,
			PowerZoneBounds:       []float64{0.55, 0.75, 0.90, 1.05, 1.20, 1.50},
		},
		Cache: CacheConfig{
			SignatureCacheSize: 200,
			PolylineCacheSize:  50,
			DefaultTTL:         30 * time.Minute,
		},
		Server: ServerConfig{
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Progress: ProgressConfig{
			DataDir: "/data/geotrail/progress",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "geotrail",
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. Config file (optional YAML)
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("GEOTRAIL_", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are koanf paths that must be parsed as comma-separated
// slices when sourced from an environment variable.
var sliceConfigPaths = []string{
	"aggregate.power_zone_bounds",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps GEOTRAIL_-prefixed environment variable names to
// koanf config paths. Unmapped keys are skipped so stray environment
// variables can't pollute configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "GEOTRAIL_"))

	mappings := map[string]string{
		"store_path":                  "store.path",
		"store_max_memory":            "store.max_memory",
		"store_threads":               "store.threads",
		"store_preserve_insert_order": "store.preserve_insertion_order",
		"store_skip_indexes":          "store.skip_indexes",

		"detection_min_overlap_meters":           "detection.min_overlap_meters",
		"detection_min_overlap_fraction":         "detection.min_overlap_fraction",
		"detection_cluster_epsilon_meters":       "detection.cluster_epsilon_meters",
		"detection_min_cluster_size":             "detection.min_cluster_size",
		"detection_max_concurrent_comparisons":   "detection.max_concurrent_comparisons",
		"detection_progress_persistence":         "detection.progress_persistence",
		"detection_group_overlap_threshold":      "detection.group_overlap_threshold",
		"detection_min_section_visits":           "detection.min_section_visits",
		"detection_scale_window_short":           "detection.scale_window_meters.short",
		"detection_scale_window_medium":          "detection.scale_window_meters.medium",
		"detection_scale_window_long":            "detection.scale_window_meters.long",

		"aggregate_heatmap_cell_size_meters": "aggregate.heatmap_cell_size_meters",
		"aggregate_ftp_history_window":       "aggregate.ftp_history_window",
		"aggregate_power_zone_bounds":        "aggregate.power_zone_bounds",

		"cache_signature_cache_size": "cache.signature_cache_size",
		"cache_polyline_cache_size":  "cache.polyline_cache_size",
		"cache_default_ttl":          "cache.default_ttl",

		"server_latitude":    "server.latitude",
		"server_longitude":   "server.longitude",
		"server_environment": "server.environment",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		"progress_data_dir": "progress.data_dir",

		"metrics_enabled":   "metrics.enabled",
		"metrics_namespace": "metrics.namespace",
	}

	if mapped, ok := mappings[key]; ok {
		return mapped
	}
	return ""
}

// GetKoanfInstance returns a fresh Koanf instance for advanced use (custom
// sources, tests).
func GetKoanfInstance() *koanf.Koanf {
	return koanf.New(".")
}
