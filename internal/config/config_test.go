// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/config"
)

func clearGeotrailEnv(t *testing.T) {
	t.Helper()
	for _, e := range os.Environ() {
		for i := 0; i < len(e); i++ {
			if e[i] == '=' {
				if len(e) >= 9 && e[:9] == "GEOTRAIL_" {
					os.Unsetenv(e[:i])
				}
				break
			}
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	clearGeotrailEnv(t)
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/geotrail.duckdb", cfg.Store.Path)
	assert.Equal(t, 150.0, cfg.Detection.MinOverlapMeters)
	assert.Equal(t, "memory", cfg.Detection.ProgressPersistence)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	clearGeotrailEnv(t)
	t.Setenv("GEOTRAIL_STORE_PATH", "/tmp/test.duckdb")
	t.Setenv("GEOTRAIL_LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.duckdb", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidateRejectsBadgerWithoutDataDir(t *testing.T) {
	clearGeotrailEnv(t)
	t.Setenv("GEOTRAIL_DETECTION_PROGRESS_PERSISTENCE", "badger")
	t.Setenv("GEOTRAIL_PROGRESS_DATA_DIR", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidateRejectsNonMonotonicPowerZones(t *testing.T) {
	cfg := &config.Config{
		Store:     config.StoreConfig{Path: "/data/x.duckdb"},
		Detection: config.DetectionConfig{MinOverlapMeters: 1, ClusterEpsilonMeters: 1, MinClusterSize: 1, MaxConcurrentComparisons: 1, ProgressPersistence: "memory", GroupOverlapThreshold: 0.8, MinSectionVisits: 1, ScaleWindowMeters: config.ScaleWindows{Short: 1, Medium: 1, Long: 1}},
		Server:    config.ServerConfig{Environment: "development"},
		Logging:   config.LoggingConfig{Level: "info", Format: "json"},
		Aggregate: config.AggregateConfig{HeatmapCellSizeMeters: 1, PowerZoneBounds: []float64{0.5, 0.4}},
	}
	assert.Error(t, config.Validate(cfg))
}
