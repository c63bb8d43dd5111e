// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/geo"
	"github.com/tomtom215/geotrail/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.StoreConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func defaultAggregateConfig() config.AggregateConfig {
	return config.AggregateConfig{
		HeatmapCellSizeMeters: 50,
		FTPHistoryWindow:      365 * 24 * time.Hour,
		PowerZoneBounds:       []float64{0.55, 0.75, 0.90, 1.05, 1.20, 1.50},
	}
}

func unixDate(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Unix()
}

func TestGetMonthlyAggregatesReturnsTwelveZeroFilledRows(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	track := []geo.Point{{Lat: 45.0, Lng: -122.0}, {Lat: 45.0, Lng: -121.99}}
	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: "a1", SportType: "run", StartDate: unixDate(2024, time.March, 5), DistanceM: 1000, MovingTimeS: 3600, Track: track},
	}))

	e := New(s, defaultAggregateConfig())
	points, err := e.GetMonthlyAggregates(ctx, 2024, "hours")
	require.NoError(t, err)
	require.Len(t, points, 12)
	for _, p := range points {
		if p.Month == 3 {
			require.InDelta(t, 1.0, p.Value, 0.001)
		} else {
			require.Zero(t, p.Value)
		}
	}
}

func TestGetMonthlyAggregatesRejectsBadMetric(t *testing.T) {
	s := newTestStore(t)
	e := New(s, defaultAggregateConfig())
	_, err := e.GetMonthlyAggregates(t.Context(), 2024, "watts")
	require.Error(t, err)
}

func TestGetPeriodStatsSumsInclusiveRange(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	track := []geo.Point{{Lat: 45.0, Lng: -122.0}, {Lat: 45.0, Lng: -121.99}}
	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: "a1", SportType: "run", StartDate: 100, DistanceM: 1000, MovingTimeS: 300, ElevationGainM: 10, Track: track},
		{ID: "a2", SportType: "run", StartDate: 200, DistanceM: 2000, MovingTimeS: 600, ElevationGainM: 20, Track: track},
	}))

	e := New(s, defaultAggregateConfig())
	stats, err := e.GetPeriodStats(ctx, 100, 200)
	require.NoError(t, err)
	require.Equal(t, 2, stats.ActivityCount)
	require.InDelta(t, 3000, stats.DistanceM, 0.001)
	require.Equal(t, int64(900), stats.MovingTimeS)
	require.InDelta(t, 30, stats.ElevationGainM, 0.001)
}

func TestGetFTPTrendLatestAndPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	track := []geo.Point{{Lat: 45.0, Lng: -122.0}, {Lat: 45.0, Lng: -121.99}}
	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: "a1", SportType: "bike", StartDate: 100, DistanceM: 1000, Track: track},
		{ID: "a2", SportType: "bike", StartDate: 200, DistanceM: 1000, Track: track},
		{ID: "a3", SportType: "bike", StartDate: 300, DistanceM: 1000, Track: track},
	}))
	ftp1, ftp2 := 250.0, 260.0
	require.NoError(t, s.SetActivityMetrics(ctx, store.ActivityMetrics{ActivityID: "a1", FTPAtTime: &ftp1}))
	require.NoError(t, s.SetActivityMetrics(ctx, store.ActivityMetrics{ActivityID: "a2", FTPAtTime: &ftp1}))
	require.NoError(t, s.SetActivityMetrics(ctx, store.ActivityMetrics{ActivityID: "a3", FTPAtTime: &ftp2}))

	e := New(s, defaultAggregateConfig())
	trend, err := e.GetFTPTrend(ctx)
	require.NoError(t, err)
	require.Equal(t, ftp2, trend.Latest.FTP)
	require.NotNil(t, trend.Previous)
	require.Equal(t, ftp1, trend.Previous.FTP)
}

func TestGetFTPTrendNoHistory(t *testing.T) {
	s := newTestStore(t)
	e := New(s, defaultAggregateConfig())
	_, err := e.GetFTPTrend(t.Context())
	require.Error(t, err)
}

func TestGetZoneDistributionRejectsBadZoneType(t *testing.T) {
	s := newTestStore(t)
	e := New(s, defaultAggregateConfig())
	_, err := e.GetZoneDistribution(t.Context(), "run", "cadence")
	require.Error(t, err)
}
