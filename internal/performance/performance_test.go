// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package performance

import (
	"testing"

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

func seedSectionWithTraversal(t *testing.T, s *store.Store, activityID string, withTimeStream bool) string {
	t.Helper()
	ctx := t.Context()

	track := []geo.Point{{Lat: 45.0, Lng: -122.0}, {Lat: 45.0, Lng: -121.99}}
	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: activityID, SportType: "run", StartDate: 100, DistanceM: 1000, MovingTimeS: 300, ElapsedTimeS: 320, Track: track},
	}))

	if withTimeStream {
		require.NoError(t, s.SetTimeStreams(ctx, []store.TimeStream{
			{ActivityID: activityID, Times: []float32{0, 60}},
		}))
	}

	sectionID := "sec-" + activityID
	require.NoError(t, s.CreateSection(ctx, store.Section{
		ID: sectionID, Type: "custom", SportType: "run",
		Polyline: geo.EncodePolyline(track), DistanceM: 1000, VisitCount: 1, Name: "Test Section " + activityID,
	}))
	require.NoError(t, s.AddSectionActivity(ctx, store.SectionActivity{
		SectionID: sectionID, ActivityID: activityID, StartIndex: 0, EndIndex: 1, Direction: "same", MatchPercentage: 1.0,
	}))
	return sectionID
}

func TestSectionPerformanceExactWithTimeStream(t *testing.T) {
	s := newTestStore(t)
	sectionID := seedSectionWithTraversal(t, s, "a", true)

	e := New(s)
	perf, err := e.GetSectionPerformances(t.Context(), sectionID)
	require.NoError(t, err)
	require.Len(t, perf.Laps, 1)
	require.Equal(t, float64(60), perf.Laps[0].ElapsedTimeS)
	require.False(t, perf.Laps[0].Estimated)
	require.Equal(t, "same", perf.Laps[0].Direction)
	require.Equal(t, 1, perf.Laps[0].Rank)
}

func TestSectionPerformanceEstimatedWithoutTimeStream(t *testing.T) {
	s := newTestStore(t)
	sectionID := seedSectionWithTraversal(t, s, "a", false)

	e := New(s)
	perf, err := e.GetSectionPerformances(t.Context(), sectionID)
	require.NoError(t, err)
	require.Len(t, perf.Laps, 1)
	require.True(t, perf.Laps[0].Estimated)
	require.Greater(t, perf.Laps[0].ElapsedTimeS, float64(0))
}

func TestRoutePerformancesRankAscendingByMovingTime(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	track := []geo.Point{{Lat: 45.0, Lng: -122.0}, {Lat: 45.0, Lng: -121.99}}
	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: "fast", SportType: "run", StartDate: 100, DistanceM: 1000, MovingTimeS: 200, Track: track},
		{ID: "slow", SportType: "run", StartDate: 200, DistanceM: 1000, MovingTimeS: 300, Track: track},
	}))
	require.NoError(t, s.ReplaceAutoGroups(ctx, []store.Group{{ID: "g1", SportType: "run"}}, map[string][]string{
		"g1": {"fast", "slow"},
	}))

	e := New(s)
	current := "slow"
	perfs, err := e.GetRoutePerformances(ctx, "g1", &current)
	require.NoError(t, err)
	require.Len(t, perfs, 2)
	require.Equal(t, "fast", perfs[0].ActivityID)
	require.Equal(t, 1, perfs[0].Rank)
	require.Equal(t, "slow", perfs[1].ActivityID)
	require.True(t, perfs[1].IsCurrent)
}

func TestSectionPerformanceBucketsRejectsBadBucketType(t *testing.T) {
	s := newTestStore(t)
	sectionID := seedSectionWithTraversal(t, s, "a", true)

	e := New(s)
	_, err := e.GetSectionPerformanceBuckets(t.Context(), sectionID, 30, "daily")
	require.Error(t, err)
}
