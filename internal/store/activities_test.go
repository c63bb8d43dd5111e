// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
)

func sampleTrack() []geo.Point {
	return []geo.Point{
		{Lat: 47.6062, Lng: -122.3321},
		{Lat: 47.6162, Lng: -122.3221},
		{Lat: 47.6262, Lng: -122.3121},
	}
}

func TestAddActivitiesAndGetGPSTrack(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	err := s.AddActivities(ctx, []NewActivity{{
		ID:        "act-1",
		SportType: "run",
		StartDate: 1700000000,
		DistanceM: 5000,
		Name:      "Morning Run",
		Track:     sampleTrack(),
	}})
	require.NoError(t, err)

	got, err := s.GetActivity(ctx, "act-1")
	require.NoError(t, err)
	assert.Equal(t, "run", got.SportType)
	assert.Equal(t, "Morning Run", got.Name)

	track, err := s.GetGPSTrack(ctx, "act-1")
	require.NoError(t, err)
	require.Len(t, track.Points, 3)
	assert.InDelta(t, 47.6062, track.Points[0].Lat, 1e-4)
	assert.InDelta(t, -122.3121, track.BBox.MaxLng, 1e-4)
}

func TestAddActivitiesUpsertsOnConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	base := NewActivity{ID: "act-1", SportType: "run", Name: "First", Track: sampleTrack()}
	require.NoError(t, s.AddActivities(ctx, []NewActivity{base}))

	base.Name = "Renamed"
	require.NoError(t, s.AddActivities(ctx, []NewActivity{base}))

	count, err := s.GetActivityCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := s.GetActivity(ctx, "act-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
}

func TestAddActivitiesRejectsTooFewValidPoints(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	err := s.AddActivities(ctx, []NewActivity{{
		ID:        "act-1",
		SportType: "run",
		Track:     []geo.Point{{Lat: 47.6062, Lng: -122.3321}},
	}})
	require.Error(t, err)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
}

func TestAddActivitiesFlatRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	ids := []string{"a", "b"}
	coords := []float64{
		47.60, -122.33, 47.61, -122.32, 47.62, -122.31,
		47.70, -122.40, 47.71, -122.41,
	}
	offsets := []int{0, 3, 5}
	sports := []string{"run", "ride"}

	require.NoError(t, s.AddActivitiesFlat(ctx, ids, coords, offsets, sports))

	trackA, err := s.GetGPSTrack(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, trackA.Points, 3)

	trackB, err := s.GetGPSTrack(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, trackB.Points, 2)
}

func TestAddActivitiesFlatRejectsBadOffsets(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	cases := map[string]struct {
		ids     []string
		coords  []float64
		offsets []int
		sports  []string
	}{
		"wrong length":     {[]string{"a"}, []float64{1, 2}, []int{0, 1, 2}, []string{"run"}},
		"nonzero start":    {[]string{"a"}, []float64{1, 2}, []int{1, 1}, []string{"run"}},
		"bad final offset": {[]string{"a"}, []float64{1, 2}, []int{0, 2}, []string{"run"}},
		"non-monotonic":    {[]string{"a", "b"}, []float64{1, 2, 3, 4}, []int{0, 1, 1}, []string{"run", "run"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.AddActivitiesFlat(t.Context(), tc.ids, tc.coords, tc.offsets, tc.sports)
			require.Error(t, err)
			assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
		})
	}
}

func TestGetActivityNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetActivity(t.Context(), "missing")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestTimeStreamRoundTripAndAbsence(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AddActivities(ctx, []NewActivity{{ID: "act-1", SportType: "run", Track: sampleTrack()}}))

	absent, err := s.GetTimeStream(ctx, "act-1")
	require.NoError(t, err)
	assert.Nil(t, absent)

	missing, err := s.GetActivitiesMissingTimeStreams(ctx, []string{"act-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"act-1"}, missing)

	require.NoError(t, s.SetTimeStreams(ctx, []TimeStream{{ActivityID: "act-1", Times: []float32{0, 1.5, 3.25}}}))

	stream, err := s.GetTimeStream(ctx, "act-1")
	require.NoError(t, err)
	require.NotNil(t, stream)
	assert.Equal(t, []float32{0, 1.5, 3.25}, stream.Times)

	missing, err = s.GetActivitiesMissingTimeStreams(ctx, []string{"act-1"})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestCleanupOldActivitiesCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AddActivities(ctx, []NewActivity{
		{ID: "old", SportType: "run", StartDate: 1000, Track: sampleTrack()},
		{ID: "new", SportType: "run", StartDate: 100000000, Track: sampleTrack()},
	}))
	require.NoError(t, s.SetTimeStreams(ctx, []TimeStream{{ActivityID: "old", Times: []float32{0, 1}}}))

	deleted, err := s.CleanupOldActivities(ctx, 100000000, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = s.GetActivity(ctx, "old")
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	_, err = s.GetActivity(ctx, "new")
	require.NoError(t, err)

	ts, err := s.GetTimeStream(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, ts)
}

func TestListRecentActivitiesOrdersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AddActivities(ctx, []NewActivity{
		{ID: "a", SportType: "run", StartDate: 100, Track: sampleTrack()},
		{ID: "b", SportType: "run", StartDate: 300, Track: sampleTrack()},
		{ID: "c", SportType: "run", StartDate: 200, Track: sampleTrack()},
	}))

	recent, err := s.ListRecentActivities(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "c", recent[1].ID)
}
