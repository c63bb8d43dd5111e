// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package detection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/geo"
	"github.com/tomtom215/geotrail/internal/spatialindex"
	"github.com/tomtom215/geotrail/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(config.StoreConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func straightLine(n int, startLat, startLng, stepDeg float64) []geo.Point {
	points := make([]geo.Point, n)
	for i := 0; i < n; i++ {
		points[i] = geo.Point{Lat: startLat + float64(i)*stepDeg, Lng: startLng}
	}
	return points
}

func defaultDetectionConfig() config.DetectionConfig {
	return config.DetectionConfig{
		MinOverlapMeters:         150,
		MinOverlapFraction:       0.6,
		ClusterEpsilonMeters:     75,
		MinClusterSize:           2,
		MaxConcurrentComparisons: 8,
		ProgressPersistence:      "memory",
		GroupOverlapThreshold:    0.80,
		MinSectionVisits:         2,
		ScaleWindowMeters:        config.ScaleWindows{Short: 200, Medium: 1000, Long: 5000},
	}
}

func waitForTerminal(t *testing.T, j *Job) Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		switch j.Poll() {
		case StatusComplete, StatusError, StatusIdle:
			return j.Poll()
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("detection job did not finish in time")
	return StatusError
}

func TestDetectionFindsOneGroupOfTwoIdenticalTracks(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	track := straightLine(40, 45.0, -122.0, 0.0005)
	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: "a1", SportType: "run", StartDate: 100, DistanceM: 1000, Track: track},
		{ID: "a2", SportType: "run", StartDate: 200, DistanceM: 1000, Track: track},
	}))

	idx := spatialindex.New(s)
	job := New(s, idx, defaultDetectionConfig(), nil, nil)
	require.True(t, job.Start(""))

	status := waitForTerminal(t, job)
	require.Equal(t, StatusComplete, status)

	groups, err := s.GetGroupSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	members, err := s.GetGroupActivityIDs(ctx, groups[0].ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a1", "a2"}, members)

	g, err := s.GetGroupByID(ctx, groups[0].ID)
	require.NoError(t, err)
	require.NotNil(t, g.ConsensusActivityID)
	require.Equal(t, "a1", *g.ConsensusActivityID)
}

func TestDetectionUnrelatedTracksFormNoGroup(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: "a1", SportType: "run", StartDate: 100, DistanceM: 1000, Track: straightLine(30, 45.0, -122.0, 0.0005)},
		{ID: "a2", SportType: "run", StartDate: 200, DistanceM: 1000, Track: straightLine(30, 10.0, 30.0, 0.0005)},
	}))

	idx := spatialindex.New(s)
	job := New(s, idx, defaultDetectionConfig(), nil, nil)
	require.True(t, job.Start(""))

	status := waitForTerminal(t, job)
	require.Equal(t, StatusComplete, status)

	groups, err := s.GetGroupSummaries(ctx)
	require.NoError(t, err)
	require.Empty(t, groups)
}

func TestDetectionStartSupersedesPriorRun(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: "a1", SportType: "run", StartDate: 100, DistanceM: 1000, Track: straightLine(40, 45.0, -122.0, 0.0005)},
		{ID: "a2", SportType: "run", StartDate: 200, DistanceM: 1000, Track: straightLine(40, 45.0, -122.0, 0.0005)},
	}))

	idx := spatialindex.New(s)
	job := New(s, idx, defaultDetectionConfig(), nil, nil)

	require.True(t, job.Start(""))
	require.True(t, job.Start("")) // supersedes the first run before it can commit

	status := waitForTerminal(t, job)
	require.Contains(t, []Status{StatusComplete, StatusIdle}, status)
}

func TestRestorePersistedProgressReportsCompleteRunAfterRestart(t *testing.T) {
	s := newTestStore(t)
	idx := spatialindex.New(s)
	progress := newMemoryProgressStore()
	require.NoError(t, progress.Save(ProgressRecord{Generation: 3, Status: StatusComplete, Phase: PhaseComplete, Completed: 5, Total: 5}))

	job := New(s, idx, defaultDetectionConfig(), nil, progress)
	require.NoError(t, job.RestorePersistedProgress())

	require.Equal(t, StatusComplete, job.Poll())
	require.Equal(t, Progress{Phase: PhaseComplete, Completed: 5, Total: 5}, job.ProgressSnapshot())
}

func TestRestorePersistedProgressReportsErrorForRunInterruptedMidFlight(t *testing.T) {
	s := newTestStore(t)
	idx := spatialindex.New(s)
	progress := newMemoryProgressStore()
	require.NoError(t, progress.Save(ProgressRecord{Generation: 1, Status: StatusRunning, Phase: PhaseClustering, Completed: 2, Total: 5}))

	job := New(s, idx, defaultDetectionConfig(), nil, progress)
	require.NoError(t, job.RestorePersistedProgress())

	require.Equal(t, StatusError, job.Poll())
	require.Error(t, job.LastError())
}

func TestRestorePersistedProgressIsNoopWithNoPriorRecord(t *testing.T) {
	s := newTestStore(t)
	idx := spatialindex.New(s)
	job := New(s, idx, defaultDetectionConfig(), nil, nil)

	require.NoError(t, job.RestorePersistedProgress())
	require.Equal(t, StatusIdle, job.Poll())
}

func TestDetectionCancelLeavesStoreUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AddActivities(ctx, []store.NewActivity{
		{ID: "a1", SportType: "run", StartDate: 100, DistanceM: 1000, Track: straightLine(40, 45.0, -122.0, 0.0005)},
		{ID: "a2", SportType: "run", StartDate: 200, DistanceM: 1000, Track: straightLine(40, 45.0, -122.0, 0.0005)},
	}))

	idx := spatialindex.New(s)
	job := New(s, idx, defaultDetectionConfig(), nil, nil)
	require.True(t, job.Start(""))
	job.Cancel()

	waitForTerminal(t, job)

	groups, err := s.GetGroupSummaries(ctx)
	require.NoError(t, err)
	require.Empty(t, groups)
}
