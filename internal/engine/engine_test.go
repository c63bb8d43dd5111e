// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		Store: config.StoreConfig{Path: ":memory:"},
		Detection: config.DetectionConfig{
			MinOverlapMeters:         150,
			MinOverlapFraction:       0.6,
			ClusterEpsilonMeters:     75,
			MinClusterSize:           2,
			MaxConcurrentComparisons: 8,
			ProgressPersistence:      "memory",
			GroupOverlapThreshold:    0.80,
			MinSectionVisits:         2,
			ScaleWindowMeters:        config.ScaleWindows{Short: 200, Medium: 1000, Long: 5000},
		},
		Aggregate: config.AggregateConfig{
			HeatmapCellSizeMeters: 50,
			FTPHistoryWindow:      365 * 24 * time.Hour,
			PowerZoneBounds:       []float64{0.55, 0.75, 0.90, 1.05, 1.20, 1.50},
		},
		Cache:    config.CacheConfig{SignatureCacheSize: 200, PolylineCacheSize: 50, DefaultTTL: time.Hour},
		Metrics:  config.MetricsConfig{Enabled: true, Namespace: "geotrail_test"},
		Progress: config.ProgressConfig{},
	}
}

func newReadyEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(testConfig())
	require.NoError(t, e.Init(":memory:"))
	t.Cleanup(func() { _ = e.Teardown() })
	return e
}

func TestInitIsIdempotentForSamePath(t *testing.T) {
	e := New(testConfig())
	require.NoError(t, e.Init(":memory:"))
	require.NoError(t, e.Init(":memory:"))
	require.True(t, e.IsInitialized())
	require.NoError(t, e.Teardown())
}

func TestInitRejectsDifferentPath(t *testing.T) {
	e := New(testConfig())
	require.NoError(t, e.Init(":memory:"))
	defer func() { _ = e.Teardown() }()

	err := e.Init("/tmp/some/other/path.duckdb")
	require.Error(t, err)
	require.Equal(t, errs.AlreadyInitializedDifferentPath, errs.KindOf(err))
}

func TestCallsBeforeInitAreNotInitialized(t *testing.T) {
	e := New(testConfig())
	_, err := e.GetActivityCount(t.Context())
	require.Error(t, err)
	require.Equal(t, errs.NotInitialized, errs.KindOf(err))
}

func TestTeardownThenReinitWithDifferentPathSucceeds(t *testing.T) {
	e := New(testConfig())
	require.NoError(t, e.Init(":memory:"))
	require.NoError(t, e.Teardown())
	require.False(t, e.IsInitialized())
	require.NoError(t, e.Init(":memory:"))
	require.NoError(t, e.Teardown())
}

func TestAddActivitiesPublishesActivitiesAndGroups(t *testing.T) {
	e := newReadyEngine(t)
	ctx := t.Context()

	var gotActivities, gotGroups int32
	e.Subscribe(TopicActivities, func() { atomic.AddInt32(&gotActivities, 1) })
	e.Subscribe(TopicGroups, func() { atomic.AddInt32(&gotGroups, 1) })
	e.Subscribe(TopicSections, func() { t.Error("sections should not fire for add_activities") })

	track := []float64{0, 0, 0, 0.01}
	require.NoError(t, e.AddActivitiesFlat(ctx, []string{"a1"}, track, []int{0, 2}, []string{"Run"}))

	require.Equal(t, int32(1), atomic.LoadInt32(&gotActivities))
	require.Equal(t, int32(1), atomic.LoadInt32(&gotGroups))

	count, err := e.GetActivityCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestPanickingSubscriberDoesNotStopOthers(t *testing.T) {
	e := newReadyEngine(t)
	ctx := t.Context()

	var secondFired int32
	e.Subscribe(TopicActivities, func() { panic("boom") })
	e.Subscribe(TopicActivities, func() { atomic.AddInt32(&secondFired, 1) })

	require.NoError(t, e.AddActivitiesFlat(ctx, []string{"a1"}, []float64{0, 0, 0, 0.01}, []int{0, 2}, []string{"Run"}))
	require.Equal(t, int32(1), atomic.LoadInt32(&secondFired))
}

func TestUnsubscribeStopsFutureNotifications(t *testing.T) {
	e := newReadyEngine(t)
	ctx := t.Context()

	var fired int32
	unsub := e.Subscribe(TopicActivities, func() { atomic.AddInt32(&fired, 1) })
	unsub()

	require.NoError(t, e.AddActivitiesFlat(ctx, []string{"a1"}, []float64{0, 0, 0, 0.01}, []int{0, 2}, []string{"Run"}))
	require.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestSetRouteNameConflictKeepsFirstName(t *testing.T) {
	e := newReadyEngine(t)
	ctx := t.Context()

	require.NoError(t, e.store.ReplaceAutoGroups(ctx, []store.Group{
		{ID: "g1", SportType: "run"}, {ID: "g2", SportType: "run"},
	}, nil))

	require.NoError(t, e.SetRouteName(ctx, "g1", "Home Loop"))
	err := e.SetRouteName(ctx, "g2", "Home Loop")
	require.Error(t, err)
	require.Equal(t, errs.Conflict, errs.KindOf(err))

	g1, err := e.GetGroupByID(ctx, "g1")
	require.NoError(t, err)
	require.Equal(t, "Home Loop", *g1.CustomName)
}

func TestCreateSectionFromIndicesExactWithTimeStream(t *testing.T) {
	e := newReadyEngine(t)
	ctx := t.Context()

	require.NoError(t, e.AddActivitiesFlat(ctx, []string{"a"}, []float64{0, 0, 0, 0.01}, []int{0, 2}, []string{"Run"}))
	require.NoError(t, e.SetTimeStreams(ctx, []store.TimeStream{{ActivityID: "a", Times: []float32{0, 60}}}))

	var sectionsFired int32
	e.Subscribe(TopicSections, func() { atomic.AddInt32(&sectionsFired, 1) })

	sectionID, err := e.CreateSectionFromIndices(ctx, "a", 0, 1, "Run")
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&sectionsFired))

	perf, err := e.GetSectionPerformances(ctx, sectionID)
	require.NoError(t, err)
	require.Len(t, perf.Laps, 1)
	require.Equal(t, float64(60), perf.Laps[0].ElapsedTimeS)
	require.False(t, perf.Laps[0].Estimated)
	require.Equal(t, "same", perf.Laps[0].Direction)
}

func TestCreateSectionFromIndicesEstimatedWithoutTimeStream(t *testing.T) {
	e := newReadyEngine(t)
	ctx := t.Context()

	require.NoError(t, e.AddActivitiesFlat(ctx, []string{"a"}, []float64{0, 0, 0, 0.01}, []int{0, 2}, []string{"Run"}))

	sectionID, err := e.CreateSectionFromIndices(ctx, "a", 0, 1, "Run")
	require.NoError(t, err)

	perf, err := e.GetSectionPerformances(ctx, sectionID)
	require.NoError(t, err)
	require.Len(t, perf.Laps, 1)
	require.True(t, perf.Laps[0].Estimated)
}

func TestClearPublishesAllFourTopicsAndEmptiesStore(t *testing.T) {
	e := newReadyEngine(t)
	ctx := t.Context()

	require.NoError(t, e.AddActivitiesFlat(ctx, []string{"a1"}, []float64{0, 0, 0, 0.01}, []int{0, 2}, []string{"Run"}))

	seen := map[Topic]bool{}
	for _, topic := range []Topic{TopicActivities, TopicGroups, TopicSections, TopicSyncReset} {
		topic := topic
		e.Subscribe(topic, func() { seen[topic] = true })
	}

	require.NoError(t, e.Clear(ctx))
	for _, topic := range []Topic{TopicActivities, TopicGroups, TopicSections, TopicSyncReset} {
		require.True(t, seen[topic], "expected %s to be published on clear", topic)
	}

	count, err := e.GetActivityCount(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestGetStatsReflectsDirtyFlagsAfterCleanup(t *testing.T) {
	e := newReadyEngine(t)
	ctx := t.Context()

	require.NoError(t, e.AddActivitiesFlat(ctx, []string{"old"}, []float64{0, 0, 0, 0.01}, []int{0, 2}, []string{"Run"}))

	deleted, err := e.CleanupOldActivities(ctx, time.Now().Unix(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, deleted)

	stats, err := e.GetStats(ctx)
	require.NoError(t, err)
	require.True(t, stats.GroupsDirty)
	require.True(t, stats.SectionsDirty)
}
