// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"time"

	"github.com/tomtom215/geotrail/internal/aggregate"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
	"github.com/tomtom215/geotrail/internal/performance"
	"github.com/tomtom215/geotrail/internal/store"
)

// GetActivityIDs returns every stored activity id.
func (e *Engine) GetActivityIDs(ctx context.Context) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetActivityIDs(ctx)
}

// GetActivityCount returns the number of stored activities.
func (e *Engine) GetActivityCount(ctx context.Context) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return 0, err
	}
	return e.store.GetActivityCount(ctx)
}

// GetGPSTrack returns one activity's decoded GPS track.
func (e *Engine) GetGPSTrack(ctx context.Context, activityID string) (*store.GpsTrack, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetGPSTrack(ctx, activityID)
}

// QueryViewport returns every activity whose bounding box intersects the
// given rectangle, per §4.3's coarse bbox filter.
func (e *Engine) QueryViewport(ctx context.Context, viewport geo.BBox) ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.idx.Query(ctx, viewport)
}

// GetGroupSummaries returns every route group with its member count; this
// also serves §6.2's get_groups(), which lists the same projection.
func (e *Engine) GetGroupSummaries(ctx context.Context) ([]store.GroupSummary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetGroupSummaries(ctx)
}

// GetGroupByID returns one group's core row.
func (e *Engine) GetGroupByID(ctx context.Context, id string) (*store.Group, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetGroupByID(ctx, id)
}

// GetAllRouteNames returns every custom group name.
func (e *Engine) GetAllRouteNames(ctx context.Context) (map[string]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetAllRouteNames(ctx)
}

// GetConsensusRoute returns a group's consensus polyline: the medoid
// activity's simplified signature, per §3's derived-quantity definition.
// Results are cached by group id in the consensus-polyline LRU.
func (e *Engine) GetConsensusRoute(ctx context.Context, groupID string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return "", err
	}

	if polyline, ok := e.consensusCache.Get(groupID); ok {
		e.m.RecordCacheHit("consensus")
		return polyline, nil
	}
	e.m.RecordCacheMiss("consensus")

	g, err := e.store.GetGroupByID(ctx, groupID)
	if err != nil {
		return "", err
	}
	if g.ConsensusActivityID == nil {
		return "", errs.Newf(errs.NotFound, "group %q has no consensus activity", groupID)
	}

	signature, err := e.signatureFor(ctx, *g.ConsensusActivityID)
	if err != nil {
		return "", err
	}
	e.consensusCache.Add(groupID, signature)
	return signature, nil
}

func (e *Engine) signatureFor(ctx context.Context, activityID string) (string, error) {
	if sig, ok := e.sigCache.Get(activityID); ok {
		e.m.RecordCacheHit("signature")
		return sig, nil
	}
	e.m.RecordCacheMiss("signature")

	track, err := e.store.GetGPSTrack(ctx, activityID)
	if err != nil {
		return "", err
	}
	tolerance := geo.SignatureTolerance(track.Points)
	signature := geo.EncodePolyline(geo.Simplify(track.Points, tolerance))
	e.sigCache.Add(activityID, signature)
	return signature, nil
}

// GetSectionSummaries returns every section; this also serves §6.2's
// get_sections().
func (e *Engine) GetSectionSummaries(ctx context.Context) ([]store.SectionSummary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetSectionSummaries(ctx)
}

// GetSectionSummariesForSport filters section summaries to one sport_type.
func (e *Engine) GetSectionSummariesForSport(ctx context.Context, sport string) ([]store.SectionSummary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetSectionSummariesForSport(ctx, sport)
}

// GetSectionByID returns one section's full row.
func (e *Engine) GetSectionByID(ctx context.Context, id string) (*store.Section, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetSectionByID(ctx, id)
}

// GetSectionPolyline returns just a section's polyline string.
func (e *Engine) GetSectionPolyline(ctx context.Context, id string) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return "", err
	}
	return e.store.GetSectionPolyline(ctx, id)
}

// GetSectionsForActivity returns every section an activity has traversed.
func (e *Engine) GetSectionsForActivity(ctx context.Context, activityID string) ([]store.SectionActivity, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetSectionsForActivity(ctx, activityID)
}

// GetSectionReference returns a section's pinned reference activity id, if any.
func (e *Engine) GetSectionReference(ctx context.Context, sectionID string) (*string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.store.GetSectionReference(ctx, sectionID)
}

// IsSectionReferenceUserDefined reports whether a section's reference was
// explicitly pinned by a user rather than auto-selected.
func (e *Engine) IsSectionReferenceUserDefined(ctx context.Context, sectionID string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return false, err
	}
	return e.store.IsSectionReferenceUserDefined(ctx, sectionID)
}

// GetRoutePerformances ranks each activity in a group by moving time.
func (e *Engine) GetRoutePerformances(ctx context.Context, groupID string, currentActivityID *string) ([]performance.RoutePerformance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.perf.GetRoutePerformances(ctx, groupID, currentActivityID)
}

// GetSectionPerformances ranks every traversal of a section by elapsed time.
func (e *Engine) GetSectionPerformances(ctx context.Context, sectionID string) (*performance.SectionPerformances, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.perf.GetSectionPerformances(ctx, sectionID)
}

// GetSectionPerformanceBuckets returns one fastest-lap data point per
// non-empty weekly or monthly bucket.
func (e *Engine) GetSectionPerformanceBuckets(ctx context.Context, sectionID string, rangeDays int, bucketType string) ([]performance.Bucket, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.perf.GetSectionPerformanceBuckets(ctx, sectionID, rangeDays, bucketType)
}

// GetPeriodStats sums distance/time/elevation/TSS over an inclusive range.
func (e *Engine) GetPeriodStats(ctx context.Context, startTs, endTs int64) (aggregate.PeriodStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return aggregate.PeriodStats{}, err
	}
	return e.agg.GetPeriodStats(ctx, startTs, endTs)
}

// GetMonthlyAggregates returns 12 zero-filled monthly points for year.
func (e *Engine) GetMonthlyAggregates(ctx context.Context, year int, metric string) ([]aggregate.MonthlyPoint, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.agg.GetMonthlyAggregates(ctx, year, metric)
}

// GetActivityHeatmap returns one zero-filled row per day in range.
func (e *Engine) GetActivityHeatmap(ctx context.Context, startTs, endTs int64) ([]aggregate.HeatmapDay, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.agg.GetActivityHeatmap(ctx, startTs, endTs)
}

// GetZoneDistribution returns summed per-zone seconds across every activity
// of sportType.
func (e *Engine) GetZoneDistribution(ctx context.Context, sportType, zoneType string) ([]float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.agg.GetZoneDistribution(ctx, sportType, zoneType)
}

// GetFTPTrend returns the latest FTP and the most recent distinct value
// before it, if any.
func (e *Engine) GetFTPTrend(ctx context.Context) (*aggregate.FTPTrend, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.agg.GetFTPTrend(ctx)
}

// GetFTPHistory returns every distinct FTP change point within the
// configured history window of now.
func (e *Engine) GetFTPHistory(ctx context.Context, now time.Time) ([]aggregate.FTPPoint, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return nil, err
	}
	return e.agg.GetFTPHistory(ctx, now)
}

// GetStats returns the combined storage/dirty/cache snapshot behind
// get_stats().
func (e *Engine) GetStats(ctx context.Context) (Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return Stats{}, err
	}

	counts, err := e.store.GetCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	dirty, err := e.store.GetDirtyFlags(ctx)
	if err != nil {
		return Stats{}, err
	}

	return Stats{
		ActivityCount:      counts.ActivityCount,
		GpsTrackCount:      counts.GpsTrackCount,
		GroupCount:         counts.GroupCount,
		SectionCount:       counts.SectionCount,
		GroupsDirty:        dirty.GroupsDirty,
		SectionsDirty:      dirty.SectionsDirty,
		SignatureCacheSize: e.sigCache.Len(),
		ConsensusCacheSize: e.consensusCache.Len(),
		OldestDate:         counts.OldestDate,
		NewestDate:         counts.NewestDate,
	}, nil
}

// RoutesScreenData is get_routes_screen_data's one-round-trip result:
// paginated group summaries with consensus polylines, and paginated section
// summaries with polylines.
type RoutesScreenData struct {
	Groups   []GroupWithPolyline
	Sections []store.SectionSummary
}

// GroupWithPolyline pairs a group summary with its (possibly absent)
// consensus polyline.
type GroupWithPolyline struct {
	store.GroupSummary
	ConsensusPolyline string
}

// GetRoutesScreenData composes group and section listings with their
// polylines in one call, per §6.2, to save the embedder a round-trip per
// item. minGroupActivities filters out groups below that member count.
func (e *Engine) GetRoutesScreenData(ctx context.Context, groupLimit, groupOffset, sectionLimit, sectionOffset, minGroupActivities int) (RoutesScreenData, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return RoutesScreenData{}, err
	}

	groups, err := e.store.GetGroupSummaries(ctx)
	if err != nil {
		return RoutesScreenData{}, err
	}
	filtered := make([]store.GroupSummary, 0, len(groups))
	for _, g := range groups {
		if g.ActivityCount >= minGroupActivities {
			filtered = append(filtered, g)
		}
	}
	paged := paginate(filtered, groupOffset, groupLimit)

	withPolylines := make([]GroupWithPolyline, 0, len(paged))
	for _, g := range paged {
		full, err := e.store.GetGroupByID(ctx, g.ID)
		if err != nil {
			return RoutesScreenData{}, err
		}
		var polyline string
		if full.ConsensusActivityID != nil {
			polyline, err = e.signatureFor(ctx, *full.ConsensusActivityID)
			if err != nil {
				return RoutesScreenData{}, err
			}
		}
		withPolylines = append(withPolylines, GroupWithPolyline{GroupSummary: g, ConsensusPolyline: polyline})
	}

	sections, err := e.store.GetSectionSummaries(ctx)
	if err != nil {
		return RoutesScreenData{}, err
	}

	return RoutesScreenData{Groups: withPolylines, Sections: paginate(sections, sectionOffset, sectionLimit)}, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
