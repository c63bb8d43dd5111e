// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package performance

import (
	"context"
	"sort"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
	"github.com/tomtom215/geotrail/internal/store"
)

// Lap is one activity's traversal of a section, ranked against its siblings.
type Lap struct {
	ActivityID   string
	Direction    string // same, reverse, partial
	DistanceM    float64
	ElapsedTimeS float64
	SpeedMPS     float64
	PaceSPerKM   float64
	Estimated    bool
	Rank         int // 1 is the PR
}

// SectionPerformances is get_section_performances(section_id)'s result:
// every lap, ranked ascending by elapsed time, plus the PR per direction.
type SectionPerformances struct {
	SectionID    string
	Laps         []Lap
	DirectionPRs map[string]Lap
}

// RoutePerformance is one group member's ranking within get_route_performances.
type RoutePerformance struct {
	ActivityID   string
	DistanceM    float64
	MovingTimeS  int64
	ElapsedTimeS int64
	Rank         int
	IsCurrent    bool
}

// Bucket is one non-empty time bucket from get_section_performance_buckets:
// the fastest lap's elapsed time within that window.
type Bucket struct {
	BucketStartUnix int64
	MinElapsedTimeS float64
	ActivityID      string
}

// BackfillFunc fetches a missing time-stream from an external collaborator
// (§6.3); not part of the core, wired in only when the embedder has one.
type BackfillFunc func(ctx context.Context, activityID string) (*store.TimeStream, error)

// Engine computes section and route performance over a Store.
type Engine struct {
	store    *store.Store
	backfill BackfillFunc
	breaker  *gobreaker.CircuitBreaker[*store.TimeStream]
}

// New builds an Engine with no backfill collaborator: missing time-streams
// always fall straight to the distance-ratio estimate.
func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// WithBackfill attaches an external time-stream backfill collaborator,
// wrapped in a circuit breaker: a failed call falls back to the estimate for
// that lap, and after 3 consecutive failures the breaker opens, so subsequent
// laps fall back to the estimate path immediately, without calling the
// collaborator, until the 30s open timeout elapses.
func (e *Engine) WithBackfill(fn BackfillFunc) *Engine {
	e.backfill = fn
	e.breaker = gobreaker.NewCircuitBreaker[*store.TimeStream](gobreaker.Settings{
		Name:        "performance-backfill",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return e
}

// GetSectionPerformances ranks every activity's traversal of section id by
// elapsed time ascending; rank 1 is the PR. Direction-specific PRs (same,
// reverse, partial) are computed separately, per §4.5.
func (e *Engine) GetSectionPerformances(ctx context.Context, sectionID string) (*SectionPerformances, error) {
	traversals, err := e.store.GetActivitiesForSection(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	laps := make([]Lap, 0, len(traversals))
	for _, sa := range traversals {
		lap, err := e.computeLap(ctx, sa)
		if err != nil {
			return nil, err
		}
		laps = append(laps, lap)
	}

	sort.SliceStable(laps, func(i, j int) bool { return laps[i].ElapsedTimeS < laps[j].ElapsedTimeS })
	for i := range laps {
		laps[i].Rank = i + 1
	}

	prs := map[string]Lap{}
	for _, lap := range laps {
		if best, ok := prs[lap.Direction]; !ok || lap.ElapsedTimeS < best.ElapsedTimeS {
			prs[lap.Direction] = lap
		}
	}

	return &SectionPerformances{SectionID: sectionID, Laps: laps, DirectionPRs: prs}, nil
}

func (e *Engine) computeLap(ctx context.Context, sa store.SectionActivity) (Lap, error) {
	act, err := e.store.GetActivity(ctx, sa.ActivityID)
	if err != nil {
		return Lap{}, err
	}
	track, err := e.store.GetGPSTrack(ctx, sa.ActivityID)
	if err != nil {
		return Lap{}, err
	}

	lo, hi := sa.StartIndex, sa.EndIndex
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi >= len(track.Points) {
		hi = len(track.Points) - 1
	}
	var traversalDistance float64
	if lo >= 0 && lo < hi {
		traversalDistance = geo.PathDistanceM(track.Points[lo : hi+1])
	}

	elapsed, estimated, err := e.elapsedTimeS(ctx, sa.ActivityID, act, lo, hi, traversalDistance)
	if err != nil {
		return Lap{}, err
	}

	var speed, pace float64
	if elapsed > 0 {
		speed = traversalDistance / elapsed
		pace = elapsed / (traversalDistance / 1000)
	}

	return Lap{
		ActivityID:   sa.ActivityID,
		Direction:    sa.Direction,
		DistanceM:    traversalDistance,
		ElapsedTimeS: elapsed,
		SpeedMPS:     speed,
		PaceSPerKM:   pace,
		Estimated:    estimated,
	}, nil
}

func (e *Engine) elapsedTimeS(ctx context.Context, activityID string, act *store.Activity, lo, hi int, traversalDistance float64) (float64, bool, error) {
	ts, err := e.store.GetTimeStream(ctx, activityID)
	if err != nil {
		return 0, false, err
	}
	if ts == nil && e.backfill != nil {
		ts = e.fetchBackfill(ctx, activityID)
	}
	if ts != nil && hi < len(ts.Times) && lo >= 0 {
		return float64(ts.Times[hi] - ts.Times[lo]), false, nil
	}

	if act.DistanceM <= 0 {
		return 0, true, nil
	}
	return (traversalDistance / act.DistanceM) * float64(act.MovingTimeS), true, nil
}

// fetchBackfill calls the backfill collaborator through the breaker. Any
// failure, including an open breaker, is swallowed: the caller degrades to
// the estimate path rather than failing the whole lap computation.
func (e *Engine) fetchBackfill(ctx context.Context, activityID string) *store.TimeStream {
	ts, err := e.breaker.Execute(func() (*store.TimeStream, error) {
		return e.backfill(ctx, activityID)
	})
	if err != nil {
		return nil
	}
	return ts
}

// GetSectionPerformanceBuckets partitions [now-rangeDays, now] into weekly or
// monthly buckets and keeps, for each non-empty bucket, the lap with the
// minimum elapsed time.
func (e *Engine) GetSectionPerformanceBuckets(ctx context.Context, sectionID string, rangeDays int, bucketType string) ([]Bucket, error) {
	if bucketType != "weekly" && bucketType != "monthly" {
		return nil, errs.Newf(errs.InvalidInput, "bucket_type must be weekly or monthly, got %q", bucketType)
	}

	perf, err := e.GetSectionPerformances(ctx, sectionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	cutoff := now - int64(rangeDays)*86400

	buckets := map[int64]Bucket{}
	for _, lap := range perf.Laps {
		act, err := e.store.GetActivity(ctx, lap.ActivityID)
		if err != nil {
			return nil, err
		}
		if act.StartDate < cutoff || act.StartDate > now {
			continue
		}
		key := bucketKey(act.StartDate, bucketType)
		if existing, ok := buckets[key]; !ok || lap.ElapsedTimeS < existing.MinElapsedTimeS {
			buckets[key] = Bucket{BucketStartUnix: key, MinElapsedTimeS: lap.ElapsedTimeS, ActivityID: lap.ActivityID}
		}
	}

	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BucketStartUnix < out[j].BucketStartUnix })
	return out, nil
}

func bucketKey(unixTime int64, bucketType string) int64 {
	t := time.Unix(unixTime, 0).UTC()
	if bucketType == "monthly" {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
	}
	year, week := t.ISOWeek()
	// Monday of the ISO week, used as a stable weekly bucket anchor.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	_, jan4Week := jan4.ISOWeek()
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := jan4.AddDate(0, 0, -(weekday-1)+(week-jan4Week)*7)
	return monday.Unix()
}

// GetRoutePerformances ranks each activity in group id by moving time
// ascending; rank 1 is the PR. currentActivityID, if non-nil, is flagged in
// the result so UIs can highlight "your" performance among the field.
func (e *Engine) GetRoutePerformances(ctx context.Context, groupID string, currentActivityID *string) ([]RoutePerformance, error) {
	ids, err := e.store.GetGroupActivityIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}

	perfs := make([]RoutePerformance, 0, len(ids))
	for _, id := range ids {
		act, err := e.store.GetActivity(ctx, id)
		if err != nil {
			return nil, err
		}
		perfs = append(perfs, RoutePerformance{
			ActivityID:   id,
			DistanceM:    act.DistanceM,
			MovingTimeS:  act.MovingTimeS,
			ElapsedTimeS: act.ElapsedTimeS,
			IsCurrent:    currentActivityID != nil && *currentActivityID == id,
		})
	}

	sort.SliceStable(perfs, func(i, j int) bool { return perfs[i].MovingTimeS < perfs[j].MovingTimeS })
	for i := range perfs {
		perfs[i].Rank = i + 1
	}
	return perfs, nil
}
