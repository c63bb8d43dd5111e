// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"fmt"

	"github.com/tomtom215/geotrail/internal/detection"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
	"github.com/tomtom215/geotrail/internal/store"
)

// AddActivities bulk-inserts activities and their GPS tracks, invalidates
// the spatial index (new tracks may change viewport answers), and publishes
// {activities, groups}, per §4.7's mutator table — a new activity can widen
// an existing route group on the next detection run.
func (e *Engine) AddActivities(ctx context.Context, activities []store.NewActivity) error {
	if err := e.withWriteLock(func() error {
		return e.store.AddActivities(ctx, activities)
	}, true); err != nil {
		return err
	}
	e.m.RecordMutation("add_activities")
	e.publish(TopicActivities, TopicGroups)
	return nil
}

// AddActivitiesFlat is the literal §6.2 bulk-ingestion signature.
func (e *Engine) AddActivitiesFlat(ctx context.Context, ids []string, allCoords []float64, offsets []int, sports []string) error {
	if err := e.withWriteLock(func() error {
		return e.store.AddActivitiesFlat(ctx, ids, allCoords, offsets, sports)
	}, true); err != nil {
		return err
	}
	e.m.RecordMutation("add_activities")
	e.publish(TopicActivities, TopicGroups)
	return nil
}

// SetActivityMetrics overwrites one activity's performance metrics and
// publishes {activities, groups}.
func (e *Engine) SetActivityMetrics(ctx context.Context, m store.ActivityMetrics) error {
	if err := e.withWriteLock(func() error {
		return e.store.SetActivityMetrics(ctx, m)
	}, false); err != nil {
		return err
	}
	e.m.RecordMutation("set_activity_metrics")
	e.publish(TopicActivities, TopicGroups)
	return nil
}

// SetTimeStreams overwrites one or more activities' time-streams. Per §4.7's
// fixed publish table, set_time_streams is not listed against any topic: it
// feeds performance computation, not the group/section/activity listings
// subscribers care about, so no notification fires.
func (e *Engine) SetTimeStreams(ctx context.Context, streams []store.TimeStream) error {
	err := e.withWriteLock(func() error {
		return e.store.SetTimeStreams(ctx, streams)
	}, false)
	if err != nil {
		return err
	}
	e.m.RecordMutation("set_time_streams")
	return nil
}

// CleanupOldActivities deletes every activity older than retentionDays and
// publishes {activities, groups}.
func (e *Engine) CleanupOldActivities(ctx context.Context, nowUnix int64, retentionDays int) (int, error) {
	var deleted int
	err := e.withWriteLock(func() error {
		var innerErr error
		deleted, innerErr = e.store.CleanupOldActivities(ctx, nowUnix, retentionDays)
		return innerErr
	}, true)
	if err != nil {
		return 0, err
	}
	e.m.RecordMutation("cleanup_old_activities")
	e.publish(TopicActivities, TopicGroups)
	return deleted, nil
}

// SetRouteName renames a group, enforcing per-sport uniqueness, and
// publishes {groups}.
func (e *Engine) SetRouteName(ctx context.Context, id, name string) error {
	if err := e.withWriteLock(func() error {
		return e.store.SetRouteName(ctx, id, name)
	}, false); err != nil {
		return err
	}
	e.m.RecordMutation("set_route_name")
	e.publish(TopicGroups)
	return nil
}

// SetSectionName renames a section and publishes {sections}.
func (e *Engine) SetSectionName(ctx context.Context, id, name string) error {
	if err := e.withWriteLock(func() error {
		return e.store.SetSectionName(ctx, id, name)
	}, false); err != nil {
		return err
	}
	e.m.RecordMutation("set_section_name")
	e.publish(TopicSections)
	return nil
}

// CreateSection inserts a user-authored custom section and publishes
// {sections}.
func (e *Engine) CreateSection(ctx context.Context, sec store.Section) error {
	if err := e.withWriteLock(func() error {
		return e.store.CreateSection(ctx, sec)
	}, false); err != nil {
		return err
	}
	e.m.RecordMutation("create_section")
	e.publish(TopicSections)
	return nil
}

// CreateSectionFromIndices builds a custom section directly from one
// activity's GPS track slice [startIndex, endIndex], per §8 scenarios 3/4:
// the section's polyline, distance and single traversal trace are derived
// from that slice, so GetSectionPerformances immediately has one lap to
// rank. Publishes {sections}.
func (e *Engine) CreateSectionFromIndices(ctx context.Context, activityID string, startIndex, endIndex int, sportType string) (string, error) {
	if startIndex < 0 || endIndex < startIndex {
		return "", errs.Newf(errs.InvalidInput, "invalid index range [%d, %d]", startIndex, endIndex)
	}

	var sectionID string
	err := e.withWriteLock(func() error {
		track, err := e.store.GetGPSTrack(ctx, activityID)
		if err != nil {
			return err
		}
		if endIndex >= len(track.Points) {
			return errs.Newf(errs.InvalidInput, "end index %d out of range for activity %q's %d-point track", endIndex, activityID, len(track.Points))
		}
		slice := track.Points[startIndex : endIndex+1]
		if len(slice) < 2 {
			return errs.New(errs.InvalidInput, "section must span at least 2 points")
		}

		sectionID = fmt.Sprintf("%s-%d-%d", activityID, startIndex, endIndex)
		sec := store.Section{
			ID:         sectionID,
			Type:       "custom",
			SportType:  sportType,
			Polyline:   geo.EncodePolyline(slice),
			DistanceM:  geo.PathDistanceM(slice),
			VisitCount: 1,
			Name:       sectionID,
		}
		if err := e.store.CreateSection(ctx, sec); err != nil {
			return err
		}
		return e.store.AddSectionActivity(ctx, store.SectionActivity{
			SectionID:       sectionID,
			ActivityID:      activityID,
			StartIndex:      startIndex,
			EndIndex:        endIndex,
			Direction:       "same",
			MatchPercentage: 100,
		})
	}, false)
	if err != nil {
		return "", err
	}
	e.m.RecordMutation("create_section")
	e.publish(TopicSections)
	return sectionID, nil
}

// DeleteSection removes a section and publishes {sections}.
func (e *Engine) DeleteSection(ctx context.Context, id string) error {
	if err := e.withWriteLock(func() error {
		return e.store.DeleteSection(ctx, id)
	}, false); err != nil {
		return err
	}
	e.m.RecordMutation("delete_section")
	e.publish(TopicSections)
	return nil
}

// SetSectionReference pins a section's reference activity and publishes
// {sections}.
func (e *Engine) SetSectionReference(ctx context.Context, sectionID, activityID string) error {
	if err := e.withWriteLock(func() error {
		return e.store.SetSectionReference(ctx, sectionID, activityID)
	}, false); err != nil {
		return err
	}
	e.m.RecordMutation("set_section_reference")
	e.publish(TopicSections)
	return nil
}

// ResetSectionReference clears a section's pinned reference and publishes
// {sections}.
func (e *Engine) ResetSectionReference(ctx context.Context, sectionID string) error {
	if err := e.withWriteLock(func() error {
		return e.store.ResetSectionReference(ctx, sectionID)
	}, false); err != nil {
		return err
	}
	e.m.RecordMutation("reset_section_reference")
	e.publish(TopicSections)
	return nil
}

// StartSectionDetection begins a detection run, optionally restricted to one
// sport. It always accepts, superseding any run already in flight.
func (e *Engine) StartSectionDetection(sportFilter string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return false, err
	}
	return e.job.Start(sportFilter), nil
}

// PollSections returns the detection job's current coarse status. When the
// status has just transitioned to complete, it publishes {sections} per
// §4.7's "poll_sections when it transitions to complete" rule.
func (e *Engine) PollSections() (detection.Status, error) {
	e.mu.Lock()
	if err := e.requireReady(); err != nil {
		e.mu.Unlock()
		return "", err
	}
	status := e.job.Poll()
	transitioned := status == detection.StatusComplete && e.lastPolledStatus != detection.StatusComplete
	e.lastPolledStatus = status
	e.mu.Unlock()

	if transitioned {
		e.publish(TopicSections)
	}
	return status, nil
}

// GetSectionDetectionProgress returns the most recently reported progress.
func (e *Engine) GetSectionDetectionProgress() (detection.Progress, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.requireReady(); err != nil {
		return detection.Progress{}, err
	}
	return e.job.ProgressSnapshot(), nil
}

// withWriteLock runs fn under the engine's write lock, invalidating the
// spatial index afterward on success when invalidateIdx is set (new or
// removed tracks change viewport answers).
func (e *Engine) withWriteLock(fn func() error, invalidateIdx bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireReady(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	if invalidateIdx {
		e.idx.Invalidate()
	}
	return nil
}
