// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
)

// NewActivity describes one activity to be ingested by AddActivities.
type NewActivity struct {
	ID             string
	SportType      string
	StartDate      int64
	DistanceM      float64
	MovingTimeS    int64
	ElapsedTimeS   int64
	ElevationGainM float64
	AvgHR          *float64
	Name           string
	Track          []geo.Point
}

// AddActivities bulk-inserts (or replaces by id) activities and their GPS
// tracks in a single transaction, per §6.2's add_activities contract.
func (s *Store) AddActivities(ctx context.Context, activities []NewActivity) error {
	for i, a := range activities {
		if err := validateID(fmt.Sprintf("activities[%d].id", i), a.ID); err != nil {
			return err
		}
		valid := geo.FilterValid(a.Track)
		if len(valid) < 2 {
			return errs.Newf(errs.InvalidInput, "activities[%d]: gps track has fewer than 2 valid points", i)
		}
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning add_activities transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, a := range activities {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO activities (id, sport_type, start_date, distance_m, moving_time_s, elapsed_time_s, elevation_gain_m, avg_hr, name)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				sport_type = excluded.sport_type,
				start_date = excluded.start_date,
				distance_m = excluded.distance_m,
				moving_time_s = excluded.moving_time_s,
				elapsed_time_s = excluded.elapsed_time_s,
				elevation_gain_m = excluded.elevation_gain_m,
				avg_hr = excluded.avg_hr,
				name = excluded.name`,
			a.ID, a.SportType, a.StartDate, a.DistanceM, a.MovingTimeS, a.ElapsedTimeS, a.ElevationGainM, a.AvgHR, a.Name,
		); err != nil {
			return errs.Wrap(errs.StorageFailure, fmt.Sprintf("inserting activity %q", a.ID), err)
		}

		valid := geo.FilterValid(a.Track)
		bbox, _ := geo.BoundingBox(valid)
		polyline := geo.EncodePolyline(valid)

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO gps_tracks (activity_id, polyline, point_count, min_lat, max_lat, min_lng, max_lng)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (activity_id) DO UPDATE SET
				polyline = excluded.polyline,
				point_count = excluded.point_count,
				min_lat = excluded.min_lat,
				max_lat = excluded.max_lat,
				min_lng = excluded.min_lng,
				max_lng = excluded.max_lng`,
			a.ID, polyline, len(valid), bbox.MinLat, bbox.MaxLat, bbox.MinLng, bbox.MaxLng,
		); err != nil {
			return errs.Wrap(errs.StorageFailure, fmt.Sprintf("inserting gps_track %q", a.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing add_activities transaction", err)
	}
	return nil
}

// AddActivitiesFlat is the literal §6.2 bulk-ingestion signature: ids, an
// interleaved lat/lng coordinate buffer, strictly-monotonic offsets into it
// (track i spans [offsets[i]*2, offsets[i+1]*2)), and a parallel sport list.
// Numeric metrics fields are left zero-valued; call SetActivityMetrics
// afterward to populate them.
func (s *Store) AddActivitiesFlat(ctx context.Context, ids []string, allCoords []float64, offsets []int, sports []string) error {
	if len(offsets) != len(ids)+1 {
		return errs.Newf(errs.InvalidInput, "offsets length %d must equal ids length+1 (%d)", len(offsets), len(ids)+1)
	}
	if len(ids) != len(sports) {
		return errs.Newf(errs.InvalidInput, "ids length %d must equal sports length %d", len(ids), len(sports))
	}
	if offsets[0] != 0 {
		return errs.New(errs.InvalidInput, "offsets[0] must be 0")
	}
	if offsets[len(offsets)-1] != len(allCoords)/2 {
		return errs.New(errs.InvalidInput, "final offset must equal len(allCoords)/2")
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] <= offsets[i-1] {
			return errs.New(errs.InvalidInput, "offsets must be strictly monotonic")
		}
	}

	activities := make([]NewActivity, len(ids))
	for i := range ids {
		start, end := offsets[i]*2, offsets[i+1]*2
		coords := allCoords[start:end]
		track := make([]geo.Point, len(coords)/2)
		for j := range track {
			track[j] = geo.Point{Lat: coords[j*2], Lng: coords[j*2+1], Elev: math.NaN()}
		}
		activities[i] = NewActivity{ID: ids[i], SportType: sports[i], Track: track}
	}
	return s.AddActivities(ctx, activities)
}

// GetActivityIDs returns every activity id currently stored.
func (s *Store) GetActivityIDs(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id FROM activities`)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying activity ids", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning activity id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetActivityCount returns the total number of stored activities.
func (s *Store) GetActivityCount(ctx context.Context) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM activities`).Scan(&count)
	if err != nil {
		return 0, errs.Wrap(errs.StorageFailure, "counting activities", err)
	}
	return count, nil
}

// GetActivity returns a single activity by id, or errs.NotFound.
func (s *Store) GetActivity(ctx context.Context, id string) (*Activity, error) {
	var a Activity
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, sport_type, start_date, distance_m, moving_time_s, elapsed_time_s, elevation_gain_m, avg_hr, name
		FROM activities WHERE id = ?`, id,
	).Scan(&a.ID, &a.SportType, &a.StartDate, &a.DistanceM, &a.MovingTimeS, &a.ElapsedTimeS, &a.ElevationGainM, &a.AvgHR, &a.Name)
	if err == sql.ErrNoRows {
		return nil, errs.Newf(errs.NotFound, "activity %q not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying activity %q", id), err)
	}
	return &a, nil
}

// TrackBBox is the lightweight projection internal/spatialindex loads to
// build its viewport index without decoding every polyline.
type TrackBBox struct {
	ActivityID string
	BBox       geo.BBox
}

// ListTrackBBoxes returns every stored track's activity id and bounding box.
func (s *Store) ListTrackBBoxes(ctx context.Context) ([]TrackBBox, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT activity_id, min_lat, max_lat, min_lng, max_lng FROM gps_tracks`)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying track bboxes", err)
	}
	defer rows.Close()

	var out []TrackBBox
	for rows.Next() {
		var tb TrackBBox
		if err := rows.Scan(&tb.ActivityID, &tb.BBox.MinLat, &tb.BBox.MaxLat, &tb.BBox.MinLng, &tb.BBox.MaxLng); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning track bbox", err)
		}
		out = append(out, tb)
	}
	return out, rows.Err()
}

// GetGPSTrack decodes and returns an activity's GPS track, or errs.NotFound.
func (s *Store) GetGPSTrack(ctx context.Context, activityID string) (*GpsTrack, error) {
	var polyline string
	var bbox geo.BBox
	err := s.conn.QueryRowContext(ctx, `
		SELECT polyline, min_lat, max_lat, min_lng, max_lng FROM gps_tracks WHERE activity_id = ?`, activityID,
	).Scan(&polyline, &bbox.MinLat, &bbox.MaxLat, &bbox.MinLng, &bbox.MaxLng)
	if err == sql.ErrNoRows {
		return nil, errs.Newf(errs.NotFound, "gps track for activity %q not found", activityID)
	}
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying gps track %q", activityID), err)
	}

	return &GpsTrack{
		ActivityID: activityID,
		Points:     geo.DecodePolyline(polyline),
		BBox:       bbox,
	}, nil
}

// SetTimeStreams idempotently overwrites the time-stream for each given activity.
func (s *Store) SetTimeStreams(ctx context.Context, streams []TimeStream) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning set_time_streams transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, ts := range streams {
		if err := validateID("activity_id", ts.ActivityID); err != nil {
			return err
		}
		blob := encodeTimeStream(ts.Times)
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO time_streams (activity_id, times, sample_count)
			VALUES (?, ?, ?)
			ON CONFLICT (activity_id) DO UPDATE SET times = excluded.times, sample_count = excluded.sample_count`,
			ts.ActivityID, blob, len(ts.Times),
		); err != nil {
			return errs.Wrap(errs.StorageFailure, fmt.Sprintf("upserting time_stream %q", ts.ActivityID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing set_time_streams transaction", err)
	}
	return nil
}

// GetTimeStream returns an activity's time-stream, or nil if absent (not an error - §7 treats absence as a degrade-to-estimate case).
func (s *Store) GetTimeStream(ctx context.Context, activityID string) (*TimeStream, error) {
	var blob []byte
	var count int
	err := s.conn.QueryRowContext(ctx, `SELECT times, sample_count FROM time_streams WHERE activity_id = ?`, activityID).Scan(&blob, &count)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying time_stream %q", activityID), err)
	}
	return &TimeStream{ActivityID: activityID, Times: decodeTimeStream(blob, count)}, nil
}

// GetActivitiesMissingTimeStreams returns every candidate id (from ids) that
// has no stored time-stream, for the external fetcher collaborator (§6.3).
func (s *Store) GetActivitiesMissingTimeStreams(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf(`
		SELECT a.id FROM activities a
		LEFT JOIN time_streams t ON t.activity_id = a.id
		WHERE t.activity_id IS NULL AND a.id IN (%s)`, placeholderList(len(ids)))

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying activities missing time streams", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning missing time stream id", err)
		}
		missing = append(missing, id)
	}
	return missing, rows.Err()
}

// SetActivityMetrics overwrites an activity's metrics row.
func (s *Store) SetActivityMetrics(ctx context.Context, m ActivityMetrics) error {
	if err := validateID("activity_id", m.ActivityID); err != nil {
		return err
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO activity_metrics (activity_id, tss, intensity_factor, normalized_power, ftp_at_time, power_zones_json, hr_zones_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (activity_id) DO UPDATE SET
			tss = excluded.tss,
			intensity_factor = excluded.intensity_factor,
			normalized_power = excluded.normalized_power,
			ftp_at_time = excluded.ftp_at_time,
			power_zones_json = excluded.power_zones_json,
			hr_zones_json = excluded.hr_zones_json,
			updated_at = CURRENT_TIMESTAMP`,
		m.ActivityID, m.TSS, m.IntensityFactor, m.NormalizedPower, m.FTPAtTime, m.PowerZonesJSON, m.HRZonesJSON,
	)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, fmt.Sprintf("upserting activity_metrics %q", m.ActivityID), err)
	}
	return nil
}

// CleanupOldActivities deletes every activity older than retentionDays and
// cascades to its dependent rows, per §4.2. Returns the number deleted.
func (s *Store) CleanupOldActivities(ctx context.Context, nowUnix int64, retentionDays int) (int, error) {
	cutoff := nowUnix - int64(retentionDays)*86400

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, errs.Wrap(errs.StorageFailure, "beginning cleanup transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM activities WHERE start_date < ?`, cutoff)
	if err != nil {
		return 0, errs.Wrap(errs.StorageFailure, "selecting expired activities", err)
	}
	var expired []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, errs.Wrap(errs.StorageFailure, "scanning expired activity id", err)
		}
		expired = append(expired, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, errs.Wrap(errs.StorageFailure, "iterating expired activities", err)
	}
	if len(expired) == 0 {
		return 0, tx.Commit()
	}

	cascadeStatements := []string{
		`DELETE FROM section_activities WHERE activity_id IN (SELECT id FROM activities WHERE start_date < ?)`,
		`DELETE FROM group_activities WHERE activity_id IN (SELECT id FROM activities WHERE start_date < ?)`,
		`DELETE FROM activity_metrics WHERE activity_id IN (SELECT id FROM activities WHERE start_date < ?)`,
		`DELETE FROM time_streams WHERE activity_id IN (SELECT id FROM activities WHERE start_date < ?)`,
		`DELETE FROM gps_tracks WHERE activity_id IN (SELECT id FROM activities WHERE start_date < ?)`,
		`DELETE FROM user_overrides WHERE target IN (SELECT id FROM activities WHERE start_date < ?)`,
		`DELETE FROM activities WHERE start_date < ?`,
	}
	for _, stmt := range cascadeStatements {
		if _, err := tx.ExecContext(ctx, stmt, cutoff); err != nil {
			return 0, errs.Wrap(errs.StorageFailure, "cascading activity cleanup", err)
		}
	}

	// Deleting activities can orphan existing groups/sections (e.g. a group
	// member removed), so cleanup forces re-derivation per §3/§4.2.
	for _, key := range []string{groupsDirtyKey, sectionsDirtyKey} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO config_kv (key, value) VALUES (?, 'true')
			ON CONFLICT (key) DO UPDATE SET value = 'true'`, key,
		); err != nil {
			return 0, errs.Wrap(errs.StorageFailure, fmt.Sprintf("marking %q dirty", key), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errs.Wrap(errs.StorageFailure, "committing cleanup transaction", err)
	}
	return len(expired), nil
}

// ActivitySummary is the convenience read used by dashboards that only need
// headline fields, not the full GPS track.
type ActivitySummary struct {
	ID          string
	SportType   string
	StartDate   int64
	DistanceM   float64
	MovingTimeS int64
	Name        string
}

// GetActivitySummary returns the headline fields for one activity.
func (s *Store) GetActivitySummary(ctx context.Context, id string) (*ActivitySummary, error) {
	var sum ActivitySummary
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, sport_type, start_date, distance_m, moving_time_s, name FROM activities WHERE id = ?`, id,
	).Scan(&sum.ID, &sum.SportType, &sum.StartDate, &sum.DistanceM, &sum.MovingTimeS, &sum.Name)
	if err == sql.ErrNoRows {
		return nil, errs.Newf(errs.NotFound, "activity %q not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying activity summary %q", id), err)
	}
	return &sum, nil
}

// ListRecentActivities returns the most recent activities, newest first.
func (s *Store) ListRecentActivities(ctx context.Context, limit int) ([]ActivitySummary, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, sport_type, start_date, distance_m, moving_time_s, name
		FROM activities ORDER BY start_date DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "listing recent activities", err)
	}
	defer rows.Close()

	var out []ActivitySummary
	for rows.Next() {
		var sum ActivitySummary
		if err := rows.Scan(&sum.ID, &sum.SportType, &sum.StartDate, &sum.DistanceM, &sum.MovingTimeS, &sum.Name); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning recent activity", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func placeholderList(n int) string {
	out := make([]byte, 0, n*2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '?')
	}
	return string(out)
}

// encodeTimeStream packs a cumulative-seconds series as little-endian float32s,
// per §6.1's persistence format.
func encodeTimeStream(times []float32) []byte {
	buf := make([]byte, 4*len(times))
	for i, t := range times {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(t))
	}
	return buf
}

func decodeTimeStream(blob []byte, count int) []float32 {
	out := make([]float32, count)
	for i := 0; i < count && (i+1)*4 <= len(blob); i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}
