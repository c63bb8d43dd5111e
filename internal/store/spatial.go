// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"fmt"

	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
)

// EnsureTrackGeometryIndex backs gps_tracks with a DuckDB spatial-extension
// GEOMETRY column and a bulk-loaded RTREE index over it, per §4.3. Every
// statement is idempotent (IF NOT EXISTS, or scoped to untouched rows), so
// callers can call this before every viewport query without rebuilding work
// already done.
func (s *Store) EnsureTrackGeometryIndex(ctx context.Context) error {
	if !s.spatialAvailable {
		return errs.New(errs.Internal, "spatial extension not available")
	}

	statements := []string{
		`ALTER TABLE gps_tracks ADD COLUMN IF NOT EXISTS geom GEOMETRY;`,
		`UPDATE gps_tracks SET geom = ST_MakeEnvelope(min_lng, min_lat, max_lng, max_lat) WHERE geom IS NULL;`,
		`CREATE INDEX IF NOT EXISTS idx_gps_tracks_rtree ON gps_tracks USING RTREE (geom);`,
	}
	for _, stmt := range statements {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return errs.Wrap(errs.StorageFailure, fmt.Sprintf("building track geometry index: %s", stmt), err)
		}
	}
	return nil
}

// QueryViewportSQL returns every activity id whose track geometry intersects
// viewport, using the RTREE index built by EnsureTrackGeometryIndex.
func (s *Store) QueryViewportSQL(ctx context.Context, viewport geo.BBox) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT activity_id FROM gps_tracks
		WHERE ST_Intersects(geom, ST_MakeEnvelope(?, ?, ?, ?))`,
		viewport.MinLng, viewport.MinLat, viewport.MaxLng, viewport.MaxLat,
	)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying viewport", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning viewport match", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
