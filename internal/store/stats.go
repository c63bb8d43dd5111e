// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"

	"github.com/tomtom215/geotrail/internal/errs"
)

// Counts is the storage-level component of get_stats() (§6.2); the engine
// facade composes it with cache sizes and dirty flags it alone tracks.
type Counts struct {
	ActivityCount int
	GpsTrackCount int
	GroupCount    int
	SectionCount  int
	OldestDate    *int64
	NewestDate    *int64
}

// GetCounts returns the storage-level counts feeding get_stats().
func (s *Store) GetCounts(ctx context.Context) (Counts, error) {
	var c Counts
	row := s.conn.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM activities),
			(SELECT COUNT(*) FROM gps_tracks),
			(SELECT COUNT(*) FROM groups),
			(SELECT COUNT(*) FROM sections),
			(SELECT MIN(start_date) FROM activities),
			(SELECT MAX(start_date) FROM activities)
	`)
	var oldest, newest sql.NullInt64
	if err := row.Scan(&c.ActivityCount, &c.GpsTrackCount, &c.GroupCount, &c.SectionCount, &oldest, &newest); err != nil {
		return c, errs.Wrap(errs.StorageFailure, "querying store counts", err)
	}
	if oldest.Valid {
		c.OldestDate = &oldest.Int64
	}
	if newest.Valid {
		c.NewestDate = &newest.Int64
	}
	return c, nil
}

// Clear removes every row from every data table, config_kv included, for the
// engine's clear() operation; schema_migrations is kept.
func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning clear transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	tables := []string{
		"section_activities", "group_activities", "user_overrides",
		"activity_metrics", "time_streams", "gps_tracks",
		"sections", "groups", "activities", "config_kv",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errs.Wrap(errs.StorageFailure, "clearing table "+table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing clear transaction", err)
	}
	return nil
}
