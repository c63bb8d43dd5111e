// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"fmt"
	"time"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (s *Store) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("executing schema query %q: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries is the one-to-one mapping of §3 entities to tables.
var tableCreationQueries = []string{
	`CREATE TABLE IF NOT EXISTS activities (
		id TEXT PRIMARY KEY,
		sport_type TEXT NOT NULL,
		start_date BIGINT NOT NULL,
		distance_m DOUBLE NOT NULL,
		moving_time_s BIGINT NOT NULL,
		elapsed_time_s BIGINT NOT NULL,
		elevation_gain_m DOUBLE NOT NULL DEFAULT 0,
		avg_hr DOUBLE,
		name TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS gps_tracks (
		activity_id TEXT PRIMARY KEY REFERENCES activities(id),
		polyline TEXT NOT NULL,
		point_count INTEGER NOT NULL,
		min_lat DOUBLE NOT NULL,
		max_lat DOUBLE NOT NULL,
		min_lng DOUBLE NOT NULL,
		max_lng DOUBLE NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS time_streams (
		activity_id TEXT PRIMARY KEY REFERENCES activities(id),
		times BLOB NOT NULL,
		sample_count INTEGER NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS activity_metrics (
		activity_id TEXT PRIMARY KEY REFERENCES activities(id),
		tss DOUBLE,
		intensity_factor DOUBLE,
		normalized_power DOUBLE,
		ftp_at_time DOUBLE,
		power_zones_json TEXT,
		hr_zones_json TEXT,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS sections (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL CHECK (type IN ('auto', 'custom')),
		sport_type TEXT NOT NULL,
		polyline TEXT NOT NULL,
		distance_m DOUBLE NOT NULL,
		visit_count INTEGER NOT NULL DEFAULT 0,
		confidence DOUBLE,
		scale TEXT CHECK (scale IS NULL OR scale IN ('short', 'medium', 'long')),
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS section_activities (
		section_id TEXT NOT NULL REFERENCES sections(id),
		activity_id TEXT NOT NULL REFERENCES activities(id),
		start_index INTEGER NOT NULL,
		end_index INTEGER NOT NULL,
		direction TEXT NOT NULL CHECK (direction IN ('same', 'reverse', 'partial')),
		match_percentage DOUBLE NOT NULL,
		PRIMARY KEY (section_id, activity_id)
	);`,

	`CREATE TABLE IF NOT EXISTS groups (
		id TEXT PRIMARY KEY,
		sport_type TEXT NOT NULL,
		consensus_activity_id TEXT,
		custom_name TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,

	`CREATE TABLE IF NOT EXISTS group_activities (
		group_id TEXT NOT NULL REFERENCES groups(id),
		activity_id TEXT NOT NULL REFERENCES activities(id),
		PRIMARY KEY (group_id, activity_id)
	);`,

	`CREATE TABLE IF NOT EXISTS user_overrides (
		target TEXT PRIMARY KEY,
		custom_name TEXT,
		pinned_medoid_activity_id TEXT,
		disabled BOOLEAN NOT NULL DEFAULT FALSE,
		dismissed BOOLEAN NOT NULL DEFAULT FALSE
	);`,

	`CREATE TABLE IF NOT EXISTS config_kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`,
}

func (s *Store) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_activities_start_date ON activities(start_date);`,
		`CREATE INDEX IF NOT EXISTS idx_activities_sport_type ON activities(sport_type);`,
		`CREATE INDEX IF NOT EXISTS idx_section_activities_section ON section_activities(section_id);`,
		`CREATE INDEX IF NOT EXISTS idx_section_activities_activity ON section_activities(activity_id);`,
		`CREATE INDEX IF NOT EXISTS idx_group_activities_group ON group_activities(group_id);`,
		`CREATE INDEX IF NOT EXISTS idx_group_activities_activity ON group_activities(activity_id);`,
		`CREATE INDEX IF NOT EXISTS idx_gps_tracks_bbox ON gps_tracks(min_lat, max_lat, min_lng, max_lng);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sections_name_sport ON sections(sport_type, name);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_groups_custom_name_sport ON groups(sport_type, custom_name);`,
	}

	for _, query := range indexes {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("executing index query %q: %w", query, err)
		}
	}
	return nil
}
