// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/geotrail/internal/errs"
)

// SectionSummary is the listing-friendly projection of a Section (no junction rows).
type SectionSummary struct {
	ID         string
	Type       string
	SportType  string
	DistanceM  float64
	VisitCount int
	Confidence *float64
	Scale      *string
	Name       string
}

// CreateSection inserts a user-authored custom section. name uniqueness is
// scoped per sport_type, per §8 scenario 7; a duplicate yields errs.Conflict.
func (s *Store) CreateSection(ctx context.Context, sec Section) error {
	if err := validateID("section.id", sec.ID); err != nil {
		return err
	}
	if err := validateName("section.name", sec.Name); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning create_section transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.checkSectionNameAvailable(ctx, tx, sec.SportType, sec.Name, ""); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sections (id, type, sport_type, polyline, distance_m, visit_count, confidence, scale, name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sec.ID, sec.Type, sec.SportType, sec.Polyline, sec.DistanceM, sec.VisitCount, sec.Confidence, sec.Scale, sec.Name,
	)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, fmt.Sprintf("inserting section %q", sec.ID), err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing create_section transaction", err)
	}
	return nil
}

// AddSectionActivity inserts one traversal trace linking an activity to a
// section, for custom sections created directly from an activity's track
// (create_section_from_indices) rather than through detection's bulk commit.
func (s *Store) AddSectionActivity(ctx context.Context, trace SectionActivity) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO section_activities (section_id, activity_id, start_index, end_index, direction, match_percentage)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (section_id, activity_id) DO UPDATE SET
			start_index = excluded.start_index,
			end_index = excluded.end_index,
			direction = excluded.direction,
			match_percentage = excluded.match_percentage`,
		trace.SectionID, trace.ActivityID, trace.StartIndex, trace.EndIndex, trace.Direction, trace.MatchPercentage,
	)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, fmt.Sprintf("inserting section_activity %q/%q", trace.SectionID, trace.ActivityID), err)
	}
	return nil
}

// ReplaceAutoSections atomically drops every auto-detected section (and its
// junction rows) and inserts the freshly-detected set, per §4.4 step 6's
// "build_sections" commit. Custom sections are untouched.
func (s *Store) ReplaceAutoSections(ctx context.Context, sections []Section, traces map[string][]SectionActivity) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning replace_auto_sections transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM section_activities WHERE section_id IN (SELECT id FROM sections WHERE type = 'auto')`); err != nil {
		return errs.Wrap(errs.StorageFailure, "clearing auto section_activities", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE type = 'auto'`); err != nil {
		return errs.Wrap(errs.StorageFailure, "clearing auto sections", err)
	}

	for _, sec := range sections {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sections (id, type, sport_type, polyline, distance_m, visit_count, confidence, scale, name)
			VALUES (?, 'auto', ?, ?, ?, ?, ?, ?, ?)`,
			sec.ID, sec.SportType, sec.Polyline, sec.DistanceM, sec.VisitCount, sec.Confidence, sec.Scale, sec.Name,
		)
		if err != nil {
			return errs.Wrap(errs.StorageFailure, fmt.Sprintf("inserting auto section %q", sec.ID), err)
		}

		for _, trace := range traces[sec.ID] {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO section_activities (section_id, activity_id, start_index, end_index, direction, match_percentage)
				VALUES (?, ?, ?, ?, ?, ?)`,
				trace.SectionID, trace.ActivityID, trace.StartIndex, trace.EndIndex, trace.Direction, trace.MatchPercentage,
			)
			if err != nil {
				return errs.Wrap(errs.StorageFailure, fmt.Sprintf("inserting section_activity %q/%q", trace.SectionID, trace.ActivityID), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing replace_auto_sections transaction", err)
	}
	return nil
}

// DeleteSection removes a section and its junction rows.
func (s *Store) DeleteSection(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning delete_section transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM section_activities WHERE section_id = ?`, id); err != nil {
		return errs.Wrap(errs.StorageFailure, "deleting section_activities", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sections WHERE id = ?`, id)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "deleting section", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.Newf(errs.NotFound, "section %q not found", id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_overrides WHERE target = ?`, id); err != nil {
		return errs.Wrap(errs.StorageFailure, "deleting section override", err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing delete_section transaction", err)
	}
	return nil
}

// SetSectionName renames a section, enforcing uniqueness per sport, per §8 scenario 7.
func (s *Store) SetSectionName(ctx context.Context, id, name string) error {
	if err := validateName("name", name); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning set_section_name transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sportType string
	if err := tx.QueryRowContext(ctx, `SELECT sport_type FROM sections WHERE id = ?`, id).Scan(&sportType); err != nil {
		if err == sql.ErrNoRows {
			return errs.Newf(errs.NotFound, "section %q not found", id)
		}
		return errs.Wrap(errs.StorageFailure, "looking up section sport_type", err)
	}

	if err := s.checkSectionNameAvailable(ctx, tx, sportType, name, id); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `UPDATE sections SET name = ? WHERE id = ?`, name, id); err != nil {
		return errs.Wrap(errs.StorageFailure, "renaming section", err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing set_section_name transaction", err)
	}
	return nil
}

func (s *Store) checkSectionNameAvailable(ctx context.Context, tx *sql.Tx, sportType, name, excludeID string) error {
	var existingID string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM sections WHERE sport_type = ? AND name = ? AND id != ?`, sportType, name, excludeID,
	).Scan(&existingID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "checking section name uniqueness", err)
	}
	return errs.Newf(errs.Conflict, "section name %q already used in sport %q", name, sportType)
}

// GetSectionByID returns a full section row, or errs.NotFound.
func (s *Store) GetSectionByID(ctx context.Context, id string) (*Section, error) {
	var sec Section
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, type, sport_type, polyline, distance_m, visit_count, confidence, scale, name
		FROM sections WHERE id = ?`, id,
	).Scan(&sec.ID, &sec.Type, &sec.SportType, &sec.Polyline, &sec.DistanceM, &sec.VisitCount, &sec.Confidence, &sec.Scale, &sec.Name)
	if err == sql.ErrNoRows {
		return nil, errs.Newf(errs.NotFound, "section %q not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying section %q", id), err)
	}
	return &sec, nil
}

// GetSectionPolyline returns just the polyline string for a section.
func (s *Store) GetSectionPolyline(ctx context.Context, id string) (string, error) {
	var polyline string
	err := s.conn.QueryRowContext(ctx, `SELECT polyline FROM sections WHERE id = ?`, id).Scan(&polyline)
	if err == sql.ErrNoRows {
		return "", errs.Newf(errs.NotFound, "section %q not found", id)
	}
	if err != nil {
		return "", errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying section polyline %q", id), err)
	}
	return polyline, nil
}

// GetSectionSummaries returns every section, ordered by visit_count desc.
func (s *Store) GetSectionSummaries(ctx context.Context) ([]SectionSummary, error) {
	return s.querySectionSummaries(ctx, `
		SELECT id, type, sport_type, distance_m, visit_count, confidence, scale, name
		FROM sections ORDER BY visit_count DESC`)
}

// GetSectionSummariesForSport filters section summaries to one sport_type.
func (s *Store) GetSectionSummariesForSport(ctx context.Context, sport string) ([]SectionSummary, error) {
	return s.querySectionSummaries(ctx, `
		SELECT id, type, sport_type, distance_m, visit_count, confidence, scale, name
		FROM sections WHERE sport_type = ? ORDER BY visit_count DESC`, sport)
}

func (s *Store) querySectionSummaries(ctx context.Context, query string, args ...any) ([]SectionSummary, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying section summaries", err)
	}
	defer rows.Close()

	var out []SectionSummary
	for rows.Next() {
		var sum SectionSummary
		if err := rows.Scan(&sum.ID, &sum.Type, &sum.SportType, &sum.DistanceM, &sum.VisitCount, &sum.Confidence, &sum.Scale, &sum.Name); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning section summary", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetSectionsForActivity returns every section_activities row for one activity,
// an O(1) junction lookup per §6.2.
func (s *Store) GetSectionsForActivity(ctx context.Context, activityID string) ([]SectionActivity, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT section_id, activity_id, start_index, end_index, direction, match_percentage
		FROM section_activities WHERE activity_id = ?`, activityID)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying sections for activity", err)
	}
	defer rows.Close()

	var out []SectionActivity
	for rows.Next() {
		var sa SectionActivity
		if err := rows.Scan(&sa.SectionID, &sa.ActivityID, &sa.StartIndex, &sa.EndIndex, &sa.Direction, &sa.MatchPercentage); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning section_activity", err)
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}

// GetActivitiesForSection returns every section_activities row for one section.
func (s *Store) GetActivitiesForSection(ctx context.Context, sectionID string) ([]SectionActivity, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT section_id, activity_id, start_index, end_index, direction, match_percentage
		FROM section_activities WHERE section_id = ?`, sectionID)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying activities for section", err)
	}
	defer rows.Close()

	var out []SectionActivity
	for rows.Next() {
		var sa SectionActivity
		if err := rows.Scan(&sa.SectionID, &sa.ActivityID, &sa.StartIndex, &sa.EndIndex, &sa.Direction, &sa.MatchPercentage); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning section_activity", err)
		}
		out = append(out, sa)
	}
	return out, rows.Err()
}
