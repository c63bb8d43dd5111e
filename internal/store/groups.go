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

// GroupSummary is the listing-friendly projection of a Group.
type GroupSummary struct {
	ID            string
	SportType     string
	CustomName    *string
	ActivityCount int
}

// ReplaceAutoGroups atomically drops every group and its junction rows and
// inserts the freshly-clustered set, per §4.4 step 4's group commit.
// Route names set by SetRouteName live on the group row itself
// (groups.custom_name), so each inserted group carries only the CustomName
// the caller passes in; user_overrides is not read here.
func (s *Store) ReplaceAutoGroups(ctx context.Context, groups []Group, members map[string][]string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning replace_auto_groups transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM group_activities`); err != nil {
		return errs.Wrap(errs.StorageFailure, "clearing group_activities", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM groups`); err != nil {
		return errs.Wrap(errs.StorageFailure, "clearing groups", err)
	}

	for _, g := range groups {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO groups (id, sport_type, consensus_activity_id, custom_name)
			VALUES (?, ?, ?, ?)`,
			g.ID, g.SportType, g.ConsensusActivityID, g.CustomName,
		)
		if err != nil {
			return errs.Wrap(errs.StorageFailure, fmt.Sprintf("inserting group %q", g.ID), err)
		}
		for _, activityID := range members[g.ID] {
			if _, err := tx.ExecContext(ctx, `INSERT INTO group_activities (group_id, activity_id) VALUES (?, ?)`, g.ID, activityID); err != nil {
				return errs.Wrap(errs.StorageFailure, fmt.Sprintf("inserting group_activity %q/%q", g.ID, activityID), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing replace_auto_groups transaction", err)
	}
	return nil
}

// SetRouteName sets a group's custom name, enforcing per-sport uniqueness per §8 scenario 7.
func (s *Store) SetRouteName(ctx context.Context, id, name string) error {
	if err := validateName("name", name); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "beginning set_route_name transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var sportType string
	if err := tx.QueryRowContext(ctx, `SELECT sport_type FROM groups WHERE id = ?`, id).Scan(&sportType); err != nil {
		if err == sql.ErrNoRows {
			return errs.Newf(errs.NotFound, "group %q not found", id)
		}
		return errs.Wrap(errs.StorageFailure, "looking up group sport_type", err)
	}

	var existingID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM groups WHERE sport_type = ? AND custom_name = ? AND id != ?`, sportType, name, id).Scan(&existingID)
	if err == nil {
		return errs.Newf(errs.Conflict, "route name %q already used in sport %q", name, sportType)
	}
	if err != sql.ErrNoRows {
		return errs.Wrap(errs.StorageFailure, "checking route name uniqueness", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE groups SET custom_name = ? WHERE id = ?`, name, id); err != nil {
		return errs.Wrap(errs.StorageFailure, "renaming group", err)
	}

	if err := tx.Commit(); err != nil {
		return errs.Wrap(errs.StorageFailure, "committing set_route_name transaction", err)
	}
	return nil
}

// GetGroupByID returns a group's core row, or errs.NotFound.
func (s *Store) GetGroupByID(ctx context.Context, id string) (*Group, error) {
	var g Group
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, sport_type, consensus_activity_id, custom_name FROM groups WHERE id = ?`, id,
	).Scan(&g.ID, &g.SportType, &g.ConsensusActivityID, &g.CustomName)
	if err == sql.ErrNoRows {
		return nil, errs.Newf(errs.NotFound, "group %q not found", id)
	}
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying group %q", id), err)
	}
	return &g, nil
}

// GetGroupSummaries returns every group with its member count.
func (s *Store) GetGroupSummaries(ctx context.Context) ([]GroupSummary, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT g.id, g.sport_type, g.custom_name, COUNT(ga.activity_id)
		FROM groups g LEFT JOIN group_activities ga ON ga.group_id = g.id
		GROUP BY g.id, g.sport_type, g.custom_name`)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying group summaries", err)
	}
	defer rows.Close()

	var out []GroupSummary
	for rows.Next() {
		var sum GroupSummary
		if err := rows.Scan(&sum.ID, &sum.SportType, &sum.CustomName, &sum.ActivityCount); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning group summary", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetGroupActivityIDs returns every activity id belonging to a group.
func (s *Store) GetGroupActivityIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT activity_id FROM group_activities WHERE group_id = ?`, groupID)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying group activities", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning group activity id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetAllRouteNames returns every (group id, custom name) pair where a custom name is set.
func (s *Store) GetAllRouteNames(ctx context.Context) (map[string]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, custom_name FROM groups WHERE custom_name IS NOT NULL`)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying route names", err)
	}
	defer rows.Close()

	names := make(map[string]string)
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning route name", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}
