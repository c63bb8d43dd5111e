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

// GetUserOverride returns a target's override row, or a zero-value override
// (not an error) if none exists — overrides are free-form and optional.
func (s *Store) GetUserOverride(ctx context.Context, target string) (UserOverride, error) {
	var o UserOverride
	o.Target = target
	err := s.conn.QueryRowContext(ctx, `
		SELECT custom_name, pinned_medoid_activity_id, disabled, dismissed
		FROM user_overrides WHERE target = ?`, target,
	).Scan(&o.CustomName, &o.PinnedMedoidActivityID, &o.Disabled, &o.Dismissed)
	if err == sql.ErrNoRows {
		return o, nil
	}
	if err != nil {
		return o, errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying user_override %q", target), err)
	}
	return o, nil
}

// SetSectionReference pins a section's medoid/reference activity.
func (s *Store) SetSectionReference(ctx context.Context, sectionID, activityID string) error {
	return s.upsertOverride(ctx, sectionID, func(o *UserOverride) { o.PinnedMedoidActivityID = &activityID })
}

// ResetSectionReference clears a section's pinned reference activity.
func (s *Store) ResetSectionReference(ctx context.Context, sectionID string) error {
	return s.upsertOverride(ctx, sectionID, func(o *UserOverride) { o.PinnedMedoidActivityID = nil })
}

// GetSectionReference returns the pinned activity id for a section, if any.
func (s *Store) GetSectionReference(ctx context.Context, sectionID string) (*string, error) {
	o, err := s.GetUserOverride(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	return o.PinnedMedoidActivityID, nil
}

// IsSectionReferenceUserDefined reports whether a section's reference activity
// was explicitly pinned by the user rather than chosen automatically.
func (s *Store) IsSectionReferenceUserDefined(ctx context.Context, sectionID string) (bool, error) {
	o, err := s.GetUserOverride(ctx, sectionID)
	if err != nil {
		return false, err
	}
	return o.PinnedMedoidActivityID != nil, nil
}

func (s *Store) upsertOverride(ctx context.Context, target string, mutate func(*UserOverride)) error {
	o, err := s.GetUserOverride(ctx, target)
	if err != nil {
		return err
	}
	mutate(&o)

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO user_overrides (target, custom_name, pinned_medoid_activity_id, disabled, dismissed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (target) DO UPDATE SET
			custom_name = excluded.custom_name,
			pinned_medoid_activity_id = excluded.pinned_medoid_activity_id,
			disabled = excluded.disabled,
			dismissed = excluded.dismissed`,
		o.Target, o.CustomName, o.PinnedMedoidActivityID, o.Disabled, o.Dismissed,
	)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, fmt.Sprintf("upserting user_override %q", target), err)
	}
	return nil
}
