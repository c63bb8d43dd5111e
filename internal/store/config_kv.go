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

// SchemaVersionKey is the config_kv row tracking the schema version, per §6.1.
const SchemaVersionKey = "schema_version"

// GetConfigValue returns an opaque config_kv value. Per §9, these are
// external-provider-owned JSON blobs (athlete profile, sport settings,
// translation words) that the store never parses, only persists.
func (s *Store) GetConfigValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM config_kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errs.Wrap(errs.StorageFailure, fmt.Sprintf("querying config_kv %q", key), err)
	}
	return value, true, nil
}

// SetConfigValue upserts an opaque config_kv value.
func (s *Store) SetConfigValue(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO config_kv (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, fmt.Sprintf("upserting config_kv %q", key), err)
	}
	return nil
}
