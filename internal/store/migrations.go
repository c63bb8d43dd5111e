// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Migration support for schema changes after the initial release. Applied
// migrations are tracked in a schema_migrations table so each one runs
// exactly once per database file. The initial schema lives in schema.go;
// this file only carries changes made after it.
package store

import (
	"context"
	"fmt"
)

// migration is a single versioned, append-only schema change.
type migration struct {
	Version     int
	Name        string
	Description string
	SQL         string
}

const migrationsTableDDL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// migrations lists schema changes after the consolidated initial schema.
// Append-only: never modify or remove an entry once a release has shipped
// with a database that may have applied it.
var migrations = []migration{
	// First post-initial-schema migration starts at version 1.
}

func (s *Store) runMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if _, err := s.conn.ExecContext(ctx, migrationsTableDDL); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	applied, err := s.appliedMigrationVersions(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := s.conn.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("applying migration v%d (%s): %w", m.Version, m.Name, err)
		}
		_, err := s.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description) VALUES (?, ?, ?)`,
			m.Version, m.Name, m.Description)
		if err != nil {
			return fmt.Errorf("recording migration v%d: %w", m.Version, err)
		}
	}
	return nil
}

func (s *Store) appliedMigrationVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning migration row: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}
