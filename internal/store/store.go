// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/logging"
)

// Store wraps a DuckDB connection and exposes the engine's persistence operations.
type Store struct {
	conn *sql.DB
	cfg  config.StoreConfig

	spatialAvailable bool
}

// Open creates (or reopens) the database at cfg.Path, running schema creation
// and pending migrations. An in-memory database is used when cfg.Path is
// ":memory:" or empty, primarily for tests.
func Open(cfg config.StoreConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	if path != ":memory:" {
		dbDir := filepath.Dir(path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, errs.Wrap(errs.StorageFailure, fmt.Sprintf("creating database directory %s", dbDir), err)
			}
		}
	}

	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "2GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		path, numThreads, maxMemory, preserveOrder)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "opening duckdb connection", err)
	}

	s := &Store{conn: conn, cfg: cfg, spatialAvailable: true}

	conn.SetMaxOpenConns(max(4, runtime.NumCPU()))
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	if err := s.initialize(); err != nil {
		closeQuietly(conn)
		return nil, err
	}

	return s, nil
}

func (s *Store) initialize() error {
	if err := s.installExtensions(); err != nil {
		logging.Warn().Err(err).Msg("spatial extension unavailable, falling back to non-indexed bbox queries")
		s.spatialAvailable = false
	}

	if err := s.createTables(); err != nil {
		return err
	}

	if err := s.runMigrations(); err != nil {
		return err
	}

	if !s.cfg.SkipIndexes {
		if err := s.createIndexes(); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) installExtensions() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.conn.ExecContext(ctx, "INSTALL spatial; LOAD spatial;"); err != nil {
		return fmt.Errorf("loading spatial extension: %w", err)
	}
	return nil
}

// IsSpatialAvailable reports whether the DuckDB spatial extension loaded
// successfully. When false, internal/spatialindex falls back to a linear
// bbox scan instead of an RTREE index.
func (s *Store) IsSpatialAvailable() bool {
	return s.spatialAvailable
}

// Conn exposes the underlying connection pool for packages (internal/spatialindex)
// that need to run queries this package does not wrap directly.
func (s *Store) Conn() *sql.DB {
	return s.conn
}

// Ping verifies the connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	if s.conn == nil {
		return errs.New(errs.Internal, "store not opened")
	}
	return s.conn.PingContext(ctx)
}

// Close flushes and closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.conn.ExecContext(ctx, "CHECKPOINT;"); err != nil {
		logging.Warn().Err(err).Msg("checkpoint before close failed")
	}
	return s.conn.Close()
}

func closeQuietly(c interface{ Close() error }) {
	if c != nil {
		_ = c.Close()
	}
}
