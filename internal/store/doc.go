// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package store is the embedded DuckDB-backed persistence layer: activities,
// GPS tracks, time-streams, per-activity metrics, sections, groups, user
// overrides, and a small opaque config key/value table.
//
// Tables mirror the entities of the engine's data model one-to-one. GPS
// tracks and section polylines are persisted as Google-encoded polyline
// strings plus a precomputed bounding box (internal/geo), never as raw
// coordinate arrays. Time-streams persist as little-endian float32 blobs.
//
// Every public mutator opens exactly one transaction, writes, and commits;
// on failure nothing is written. Callers are responsible for cache
// invalidation and dirty-flag bookkeeping at a higher layer
// (internal/engine); this package has no cache awareness of its own.
package store
