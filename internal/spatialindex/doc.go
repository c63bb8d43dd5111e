// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package spatialindex answers viewport and overlap queries over GPS tracks.
//
// Index is a bulk-loaded bounding-box index over every stored track,
// rebuilt lazily on first query after a mutation and discarded whenever a
// track is added or removed. When the DuckDB spatial extension is available
// it backs the index with a real `USING RTREE` index over a generated
// geometry column and answers query_viewport in SQL; otherwise it falls back
// to an in-process linear bbox scan.
//
// overlap_ratio, the polyline-overlap primitive detection relies on to
// decide whether two tracks traverse the same ground, never touches the
// database: it builds a coarse in-memory grid over one track's segments and
// walks the other track's points against it.
package spatialindex
