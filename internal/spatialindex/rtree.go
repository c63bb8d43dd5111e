// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package spatialindex

import (
	"context"
	"sync"

	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
	"github.com/tomtom215/geotrail/internal/store"
)

// BBoxStore is the subset of *store.Store the index needs, kept narrow so
// tests can fake it without standing up a DuckDB instance.
type BBoxStore interface {
	ListTrackBBoxes(ctx context.Context) ([]store.TrackBBox, error)
	IsSpatialAvailable() bool
	EnsureTrackGeometryIndex(ctx context.Context) error
	QueryViewportSQL(ctx context.Context, viewport geo.BBox) ([]string, error)
}

// Index answers query_viewport over every stored track's bounding box, per
// §4.3. It is bulk-loaded on first query after a mutation and discarded by
// Invalidate whenever a track is added or removed.
type Index struct {
	s BBoxStore

	mu      sync.RWMutex
	entries []store.TrackBBox
	loaded  bool
}

// New wraps a store for viewport queries.
func New(s BBoxStore) *Index {
	return &Index{s: s}
}

// Invalidate discards the loaded index. The next Query rebuilds it from
// scratch, per §4.3's "discarded when any track is added or removed" rule.
func (idx *Index) Invalidate() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.loaded = false
	idx.entries = nil
}

// Query returns every activity id whose bbox intersects viewport. Coarse
// filter only; callers refine with exact geometry if needed.
func (idx *Index) Query(ctx context.Context, viewport geo.BBox) ([]string, error) {
	if idx.s.IsSpatialAvailable() {
		if err := idx.s.EnsureTrackGeometryIndex(ctx); err == nil {
			return idx.s.QueryViewportSQL(ctx, viewport)
		}
		// Fall through to the linear scan if the RTREE path errors at query time.
	}

	if err := idx.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var matches []string
	for _, e := range idx.entries {
		if e.BBox.Intersects(viewport) {
			matches = append(matches, e.ActivityID)
		}
	}
	return matches, nil
}

func (idx *Index) ensureLoaded(ctx context.Context) error {
	idx.mu.RLock()
	loaded := idx.loaded
	idx.mu.RUnlock()
	if loaded {
		return nil
	}

	entries, err := idx.s.ListTrackBBoxes(ctx)
	if err != nil {
		return errs.Wrap(errs.StorageFailure, "loading track bboxes for spatial index", err)
	}

	idx.mu.Lock()
	idx.entries = entries
	idx.loaded = true
	idx.mu.Unlock()
	return nil
}
