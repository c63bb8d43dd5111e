// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package spatialindex

import (
	"math"

	"github.com/tomtom215/geotrail/internal/geo"
)

// cellSizeDeg buckets segments into ~250m grid cells at mid-latitudes, coarse
// enough to keep per-cell segment counts small without excessive cell churn
// across the threshold distances overlap_ratio is actually called with (tens
// of metres).
const cellSizeDeg = 0.0025

type cellKey struct{ x, y int }

type segment struct {
	a, b geo.Point
}

// segmentGrid is the "R-tree over segments of B" from §4.3: a uniform grid
// keyed by cell so a query point only needs to test segments in its own
// cell and the 8 neighbours, not every segment of B.
type segmentGrid struct {
	cells map[cellKey][]segment
}

func buildSegmentGrid(points []geo.Point) *segmentGrid {
	g := &segmentGrid{cells: make(map[cellKey][]segment)}
	for i := 1; i < len(points); i++ {
		seg := segment{a: points[i-1], b: points[i]}
		for _, k := range cellsForSegment(seg) {
			g.cells[k] = append(g.cells[k], seg)
		}
	}
	return g
}

func cellOf(p geo.Point) cellKey {
	return cellKey{
		x: int(math.Floor(p.Lng / cellSizeDeg)),
		y: int(math.Floor(p.Lat / cellSizeDeg)),
	}
}

// cellsForSegment returns every cell a segment's bounding box touches, so a
// long segment is reachable from each cell it passes through.
func cellsForSegment(seg segment) []cellKey {
	min := cellOf(geo.Point{Lat: math.Min(seg.a.Lat, seg.b.Lat), Lng: math.Min(seg.a.Lng, seg.b.Lng)})
	max := cellOf(geo.Point{Lat: math.Max(seg.a.Lat, seg.b.Lat), Lng: math.Max(seg.a.Lng, seg.b.Lng)})

	var keys []cellKey
	for x := min.x; x <= max.x; x++ {
		for y := min.y; y <= max.y; y++ {
			keys = append(keys, cellKey{x, y})
		}
	}
	return keys
}

// nearestDistanceM returns the shortest distance in metres from p to any
// segment in the 3x3 cell neighbourhood around p, or +Inf if none exist there.
func (g *segmentGrid) nearestDistanceM(p geo.Point) float64 {
	center := cellOf(p)
	best := math.Inf(1)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for _, seg := range g.cells[cellKey{center.x + dx, center.y + dy}] {
				if d := geo.DistanceToSegmentM(p, seg.a, seg.b); d < best {
					best = d
				}
			}
		}
	}
	return best
}

// OverlapRatio computes the fraction of a's points that lie within
// thresholdM of some segment of b, per §4.3's overlap_ratio(A, B, threshold_m).
// Time O(|a| * k) where k is the (small, roughly constant) segment density
// per grid cell; memory O(|b|).
func OverlapRatio(a, b []geo.Point, thresholdM float64) float64 {
	if len(a) == 0 {
		return 0
	}
	grid := buildSegmentGrid(b)

	matched := 0
	for _, p := range a {
		if grid.nearestDistanceM(p) <= thresholdM {
			matched++
		}
	}
	return float64(matched) / float64(len(a))
}
