// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo

import "math"

// Point is a single GPS sample. Elevation is optional; a NaN Elev means absent.
type Point struct {
	Lat  float64
	Lng  float64
	Elev float64
}

// HasElev reports whether the point carries a finite elevation sample.
func (p Point) HasElev() bool {
	return !math.IsNaN(p.Elev)
}

// Valid reports whether p's latitude and longitude are finite numbers.
// Elevation is never a validity criterion - it is optional per §3.
func (p Point) Valid() bool {
	return isFinite(p.Lat) && isFinite(p.Lng)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// FilterValid discards points whose lat or lng is non-finite, preserving order.
// This is the "all input points whose lat or lng are non-finite are discarded
// before any downstream use" rule from §4.1.
func FilterValid(points []Point) []Point {
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if p.Valid() {
			out = append(out, p)
		}
	}
	return out
}

// BBox is an axis-aligned bounding box in lat/lng degrees.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// Intersects reports whether two bounding boxes overlap (inclusive of touching edges).
func (b BBox) Intersects(o BBox) bool {
	return b.MinLat <= o.MaxLat && b.MaxLat >= o.MinLat &&
		b.MinLng <= o.MaxLng && b.MaxLng >= o.MinLng
}

// Union returns the smallest bbox containing both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		MinLat: math.Min(b.MinLat, o.MinLat),
		MaxLat: math.Max(b.MaxLat, o.MaxLat),
		MinLng: math.Min(b.MinLng, o.MinLng),
		MaxLng: math.Max(b.MaxLng, o.MaxLng),
	}
}

// BoundingBox computes the bounding box of points, skipping non-finite coordinates.
// Returns false if no valid points remain.
func BoundingBox(points []Point) (BBox, bool) {
	valid := FilterValid(points)
	if len(valid) == 0 {
		return BBox{}, false
	}

	box := BBox{
		MinLat: valid[0].Lat, MaxLat: valid[0].Lat,
		MinLng: valid[0].Lng, MaxLng: valid[0].Lng,
	}
	for _, p := range valid[1:] {
		box.MinLat = math.Min(box.MinLat, p.Lat)
		box.MaxLat = math.Max(box.MaxLat, p.Lat)
		box.MinLng = math.Min(box.MinLng, p.Lng)
		box.MaxLng = math.Max(box.MaxLng, p.Lng)
	}
	return box, true
}
