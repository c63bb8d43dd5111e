// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package spatialindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomtom215/geotrail/internal/geo"
)

func straightLine(n int, startLat, startLng, stepDeg float64) []geo.Point {
	out := make([]geo.Point, n)
	for i := range out {
		out[i] = geo.Point{Lat: startLat + float64(i)*stepDeg, Lng: startLng}
	}
	return out
}

func TestOverlapRatioIdenticalTrackIsOne(t *testing.T) {
	a := straightLine(50, 47.6, -122.3, 0.0005)
	assert.Equal(t, 1.0, OverlapRatio(a, a, 50))
}

func TestOverlapRatioDisjointTracksIsZero(t *testing.T) {
	a := straightLine(20, 47.6, -122.3, 0.0005)
	b := straightLine(20, -10.0, 30.0, 0.0005)
	assert.Equal(t, 0.0, OverlapRatio(a, b, 50))
}

func TestOverlapRatioPartialOverlap(t *testing.T) {
	a := straightLine(40, 47.6, -122.3, 0.0005)
	// b shares the same path as the first half of a, then diverges sharply.
	b := make([]geo.Point, 0, 40)
	b = append(b, a[:20]...)
	b = append(b, straightLine(20, 48.5, -121.0, 0.0005)...)

	ratio := OverlapRatio(a, b, 20)
	assert.Greater(t, ratio, 0.3)
	assert.Less(t, ratio, 0.8)
}

func TestOverlapRatioEmptyA(t *testing.T) {
	b := straightLine(10, 47.6, -122.3, 0.0005)
	assert.Equal(t, 0.0, OverlapRatio(nil, b, 50))
}
