// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomtom215/geotrail/internal/geo"
)

func TestDistanceMZero(t *testing.T) {
	p := geo.Point{Lat: 51.5, Lng: -0.1}
	assert.InDelta(t, 0, geo.DistanceM(p, p), 1e-9)
}

func TestDistanceMKnownPair(t *testing.T) {
	// London City Airport to Paris Charles de Gaulle, roughly 329 km.
	london := geo.Point{Lat: 51.5053, Lng: 0.0553}
	paris := geo.Point{Lat: 49.0097, Lng: 2.5479}

	d := geo.DistanceM(london, paris)
	assert.InDelta(t, 329_000, d, 5_000)
}

func TestPathDistanceM(t *testing.T) {
	points := []geo.Point{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 1},
		{Lat: 0, Lng: 2},
	}
	leg := geo.DistanceM(points[0], points[1])
	assert.InDelta(t, 2*leg, geo.PathDistanceM(points), 1e-6)
}

func TestPathDistanceMSinglePoint(t *testing.T) {
	assert.Equal(t, 0.0, geo.PathDistanceM([]geo.Point{{Lat: 1, Lng: 1}}))
}
