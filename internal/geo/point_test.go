// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/geo"
)

func TestPointValid(t *testing.T) {
	assert.True(t, geo.Point{Lat: 51.5, Lng: -0.1}.Valid())
	assert.False(t, geo.Point{Lat: math.NaN(), Lng: -0.1}.Valid())
	assert.False(t, geo.Point{Lat: 51.5, Lng: math.Inf(1)}.Valid())
}

func TestPointHasElev(t *testing.T) {
	assert.True(t, geo.Point{Lat: 1, Lng: 1, Elev: 10}.HasElev())
	assert.False(t, geo.Point{Lat: 1, Lng: 1, Elev: math.NaN()}.HasElev())
}

func TestFilterValid(t *testing.T) {
	points := []geo.Point{
		{Lat: 1, Lng: 1},
		{Lat: math.NaN(), Lng: 1},
		{Lat: 2, Lng: 2},
		{Lat: 3, Lng: math.Inf(-1)},
	}
	out := geo.FilterValid(points)
	require.Len(t, out, 2)
	assert.Equal(t, 1.0, out[0].Lat)
	assert.Equal(t, 2.0, out[1].Lat)
}

func TestBoundingBox(t *testing.T) {
	points := []geo.Point{
		{Lat: 1, Lng: 1},
		{Lat: 3, Lng: -2},
		{Lat: -1, Lng: 5},
	}
	box, ok := geo.BoundingBox(points)
	require.True(t, ok)
	assert.Equal(t, geo.BBox{MinLat: -1, MaxLat: 3, MinLng: -2, MaxLng: 5}, box)
}

func TestBoundingBoxEmpty(t *testing.T) {
	_, ok := geo.BoundingBox(nil)
	assert.False(t, ok)

	_, ok = geo.BoundingBox([]geo.Point{{Lat: math.NaN(), Lng: 1}})
	assert.False(t, ok)
}

func TestBBoxIntersects(t *testing.T) {
	a := geo.BBox{MinLat: 0, MaxLat: 10, MinLng: 0, MaxLng: 10}
	b := geo.BBox{MinLat: 5, MaxLat: 15, MinLng: 5, MaxLng: 15}
	c := geo.BBox{MinLat: 20, MaxLat: 30, MinLng: 20, MaxLng: 30}

	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))
	assert.False(t, a.Intersects(c))
}

func TestBBoxUnion(t *testing.T) {
	a := geo.BBox{MinLat: 0, MaxLat: 10, MinLng: 0, MaxLng: 10}
	b := geo.BBox{MinLat: -5, MaxLat: 5, MinLng: 20, MaxLng: 25}

	u := a.Union(b)
	assert.Equal(t, geo.BBox{MinLat: -5, MaxLat: 10, MinLng: 0, MaxLng: 25}, u)
}
