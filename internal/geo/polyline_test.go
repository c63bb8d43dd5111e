// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/geo"
)

func TestEncodeDecodePolylineKnownVector(t *testing.T) {
	// The canonical example from Google's Encoded Polyline Algorithm Format spec.
	points := []geo.Point{
		{Lat: 38.5, Lng: -120.2},
		{Lat: 40.7, Lng: -120.95},
		{Lat: 43.252, Lng: -126.453},
	}
	const want = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"
	assert.Equal(t, want, geo.EncodePolyline(points))
}

func TestDecodePolylineKnownVector(t *testing.T) {
	const encoded = "_p~iF~ps|U_ulLnnqC_mqNvxq`@"
	out := geo.DecodePolyline(encoded)
	require.Len(t, out, 3)
	assert.InDelta(t, 38.5, out[0].Lat, 1e-5)
	assert.InDelta(t, -120.2, out[0].Lng, 1e-5)
	assert.InDelta(t, 43.252, out[2].Lat, 1e-5)
	assert.InDelta(t, -126.453, out[2].Lng, 1e-5)
}

func TestPolylineCodecIdempotence(t *testing.T) {
	points := []geo.Point{
		{Lat: 51.50735, Lng: -0.12776},
		{Lat: 51.50800, Lng: -0.12900},
		{Lat: 51.51200, Lng: -0.13500},
		{Lat: 48.85661, Lng: 2.35222},
		{Lat: -33.85678, Lng: 151.21522},
	}

	encoded := geo.EncodePolyline(points)
	decoded := geo.DecodePolyline(encoded)

	require.Len(t, decoded, len(points))
	for i := range points {
		assert.InDelta(t, points[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, points[i].Lng, decoded[i].Lng, 1e-5)
	}
}

func TestDecodeEmptyPolyline(t *testing.T) {
	assert.Nil(t, geo.DecodePolyline(""))
}

func TestEncodeEmptyPoints(t *testing.T) {
	assert.Equal(t, "", geo.EncodePolyline(nil))
}
