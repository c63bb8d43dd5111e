// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo

import (
	"math"
	"strings"
)

// polylinePrecision is the Google Encoded Polyline Algorithm Format's
// fixed-point precision: 1e5, i.e. 5 decimal digits (~1.1m at the equator).
const polylinePrecision = 1e5

// EncodePolyline encodes points using the Google Encoded Polyline Algorithm
// Format. Elevation is not part of the format and is dropped; it is persisted
// separately when present. §4.2/§6.1.
func EncodePolyline(points []Point) string {
	var sb strings.Builder
	prevLat, prevLng := 0, 0

	for _, p := range points {
		lat := int(math.Round(p.Lat * polylinePrecision))
		lng := int(math.Round(p.Lng * polylinePrecision))

		encodeSignedNumber(&sb, lat-prevLat)
		encodeSignedNumber(&sb, lng-prevLng)

		prevLat, prevLng = lat, lng
	}

	return sb.String()
}

func encodeSignedNumber(sb *strings.Builder, num int) {
	shifted := num << 1
	if num < 0 {
		shifted = ^shifted
	}
	encodeUnsignedNumber(sb, shifted)
}

func encodeUnsignedNumber(sb *strings.Builder, num int) {
	for num >= 0x20 {
		sb.WriteByte(byte((0x20|(num&0x1f))+63) & 0xff)
		num >>= 5
	}
	sb.WriteByte(byte(num+63) & 0xff)
}

// DecodePolyline decodes a Google Encoded Polyline string back into points.
// Decoded points carry no elevation (NaN).
func DecodePolyline(s string) []Point {
	if s == "" {
		return nil
	}

	points := make([]Point, 0, len(s)/4)
	lat, lng := 0, 0
	i := 0

	for i < len(s) {
		var ok bool
		var dLat, dLng int

		dLat, i, ok = decodeSignedNumber(s, i)
		if !ok {
			break
		}
		dLng, i, ok = decodeSignedNumber(s, i)
		if !ok {
			break
		}

		lat += dLat
		lng += dLng

		points = append(points, Point{
			Lat:  float64(lat) / polylinePrecision,
			Lng:  float64(lng) / polylinePrecision,
			Elev: math.NaN(),
		})
	}

	return points
}

func decodeSignedNumber(s string, i int) (value, next int, ok bool) {
	result, next, ok := decodeUnsignedNumber(s, i)
	if !ok {
		return 0, i, false
	}
	if result&1 != 0 {
		return ^(result >> 1), next, true
	}
	return result >> 1, next, true
}

func decodeUnsignedNumber(s string, i int) (result, next int, ok bool) {
	shift := uint(0)
	for i < len(s) {
		b := int(s[i]) - 63
		i++
		result |= (b & 0x1f) << shift
		if b < 0x20 {
			return result, i, true
		}
		shift += 5
	}
	return 0, i, false
}
