// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package geo

import "math"

// Simplify reduces points to a simplified polyline using the Douglas-Peucker
// algorithm with a perpendicular-distance tolerance expressed in metres.
//
// Endpoints are always retained. The result always has at least 2 points if
// the input has at least 2 points (per §4.1).
func Simplify(points []Point, toleranceM float64) []Point {
	valid := FilterValid(points)
	if len(valid) < 2 {
		return valid
	}
	if toleranceM <= 0 {
		out := make([]Point, len(valid))
		copy(out, valid)
		return out
	}

	keep := make([]bool, len(valid))
	keep[0] = true
	keep[len(valid)-1] = true
	douglasPeucker(valid, 0, len(valid)-1, toleranceM, keep)

	out := make([]Point, 0, len(valid))
	for i, k := range keep {
		if k {
			out = append(out, valid[i])
		}
	}
	return out
}

// douglasPeucker marks indices to keep between [start, end] inclusive.
func douglasPeucker(points []Point, start, end int, toleranceM float64, keep []bool) {
	if end-start < 2 {
		return
	}

	maxDist := -1.0
	maxIdx := -1
	for i := start + 1; i < end; i++ {
		d := perpendicularDistanceM(points[i], points[start], points[end])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= toleranceM {
		return
	}

	keep[maxIdx] = true
	douglasPeucker(points, start, maxIdx, toleranceM, keep)
	douglasPeucker(points, maxIdx, end, toleranceM, keep)
}

// SignatureTolerance picks a Douglas-Peucker tolerance that drives the
// simplified signature toward O(sqrt(N)) points, per §3's "Derived quantities"
// definition of a track's signature. It grows the tolerance logarithmically
// with the point count since a fixed tolerance under- or over-simplifies
// tracks of very different sizes.
func SignatureTolerance(points []Point) float64 {
	n := len(points)
	if n <= 2 {
		return 0
	}
	// Empirically, 3m of tolerance up to a 64-point baseline, plus 3m per
	// doubling of N beyond it, keeps typical activity tracks (hundreds to tens of thousands
	// of samples) down to a few hundred simplified vertices.
	const baseline = 64.0
	const baseTolerance = 3.0
	ratio := float64(n) / baseline
	if ratio < 1 {
		return baseTolerance
	}
	return baseTolerance * (1 + math.Log2(ratio))
}
