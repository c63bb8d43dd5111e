// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package geo provides the coordinate-level primitives shared by every other
// package in geotrail: distance, bounding boxes, polyline simplification, and
// the Google Encoded Polyline codec used for on-disk storage.
//
// Nothing in this package touches the database or holds any state; every
// function is a pure transform over []Point.
package geo
