// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package aggregate implements the engine's pure relational rollups over
// activity_metrics, per §4.6: period totals, monthly roll-ups, a calendar
// heatmap, power/HR zone histograms, and FTP trend.
//
// Every query here is read-only and has no notion of cache invalidation of
// its own; callers re-run it whenever they need fresh numbers, per the
// cache-transparency property in §8.
package aggregate
