// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package performance computes per-section and per-route traversal
// performance: elapsed time, pace, and personal-record ranking, per §4.5.
//
// The store models at most one traversal per (section, activity) pair
// (section_activities' primary key), so Engine treats that row as the
// activity's lap rather than extracting multiple laps per track.
//
// A traversal's elapsed time comes from the activity's TimeStream when one
// is stored; otherwise Engine estimates it from the traversal's share of the
// activity's total distance and moving time, and marks the result estimated.
// An optional external time-stream backfill collaborator (§6.3) can be
// wired in via WithBackfill to fetch a missing stream on demand; it runs
// behind a github.com/sony/gobreaker/v2 circuit breaker so a flaky fetcher
// degrades to the estimate path instead of wedging computation.
package performance
