// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package detection implements the engine's section/group detection job: a
// single background pipeline, at most one in flight, that discovers route
// groups and frequent sections across stored activities.
//
// The pipeline runs through seven phases in order: loading, building_rtrees,
// finding_overlaps, clustering, building_sections, postprocessing, complete.
// Each phase's inner loop checks a shared cancel flag at a bounded interval;
// starting a new run supersedes and cancels whatever run preceded it, and no
// partial result from a cancelled run is ever committed to the store.
//
// Job wraps this pipeline as a suture.Service so a panic inside a phase is
// caught by the supervisor tree instead of wedging the engine; poll() and
// progress() give the engine's synchronous callers a non-blocking view of an
// otherwise long-running job.
//
// Progress is persisted through a ProgressStore: "memory" (default) keeps it
// in-process only, "badger" (github.com/dgraph-io/badger/v4) survives a
// process restart mid-run. Phase durations and run outcomes are recorded
// through an optional internal/metrics.Metrics, when the embedder has one.
package detection
