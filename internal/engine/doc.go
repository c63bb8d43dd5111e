// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package engine is the process-wide facade described in §4.7: the single
// entry point every other package in this module is reached through.
//
// It is a state machine (Uninitialized -> Ready via Init, Ready -> Ready via
// Clear, Ready -> Uninitialized via Teardown), wired over a *store.Store, a
// *spatialindex.Index, a *detection.Job supervised by a *supervisor.Tree, the
// internal/cache LRUs, internal/metrics, internal/performance and
// internal/aggregate. One write-mutex (Engine.mu) serializes mutating calls
// against store updates and cache invalidation; reads take a shared lock.
//
// A topic/callback pub/sub (Subscribe) fans out post-commit notifications on
// four fixed topics: activities, groups, sections, syncReset. The exact
// mutator-to-topic table is in §4.7 and is reproduced, unchanged, in the
// publish calls of mutations.go (and of Clear in engine.go).
package engine
