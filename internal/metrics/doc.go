// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package metrics instruments the engine with Prometheus collectors
// (github.com/prometheus/client_golang): mutation rate, detection phase
// duration and outcome, and cache hit/miss counts, per SPEC_FULL.md's
// domain-stack wiring.
//
// geotrail is an embedded library, not a server, so Metrics owns a private
// prometheus.Registry rather than registering into the global default one;
// Registry() hands that registry to whatever process embeds geotrail, which
// decides whether and how to expose it (an HTTP /metrics handler, a push
// gateway, or nothing at all). When MetricsConfig.Enabled is false every
// recording method is a no-op, so callers never need to branch on whether
// metrics are on.
package metrics
