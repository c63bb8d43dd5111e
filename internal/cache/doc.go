// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package cache provides the in-process caches fronting the store: a
// generic TTL-aware LRU[V], used for simplified-signature lookups and
// consensus-polyline lookups. Safe for concurrent use.
package cache
