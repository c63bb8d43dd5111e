// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/cache"
)

func TestLRUAddGet(t *testing.T) {
	c := cache.NewLRU[string](2, time.Hour)
	c.Add("a", "1")
	c.Add("b", "2")

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := cache.NewLRU[int](2, time.Hour)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a") // touch a, making b the LRU
	c.Add("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)

	_, ok = c.Get("a")
	assert.True(t, ok)

	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUExpires(t *testing.T) {
	c := cache.NewLRU[int](10, time.Millisecond)
	c.Add("a", 1)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRURemoveAndClear(t *testing.T) {
	c := cache.NewLRU[int](10, time.Hour)
	c.Add("a", 1)
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))

	c.Add("b", 2)
	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestLRUHitRate(t *testing.T) {
	c := cache.NewLRU[int](10, time.Hour)
	assert.Equal(t, 0.0, c.HitRate())

	c.Add("a", 1)
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, size)
	assert.Equal(t, 50.0, c.HitRate())
}
