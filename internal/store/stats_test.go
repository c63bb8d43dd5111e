// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCountsAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.AddActivities(ctx, []NewActivity{
		{ID: "a", SportType: "run", StartDate: 100, Track: sampleTrack()},
		{ID: "b", SportType: "run", StartDate: 200, Track: sampleTrack()},
	}))
	require.NoError(t, s.CreateSection(ctx, Section{ID: "sec-1", Type: "custom", SportType: "run", Name: "X"}))
	require.NoError(t, s.ReplaceAutoGroups(ctx, []Group{{ID: "grp-1", SportType: "run"}}, nil))

	counts, err := s.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.ActivityCount)
	assert.Equal(t, 2, counts.GpsTrackCount)
	assert.Equal(t, 1, counts.SectionCount)
	assert.Equal(t, 1, counts.GroupCount)
	require.NotNil(t, counts.OldestDate)
	require.NotNil(t, counts.NewestDate)
	assert.Equal(t, int64(100), *counts.OldestDate)
	assert.Equal(t, int64(200), *counts.NewestDate)

	require.NoError(t, s.Clear(ctx))

	counts, err = s.GetCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.ActivityCount)
	assert.Equal(t, 0, counts.SectionCount)
	assert.Equal(t, 0, counts.GroupCount)
	assert.Nil(t, counts.OldestDate)
}
