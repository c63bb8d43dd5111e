// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/errs"
)

func TestReplaceAutoGroupsAndSetRouteName(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	groups := []Group{{ID: "grp-1", SportType: "run"}, {ID: "grp-2", SportType: "run"}}
	members := map[string][]string{"grp-1": {"act-1", "act-2"}, "grp-2": {"act-3"}}
	require.NoError(t, s.ReplaceAutoGroups(ctx, groups, members))

	ids, err := s.GetGroupActivityIDs(ctx, "grp-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"act-1", "act-2"}, ids)

	require.NoError(t, s.SetRouteName(ctx, "grp-1", "Lakeside Loop"))

	names, err := s.GetAllRouteNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lakeside Loop", names["grp-1"])
}

func TestSetRouteNameConflict(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	groups := []Group{{ID: "grp-1", SportType: "run"}, {ID: "grp-2", SportType: "run"}}
	require.NoError(t, s.ReplaceAutoGroups(ctx, groups, nil))
	require.NoError(t, s.SetRouteName(ctx, "grp-1", "Loop"))

	err := s.SetRouteName(ctx, "grp-2", "Loop")
	require.Error(t, err)
	assert.Equal(t, errs.Conflict, errs.KindOf(err))
}

func TestSetRouteNameGroupNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.SetRouteName(t.Context(), "missing", "x")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
}

func TestReplaceAutoGroupsClearsPreviousSet(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	require.NoError(t, s.ReplaceAutoGroups(ctx, []Group{{ID: "grp-1", SportType: "run"}}, map[string][]string{"grp-1": {"act-1"}}))
	require.NoError(t, s.ReplaceAutoGroups(ctx, []Group{{ID: "grp-2", SportType: "run"}}, map[string][]string{"grp-2": {"act-2"}}))

	_, err := s.GetGroupByID(ctx, "grp-1")
	assert.Equal(t, errs.NotFound, errs.KindOf(err))

	ids, err := s.GetGroupActivityIDs(ctx, "grp-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	summaries, err := s.GetGroupSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "grp-2", summaries[0].ID)
	assert.Equal(t, 1, summaries[0].ActivityCount)
}
