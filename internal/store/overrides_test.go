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

func TestUserOverrideAbsentIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	o, err := s.GetUserOverride(t.Context(), "sec-1")
	require.NoError(t, err)
	assert.Equal(t, "sec-1", o.Target)
	assert.Nil(t, o.PinnedMedoidActivityID)
}

func TestSectionReferencePinAndReset(t *testing.T) {
	s := newTestStore(t)
	ctx := t.Context()

	userDefined, err := s.IsSectionReferenceUserDefined(ctx, "sec-1")
	require.NoError(t, err)
	assert.False(t, userDefined)

	require.NoError(t, s.SetSectionReference(ctx, "sec-1", "act-1"))

	ref, err := s.GetSectionReference(ctx, "sec-1")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, "act-1", *ref)

	userDefined, err = s.IsSectionReferenceUserDefined(ctx, "sec-1")
	require.NoError(t, err)
	assert.True(t, userDefined)

	require.NoError(t, s.ResetSectionReference(ctx, "sec-1"))
	ref, err = s.GetSectionReference(ctx, "sec-1")
	require.NoError(t, err)
	assert.Nil(t, ref)
}
