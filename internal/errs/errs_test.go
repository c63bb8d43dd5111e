// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/geotrail/internal/errs"
)

func TestNew(t *testing.T) {
	err := errs.New(errs.NotFound, "activity a1 not found")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.KindOf(err))
	assert.Contains(t, err.Error(), "not_found")
	assert.Contains(t, err.Error(), "activity a1 not found")
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := errs.Wrap(errs.StorageFailure, "writing gps_tracks", cause)

	assert.True(t, errors.Is(err, cause))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestIsMatchesOnKindOnly(t *testing.T) {
	a := errs.New(errs.Conflict, "duplicate route name")
	b := errs.New(errs.Conflict, "duplicate section name")

	assert.True(t, errs.Is(a, errs.Conflict))
	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, errs.New(errs.NotFound, "x")))
}

func TestKindOfNonTaxonomyError(t *testing.T) {
	assert.Equal(t, errs.Unknown, errs.KindOf(errors.New("plain error")))
	assert.Equal(t, errs.Unknown, errs.KindOf(nil))
}

func TestNewf(t *testing.T) {
	err := errs.Newf(errs.InvalidInput, "id %q exceeds %d characters", "abc", 255)
	assert.Equal(t, errs.InvalidInput, errs.KindOf(err))
	assert.Equal(t, fmt.Sprintf("invalid_input: id %q exceeds %d characters", "abc", 255), err.Error())
}

func TestKindString(t *testing.T) {
	cases := map[errs.Kind]string{
		errs.NotInitialized:                   "not_initialized",
		errs.AlreadyInitializedDifferentPath:   "already_initialized_different_path",
		errs.InvalidInput:                      "invalid_input",
		errs.NotFound:                          "not_found",
		errs.Conflict:                          "conflict",
		errs.StorageFailure:                    "storage_failure",
		errs.Cancelled:                         "cancelled",
		errs.Internal:                          "internal",
		errs.Kind(999):                         "unknown",
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.String())
	}
}
