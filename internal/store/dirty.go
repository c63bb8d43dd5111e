// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import "context"

// groupsDirtyKey and sectionsDirtyKey are config_kv rows backing §3's
// "groups_dirty = true and sections_dirty = true force re-derivation"
// invariant. They live in config_kv rather than a dedicated table since they
// are a pair of booleans the engine checks, not queried relationally.
const (
	groupsDirtyKey   = "groups_dirty"
	sectionsDirtyKey = "sections_dirty"
)

// DirtyFlags mirrors get_stats()'s groupsDirty/sectionsDirty fields.
type DirtyFlags struct {
	GroupsDirty   bool
	SectionsDirty bool
}

// GetDirtyFlags reads both dirty flags. An absent row means "not dirty":
// a freshly initialized store has nothing stale to re-derive.
func (s *Store) GetDirtyFlags(ctx context.Context) (DirtyFlags, error) {
	groups, err := s.getDirtyFlag(ctx, groupsDirtyKey)
	if err != nil {
		return DirtyFlags{}, err
	}
	sections, err := s.getDirtyFlag(ctx, sectionsDirtyKey)
	if err != nil {
		return DirtyFlags{}, err
	}
	return DirtyFlags{GroupsDirty: groups, SectionsDirty: sections}, nil
}

func (s *Store) getDirtyFlag(ctx context.Context, key string) (bool, error) {
	value, ok, err := s.GetConfigValue(ctx, key)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

// MarkGroupsDirty sets or clears the groups_dirty flag.
func (s *Store) MarkGroupsDirty(ctx context.Context, dirty bool) error {
	return s.SetConfigValue(ctx, groupsDirtyKey, dirtyValue(dirty))
}

// MarkSectionsDirty sets or clears the sections_dirty flag.
func (s *Store) MarkSectionsDirty(ctx context.Context, dirty bool) error {
	return s.SetConfigValue(ctx, sectionsDirtyKey, dirtyValue(dirty))
}

func dirtyValue(dirty bool) string {
	if dirty {
		return "true"
	}
	return "false"
}
