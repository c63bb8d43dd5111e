// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import "github.com/tomtom215/geotrail/internal/geo"

// Activity is the stored representation of one recorded outing, per §3.
type Activity struct {
	ID              string
	SportType       string
	StartDate       int64 // unix seconds
	DistanceM       float64
	MovingTimeS     int64
	ElapsedTimeS    int64
	ElevationGainM  float64
	AvgHR           *float64
	Name            string
}

// GpsTrack is an activity's decoded GPS samples and bounding box.
type GpsTrack struct {
	ActivityID string
	Points     []geo.Point
	BBox       geo.BBox
}

// TimeStream is an activity's cumulative-seconds-per-sample series.
type TimeStream struct {
	ActivityID string
	Times      []float32
}

// ActivityMetrics is the per-activity performance-metric row.
type ActivityMetrics struct {
	ActivityID       string
	TSS              *float64
	IntensityFactor  *float64
	NormalizedPower  *float64
	FTPAtTime        *float64
	PowerZonesJSON   string
	HRZonesJSON      string
}

// Section is a frequently-traversed sub-path, auto-detected or user-created.
type Section struct {
	ID         string
	Type       string // "auto" or "custom"
	SportType  string
	Polyline   string
	DistanceM  float64
	VisitCount int
	Confidence *float64
	Scale      *string // "short", "medium", "long"; nil for custom
	Name       string
}

// SectionActivity is one activity's traversal trace through a section.
type SectionActivity struct {
	SectionID       string
	ActivityID      string
	StartIndex      int
	EndIndex        int
	Direction       string // "same", "reverse", "partial"
	MatchPercentage float64
}

// Group is a cluster of whole activities sharing high overlap.
type Group struct {
	ID                  string
	SportType           string
	ConsensusActivityID *string
	CustomName          *string
}

// UserOverride is a free-form set of user customizations keyed by a route or section id.
type UserOverride struct {
	Target                 string
	CustomName              *string
	PinnedMedoidActivityID  *string
	Disabled                bool
	Dismissed               bool
}
