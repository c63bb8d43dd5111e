// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package main is a tiny demo binary: it loads a synthetic set of activities
// that retrace the same route, runs section detection against them, and
// prints a short report of what the engine found.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/engine"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/geo"
	"github.com/tomtom215/geotrail/internal/logging"
	"github.com/tomtom215/geotrail/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg.Store.Path = ":memory:"
	cfg.Detection.ProgressPersistence = "memory"

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller})

	e := engine.New(*cfg)
	if err := e.Init(cfg.Store.Path); err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize engine")
	}
	defer func() {
		if err := e.Teardown(); err != nil {
			logging.Error().Err(err).Msg("error tearing down engine")
		}
	}()

	unsub := e.Subscribe(engine.TopicSections, func() {
		logging.Info().Msg("sections topic published")
	})
	defer unsub()

	ctx := context.Background()
	if err := seedSampleActivities(ctx, e); err != nil {
		logging.Fatal().Err(err).Msg("failed to seed sample activities")
	}

	count, err := e.GetActivityCount(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to count activities")
	}
	logging.Info().Int("activities", count).Msg("sample activities loaded")

	if _, err := e.StartSectionDetection(""); err != nil {
		logging.Fatal().Err(err).Msg("failed to start section detection")
	}

	status, err := awaitDetection(e, 10*time.Second)
	if err != nil {
		logging.Fatal().Err(err).Msg("section detection did not complete")
	}
	logging.Info().Str("status", string(status)).Msg("section detection finished")

	printReport(ctx, e)
}

// seedSampleActivities loads three runs of the same loop, close enough
// together for the overlap detector to group and section them, plus one
// unrelated ride, which has no partner to form a route group with.
func seedSampleActivities(ctx context.Context, e *engine.Engine) error {
	loop := generateLoop(37.7749, -122.4194, 400, 64)
	spur := generateLoop(37.8044, -122.2712, 250, 48)

	activities := []store.NewActivity{
		{ID: "run-1", SportType: "Run", StartDate: 1_700_000_000, DistanceM: geo.PathDistanceM(loop), MovingTimeS: 1800, ElapsedTimeS: 1850, Name: "Morning Loop", Track: loop},
		{ID: "run-2", SportType: "Run", StartDate: 1_700_086_400, DistanceM: geo.PathDistanceM(loop), MovingTimeS: 1750, ElapsedTimeS: 1790, Name: "Morning Loop Again", Track: loop},
		{ID: "run-3", SportType: "Run", StartDate: 1_700_172_800, DistanceM: geo.PathDistanceM(loop), MovingTimeS: 1820, ElapsedTimeS: 1860, Name: "Morning Loop Once More", Track: loop},
		{ID: "ride-1", SportType: "Ride", StartDate: 1_700_000_000, DistanceM: geo.PathDistanceM(spur), MovingTimeS: 2400, ElapsedTimeS: 2500, Name: "Solo Ride", Track: spur},
	}
	return e.AddActivities(ctx, activities)
}

// generateLoop synthesizes a closed circular track around
// (centerLat, centerLng) with the given radius in meters and point count.
func generateLoop(centerLat, centerLng, radiusM float64, points int) []geo.Point {
	const metersPerDegreeLat = 111_320.0
	track := make([]geo.Point, 0, points)
	for i := 0; i < points; i++ {
		angle := 2 * math.Pi * float64(i) / float64(points)
		dLat := radiusM * math.Sin(angle) / metersPerDegreeLat
		metersPerDegreeLng := metersPerDegreeLat * math.Cos(centerLat*math.Pi/180)
		dLng := radiusM * math.Cos(angle) / metersPerDegreeLng
		track = append(track, geo.Point{Lat: centerLat + dLat, Lng: centerLng + dLng, Elev: math.NaN()})
	}
	return track
}

// awaitDetection polls the engine until the detection job leaves "running",
// or until deadline elapses.
func awaitDetection(e *engine.Engine, deadline time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), deadline)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		status, err := e.PollSections()
		if err != nil {
			return "", err
		}
		if string(status) != "running" && string(status) != "idle" {
			return string(status), nil
		}
		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			return "", errs.New(errs.Internal, "detection did not finish before the demo deadline")
		}
	}
}

func printReport(ctx context.Context, e *engine.Engine) {
	groups, err := e.GetGroupSummaries(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("failed to fetch group summaries")
		return
	}
	sections, err := e.GetSectionSummaries(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("failed to fetch section summaries")
		return
	}
	stats, err := e.GetStats(ctx)
	if err != nil {
		logging.Error().Err(err).Msg("failed to fetch stats")
		return
	}

	fmt.Fprintf(os.Stdout, "\ngeotrail demo report\n")
	fmt.Fprintf(os.Stdout, "====================\n")
	fmt.Fprintf(os.Stdout, "activities: %d   gps tracks: %d\n", stats.ActivityCount, stats.GpsTrackCount)
	fmt.Fprintf(os.Stdout, "route groups: %d\n", len(groups))
	for _, g := range groups {
		name := "(unnamed)"
		if g.CustomName != nil {
			name = *g.CustomName
		}
		fmt.Fprintf(os.Stdout, "  - %s [%s] %d activities, name=%s\n", g.ID, g.SportType, g.ActivityCount, name)
	}
	fmt.Fprintf(os.Stdout, "sections: %d\n", len(sections))
	for _, s := range sections {
		scale := "custom"
		if s.Scale != nil {
			scale = *s.Scale
		}
		fmt.Fprintf(os.Stdout, "  - %s [%s/%s] visits=%d distance=%.0fm\n", s.ID, s.SportType, scale, s.VisitCount, s.DistanceM)
	}
}
