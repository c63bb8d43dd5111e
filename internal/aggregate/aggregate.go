// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package aggregate

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geotrail/internal/config"
	"github.com/tomtom215/geotrail/internal/errs"
	"github.com/tomtom215/geotrail/internal/store"
)

// PeriodStats is get_period_stats(start_ts, end_ts)'s result.
type PeriodStats struct {
	DistanceM      float64
	MovingTimeS    int64
	ElevationGainM float64
	TSS            float64
	ActivityCount  int
}

// MonthlyPoint is one zero-filled month in get_monthly_aggregates.
type MonthlyPoint struct {
	Month int // 1..12
	Value float64
}

// HeatmapDay is one zero-filled calendar day in get_activity_heatmap.
type HeatmapDay struct {
	DateUnix  int64 // midnight UTC for that day
	Intensity float64
}

// FTPPoint is one (ftp, date) observation.
type FTPPoint struct {
	FTP      float64
	DateUnix int64
}

// FTPTrend is get_ftp_trend()'s result: the latest FTP and the most recent
// distinct value strictly before it, if any.
type FTPTrend struct {
	Latest   FTPPoint
	Previous *FTPPoint
}

// Engine runs aggregate queries against a Store.
type Engine struct {
	store *store.Store
	cfg   config.AggregateConfig
}

// New builds an Engine over the given store and aggregate settings.
func New(st *store.Store, cfg config.AggregateConfig) *Engine {
	return &Engine{store: st, cfg: cfg}
}

// GetPeriodStats sums distance, moving time, elevation gain and TSS, and
// counts activities, over [startTs, endTs] inclusive on both ends.
func (e *Engine) GetPeriodStats(ctx context.Context, startTs, endTs int64) (PeriodStats, error) {
	var stats PeriodStats
	row := e.store.Conn().QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(a.distance_m), 0),
			COALESCE(SUM(a.moving_time_s), 0),
			COALESCE(SUM(a.elevation_gain_m), 0),
			COALESCE(SUM(m.tss), 0),
			COUNT(*)
		FROM activities a
		LEFT JOIN activity_metrics m ON m.activity_id = a.id
		WHERE a.start_date BETWEEN ? AND ?`, startTs, endTs,
	)
	if err := row.Scan(&stats.DistanceM, &stats.MovingTimeS, &stats.ElevationGainM, &stats.TSS, &stats.ActivityCount); err != nil {
		return stats, errs.Wrap(errs.StorageFailure, "querying period stats", err)
	}
	return stats, nil
}

// GetMonthlyAggregates returns exactly 12 rows for the given year, zero-filled
// for months with no activity, per §8 scenario 6.
func (e *Engine) GetMonthlyAggregates(ctx context.Context, year int, metric string) ([]MonthlyPoint, error) {
	var expr string
	switch metric {
	case "hours":
		expr = "a.moving_time_s / 3600.0"
	case "distance":
		expr = "a.distance_m"
	case "tss":
		expr = "m.tss"
	default:
		return nil, errs.Newf(errs.InvalidInput, "metric must be hours, distance, or tss, got %q", metric)
	}

	rows, err := e.store.Conn().QueryContext(ctx, `
		SELECT EXTRACT(month FROM to_timestamp(a.start_date))::INTEGER AS month, SUM(`+expr+`) AS value
		FROM activities a
		LEFT JOIN activity_metrics m ON m.activity_id = a.id
		WHERE EXTRACT(year FROM to_timestamp(a.start_date)) = ?
		GROUP BY month`, year,
	)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying monthly aggregates", err)
	}
	defer rows.Close()

	values := make(map[int]float64, 12)
	for rows.Next() {
		var month int
		var value sql.NullFloat64
		if err := rows.Scan(&month, &value); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning monthly aggregate", err)
		}
		values[month] = value.Float64
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "iterating monthly aggregates", err)
	}

	out := make([]MonthlyPoint, 12)
	for m := 1; m <= 12; m++ {
		out[m-1] = MonthlyPoint{Month: m, Value: values[m]}
	}
	return out, nil
}

// GetActivityHeatmap returns one zero-filled row per UTC day in
// [startTs, endTs]; intensity is the day's summed TSS, falling back to
// moving time for activities with no recorded TSS.
func (e *Engine) GetActivityHeatmap(ctx context.Context, startTs, endTs int64) ([]HeatmapDay, error) {
	rows, err := e.store.Conn().QueryContext(ctx, `
		SELECT CAST(to_timestamp(a.start_date) AS DATE) AS day, SUM(COALESCE(m.tss, a.moving_time_s)) AS intensity
		FROM activities a
		LEFT JOIN activity_metrics m ON m.activity_id = a.id
		WHERE a.start_date BETWEEN ? AND ?
		GROUP BY day`, startTs, endTs,
	)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying activity heatmap", err)
	}
	defer rows.Close()

	byDay := make(map[int64]float64)
	for rows.Next() {
		var day time.Time
		var intensity float64
		if err := rows.Scan(&day, &intensity); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning heatmap day", err)
		}
		byDay[day.Unix()] = intensity
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "iterating activity heatmap", err)
	}

	start := time.Unix(startTs, 0).UTC().Truncate(24 * time.Hour)
	end := time.Unix(endTs, 0).UTC().Truncate(24 * time.Hour)

	var out []HeatmapDay
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, HeatmapDay{DateUnix: d.Unix(), Intensity: byDay[d.Unix()]})
	}
	return out, nil
}

// GetZoneDistribution sums each activity's stored per-zone seconds vector
// (power_zones_json or hr_zones_json) across every activity of sportType,
// returning seconds per zone index.
func (e *Engine) GetZoneDistribution(ctx context.Context, sportType, zoneType string) ([]float64, error) {
	column := "power_zones_json"
	switch zoneType {
	case "power":
		column = "power_zones_json"
	case "hr":
		column = "hr_zones_json"
	default:
		return nil, errs.Newf(errs.InvalidInput, "zone_type must be power or hr, got %q", zoneType)
	}

	rows, err := e.store.Conn().QueryContext(ctx, `
		SELECT m.`+column+`
		FROM activity_metrics m
		JOIN activities a ON a.id = m.activity_id
		WHERE a.sport_type = ? AND m.`+column+` IS NOT NULL`, sportType,
	)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying zone distribution", err)
	}
	defer rows.Close()

	var totals []float64
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning zone vector", err)
		}
		var zones []float64
		if err := json.Unmarshal([]byte(raw), &zones); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "decoding zone vector", err)
		}
		for i, seconds := range zones {
			for len(totals) <= i {
				totals = append(totals, 0)
			}
			totals[i] += seconds
		}
	}
	return totals, rows.Err()
}

// GetFTPTrend returns the latest distinct FTP-at-time and, if one exists,
// the most recent distinct value strictly before it.
func (e *Engine) GetFTPTrend(ctx context.Context) (*FTPTrend, error) {
	history, err := e.ftpHistory(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, errs.New(errs.NotFound, "no FTP history recorded")
	}
	trend := &FTPTrend{Latest: history[len(history)-1]}
	if len(history) > 1 {
		prev := history[len(history)-2]
		trend.Previous = &prev
	}
	return trend, nil
}

// GetFTPHistory returns every distinct FTP change point, ascending by date,
// within AggregateConfig.FTPHistoryWindow of now. A supplemented operation
// (not in the distilled spec): get_ftp_trend only exposes the latest pair,
// but charting needs the full series.
func (e *Engine) GetFTPHistory(ctx context.Context, now time.Time) ([]FTPPoint, error) {
	cutoff := now.Add(-e.cfg.FTPHistoryWindow).Unix()
	return e.ftpHistory(ctx, cutoff)
}

func (e *Engine) ftpHistory(ctx context.Context, sinceUnix int64) ([]FTPPoint, error) {
	rows, err := e.store.Conn().QueryContext(ctx, `
		SELECT m.ftp_at_time, a.start_date
		FROM activity_metrics m
		JOIN activities a ON a.id = m.activity_id
		WHERE m.ftp_at_time IS NOT NULL AND a.start_date >= ?
		ORDER BY a.start_date ASC`, sinceUnix,
	)
	if err != nil {
		return nil, errs.Wrap(errs.StorageFailure, "querying ftp history", err)
	}
	defer rows.Close()

	var out []FTPPoint
	for rows.Next() {
		var p FTPPoint
		if err := rows.Scan(&p.FTP, &p.DateUnix); err != nil {
			return nil, errs.Wrap(errs.StorageFailure, "scanning ftp point", err)
		}
		if len(out) == 0 || out[len(out)-1].FTP != p.FTP {
			out = append(out, p)
		}
	}
	return out, rows.Err()
}
