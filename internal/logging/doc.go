// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package logging provides centralized zerolog-based structured logging for geotrail.
//
// # Overview
//
// The package provides:
//   - Zero-allocation structured logging via zerolog
//   - JSON output format for production, console output for development
//   - Global logger configuration via internal/config.LoggingConfig
//   - Context-aware logging with correlation ID propagation
//   - An slog adapter for suture v4's supervisor logging
//
// # Quick Start
//
//	import "github.com/tomtom215/geotrail/internal/logging"
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Str("job_id", jobID).Msg("detection job started")
//	logging.Error().Err(err).Str("phase", "find_overlaps").Msg("phase failed")
//
//	logging.Ctx(ctx).Info().Str("request_id", reqID).Msg("processing")
//
// # Log Levels
//
// Supported log levels (from most to least verbose): trace, debug, info
// (default), warn, error, fatal, panic.
//
// # Structured Logging Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
//
// Prefer structured fields over string formatting:
//
//	logging.Info().Str("section_id", id).Int("tracks", n).Dur("elapsed", d).Msg("section built")
//
// # Component Loggers
//
//	detectionLogger := logging.WithComponent("detection")
//	detectionLogger.Info().Msg("phase started")
//
// # slog Adapter
//
//	slogLogger := logging.NewSlogLogger()
//	// pass to supervisor.NewTree(slogLogger, ...), which hooks it into suture via sutureslog.Handler
//
// # Thread Safety
//
// All exported functions are safe for concurrent use. The global logger is
// protected by a sync.RWMutex for configuration changes.
//
// # Testing
//
//	var buf bytes.Buffer
//	logger := logging.NewTestLogger(&buf)
//	logger.Info().Msg("test message")
package logging
