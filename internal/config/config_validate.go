// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"fmt"

	"github.com/tomtom215/geotrail/internal/validation"
)

// Validate checks that required configuration is present and well-formed,
// using the shared go-playground/validator struct tags plus a few
// cross-field checks the tag language can't express.
func Validate(c *Config) error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("%w", err)
	}
	return validateCrossFields(c)
}

func validateCrossFields(c *Config) error {
	if c.Detection.ProgressPersistence == "badger" && c.Progress.DataDir == "" {
		return fmt.Errorf("progress.data_dir is required when detection.progress_persistence=badger")
	}

	bounds := c.Aggregate.PowerZoneBounds
	for i := 1; i < len(bounds); i++ {
		if bounds[i] <= bounds[i-1] {
			return fmt.Errorf("aggregate.power_zone_bounds must be strictly increasing, got %v", bounds)
		}
	}

	return nil
}
