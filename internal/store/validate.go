// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package store

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/geotrail/internal/errs"
)

var (
	idValidate     *validator.Validate
	idValidateOnce sync.Once
)

func idValidator() *validator.Validate {
	idValidateOnce.Do(func() {
		idValidate = validator.New(validator.WithRequiredStructEnabled())
		_ = idValidate.RegisterValidation("noctrl", noControlChars)
	})
	return idValidate
}

// noControlChars rejects the ASCII control characters named in §6.2:
// 0x00-0x08, 0x0B, 0x0C, 0x0E-0x1F, 0x7F. Tab/LF/CR (0x09-0x0D minus 0x0B/0x0C)
// are allowed since names may reasonably span lines in free text; the empty
// string is rejected separately by the "required" tag.
func noControlChars(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, r := range s {
		switch {
		case r >= 0x00 && r <= 0x08:
			return false
		case r == 0x0B || r == 0x0C:
			return false
		case r >= 0x0E && r <= 0x1F:
			return false
		case r == 0x7F:
			return false
		}
	}
	return true
}

type idOrName struct {
	Value string `validate:"required,max=255,noctrl"`
}

// validateID checks the §6.2 rule: non-empty, <=255 chars, no disallowed
// control characters. Used for every activity/section/group id.
func validateID(field, value string) error {
	return validateIDOrName(field, value)
}

// validateName applies the identical rule to user-facing names.
func validateName(field, value string) error {
	return validateIDOrName(field, value)
}

func validateIDOrName(field, value string) error {
	if err := idValidator().Struct(idOrName{Value: value}); err != nil {
		return errs.Newf(errs.InvalidInput, "%s: %v", field, err)
	}
	return nil
}

// validateIDs validates every id in a slice, labeling failures with their index.
func validateIDs(field string, values []string) error {
	for i, v := range values {
		if err := validateIDOrName(fmt.Sprintf("%s[%d]", field, i), v); err != nil {
			return err
		}
	}
	return nil
}
