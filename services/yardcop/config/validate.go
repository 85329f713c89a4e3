// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
)

// configValidate is shared by all validation calls. Initialized in init()
// with the custom "glob" rule.
var configValidate *validator.Validate

func init() {
	configValidate = validator.New()
	_ = configValidate.RegisterValidation("glob", validateGlob)
}

// validateGlob rejects patterns MatchPath cannot compile.
func validateGlob(fl validator.FieldLevel) bool {
	return doublestar.ValidatePattern(fl.Field().String())
}

// CopSettings holds the settings every cop section may carry.
//
// # Validation
//
//   - Severity: empty or one of info, convention, warning, error, fatal
//   - Include, Exclude: each entry must be a valid glob
type CopSettings struct {
	Enabled  bool
	Severity string   `validate:"omitempty,oneof=info convention warning error fatal"`
	Include  []string `validate:"dive,required,glob"`
	Exclude  []string `validate:"dive,required,glob"`
}

// Validate checks the common settings of every configured cop and the
// AllCops section.
//
// Outputs:
//
//	error - Wraps ErrInvalidConfig naming the first offending cop.
func (c *Config) Validate() error {
	allExclude := c.AllCops().Strings(nil, "Exclude")
	if err := configValidate.Struct(CopSettings{Exclude: allExclude}); err != nil {
		return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, AllCopsKey, describe(err))
	}
	if err := c.validateMinimumVersion(); err != nil {
		return err
	}

	for _, name := range c.CopNames() {
		section := c.Cop(name)
		if v, ok := section.Get("Enabled"); ok {
			if _, isBool := v.(bool); !isBool {
				return fmt.Errorf("%w: %s: Enabled must be true or false", ErrInvalidConfig, name)
			}
		}
		if err := configValidate.Struct(c.Settings(name)); err != nil {
			return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, name, describe(err))
		}
	}
	return nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	if fe.Param() != "" {
		return fmt.Sprintf("%s failed %q (%s)", fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag())
}
