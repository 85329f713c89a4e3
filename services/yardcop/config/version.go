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
	"strings"

	"golang.org/x/mod/semver"
)

// MinimumVersionKey is the AllCops key naming the oldest yardcop release
// a configuration supports.
const MinimumVersionKey = "MinimumVersion"

// ErrVersionTooOld is returned by CheckVersion when the running binary is
// older than AllCops.MinimumVersion.
var ErrVersionTooOld = errors.New("yardcop version too old for config")

// canonicalVersion accepts "1.2.3" and "v1.2.3". It returns "" for
// anything semver rejects.
func canonicalVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

// MinimumVersion returns AllCops.MinimumVersion, or "" when unset. An
// unquoted YAML number such as 1.2 is read back as its text.
func (c *Config) MinimumVersion() string {
	v, ok := c.AllCops().Get(MinimumVersionKey)
	if !ok {
		return ""
	}
	if s, isString := v.(string); isString {
		return s
	}
	return fmt.Sprint(v)
}

// CheckVersion compares the running version against MinimumVersion.
//
// Description:
//
//	Development builds (any running version that is not valid semver,
//	such as "dev") always pass. A configuration without MinimumVersion
//	always passes.
//
// Outputs:
//
//	error - Wraps ErrVersionTooOld, or nil.
func (c *Config) CheckVersion(running string) error {
	want := canonicalVersion(c.MinimumVersion())
	have := canonicalVersion(running)
	if want == "" || have == "" {
		return nil
	}
	if semver.Compare(have, want) < 0 {
		return fmt.Errorf("%w: running %s, %s requires %s", ErrVersionTooOld, have, c.Source(), want)
	}
	return nil
}

func (c *Config) validateMinimumVersion() error {
	v := c.MinimumVersion()
	if v != "" && canonicalVersion(v) == "" {
		return fmt.Errorf("%w: %s: %s %q is not a semantic version", ErrInvalidConfig, AllCopsKey, MinimumVersionKey, v)
	}
	return nil
}
