// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the data structures shared across the application:
// user profiles, conversation history, site artifacts, and the validation
// rules for user identifiers.
package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// userIDPattern restricts ids to a single safe path segment: leading
// alphanumeric, then alphanumerics, dots, hyphens, or underscores, at
// most 64 characters total.
var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

// ValidateUserID checks that id can be used as a storage key and as a
// filesystem path segment. The pattern alone still admits dot-dot runs,
// so those are rejected explicitly.
func ValidateUserID(id string) error {
	if id == "" {
		return errors.New("user id is required")
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("user id %q must not contain '..'", id)
	}
	if !userIDPattern.MatchString(id) {
		return fmt.Errorf("user id %q contains invalid characters", id)
	}
	return nil
}
