// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug generates filesystem- and URL-safe names from arbitrary
// strings. Stored image filenames embed a slug of the uploaded name, so
// the output must never contain separators or whitespace of any kind.
package slug

import (
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit,
	// whitespace, or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// separatorRuns collapses whitespace and hyphen runs into one hyphen.
	separatorRuns = regexp.MustCompile(`[\s-]+`)
)

// Generate creates a lowercase hyphenated name from the given string.
// Example: "My Photo (v2)" → "my-photo-v2"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = separatorRuns.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
