// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug generates and checks the URL-safe identifiers posts are
// addressed by.
package slug

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxLen is the longest slug a post may carry.
const MaxLen = 200

var (
	// disallowed matches anything that is not a letter, digit, whitespace or hyphen.
	disallowed = regexp.MustCompile(`[^a-z0-9\s-]`)
	// separators collapses whitespace and hyphen runs into one hyphen.
	separators = regexp.MustCompile(`[\s-]+`)
	// valid is the shape every stored slug must have.
	valid = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate derives a slug from a title.
// Example: "Hello, World! 2026" → "hello-world-2026"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = disallowed.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLen {
		result = strings.TrimRight(result[:MaxLen], "-")
	}
	return result
}

// Valid reports whether s is already a well-formed slug.
func Valid(s string) bool {
	return len(s) <= MaxLen && valid.MatchString(s)
}

// WithSuffix appends "-n" to base, shortening base so the result still
// fits in MaxLen. Used to find a free slug when base is taken.
func WithSuffix(base string, n int) string {
	suffix := "-" + strconv.Itoa(n)
	if len(base)+len(suffix) > MaxLen {
		base = strings.TrimRight(base[:MaxLen-len(suffix)], "-")
	}
	return base + suffix
}
