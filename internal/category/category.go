// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package category holds the fixed two-level category taxonomy used for
// navigation menus, listing filters and post validation.
package category

// Code identifies a single subcategory. Posts reference exactly one code.
type Code string

const (
	GeopoliticsWest            Code = "geopolitics_west"
	GeopoliticsLatinAmerica    Code = "geopolitics_latin_america"
	GeopoliticsAfrica          Code = "geopolitics_africa"
	GeopoliticsMiddleEast      Code = "geopolitics_middle_east"
	GeopoliticsAsiaMajor       Code = "geopolitics_asia_major"
	GeopoliticsSouthAsia       Code = "geopolitics_south_asia"
	GeopoliticsCentralEastAsia Code = "geopolitics_central_east_asia"
	GeopoliticsSoutheastAsia   Code = "geopolitics_southeast_asia"
	IndiaNational              Code = "india_national"
	IndiaRegional              Code = "india_regional"
)

// Subcategory is a selectable leaf of the taxonomy.
type Subcategory struct {
	Code  Code   `json:"value"`
	Label string `json:"label"`
}

// Group is a top-level category with its ordered subcategories.
type Group struct {
	Key           string        `json:"key"`
	Label         string        `json:"label"`
	Subcategories []Subcategory `json:"subcategories"`
}

// groups is the static taxonomy. Order matters: menus and the admin
// select box render it as-is.
var groups = []Group{
	{
		Key:   "geopolitics",
		Label: "Geopolitics",
		Subcategories: []Subcategory{
			{Code: GeopoliticsWest, Label: "West"},
			{Code: GeopoliticsLatinAmerica, Label: "Latin America"},
			{Code: GeopoliticsAfrica, Label: "Africa"},
			{Code: GeopoliticsMiddleEast, Label: "Middle East"},
			{Code: GeopoliticsAsiaMajor, Label: "Asia Major"},
			{Code: GeopoliticsSouthAsia, Label: "South Asia"},
			{Code: GeopoliticsCentralEastAsia, Label: "Central & East Asia"},
			{Code: GeopoliticsSoutheastAsia, Label: "Southeast Asia"},
		},
	},
	{
		Key:   "india",
		Label: "India",
		Subcategories: []Subcategory{
			{Code: IndiaNational, Label: "National"},
			{Code: IndiaRegional, Label: "Regional"},
		},
	},
}

// labels indexes every subcategory label by code.
var labels = func() map[Code]string {
	m := make(map[Code]string)
	for _, g := range groups {
		for _, s := range g.Subcategories {
			m[s.Code] = s.Label
		}
	}
	return m
}()

// Label returns the display label for a code. Unknown codes are returned
// unchanged so a bad row still renders something readable.
func Label(code Code) string {
	if l, ok := labels[code]; ok {
		return l
	}
	return string(code)
}

// Valid reports whether code belongs to the taxonomy.
func Valid(code Code) bool {
	_, ok := labels[code]
	return ok
}

// All returns every subcategory flattened in menu order.
func All() []Subcategory {
	var out []Subcategory
	for _, g := range groups {
		out = append(out, g.Subcategories...)
	}
	return out
}

// Groups returns a copy of the two-level taxonomy.
func Groups() []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = Group{
			Key:           g.Key,
			Label:         g.Label,
			Subcategories: append([]Subcategory(nil), g.Subcategories...),
		}
	}
	return out
}
