// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ringsense Contributors

package oura

import (
	"strings"

	rserr "github.com/ringsense/ringsense/pkg/errors"
)

// DefaultBaseURL is the scheme and host of the Oura cloud API.
const DefaultBaseURL = "https://api.ouraring.com"

// Category identifies one of the daily metric collections exposed by the
// Oura API.
type Category string

const (
	CategorySleep     Category = "sleep"
	CategoryActivity  Category = "activity"
	CategoryReadiness Category = "readiness"
	CategoryStress    Category = "stress"
	CategorySleepTime Category = "sleep_time"
)

// categories is the fixed registration order.
var categories = [...]Category{
	CategorySleep,
	CategoryActivity,
	CategoryReadiness,
	CategoryStress,
	CategorySleepTime,
}

// collectionPaths binds every category to its usercollection path. It is
// never written after package initialisation.
var collectionPaths = map[Category]string{
	CategorySleep:     "/v2/usercollection/daily_sleep",
	CategoryActivity:  "/v2/usercollection/daily_activity",
	CategoryReadiness: "/v2/usercollection/daily_readiness",
	CategoryStress:    "/v2/usercollection/daily_stress",
	CategorySleepTime: "/v2/usercollection/sleep_time",
}

// Categories returns every supported category in registration order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// ParseCategory validates a category name.
func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(name)))
	if !c.Valid() {
		return "", rserr.Errorf(rserr.CodeOuraCategoryInvalid, "unknown metric category %q", name)
	}
	return c, nil
}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	_, ok := collectionPaths[c]
	return ok
}

// Path returns the API path of the category's collection, or "" when the
// category is unknown.
func (c Category) Path() string {
	return collectionPaths[c]
}

// URL returns the absolute endpoint of the category on the public API.
func (c Category) URL() string {
	p := c.Path()
	if p == "" {
		return ""
	}
	return DefaultBaseURL + p
}

// Title renders the category the way entity names show it: first letter
// upper-cased, the remainder lower-cased ("sleep_time" -> "Sleep_time").
func (c Category) Title() string {
	s := string(c)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func (c Category) String() string { return string(c) }
