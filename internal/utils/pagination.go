// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// PageParam parses a 1-based page number from a query-string value. Empty,
// unparseable, or non-positive values fall back to page 1.
func PageParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// LimitParam parses a page size from a query-string value and clamps it to
// [1, max]. Empty, unparseable, or non-positive values fall back to def.
func LimitParam(s string, def, max int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}
