// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Paginate returns the 1-based page of items and the total item count.
// page < 1 is treated as 1 and size <= 0 returns every item. A page past the
// end yields an empty, non-nil slice.
//
// Example:
//
//	items, total := utils.Paginate([]int{1, 2, 3, 4, 5}, 2, 2) // [3 4], 5
func Paginate[T any](items []T, page, size int) ([]T, int) {
	total := len(items)
	if size <= 0 {
		if items == nil {
			return []T{}, 0
		}
		return items, total
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= total {
		return []T{}, total
	}
	end := start + size
	if end > total {
		end = total
	}
	return items[start:end], total
}
