// Package utils holds query-string and paging helpers shared by handlers and
// services. Nothing here knows about the domain.
package utils

import "strconv"

// AtoiDefault parses s as an int, returning def when s is empty or invalid.
// No trimming is applied.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page is a normalized page request.
type Page struct {
	Number int // 1-based
	Limit  int
}

// Offset is the number of rows to skip.
func (p Page) Offset() int { return (p.Number - 1) * p.Limit }

// TotalPages returns how many pages of p.Limit hold total rows.
func (p Page) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// NewPage clamps a client page request: number < 1 becomes 1, limit < 1
// becomes def, and limit is capped at max.
func NewPage(number, limit, def, max int) Page {
	if number < 1 {
		number = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return Page{Number: number, Limit: limit}
}

// ClampLimit applies the same limit rules as NewPage without a page number.
func ClampLimit(limit, def, max int) int {
	return NewPage(1, limit, def, max).Limit
}
