package http

import (
	"strings"
)

// sanitizeInput drops control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// optionalString returns nil for blank input.
func optionalString(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	if v == "" {
		return nil
	}
	return &v
}
