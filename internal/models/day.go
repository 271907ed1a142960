package models

import (
	"fmt"
	"strings"
	"time"
)

// dayLayouts are the date formats the trends API emits for axis days
var dayLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDay parses a calendar day or timestamp label. Values without an offset are UTC.
func ParseDay(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// FormatDay renders t the way ParseDay reads it back at day resolution
func FormatDay(t time.Time) string {
	return t.Format("2006-01-02")
}
