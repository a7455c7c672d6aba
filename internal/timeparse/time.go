package timeparse

import (
	"fmt"
	"strings"
	"time"
)

// absoluteLayouts are tried in order by ParseTime.
var absoluteLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
}

// ParseTime parses various date/time formats in UTC.
// Supported formats:
//   - YYYY-MM-DD (assumes 00:00:00 UTC)
//   - YYYY-MM-DD HH:MM:SS (UTC)
//   - RFC3339: 2018-10-27T10:00:00Z (can specify any timezone)
//
// The result is always expressed in UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid time format %q (expected YYYY-MM-DD, YYYY-MM-DD HH:MM:SS, or RFC3339)", s)
}
