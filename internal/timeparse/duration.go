package timeparse

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var units = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
	// Aliases
	"sec":   time.Second,
	"secs":  time.Second,
	"min":   time.Minute,
	"mins":  time.Minute,
	"hr":    time.Hour,
	"hrs":   time.Hour,
	"hour":  time.Hour,
	"hours": time.Hour,
	"day":   24 * time.Hour,
	"days":  24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"weeks": 7 * 24 * time.Hour,
}

// ParseDuration parses a simple duration string such as "10h", "2d",
// "3weeks" or "30days".
// Supports: s/sec, m/min, h/hr/hour, d/day, w/week (plurals allowed).
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}

	num, unitStr, err := splitQuantity(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	unit, ok := units[strings.ToLower(unitStr)]
	if !ok {
		return 0, fmt.Errorf("invalid duration %q: unknown unit %q", s, unitStr)
	}

	// Check for overflow: num * unit must fit in time.Duration (int64)
	if num > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("invalid duration %q: value too large", s)
	}

	return time.Duration(num) * unit, nil
}

// splitQuantity splits a compact quantity like "30d" into its number and
// unit suffix. Only non-negative integers are accepted.
func splitQuantity(s string) (int64, string, error) {
	// Find where the unit starts (first non-digit)
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9') {
		i++
	}

	if i == 0 {
		if strings.HasPrefix(s, "-") {
			return 0, "", fmt.Errorf("negative durations not supported")
		}
		return 0, "", fmt.Errorf("missing number")
	}
	if i == len(s) {
		return 0, "", fmt.Errorf("missing unit")
	}

	num, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, "", err
	}

	return num, strings.TrimSpace(s[i:]), nil
}
