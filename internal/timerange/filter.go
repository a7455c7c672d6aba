package timerange

import "time"

// Filter returns the records whose timestamp lies within r, in their
// original order. Records without a timestamp are always excluded, even
// when r has no bounds; callers that want "no filter" should skip the call.
func Filter[T any](records []T, r Range, timestamp func(T) *time.Time) []T {
	filtered := make([]T, 0, len(records))
	for _, record := range records {
		if r.Contains(timestamp(record)) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}
