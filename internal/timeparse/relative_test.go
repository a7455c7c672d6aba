package timeparse

import (
	"testing"
	"time"
)

func TestRelativeParse(t *testing.T) {
	ref := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		// Keywords
		{"now", "now", ref, true},
		{"today", "today", ref, true},
		{"yesterday", "yesterday", time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC), true},
		{"mixed case", "Yesterday", time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC), true},

		// last <unit>
		{"last week", "last week", time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC), true},
		{"last month", "last month", time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC), true},
		{"last year", "last year", time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC), true},
		{"last hour", "last hour", time.Date(2024, 6, 15, 11, 0, 0, 0, time.UTC), true},
		{"last N units", "last 3 days", time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC), true},

		// <n> <unit> ago
		{"days ago", "30 days ago", time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC), true},
		{"singular unit", "1 day ago", time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC), true},
		{"an hour ago", "an hour ago", time.Date(2024, 6, 15, 11, 0, 0, 0, time.UTC), true},
		{"a week ago", "a week ago", time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC), true},
		{"minutes ago", "90 minutes ago", time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC), true},
		{"months ago", "2 months ago", time.Date(2024, 4, 15, 12, 0, 0, 0, time.UTC), true},
		{"years ago", "1 year ago", time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC), true},
		{"zero days ago", "0 days ago", ref, true},
		{"extra whitespace", "  30   DAYS   ago ", time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC), true},

		// Compact forms
		{"compact ago", "2w ago", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), true},
		{"compact days", "30d", time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC), true},
		{"compact weeks", "2weeks", time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), true},
		{"compact months", "3mo", time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), true},
		{"compact hours", "10h", time.Date(2024, 6, 15, 2, 0, 0, 0, time.UTC), true},

		// Not recognized
		{"empty", "", time.Time{}, false},
		{"future keyword", "tomorrow", time.Time{}, false},
		{"missing ago", "30 days", time.Time{}, false},
		{"negative count", "-3 days ago", time.Time{}, false},
		{"bare ago", "ago", time.Time{}, false},
		{"bare last", "last", time.Time{}, false},
		{"unknown unit", "last fortnight", time.Time{}, false},
		{"word count", "abc days ago", time.Time{}, false},
		{"fractional count", "1.5 days ago", time.Time{}, false},
		{"absolute date", "2024-01-01", time.Time{}, false},
		{"fixed overflow", "9999999999999 hours ago", time.Time{}, false},
		{"calendar overflow", "2000000 days ago", time.Time{}, false},
		{"trailing words", "30 days ago please", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Relative{}.Parse(tt.input, ref)
			if ok != tt.wantOK {
				t.Errorf("Relative.Parse(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
				return
			}
			if tt.wantOK && !got.Equal(tt.want) {
				t.Errorf("Relative.Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRelativeParsePreservesLocation(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*3600)
	ref := time.Date(2024, 6, 15, 23, 30, 0, 0, loc)

	got, ok := Relative{}.Parse("yesterday", ref)
	if !ok {
		t.Fatal("Relative.Parse(\"yesterday\") not recognized")
	}

	want := time.Date(2024, 6, 14, 23, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("Relative.Parse(\"yesterday\") = %v, want %v", got, want)
	}
}
