package timeparse

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testResolver() *Resolver {
	return NewResolver(WithClock(FixedClock(testNow)))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *time.Time
		wantErr bool
	}{
		// Absence
		{name: "empty string", input: "", want: nil},
		{name: "whitespace only", input: "   ", want: nil},

		// Absolute
		{name: "date only", input: "2024-01-01", want: ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
		{name: "date and time", input: "2024-06-01 08:30:00", want: ptr(time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC))},
		{name: "RFC3339 with offset", input: "2024-06-01T10:00:00-07:00", want: ptr(time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC))},
		{name: "padded date", input: " 2024-01-01 ", want: ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},

		// Relative
		{name: "30 days ago", input: "30 days ago", want: ptr(time.Date(2024, 5, 16, 12, 0, 0, 0, time.UTC))},
		{name: "yesterday", input: "yesterday", want: ptr(time.Date(2024, 6, 14, 12, 0, 0, 0, time.UTC))},
		{name: "last week", input: "last week", want: ptr(time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC))},

		// Invalid
		{name: "garbage", input: "not a date", wantErr: true},
		{name: "invalid calendar date", input: "2024-13-45", wantErr: true},
		{name: "slash date", input: "10/27/2018", wantErr: true},
	}

	res := testResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := res.Resolve(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("Resolve(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidExpression) {
					t.Errorf("Resolve(%q) error = %v, want ErrInvalidExpression", tt.input, err)
				}
				if got != nil {
					t.Errorf("Resolve(%q) = %v on error, want nil", tt.input, got)
				}
				return
			}

			switch {
			case tt.want == nil && got != nil:
				t.Errorf("Resolve(%q) = %v, want nil", tt.input, got)
			case tt.want != nil && got == nil:
				t.Errorf("Resolve(%q) = nil, want %v", tt.input, tt.want)
			case tt.want != nil && !got.Equal(*tt.want):
				t.Errorf("Resolve(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got != nil && got.Location() != time.UTC {
				t.Errorf("Resolve(%q) location = %v, want UTC", tt.input, got.Location())
			}
		})
	}
}

func TestResolveErrorMentionsExpression(t *testing.T) {
	_, err := testResolver().Resolve("next tuesday")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), `"next tuesday"`) {
		t.Errorf("error %q does not quote the expression", err)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	res := testResolver()

	first, err := res.Resolve("30 days ago")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		got, err := res.Resolve("30 days ago")
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if !got.Equal(*first) {
			t.Fatalf("Resolve() = %v, want %v", got, first)
		}
	}
}

func TestResolveConcurrent(t *testing.T) {
	res := testResolver()
	want := time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	errs := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := res.Resolve("last week")
			if err != nil || got == nil || !got.Equal(want) {
				errs <- "unexpected result"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestResolveCustomParsers(t *testing.T) {
	epoch := ParserFunc(func(expr string, _ time.Time) (time.Time, bool) {
		if expr == "epoch" {
			return time.Unix(0, 0), true
		}
		return time.Time{}, false
	})

	res := NewResolver(
		WithClock(FixedClock(testNow)),
		WithParsers(epoch, Relative{}),
	)

	got, err := res.Resolve("epoch")
	if err != nil {
		t.Fatalf("Resolve(\"epoch\") error = %v", err)
	}
	if !got.Equal(time.Unix(0, 0)) {
		t.Errorf("Resolve(\"epoch\") = %v, want unix epoch", got)
	}

	// Absolute was left out of the chain.
	if _, err := res.Resolve("2024-01-01"); !errors.Is(err, ErrInvalidExpression) {
		t.Errorf("Resolve(\"2024-01-01\") error = %v, want ErrInvalidExpression", err)
	}
}

func TestResolveAt(t *testing.T) {
	res := NewResolver(WithClock(ClockFunc(func() time.Time {
		t.Fatal("ResolveAt read the clock")
		return time.Time{}
	})))

	ref := time.Date(2020, 3, 1, 9, 0, 0, 0, time.UTC)
	got, err := res.ResolveAt("yesterday", ref)
	if err != nil {
		t.Fatalf("ResolveAt() error = %v", err)
	}
	if want := time.Date(2020, 2, 29, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ResolveAt(\"yesterday\") = %v, want %v", got, want)
	}

	if got, err := res.ResolveAt(" ", ref); got != nil || err != nil {
		t.Errorf("ResolveAt(\" \") = %v, %v, want nil, nil", got, err)
	}
}

func TestResolverNow(t *testing.T) {
	if got := testResolver().Now(); !got.Equal(testNow) {
		t.Errorf("Now() = %v, want %v", got, testNow)
	}
}

func ptr(t time.Time) *time.Time {
	return &t
}
