// Package timerange validates and applies inclusive time ranges built from
// user-supplied expressions.
package timerange

import (
	"errors"
	"fmt"
	"time"

	"github.com/jparise/gh-since/internal/timeparse"
)

// ErrInvertedRange is returned when both bounds are present but the start
// does not occur before the end.
var ErrInvertedRange = errors.New("inverted time range")

// Fields names the two parameters a range was built from. The names appear
// in validation errors so callers can point at the offending input.
type Fields struct {
	Start string
	End   string
}

var (
	// SinceUntil names the since/until query parameters.
	SinceUntil = Fields{Start: "since", End: "until"}
	// Active names the repository activity parameters.
	Active = Fields{Start: "activeAfter", End: "activeBefore"}
	// Changed names the file change flags.
	Changed = Fields{Start: "changed-after", End: "changed-before"}
)

// Range is a pair of optional bounds. A nil bound leaves that side open.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// IsZero reports whether neither bound is set.
func (r Range) IsZero() bool {
	return r.Start == nil && r.End == nil
}

// Contains reports whether t lies within the range, inclusive of both
// bounds. A nil t is never contained.
func (r Range) Contains(t *time.Time) bool {
	if t == nil {
		return false
	}
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// Check returns an error wrapping ErrInvertedRange when both bounds are set
// and the start is not strictly before the end.
func (r Range) Check(f Fields) error {
	if r.Start == nil || r.End == nil {
		return nil
	}
	if !r.Start.Before(*r.End) {
		return fmt.Errorf("%w: %s (%s) must be before %s (%s)",
			ErrInvertedRange,
			f.Start, r.Start.Format(time.RFC3339),
			f.End, r.End.Format(time.RFC3339))
	}
	return nil
}

func (r Range) String() string {
	format := func(t *time.Time) string {
		if t == nil {
			return "*"
		}
		return t.Format(time.RFC3339)
	}
	return "[" + format(r.Start) + ", " + format(r.End) + "]"
}

// ParseFields resolves both expressions against a single reference instant
// and checks their ordering. Resolve failures name the offending field and
// still wrap timeparse.ErrInvalidExpression.
func ParseFields(res *timeparse.Resolver, f Fields, startExpr, endExpr string) (Range, error) {
	ref := res.Now()

	start, err := res.ResolveAt(startExpr, ref)
	if err != nil {
		return Range{}, fmt.Errorf("invalid %s value: %w", f.Start, err)
	}

	end, err := res.ResolveAt(endExpr, ref)
	if err != nil {
		return Range{}, fmt.Errorf("invalid %s value: %w", f.End, err)
	}

	r := Range{Start: start, End: end}
	if err := r.Check(f); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Parse resolves since and until into a validated Range.
func Parse(res *timeparse.Resolver, since, until string) (Range, error) {
	return ParseFields(res, SinceUntil, since, until)
}

// Validate reports whether since and until form a well-ordered range.
func Validate(res *timeparse.Resolver, since, until string) error {
	_, err := Parse(res, since, until)
	return err
}
