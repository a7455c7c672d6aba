// Package timeparse provides extended time and duration parsing utilities,
// including resolution of relative expressions like "30 days ago".
package timeparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidExpression is returned when an expression is neither an
// absolute date nor a recognized relative phrase.
var ErrInvalidExpression = errors.New("invalid time expression")

// Parser interprets an expression as a point in time relative to ref.
// It reports false when it does not recognize the expression, letting the
// next Parser try.
type Parser interface {
	Parse(expr string, ref time.Time) (time.Time, bool)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(expr string, ref time.Time) (time.Time, bool)

// Parse calls f.
func (f ParserFunc) Parse(expr string, ref time.Time) (time.Time, bool) {
	return f(expr, ref)
}

// Absolute parses the formats accepted by ParseTime. The reference
// instant is ignored.
type Absolute struct{}

// Parse implements Parser.
func (Absolute) Parse(expr string, _ time.Time) (time.Time, bool) {
	t, err := ParseTime(expr)
	return t, err == nil
}

// DefaultParsers tries absolute formats before relative phrases.
var DefaultParsers = []Parser{Absolute{}, Relative{}}

// Resolver turns raw expressions into absolute timestamps. A Resolver holds
// no mutable state and is safe for concurrent use.
type Resolver struct {
	clock   Clock
	parsers []Parser
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the source of the reference instant.
func WithClock(c Clock) Option {
	return func(r *Resolver) {
		r.clock = c
	}
}

// WithParsers replaces the parser chain. Parsers are tried in order.
func WithParsers(parsers ...Parser) Option {
	return func(r *Resolver) {
		r.parsers = parsers
	}
}

// NewResolver creates a Resolver using the system clock and DefaultParsers
// unless overridden by opts.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		clock:   SystemClock,
		parsers: DefaultParsers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Now returns the resolver's reference instant.
func (r *Resolver) Now() time.Time {
	return r.clock.Now()
}

// Resolve converts expr into an absolute UTC timestamp relative to the
// resolver's current reference instant. An empty (or all-whitespace)
// expression resolves to nil without error. Expressions no parser recognizes
// return an error wrapping ErrInvalidExpression.
func (r *Resolver) Resolve(expr string) (*time.Time, error) {
	return r.ResolveAt(expr, r.Now())
}

// ResolveAt is like Resolve but resolves relative phrases against ref.
// Callers resolving several related expressions read Now once and pass the
// same ref to each.
func (r *Resolver) ResolveAt(expr string, ref time.Time) (*time.Time, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	for _, p := range r.parsers {
		if t, ok := p.Parse(expr, ref); ok {
			t = t.UTC()
			return &t, nil
		}
	}

	return nil, fmt.Errorf("%w %q (expected YYYY-MM-DD, RFC3339, or a relative phrase like \"30 days ago\")",
		ErrInvalidExpression, expr)
}
