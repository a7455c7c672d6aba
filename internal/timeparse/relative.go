package timeparse

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// maxCalendarCount bounds day/week/month/year counts so that calendar
// arithmetic cannot overflow.
const maxCalendarCount = 1 << 20

// offset is a span of time measured back from a reference instant. Fixed
// spans are subtracted as durations; calendar spans go through AddDate.
type offset struct {
	fixed  time.Duration
	years  int
	months int
	days   int
}

func (o offset) times(n int64) (offset, bool) {
	if o.fixed != 0 {
		if n > math.MaxInt64/int64(o.fixed) {
			return offset{}, false
		}
		return offset{fixed: o.fixed * time.Duration(n)}, true
	}
	if n > maxCalendarCount {
		return offset{}, false
	}
	c := int(n)
	return offset{years: o.years * c, months: o.months * c, days: o.days * c}, true
}

func (o offset) before(ref time.Time) time.Time {
	return ref.Add(-o.fixed).AddDate(-o.years, -o.months, -o.days)
}

var relativeUnits = map[string]offset{
	"s":       {fixed: time.Second},
	"sec":     {fixed: time.Second},
	"secs":    {fixed: time.Second},
	"second":  {fixed: time.Second},
	"seconds": {fixed: time.Second},
	"m":       {fixed: time.Minute},
	"min":     {fixed: time.Minute},
	"mins":    {fixed: time.Minute},
	"minute":  {fixed: time.Minute},
	"minutes": {fixed: time.Minute},
	"h":       {fixed: time.Hour},
	"hr":      {fixed: time.Hour},
	"hrs":     {fixed: time.Hour},
	"hour":    {fixed: time.Hour},
	"hours":   {fixed: time.Hour},
	"d":       {days: 1},
	"day":     {days: 1},
	"days":    {days: 1},
	"w":       {days: 7},
	"wk":      {days: 7},
	"wks":     {days: 7},
	"week":    {days: 7},
	"weeks":   {days: 7},
	"mo":      {months: 1},
	"mos":     {months: 1},
	"month":   {months: 1},
	"months":  {months: 1},
	"y":       {years: 1},
	"yr":      {years: 1},
	"yrs":     {years: 1},
	"year":    {years: 1},
	"years":   {years: 1},
}

var relativeKeywords = map[string]offset{
	"now":       {},
	"today":     {},
	"yesterday": {days: 1},
}

// Relative interprets natural-language phrases as offsets back from the
// reference instant. Recognized forms (case-insensitive):
//
//	now, today, yesterday
//	last week, last month, last 3 days
//	30 days ago, an hour ago, 2w ago
//	30d, 2weeks, 3mo, 10h
//
// Time of day is preserved: "30 days ago" at T is T minus 30 days.
type Relative struct{}

// Parse implements Parser.
func (Relative) Parse(expr string, ref time.Time) (time.Time, bool) {
	words := strings.Fields(strings.ToLower(expr))

	var off offset
	var ok bool
	switch {
	case len(words) == 1:
		if off, ok = relativeKeywords[words[0]]; !ok {
			off, ok = parseCompactOffset(words[0])
		}
	case len(words) == 2 && words[0] == "last":
		off, ok = relativeUnits[words[1]]
	case len(words) == 2 && words[1] == "ago":
		off, ok = parseCompactOffset(words[0])
	case len(words) == 3 && words[0] == "last":
		off, ok = parseCountedOffset(words[1], words[2])
	case len(words) == 3 && words[2] == "ago":
		off, ok = parseCountedOffset(words[0], words[1])
	}
	if !ok {
		return time.Time{}, false
	}

	return off.before(ref), true
}

// parseCompactOffset handles "30d" style quantities.
func parseCompactOffset(word string) (offset, bool) {
	n, unit, err := splitQuantity(word)
	if err != nil {
		return offset{}, false
	}
	off, ok := relativeUnits[unit]
	if !ok {
		return offset{}, false
	}
	return off.times(n)
}

// parseCountedOffset handles "30 days" and "an hour".
func parseCountedOffset(count, unit string) (offset, bool) {
	var n int64
	switch count {
	case "a", "an", "one":
		n = 1
	default:
		var err error
		n, err = strconv.ParseInt(count, 10, 64)
		if err != nil || n < 0 {
			return offset{}, false
		}
	}

	off, ok := relativeUnits[unit]
	if !ok {
		return offset{}, false
	}
	return off.times(n)
}
