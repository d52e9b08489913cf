// Package relativetime turns "About 2 hours ago" style strings into instants.
//
// The listing site only reports a coarse age, so the result is rounded to the
// start or the end of the reported unit instead of pretending to be exact.
package relativetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Unit string

const (
	Minute Unit = "minute"
	Hour   Unit = "hour"
	Day    Unit = "day"
)

var parser = regexp.MustCompile(`(?i)^\s*(?:about )?(\d+) (minute|hour|day)s? ago\s*$`)

// Match extracts the quantity and unit from value.
func Match(value string) (int, Unit, bool) {
	m := parser.FindStringSubmatch(value)
	if m == nil {
		return 0, "", false
	}
	qty, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return qty, Unit(strings.ToLower(m[2])), true
}

// Parse returns now minus the parsed age, floored to the start of the unit.
// With roundLatest it is ceiled to the last instant of the unit instead, so
// "1 day ago" becomes 23:59:59.999999999 yesterday. ok is false when value
// does not match the grammar.
func Parse(value string, now time.Time, roundLatest bool) (time.Time, bool) {
	qty, unit, ok := Match(value)
	if !ok {
		return time.Time{}, false
	}

	ts := Sub(now, qty, unit)
	if roundLatest {
		return EndOf(ts, unit), true
	}
	return StartOf(ts, unit), true
}

// Sub moves now back by qty units. Days are calendar days.
func Sub(now time.Time, qty int, unit Unit) time.Time {
	switch unit {
	case Minute:
		return now.Add(-time.Duration(qty) * time.Minute)
	case Hour:
		return now.Add(-time.Duration(qty) * time.Hour)
	default:
		return now.AddDate(0, 0, -qty)
	}
}

// StartOf floors ts to the start of its unit. Minute and hour bounds are
// computed on the absolute instant when the zone offset allows it, so an hour
// repeated by a DST fall-back keeps the offset of ts.
func StartOf(ts time.Time, unit Unit) time.Time {
	if unit != Day && alignedOffset(ts, unit) {
		return ts.Truncate(unit.Duration())
	}
	y, mo, d := ts.Date()
	switch unit {
	case Minute:
		return time.Date(y, mo, d, ts.Hour(), ts.Minute(), 0, 0, ts.Location())
	case Hour:
		return time.Date(y, mo, d, ts.Hour(), 0, 0, 0, ts.Location())
	default:
		return time.Date(y, mo, d, 0, 0, 0, 0, ts.Location())
	}
}

// EndOf returns the last nanosecond of ts's unit.
func EndOf(ts time.Time, unit Unit) time.Time {
	if unit != Day && alignedOffset(ts, unit) {
		return ts.Truncate(unit.Duration()).Add(unit.Duration() - 1)
	}
	const lastNano = int(time.Second - 1)
	y, mo, d := ts.Date()
	switch unit {
	case Minute:
		return time.Date(y, mo, d, ts.Hour(), ts.Minute(), 59, lastNano, ts.Location())
	case Hour:
		return time.Date(y, mo, d, ts.Hour(), 59, 59, lastNano, ts.Location())
	default:
		return time.Date(y, mo, d, 23, 59, 59, lastNano, ts.Location())
	}
}

// alignedOffset reports whether ts's zone offset is a whole number of units,
// which makes Truncate agree with the wall clock.
func alignedOffset(ts time.Time, unit Unit) bool {
	_, offset := ts.Zone()
	return offset%int(unit.Duration()/time.Second) == 0
}

// Duration is the nominal length of unit.
func (u Unit) Duration() time.Duration {
	switch u {
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}
