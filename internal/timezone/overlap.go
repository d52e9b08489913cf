// Package timezone parses listing timezone requirements and computes how many
// working hours a home zone shares with a client's zone.
package timezone

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jimezsa/jobnotify/internal/config"
)

// WorkdayHours is the assumed length of an unshifted working day.
const WorkdayHours = 9.0

// Difference returns the hours to add to home time to get away time at the
// instant on. Results beyond ±12 are wrapped around the date line, so Tokyo to
// Honolulu reads +5 rather than -19.
func Difference(home, away *time.Location, on time.Time) float64 {
	_, homeOffset := on.In(home).Zone()
	_, awayOffset := on.In(away).Zone()
	diff := float64(awayOffset-homeOffset) / 3600.0

	if math.Abs(diff) > 12.0 {
		if diff < 0 {
			diff += 24.0
		} else {
			diff -= 24.0
		}
	}
	return diff
}

// FixedOffset returns a zone that is always hours away from UTC.
func FixedOffset(hours float64) *time.Location {
	seconds := int(math.Round(hours * 3600))
	sign := "+"
	if seconds < 0 {
		sign = "-"
	}
	abs := seconds
	if abs < 0 {
		abs = -abs
	}
	name := fmt.Sprintf("UTC%s%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, seconds)
}

// Calculator computes overlap from a configured home zone, allowing the worker
// to shift their day earlier (for clients to the east) or later (to the west).
type Calculator struct {
	Home       *time.Location
	ShiftEarly int
	ShiftLate  int
	Now        func() time.Time
}

func NewCalculator(cfg config.TZConfig) (*Calculator, error) {
	home, err := LoadHome(cfg.Home)
	if err != nil {
		return nil, err
	}
	if cfg.ShiftEarly < 0 || cfg.ShiftLate < 0 {
		return nil, errors.Newf("tz shifts must be non-negative (shift_early=%d shift_late=%d)", cfg.ShiftEarly, cfg.ShiftLate)
	}
	return &Calculator{
		Home:       home,
		ShiftEarly: cfg.ShiftEarly,
		ShiftLate:  cfg.ShiftLate,
		Now:        time.Now,
	}, nil
}

// LoadHome resolves a zone name. An empty name means the local zone.
func LoadHome(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "load tz.home %q", name),
			"use an IANA zone name such as Europe/Berlin or America/New_York",
		)
	}
	return loc, nil
}

// Overlap is OverlapOn evaluated today.
func (c *Calculator) Overlap(awayOffset float64) float64 {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return c.OverlapOn(awayOffset, now())
}

// OverlapOn returns the shared working hours with a client at awayOffset. The
// result is not clamped: it can be negative or exceed a full workday.
func (c *Calculator) OverlapOn(awayOffset float64, on time.Time) float64 {
	home := c.Home
	if home == nil {
		home = time.Local
	}
	diff := Difference(home, FixedOffset(awayOffset), on)
	if diff < 0 {
		return WorkdayHours + diff + float64(c.ShiftLate)
	}
	return WorkdayHours - diff + float64(c.ShiftEarly)
}
