package suncalc

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/franz/soundscape-inventory/internal/util"
)

// ErrNoEvent is returned when the sun does not rise or set on a date
var ErrNoEvent = errors.New("no sun event on date")

// EventTimes holds the sun events of one civil day in local time
type EventTimes struct {
	Sunrise time.Time
	Sunset  time.Time
	Noon    time.Time
}

// Calculator computes sun events for the civil date of the given time
type Calculator interface {
	EventTimes(date time.Time) (EventTimes, error)
}

// Observer is a fixed position on the earth with its civil time zone
type Observer struct {
	Latitude  float64
	Longitude float64
	Location  *time.Location
}

// New returns the calculator for the named engine ("astral" or "sunrise")
func New(engine string, obs Observer) (Calculator, error) {
	if obs.Location == nil {
		obs.Location = time.UTC
	}
	switch engine {
	case "astral", "":
		return newAstral(obs), nil
	case "sunrise":
		return newSunrise(obs), nil
	default:
		return nil, fmt.Errorf("%w: unknown sun engine %q", util.ErrInvalidConfig, engine)
	}
}

// StripZone drops the zone of t while keeping its wall clock. Naive
// timestamps are represented as UTC values throughout the pipeline.
func StripZone(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// CivilDate truncates t to midnight of its calendar date, zone stripped
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

type eventFunc func(day time.Time) (time.Time, error)

// localEvent evaluates fn for the UTC day matching the civil date and
// converts the result to loc. When the local result falls on a
// neighbouring date, the adjacent UTC day is evaluated instead.
func localEvent(fn eventFunc, date time.Time, loc *time.Location) (time.Time, error) {
	day := CivilDate(date)

	t, err := fn(day)
	if err != nil {
		return time.Time{}, err
	}
	local := t.In(loc)

	if !sameDate(local, day) {
		shift := 1
		if CivilDate(local).After(day) {
			shift = -1
		}
		t, err = fn(day.AddDate(0, 0, shift))
		if err != nil {
			return time.Time{}, err
		}
		local = t.In(loc)
	}

	return local.Round(time.Second), nil
}
