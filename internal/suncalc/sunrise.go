package suncalc

import (
	"fmt"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

type sunriseCalc struct {
	obs Observer
}

func newSunrise(obs Observer) *sunriseCalc {
	return &sunriseCalc{obs: obs}
}

func (c *sunriseCalc) riseSet(day time.Time) (time.Time, time.Time, error) {
	rise, set := sunrise.SunriseSunset(c.obs.Latitude, c.obs.Longitude, day.Year(), day.Month(), day.Day())
	if rise.IsZero() || set.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s", ErrNoEvent, day.Format("2006-01-02"))
	}
	return rise, set, nil
}

// EventTimes calculates sunrise and sunset with go-sunrise. Solar noon
// is taken as the midpoint between the two.
func (c *sunriseCalc) EventTimes(date time.Time) (EventTimes, error) {
	rise, err := localEvent(func(day time.Time) (time.Time, error) {
		r, _, err := c.riseSet(day)
		return r, err
	}, date, c.obs.Location)
	if err != nil {
		return EventTimes{}, fmt.Errorf("failed to calculate sunrise: %w", err)
	}

	set, err := localEvent(func(day time.Time) (time.Time, error) {
		_, s, err := c.riseSet(day)
		return s, err
	}, date, c.obs.Location)
	if err != nil {
		return EventTimes{}, fmt.Errorf("failed to calculate sunset: %w", err)
	}

	noon := rise.Add(set.Sub(rise) / 2).Round(time.Second)

	return EventTimes{Sunrise: rise, Sunset: set, Noon: noon}, nil
}
