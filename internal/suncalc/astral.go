package suncalc

import (
	"fmt"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

type astralCalc struct {
	observer astral.Observer
	loc      *time.Location
}

func newAstral(obs Observer) *astralCalc {
	return &astralCalc{
		observer: astral.Observer{Latitude: obs.Latitude, Longitude: obs.Longitude},
		loc:      obs.Location,
	}
}

// EventTimes calculates sunrise, sunset and solar noon with astral
func (c *astralCalc) EventTimes(date time.Time) (EventTimes, error) {
	sunrise, err := localEvent(func(day time.Time) (time.Time, error) {
		return astral.Sunrise(c.observer, day)
	}, date, c.loc)
	if err != nil {
		// astral only fails when the sun does not cross the horizon
		return EventTimes{}, fmt.Errorf("failed to calculate sunrise: %w (%v)", ErrNoEvent, err)
	}

	sunset, err := localEvent(func(day time.Time) (time.Time, error) {
		return astral.Sunset(c.observer, day)
	}, date, c.loc)
	if err != nil {
		return EventTimes{}, fmt.Errorf("failed to calculate sunset: %w (%v)", ErrNoEvent, err)
	}

	noon, err := localEvent(func(day time.Time) (time.Time, error) {
		return astral.Noon(c.observer, day), nil
	}, date, c.loc)
	if err != nil {
		return EventTimes{}, fmt.Errorf("failed to calculate noon: %w", err)
	}

	return EventTimes{Sunrise: sunrise, Sunset: sunset, Noon: noon}, nil
}
