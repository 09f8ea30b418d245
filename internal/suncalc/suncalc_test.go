package suncalc

import (
	"errors"
	"testing"
	"time"

	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func berlin(t *testing.T) Observer {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return Observer{Latitude: 52.52, Longitude: 13.405, Location: loc}
}

func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}

func assertNear(t *testing.T, want time.Duration, got time.Time, msg string) {
	t.Helper()
	diff := clock(got) - want
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, 10*time.Minute, "%s: got %s", msg, got.Format("15:04:05"))
}

func hm(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

func TestEnginesBerlin(t *testing.T) {
	obs := berlin(t)

	for _, engine := range []string{"astral", "sunrise"} {
		t.Run(engine, func(t *testing.T) {
			calc, err := New(engine, obs)
			require.NoError(t, err)

			summer, err := calc.EventTimes(time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assertNear(t, hm(4, 43), summer.Sunrise, "summer sunrise")
			assertNear(t, hm(21, 33), summer.Sunset, "summer sunset")
			assertNear(t, hm(13, 8), summer.Noon, "summer noon")

			_, offset := summer.Sunrise.Zone()
			assert.Equal(t, 2*3600, offset, "CEST in June")
			assert.True(t, summer.Noon.IsDST())
			assert.Equal(t, 21, summer.Sunrise.Day())

			winter, err := calc.EventTimes(time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			assertNear(t, hm(8, 15), winter.Sunrise, "winter sunrise")
			assertNear(t, hm(15, 54), winter.Sunset, "winter sunset")
			assert.False(t, winter.Noon.IsDST())

			assert.True(t, summer.Sunrise.Before(summer.Noon))
			assert.True(t, summer.Noon.Before(summer.Sunset))
			assert.Zero(t, summer.Sunrise.Nanosecond(), "rounded to seconds")
		})
	}
}

func TestEngineFarEastKeepsLocalDate(t *testing.T) {
	loc, err := time.LoadLocation("Pacific/Auckland")
	require.NoError(t, err)
	calc, err := New("astral", Observer{Latitude: -36.85, Longitude: 174.76, Location: loc})
	require.NoError(t, err)

	times, err := calc.EventTimes(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 10, times.Sunrise.Day())
	assert.Equal(t, 10, times.Sunset.Day())
}

func TestPolarDay(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Oslo")
	require.NoError(t, err)
	obs := Observer{Latitude: 78.22, Longitude: 15.65, Location: loc}
	date := time.Date(2025, 6, 21, 0, 0, 0, 0, time.UTC)

	calc, err := New("sunrise", obs)
	require.NoError(t, err)
	_, err = calc.EventTimes(date)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoEvent))

	calc, err = New("astral", obs)
	require.NoError(t, err)
	_, err = calc.EventTimes(date)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoEvent))
}

func TestUnknownEngine(t *testing.T) {
	_, err := New("sundial", Observer{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrInvalidConfig))
}

func TestStripZone(t *testing.T) {
	loc := time.FixedZone("CEST", 2*3600)
	aware := time.Date(2025, 6, 1, 5, 20, 13, 0, loc)

	naive := StripZone(aware)
	assert.Equal(t, time.UTC, naive.Location())
	assert.Equal(t, "2025-06-01 05:20:13", naive.Format("2006-01-02 15:04:05"))
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), CivilDate(aware))
}
