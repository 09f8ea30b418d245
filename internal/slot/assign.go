package slot

import (
	"math"
	"time"

	"github.com/franz/soundscape-inventory/internal/sunref"
)

// Assignment is the solar classification of one recording. At most one of
// the minute offsets is set, depending on the session.
type Assignment struct {
	Slot         Slot
	MinToSunrise *float64
	MinToSunset  *float64
}

// Assign classifies a recording starting at start. Morning recordings are
// matched against sunrise and evening recordings against sunset; anything
// else is other_time. A nil ref yields no_ref_data for every session.
func Assign(start time.Time, session Session, ref *sunref.Day, toleranceMin float64) Assignment {
	if ref == nil {
		return Assignment{Slot: NoRefData}
	}

	var a Assignment
	switch session {
	case Morning:
		s, diff := Match(&start, &ref.SunriseNaive, EventSunrise, toleranceMin)
		a.MinToSunrise = roundTenth(diff)
		a.Slot = orElse(s, MorningNoSlot)
	case Evening:
		s, diff := Match(&start, &ref.SunsetNaive, EventSunset, toleranceMin)
		a.MinToSunset = roundTenth(diff)
		a.Slot = orElse(s, EveningNoSlot)
	default:
		a.Slot = OtherTime
	}
	return a
}

func orElse(s *Slot, fallback Slot) Slot {
	if s == nil {
		return fallback
	}
	return *s
}

func roundTenth(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*10) / 10
	return &r
}
