package slot

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/franz/soundscape-inventory/internal/suncalc"
)

// Event names the sun event a recording is scheduled against
type Event string

const (
	EventSunrise Event = "sunrise"
	EventSunset  Event = "sunset"
)

// Kind discriminates the variants of Slot
type Kind int

const (
	KindSunrise Kind = iota + 1
	KindSunset
	KindMorningNoSlot
	KindEveningNoSlot
	KindOtherTime
	KindNoRefData
)

// Slot is the solar slot assigned to a recording. Offset is only
// meaningful for KindSunrise and KindSunset and is a multiple of 60.
type Slot struct {
	Kind   Kind
	Offset int
}

// Predefined slots without an offset
var (
	MorningNoSlot = Slot{Kind: KindMorningNoSlot}
	EveningNoSlot = Slot{Kind: KindEveningNoSlot}
	OtherTime     = Slot{Kind: KindOtherTime}
	NoRefData     = Slot{Kind: KindNoRefData}
)

// Sunrise returns the slot offsetMin minutes from sunrise
func Sunrise(offsetMin int) Slot { return Slot{Kind: KindSunrise, Offset: offsetMin} }

// Sunset returns the slot offsetMin minutes from sunset
func Sunset(offsetMin int) Slot { return Slot{Kind: KindSunset, Offset: offsetMin} }

// IsZero reports whether no slot has been assigned
func (s Slot) IsZero() bool { return s.Kind == 0 }

// Matched reports whether the slot is a concrete sunrise or sunset offset
func (s Slot) Matched() bool {
	return s.Kind == KindSunrise || s.Kind == KindSunset
}

// String returns the table form, e.g. "sunrise_-120" or "other_time"
func (s Slot) String() string {
	switch s.Kind {
	case KindSunrise:
		return fmt.Sprintf("%s_%d", EventSunrise, s.Offset)
	case KindSunset:
		return fmt.Sprintf("%s_%d", EventSunset, s.Offset)
	case KindMorningNoSlot:
		return "morning_no_slot"
	case KindEveningNoSlot:
		return "evening_no_slot"
	case KindOtherTime:
		return "other_time"
	case KindNoRefData:
		return "no_ref_data"
	default:
		return ""
	}
}

// ParseSlot parses the table form produced by String. An empty string
// yields the zero Slot.
func ParseSlot(s string) (Slot, error) {
	switch s {
	case "":
		return Slot{}, nil
	case "morning_no_slot":
		return MorningNoSlot, nil
	case "evening_no_slot":
		return EveningNoSlot, nil
	case "other_time":
		return OtherTime, nil
	case "no_ref_data":
		return NoRefData, nil
	}

	name, offset, ok := strings.Cut(s, "_")
	if !ok {
		return Slot{}, fmt.Errorf("unknown solar slot %q", s)
	}
	n, err := strconv.Atoi(offset)
	if err != nil {
		return Slot{}, fmt.Errorf("unknown solar slot %q", s)
	}
	switch Event(name) {
	case EventSunrise:
		return Sunrise(n), nil
	case EventSunset:
		return Sunset(n), nil
	}
	return Slot{}, fmt.Errorf("unknown solar slot %q", s)
}

// Match recovers the whole-hour offset of event relative to reference.
//
// The signed difference is taken on zone-stripped wall clocks and rounded
// to the nearest hour, halves away from zero (+90 min -> +120, -90 min ->
// -120). The slot is returned when the remaining deviation is within
// toleranceMin, bounds included. The difference is returned whenever both
// times are present, matched or not; a missing or zero time yields
// (nil, nil).
func Match(event, reference *time.Time, name Event, toleranceMin float64) (*Slot, *float64) {
	if event == nil || reference == nil || event.IsZero() || reference.IsZero() {
		return nil, nil
	}

	diff := suncalc.StripZone(*event).Sub(suncalc.StripZone(*reference)).Minutes()
	hourOffset := math.Round(diff / 60)
	expected := hourOffset * 60
	deviation := math.Abs(diff - expected)

	if deviation > toleranceMin {
		return nil, &diff
	}

	s := Slot{Offset: int(expected)}
	switch name {
	case EventSunset:
		s.Kind = KindSunset
	default:
		s.Kind = KindSunrise
	}
	return &s, &diff
}
