package slot

import "fmt"

// Session is the time-of-day category of a recording
type Session string

const (
	Morning Session = "morning"
	Evening Session = "evening"
	Other   Session = "other"
)

// HourRange is an inclusive [Low, High] hour-of-day window
type HourRange struct {
	Low  int
	High int
}

// NewHourRange converts a configured [low, high] pair
func NewHourRange(bounds []int) (HourRange, error) {
	if len(bounds) != 2 {
		return HourRange{}, fmt.Errorf("hour range needs two bounds, got %v", bounds)
	}
	return HourRange{Low: bounds[0], High: bounds[1]}, nil
}

// Contains reports whether hour lies within the window, bounds included
func (r HourRange) Contains(hour int) bool {
	return r.Low <= hour && hour <= r.High
}

func (r HourRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Low, r.High)
}

// ClassifySession maps an hour of day to a session. The morning window is
// checked first, so it wins when the windows overlap.
func ClassifySession(hour int, morning, evening HourRange) Session {
	switch {
	case morning.Contains(hour):
		return Morning
	case evening.Contains(hour):
		return Evening
	default:
		return Other
	}
}
