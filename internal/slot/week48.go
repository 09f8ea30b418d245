package slot

import "time"

// Week48 returns the BirdNET week index (1-48) of t: four weeks per month,
// the fourth covering day 22 to the end of the month.
func Week48(t time.Time) int {
	var wim int
	switch day := t.Day(); {
	case day <= 7:
		wim = 1
	case day <= 14:
		wim = 2
	case day <= 21:
		wim = 3
	default:
		wim = 4
	}
	return (int(t.Month())-1)*4 + wim
}
