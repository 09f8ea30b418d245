package sunref

import (
	"time"

	"github.com/franz/soundscape-inventory/internal/suncalc"
	"github.com/franz/soundscape-inventory/internal/util"
)

// DateLayout is the serialized form of a civil date
const DateLayout = "2006-01-02"

// Day is one row of the solar reference table. Aware values carry the
// local offset; naive values hold the same wall clock without a zone.
type Day struct {
	Date time.Time

	SunriseAware time.Time
	SunsetAware  time.Time
	NoonAware    time.Time

	SunriseNaive time.Time
	SunsetNaive  time.Time
	NoonNaive    time.Time

	DSTActive bool
}

// NewDay derives a table row from the sun events of date
func NewDay(date time.Time, ev suncalc.EventTimes) Day {
	return Day{
		Date:         suncalc.CivilDate(date),
		SunriseAware: ev.Sunrise,
		SunsetAware:  ev.Sunset,
		NoonAware:    ev.Noon,
		SunriseNaive: suncalc.StripZone(ev.Sunrise),
		SunsetNaive:  suncalc.StripZone(ev.Sunset),
		NoonNaive:    suncalc.StripZone(ev.Noon),
		DSTActive:    ev.Noon.IsDST(),
	}
}

// Plausible reports whether sunrise < noon < sunset
func (d Day) Plausible() bool {
	return d.SunriseNaive.Before(d.NoonNaive) && d.NoonNaive.Before(d.SunsetNaive)
}

// YearRange returns the first and last date of year
func YearRange(year int) (time.Time, time.Time) {
	return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, 12, 31, 0, 0, 0, 0, time.UTC)
}

// Build computes one Day per date in [start, end]. Dates whose calculation
// fails are logged and left out of the result.
func Build(calc suncalc.Calculator, start, end time.Time, log *util.Logger) []Day {
	start, end = suncalc.CivilDate(start), suncalc.CivilDate(end)

	days := make([]Day, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		ev, err := calc.EventTimes(d)
		if err != nil {
			log.Error("Sun calculation failed for %s: %v", d.Format(DateLayout), err)
			continue
		}
		days = append(days, NewDay(d, ev))
	}

	log.Info("Computed %d solar reference days (%s to %s)",
		len(days), start.Format(DateLayout), end.Format(DateLayout))
	return days
}

// Check logs a warning for every day violating sunrise < noon < sunset and
// returns the number of violations.
func Check(days []Day, log *util.Logger) int {
	bad := 0
	for _, d := range days {
		if !d.Plausible() {
			bad++
			log.Warn("Implausible sun times on %s: sunrise %s, noon %s, sunset %s",
				d.Date.Format(DateLayout),
				d.SunriseNaive.Format("15:04:05"),
				d.NoonNaive.Format("15:04:05"),
				d.SunsetNaive.Format("15:04:05"))
		}
	}
	return bad
}

// LogSolstices writes the sunrise of Jun 21 and Dec 21 as a sanity line
func LogSolstices(days []Day, log *util.Logger) {
	if len(days) == 0 {
		return
	}
	t := NewTable(days)
	year := days[0].Date.Year()
	for _, month := range []time.Month{time.June, time.December} {
		date := time.Date(year, month, 21, 0, 0, 0, 0, time.UTC)
		if d, ok := t.Lookup(date); ok {
			log.Info("Check %s: sunrise %s", date.Format(DateLayout), d.SunriseAware.Format("15:04:05 -07:00"))
		}
	}
}

// Table indexes reference days by civil date
type Table struct {
	days  []Day
	index map[string]int
}

// NewTable builds a lookup table. Later duplicates of a date replace
// earlier ones.
func NewTable(days []Day) *Table {
	t := &Table{
		days:  days,
		index: make(map[string]int, len(days)),
	}
	for i, d := range days {
		t.index[d.Date.Format(DateLayout)] = i
	}
	return t
}

// Lookup returns the reference day for the calendar date of date
func (t *Table) Lookup(date time.Time) (Day, bool) {
	if t == nil {
		return Day{}, false
	}
	i, ok := t.index[date.Format(DateLayout)]
	if !ok {
		return Day{}, false
	}
	return t.days[i], true
}

// Days returns all rows in file order
func (t *Table) Days() []Day {
	if t == nil {
		return nil
	}
	return t.days
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.days)
}
