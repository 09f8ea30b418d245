package sunref

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/franz/soundscape-inventory/internal/suncalc"
	"github.com/franz/soundscape-inventory/internal/util"
)

// NaiveLayout is the serialized form of zone-less timestamps
const NaiveLayout = "2006-01-02 15:04:05"

// Columns is the header of the reference table
var Columns = []string{
	"date",
	"sunrise_aware",
	"sunset_aware",
	"sunrise_naive",
	"sunset_naive",
	"noon_naive",
	"dst_active",
}

var (
	naiveLayouts = []string{NaiveLayout, "2006-01-02T15:04:05"}
	awareLayouts = []string{time.RFC3339, "2006-01-02 15:04:05Z07:00"}
)

// FormatDST renders a DST flag the way the table stores it
func FormatDST(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// WriteCSV writes days to path, replacing any existing file only once the
// new table is complete
func WriteCSV(path string, days []Day) error {
	if err := util.WriteFileAtomic(path, func(w io.Writer) error { return Encode(w, days) }); err != nil {
		return fmt.Errorf("failed to write reference table: %w", err)
	}
	return nil
}

// Row renders d in Columns order
func (d Day) Row() []string {
	return []string{
		d.Date.Format(DateLayout),
		d.SunriseAware.Format(time.RFC3339),
		d.SunsetAware.Format(time.RFC3339),
		d.SunriseNaive.Format(NaiveLayout),
		d.SunsetNaive.Format(NaiveLayout),
		d.NoonNaive.Format(NaiveLayout),
		FormatDST(d.DSTActive),
	}
}

// Encode writes days as CSV to w
func Encode(w io.Writer, days []Day) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, d := range days {
		row := d.Row()
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row %s: %w", row[0], err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV loads a reference table written by WriteCSV. A missing file
// wraps util.ErrNotFound.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reference table %s: %w (run 'ssinv sunref' first)", path, util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open reference table: %w", err)
	}
	defer f.Close()

	days, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewTable(days), nil
}

// Decode parses reference rows from r. Columns are located by header name;
// date plus sunrise and sunset (naive or aware) are required.
func Decode(r io.Reader) ([]Day, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty reference table", util.ErrCorrupt)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	if _, ok := col["date"]; !ok {
		return nil, fmt.Errorf("%w: reference table has no date column", util.ErrCorrupt)
	}
	for _, event := range []string{"sunrise", "sunset"} {
		_, naive := col[event+"_naive"]
		_, aware := col[event+"_aware"]
		if !naive && !aware {
			return nil, fmt.Errorf("%w: reference table has no %s column", util.ErrCorrupt, event)
		}
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var days []Day
	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		day, err := decodeRow(func(name string) string { return field(rec, name) })
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		days = append(days, day)
	}

	return days, nil
}

func decodeRow(field func(string) string) (Day, error) {
	var d Day

	dateStr := field("date")
	if len(dateStr) > len(DateLayout) {
		dateStr = dateStr[:len(DateLayout)]
	}
	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return d, fmt.Errorf("%w: bad date %q", util.ErrCorrupt, field("date"))
	}
	d.Date = date

	if d.SunriseAware, err = parseAware(field("sunrise_aware")); err != nil {
		return d, err
	}
	if d.SunsetAware, err = parseAware(field("sunset_aware")); err != nil {
		return d, err
	}

	if d.SunriseNaive, err = parseNaive(field("sunrise_naive"), d.SunriseAware); err != nil {
		return d, err
	}
	if d.SunsetNaive, err = parseNaive(field("sunset_naive"), d.SunsetAware); err != nil {
		return d, err
	}
	if d.NoonNaive, err = parseNaive(field("noon_naive"), time.Time{}); err != nil {
		return d, err
	}
	if d.SunriseNaive.IsZero() || d.SunsetNaive.IsZero() {
		return d, fmt.Errorf("%w: missing sunrise or sunset for %s", util.ErrCorrupt, dateStr)
	}

	if s := field("dst_active"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return d, fmt.Errorf("%w: bad dst_active %q", util.ErrCorrupt, s)
		}
		d.DSTActive = v
	}

	return d, nil
}

func parseAware(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", util.ErrCorrupt, s)
}

// parseNaive reads a zone-less timestamp; an empty cell falls back to the
// wall clock of the aware value.
func parseNaive(s string, aware time.Time) (time.Time, error) {
	if s == "" {
		if aware.IsZero() {
			return time.Time{}, nil
		}
		return suncalc.StripZone(aware), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad timestamp %q", util.ErrCorrupt, s)
}
