package inventory

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

	"github.com/franz/soundscape-inventory/internal/slot"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/franz/soundscape-inventory/internal/util"
)

// Columns is the header of the inventory table
var Columns = []string{
	"file_id",
	"filename",
	"filepath",
	"size_bytes",
	"is_empty",
	"recorder_id",
	"start_dt",
	"end_dt",
	"date",
	"month",
	"session",
	"solar_slot",
	"min_to_sunrise",
	"min_to_sunset",
	"duration_s",
	"samplerate",
	"channels",
	"format",
	"subtype",
	"wav_readable",
	"scan_status",
	"last_error",
	"birdnet_week48",
	"birdnet_status",
	"perch_status",
	"updated_at",
}

// AnomalyColumns is the header of the QC table
var AnomalyColumns = []string{"file", "issue", "val", "detail"}

// Row renders r in Columns order
func (r *Recording) Row() []string {
	var date, month string
	if d, ok := r.Date(); ok {
		date = d.Format(sunref.DateLayout)
		month = strconv.Itoa(r.Month())
	}

	return []string{
		r.FileID,
		r.Filename,
		r.Filepath,
		strconv.FormatInt(r.SizeBytes, 10),
		formatBool(r.IsEmpty),
		r.RecorderID,
		formatTime(r.StartDT),
		formatTime(r.EndDT),
		date,
		month,
		string(r.Session),
		r.SolarSlot.String(),
		formatFloat(r.MinToSunrise),
		formatFloat(r.MinToSunset),
		formatFloat(r.DurationS),
		formatInt(r.SampleRate),
		formatInt(r.Channels),
		r.Format,
		r.Subtype,
		formatBool(r.WavReadable),
		string(r.ScanStatus),
		r.LastError,
		formatInt(r.BirdnetWeek48),
		string(r.BirdnetStatus),
		string(r.PerchStatus),
		r.UpdatedAt.Format(sunref.NaiveLayout),
	}
}

// Row renders a in AnomalyColumns order
func (a *Anomaly) Row() []string {
	return []string{a.File, string(a.Issue), formatFloat(a.Val), a.Detail}
}

// WriteInventoryCSV writes records to path, replacing any existing file
func WriteInventoryCSV(path string, records []Recording) error {
	rows := make([][]string, len(records))
	for i := range records {
		rows[i] = records[i].Row()
	}
	return writeCSV(path, Columns, rows)
}

// WriteAnomaliesCSV writes the QC table to path
func WriteAnomaliesCSV(path string, anomalies []Anomaly) error {
	rows := make([][]string, len(anomalies))
	for i := range anomalies {
		rows[i] = anomalies[i].Row()
	}
	return writeCSV(path, AnomalyColumns, rows)
}

// SyncAnomaliesCSV writes the QC table when there are anomalies and
// removes a table left by an earlier run otherwise. It reports whether a
// file was written.
func SyncAnomaliesCSV(path string, anomalies []Anomaly) (bool, error) {
	if len(anomalies) > 0 {
		return true, WriteAnomaliesCSV(path, anomalies)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to remove stale QC table: %w", err)
	}
	return false, nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	return util.WriteFileAtomic(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		if err := cw.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	})
}

// ReadInventoryCSV loads an inventory table. Columns are located by
// header name; unknown columns are ignored.
func ReadInventoryCSV(path string) ([]Recording, error) {
	header, rows, err := readCSV(path, "inventory table")
	if err != nil {
		return nil, err
	}

	col := indexColumns(header)
	records := make([]Recording, 0, len(rows))
	for i, row := range rows {
		rec, err := decodeRecording(func(name string) string { return cell(row, col, name) })
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// ReadAnomaliesCSV loads a QC table. A missing file yields no anomalies.
func ReadAnomaliesCSV(path string) ([]Anomaly, error) {
	header, rows, err := readCSV(path, "QC table")
	if errors.Is(err, util.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	col := indexColumns(header)
	anomalies := make([]Anomaly, 0, len(rows))
	for i, row := range rows {
		a := Anomaly{
			File:   cell(row, col, "file"),
			Issue:  Issue(cell(row, col, "issue")),
			Detail: cell(row, col, "detail"),
		}
		v, err := parseFloat(cell(row, col, "val"))
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, i+2, err)
		}
		a.Val = v
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}

func readCSV(path, what string) ([]string, [][]string, error) {
	if err := util.RequireFile(path, what); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", what, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("%w: %s %s is empty", util.ErrCorrupt, what, path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", what, err)
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", what, err)
	}
	return header, rows, nil
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	return col
}

func cell(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func decodeRecording(field func(string) string) (Recording, error) {
	rec := Recording{
		FileID:        field("file_id"),
		Filename:      field("filename"),
		Filepath:      field("filepath"),
		RecorderID:    field("recorder_id"),
		Session:       slot.Session(field("session")),
		Format:        field("format"),
		Subtype:       field("subtype"),
		ScanStatus:    Status(field("scan_status")),
		LastError:     field("last_error"),
		BirdnetStatus: StageStatus(field("birdnet_status")),
		PerchStatus:   StageStatus(field("perch_status")),
	}

	var err error
	if s := field("size_bytes"); s != "" {
		if rec.SizeBytes, err = strconv.ParseInt(strings.TrimSuffix(s, ".0"), 10, 64); err != nil {
			return rec, fmt.Errorf("%w: bad size_bytes %q", util.ErrCorrupt, s)
		}
	}
	if rec.IsEmpty, err = parseBool(field("is_empty")); err != nil {
		return rec, err
	}
	if rec.WavReadable, err = parseBool(field("wav_readable")); err != nil {
		return rec, err
	}
	if rec.StartDT, err = parseTime(field("start_dt")); err != nil {
		return rec, err
	}
	if rec.EndDT, err = parseTime(field("end_dt")); err != nil {
		return rec, err
	}
	if rec.SolarSlot, err = slot.ParseSlot(field("solar_slot")); err != nil {
		return rec, fmt.Errorf("%w: %v", util.ErrCorrupt, err)
	}
	if rec.MinToSunrise, err = parseFloat(field("min_to_sunrise")); err != nil {
		return rec, err
	}
	if rec.MinToSunset, err = parseFloat(field("min_to_sunset")); err != nil {
		return rec, err
	}
	if rec.DurationS, err = parseFloat(field("duration_s")); err != nil {
		return rec, err
	}
	if rec.SampleRate, err = parseInt(field("samplerate")); err != nil {
		return rec, err
	}
	if rec.Channels, err = parseInt(field("channels")); err != nil {
		return rec, err
	}
	if rec.BirdnetWeek48, err = parseInt(field("birdnet_week48")); err != nil {
		return rec, err
	}
	if t, err := parseTime(field("updated_at")); err != nil {
		return rec, err
	} else if t != nil {
		rec.UpdatedAt = *t
	}

	return rec, nil
}

func formatBool(v bool) string {
	return sunref.FormatDST(v)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(sunref.NaiveLayout)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: bad boolean %q", util.ErrCorrupt, s)
	}
	return v, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{sunref.NaiveLayout, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: bad timestamp %q", util.ErrCorrupt, s)
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad number %q", util.ErrCorrupt, s)
	}
	return &v, nil
}

// parseInt accepts "12" and the float form "12.0" written by some tools
func parseInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad integer %q", util.ErrCorrupt, s)
	}
	v := int(f)
	return &v, nil
}
