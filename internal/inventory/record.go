package inventory

import (
	"time"

	"github.com/franz/soundscape-inventory/internal/slot"
)

// Status is the file-health status of a recording row
type Status string

const (
	StatusPending      Status = "pending"
	StatusEmptyFile    Status = "empty_file"
	StatusBadFilename  Status = "bad_filename"
	StatusBadTimestamp Status = "bad_timestamp"
	StatusScanned      Status = "scanned"
	StatusFailedRead   Status = "failed_read"
)

// Statuses lists every scan status in pipeline order
var Statuses = []Status{
	StatusPending,
	StatusEmptyFile,
	StatusBadFilename,
	StatusBadTimestamp,
	StatusScanned,
	StatusFailedRead,
}

// StageStatus marks whether a downstream classifier may process a row
type StageStatus string

const (
	StagePending StageStatus = "pending"
	StageBlocked StageStatus = "blocked"
)

// Recording is one row of the inventory table. Pointer fields are empty
// cells when the row short-circuited before they were known.
type Recording struct {
	FileID    string
	Filename  string
	Filepath  string
	SizeBytes int64
	IsEmpty   bool

	RecorderID string
	StartDT    *time.Time
	EndDT      *time.Time

	Session      slot.Session
	SolarSlot    slot.Slot
	MinToSunrise *float64
	MinToSunset  *float64

	DurationS  *float64
	SampleRate *int
	Channels   *int
	Format     string
	Subtype    string

	WavReadable bool
	ScanStatus  Status
	LastError   string

	BirdnetWeek48 *int
	BirdnetStatus StageStatus
	PerchStatus   StageStatus

	UpdatedAt time.Time
}

// Date returns the calendar date of the start time
func (r *Recording) Date() (time.Time, bool) {
	if r.StartDT == nil {
		return time.Time{}, false
	}
	y, m, d := r.StartDT.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
}

// Month returns the month of the start time, or 0 when unknown
func (r *Recording) Month() int {
	if r.StartDT == nil {
		return 0
	}
	return int(r.StartDT.Month())
}

// Issue names a data-quality problem recorded in the QC table
type Issue string

const (
	IssueEmptyFile      Issue = "empty_file"
	IssueBadFilename    Issue = "bad_filename"
	IssueBadTimestamp   Issue = "bad_timestamp"
	IssueMissingSunData Issue = "missing_sun_data"
	IssueTooShort       Issue = "too_short"
	IssueCorruptAudio   Issue = "corrupt_audio"
)

// Anomaly is one row of the QC table
type Anomaly struct {
	File   string
	Issue  Issue
	Val    *float64
	Detail string
}
