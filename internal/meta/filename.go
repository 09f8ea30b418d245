package meta

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	// ErrBadFilename is returned when a filename does not match the pattern
	ErrBadFilename = errors.New("filename does not match pattern")

	// ErrBadTimestamp is returned when the date/time groups do not form a
	// valid timestamp
	ErrBadTimestamp = errors.New("invalid timestamp in filename")
)

// timestampLayout joins the date (YYYYMMDD) and time (HHMMSS) groups
const timestampLayout = "20060102150405"

// FilenameMeta is what a recorder filename encodes
type FilenameMeta struct {
	RecorderID string
	Date       string
	Time       string

	// Start is the wall-clock start of the recording, without a zone
	Start time.Time
}

// FileID returns the stable identifier rec_YYYYMMDD_HHMMSS
func (m *FilenameMeta) FileID() string {
	return fmt.Sprintf("%s_%s", m.RecorderID, m.Start.Format("20060102_150405"))
}

// FilenameParser extracts recorder id and start time from filenames.
// Matching is case-insensitive and anchored at the start of the name.
type FilenameParser struct {
	re      *regexp.Regexp
	recIdx  int
	dateIdx int
	timeIdx int
}

// NewFilenameParser compiles pattern, which must define the named groups
// rec, date and time.
func NewFilenameParser(pattern string) (*FilenameParser, error) {
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("invalid filename pattern: %w", err)
	}

	p := &FilenameParser{
		re:      re,
		recIdx:  re.SubexpIndex("rec"),
		dateIdx: re.SubexpIndex("date"),
		timeIdx: re.SubexpIndex("time"),
	}
	if p.recIdx < 0 || p.dateIdx < 0 || p.timeIdx < 0 {
		return nil, fmt.Errorf("filename pattern must define groups rec, date and time: %s", pattern)
	}
	return p, nil
}

// Parse parses the base name of path
func (p *FilenameParser) Parse(path string) (*FilenameMeta, error) {
	name := norm.NFC.String(filepath.Base(path))

	m := p.re.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrBadFilename, name)
	}

	meta := &FilenameMeta{
		RecorderID: m[p.recIdx],
		Date:       m[p.dateIdx],
		Time:       m[p.timeIdx],
	}

	start, err := time.Parse(timestampLayout, meta.Date+meta.Time)
	if err != nil || len(meta.Date) != 8 || len(meta.Time) != 6 {
		return meta, fmt.Errorf("%w: %s %s", ErrBadTimestamp, meta.Date, meta.Time)
	}
	meta.Start = start

	return meta, nil
}

// Pattern returns the compiled expression
func (p *FilenameParser) Pattern() string {
	return strings.TrimSuffix(strings.TrimPrefix(p.re.String(), `(?i)^(?:`), `)`)
}
