package inventory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/franz/soundscape-inventory/internal/meta"
	"github.com/franz/soundscape-inventory/internal/slot"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/schollz/progressbar/v3"
)

// DefaultMinDurationS is the advisory duration floor in seconds
const DefaultMinDurationS = 300.0

// EventSink receives per-file audit events. *report.EventLogger satisfies it.
type EventSink interface {
	LogScan(fileID, srcPath, status string, sizeBytes int64) error
	LogSlot(fileID, srcPath, session, slot string) error
	LogAnomaly(file, issue, detail string) error
}

// HeaderFunc reads the audio header of a file
type HeaderFunc func(ctx context.Context, path string) (*meta.Header, error)

// Config holds builder configuration
type Config struct {
	Parser    *meta.FilenameParser
	Reference *sunref.Table

	Morning      slot.HourRange
	Evening      slot.HourRange
	ToleranceMin float64
	MinDurationS float64
	Week48       bool

	Logger       *util.Logger
	Events       EventSink
	ShowProgress bool

	// ReadHeader defaults to meta.ReadHeader
	ReadHeader HeaderFunc
	// Retry applies to transient header read failures; nil reads once
	Retry *util.RetryPolicy
	// Now stamps updated_at; defaults to time.Now
	Now func() time.Time
}

// Builder turns audio files into inventory rows
type Builder struct {
	cfg Config
	log *util.Logger
}

// Result holds the rows of one run in input order
type Result struct {
	Records   []Recording
	Anomalies []Anomaly
}

// CountByStatus returns the number of rows per scan status
func (r *Result) CountByStatus() map[Status]int {
	counts := make(map[Status]int)
	for _, rec := range r.Records {
		counts[rec.ScanStatus]++
	}
	return counts
}

// New creates a Builder
func New(cfg Config) (*Builder, error) {
	if cfg.Parser == nil {
		return nil, fmt.Errorf("%w: filename parser is required", util.ErrInvalidConfig)
	}
	if cfg.Reference == nil {
		return nil, fmt.Errorf("%w: solar reference table is required", util.ErrInvalidConfig)
	}
	if cfg.ReadHeader == nil {
		cfg.ReadHeader = meta.ReadHeader
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Builder{cfg: cfg, log: cfg.Logger}, nil
}

// Build processes paths sequentially. Per-file problems never abort the
// run; they become a status on the row plus an anomaly. Only context
// cancellation stops the loop early, returning the rows built so far.
func (b *Builder) Build(ctx context.Context, paths []string) (*Result, error) {
	result := &Result{
		Records: make([]Recording, 0, len(paths)),
	}

	var bar *progressbar.ProgressBar
	if b.cfg.ShowProgress && len(paths) > 0 {
		bar = progressbar.NewOptions(len(paths),
			progressbar.OptionSetDescription("Inventory"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	logEvery := len(paths) / 10
	if logEvery < 100 {
		logEvery = 100
	}

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, anomalies := b.Process(ctx, path)
		result.Records = append(result.Records, rec)
		result.Anomalies = append(result.Anomalies, anomalies...)

		if bar != nil {
			bar.Add(1)
		} else if (i+1)%logEvery == 0 {
			b.log.Info("Progress: %d/%d files", i+1, len(paths))
		}
	}

	if bar != nil {
		bar.Finish()
	}

	counts := result.CountByStatus()
	b.log.Info("Processed %d files: %d scanned, %d failed reads, %d bad filenames, %d bad timestamps, %d empty",
		len(result.Records), counts[StatusScanned], counts[StatusFailedRead],
		counts[StatusBadFilename], counts[StatusBadTimestamp], counts[StatusEmptyFile])

	return result, nil
}

// Process builds the inventory row for a single file together with the
// anomalies found on the way. Stage statuses and updated_at are set on every
// return path.
func (b *Builder) Process(ctx context.Context, path string) (rec Recording, anomalies []Anomaly) {
	name := filepath.Base(path)
	rec = Recording{
		Filename:   name,
		Filepath:   path,
		ScanStatus: StatusPending,
	}
	flag := func(a Anomaly) {
		anomalies = append(anomalies, a)
		b.emitAnomaly(a)
	}

	defer func() {
		rec.BirdnetStatus, rec.PerchStatus = StageBlocked, StageBlocked
		if rec.WavReadable {
			rec.BirdnetStatus, rec.PerchStatus = StagePending, StagePending
		}
		rec.UpdatedAt = b.cfg.Now()
		if b.cfg.Events != nil {
			b.eventFailed(b.cfg.Events.LogScan(rec.FileID, path, string(rec.ScanStatus), rec.SizeBytes))
		}
	}()

	info, err := os.Stat(path)
	if err != nil {
		rec.ScanStatus = StatusFailedRead
		rec.LastError = err.Error()
		b.log.Error("%s: cannot stat file: %v", name, err)
		flag(Anomaly{File: name, Issue: IssueCorruptAudio, Detail: err.Error()})
		return rec, anomalies
	}
	rec.SizeBytes = info.Size()

	if rec.SizeBytes == 0 {
		rec.IsEmpty = true
		rec.ScanStatus = StatusEmptyFile
		rec.LastError = "0 byte file"
		b.log.Error("%s: file is empty", name)
		flag(Anomaly{File: name, Issue: IssueEmptyFile})
		return rec, anomalies
	}

	fm, err := b.cfg.Parser.Parse(name)
	switch {
	case errors.Is(err, meta.ErrBadFilename):
		rec.ScanStatus = StatusBadFilename
		rec.LastError = "filename does not match pattern"
		b.log.Error("%s: filename does not match pattern", name)
		flag(Anomaly{File: name, Issue: IssueBadFilename})
		return rec, anomalies
	case err != nil:
		if fm != nil {
			rec.RecorderID = fm.RecorderID
		}
		rec.ScanStatus = StatusBadTimestamp
		rec.LastError = err.Error()
		b.log.Error("%s: invalid timestamp in filename", name)
		flag(Anomaly{File: name, Issue: IssueBadTimestamp})
		return rec, anomalies
	}

	start := fm.Start
	rec.RecorderID = fm.RecorderID
	rec.FileID = fm.FileID()
	rec.StartDT = &start
	if b.cfg.Week48 {
		w := slot.Week48(start)
		rec.BirdnetWeek48 = &w
	}
	rec.Session = slot.ClassifySession(start.Hour(), b.cfg.Morning, b.cfg.Evening)

	var ref *sunref.Day
	if day, ok := b.cfg.Reference.Lookup(start); ok {
		ref = &day
	} else {
		b.log.Warn("%s: no solar reference for %s", name, start.Format(sunref.DateLayout))
		flag(Anomaly{File: name, Issue: IssueMissingSunData})
	}
	a := slot.Assign(start, rec.Session, ref, b.cfg.ToleranceMin)
	rec.SolarSlot = a.Slot
	rec.MinToSunrise = a.MinToSunrise
	rec.MinToSunset = a.MinToSunset
	if b.cfg.Events != nil {
		b.eventFailed(b.cfg.Events.LogSlot(rec.FileID, path, string(rec.Session), rec.SolarSlot.String()))
	}

	h, err := util.RetryValue(ctx, b.cfg.Retry, b.log, "read "+name, func() (*meta.Header, error) {
		return b.cfg.ReadHeader(ctx, path)
	})
	if err != nil {
		rec.ScanStatus = StatusFailedRead
		rec.LastError = err.Error()
		b.log.Error("%s: audio not readable: %v", name, err)
		flag(Anomaly{File: name, Issue: IssueCorruptAudio, Detail: err.Error()})
		return rec, anomalies
	}

	duration := h.Duration
	sampleRate, channels := h.SampleRate, h.Channels
	rec.DurationS = &duration
	rec.SampleRate = &sampleRate
	rec.Channels = &channels
	rec.Format = h.Format
	rec.Subtype = h.Subtype

	if duration < b.minDuration() {
		b.log.Warn("%s: recording is too short (%.1f s)", name, duration)
		flag(Anomaly{File: name, Issue: IssueTooShort, Val: &duration})
	}

	end := start.Add(time.Duration(duration * float64(time.Second)))
	rec.EndDT = &end
	rec.WavReadable = true
	rec.ScanStatus = StatusScanned

	return rec, anomalies
}

func (b *Builder) minDuration() float64 {
	if b.cfg.MinDurationS > 0 {
		return b.cfg.MinDurationS
	}
	return DefaultMinDurationS
}

func (b *Builder) emitAnomaly(a Anomaly) {
	if b.cfg.Events == nil {
		return
	}
	detail := a.Detail
	if a.Val != nil && detail == "" {
		detail = fmt.Sprintf("%g", *a.Val)
	}
	b.eventFailed(b.cfg.Events.LogAnomaly(a.File, string(a.Issue), detail))
}

// eventFailed logs a failed audit write; the row itself is unaffected
func (b *Builder) eventFailed(err error) {
	if err != nil {
		b.log.Debug("Failed to write event: %v", err)
	}
}
