package inventory

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/franz/soundscape-inventory/internal/config"
	"github.com/franz/soundscape-inventory/internal/meta"
	"github.com/franz/soundscape-inventory/internal/slot"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type recordedEvent struct {
	kind, file, status, slot, issue string
}

type fakeSink struct {
	events []recordedEvent
}

func (s *fakeSink) LogScan(fileID, srcPath, status string, sizeBytes int64) error {
	s.events = append(s.events, recordedEvent{kind: "scan", file: srcPath, status: status})
	return nil
}

func (s *fakeSink) LogSlot(fileID, srcPath, session, slot string) error {
	s.events = append(s.events, recordedEvent{kind: "slot", file: srcPath, slot: slot})
	return nil
}

func (s *fakeSink) LogAnomaly(file, issue, detail string) error {
	s.events = append(s.events, recordedEvent{kind: "anomaly", file: file, issue: issue})
	return nil
}

// brokenSink fails every write, like an event log on a full disk
type brokenSink struct{}

func (brokenSink) LogScan(string, string, string, int64) error { return errors.New("disk full") }
func (brokenSink) LogSlot(string, string, string, string) error { return errors.New("disk full") }
func (brokenSink) LogAnomaly(string, string, string) error     { return errors.New("disk full") }

func (s *fakeSink) count(kind string) int {
	n := 0
	for _, e := range s.events {
		if e.kind == kind {
			n++
		}
	}
	return n
}

func juneFirst() sunref.Day {
	at := func(h, m int) time.Time { return time.Date(2025, 6, 1, h, m, 0, 0, time.UTC) }
	return sunref.Day{
		Date:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		SunriseNaive: at(5, 20),
		SunsetNaive:  at(21, 0),
		NoonNaive:    at(13, 10),
		DSTActive:    true,
	}
}

func writeWAV(t *testing.T, path string, seconds int) {
	t.Helper()

	const rate = 1000
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: rate, NumChannels: 1},
		Data:           make([]int, rate*seconds),
		SourceBitDepth: 16,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func newBuilder(t *testing.T, sink EventSink, read HeaderFunc) *Builder {
	t.Helper()

	parser, err := meta.NewFilenameParser(config.DefaultFilenameRegex)
	require.NoError(t, err)

	b, err := New(Config{
		Parser:       parser,
		Reference:    sunref.NewTable([]sunref.Day{juneFirst()}),
		Morning:      slot.HourRange{Low: 3, High: 12},
		Evening:      slot.HourRange{Low: 15, High: 23},
		ToleranceMin: 15,
		Week48:       true,
		Logger:       util.NopLogger(),
		Events:       sink,
		ReadHeader:   read,
		Now:          func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return b
}

func TestNewRequiresParserAndReference(t *testing.T) {
	_, err := New(Config{Reference: sunref.NewTable(nil)})
	assert.ErrorIs(t, err, util.ErrInvalidConfig)

	parser, err := meta.NewFilenameParser(config.DefaultFilenameRegex)
	require.NoError(t, err)
	_, err = New(Config{Parser: parser})
	assert.ErrorIs(t, err, util.ErrInvalidConfig)
}

func TestProcessScannedMorning(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "REC01_20250601_032000.wav")
	writeWAV(t, path, 301)

	sink := &fakeSink{}
	b := newBuilder(t, sink, nil)

	rec, anomalies := b.Process(context.Background(), path)
	assert.Empty(t, anomalies)

	assert.Equal(t, StatusScanned, rec.ScanStatus)
	assert.Equal(t, "REC01_20250601_032000", rec.FileID)
	assert.Equal(t, "REC01", rec.RecorderID)
	assert.Equal(t, slot.Morning, rec.Session)
	assert.Equal(t, slot.Sunrise(-120), rec.SolarSlot)
	require.NotNil(t, rec.MinToSunrise)
	assert.Equal(t, -120.0, *rec.MinToSunrise)
	assert.Nil(t, rec.MinToSunset)

	require.NotNil(t, rec.DurationS)
	assert.InDelta(t, 301.0, *rec.DurationS, 1e-9)
	assert.Equal(t, 1000, *rec.SampleRate)
	assert.Equal(t, 1, *rec.Channels)
	assert.Equal(t, "WAV", rec.Format)
	assert.Equal(t, "PCM_16", rec.Subtype)

	require.NotNil(t, rec.EndDT)
	assert.Equal(t, time.Date(2025, 6, 1, 3, 25, 1, 0, time.UTC), *rec.EndDT)
	require.NotNil(t, rec.BirdnetWeek48)
	assert.Equal(t, 21, *rec.BirdnetWeek48)

	assert.True(t, rec.WavReadable)
	assert.Equal(t, StagePending, rec.BirdnetStatus)
	assert.Equal(t, StagePending, rec.PerchStatus)
	assert.Equal(t, fixedNow, rec.UpdatedAt)

	assert.Equal(t, 1, sink.count("slot"))
	assert.Equal(t, 1, sink.count("scan"))
	assert.Equal(t, 0, sink.count("anomaly"))
}

func TestProcessTooShortIsAdvisory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "REC01_20250601_205500.wav")
	writeWAV(t, path, 1)

	b := newBuilder(t, nil, nil)
	rec, anomalies := b.Process(context.Background(), path)

	assert.Equal(t, StatusScanned, rec.ScanStatus)
	assert.True(t, rec.WavReadable)
	assert.Equal(t, slot.Evening, rec.Session)
	assert.Equal(t, slot.Sunset(0), rec.SolarSlot)
	require.NotNil(t, rec.MinToSunset)
	assert.Equal(t, -5.0, *rec.MinToSunset)

	require.Len(t, anomalies, 1)
	assert.Equal(t, IssueTooShort, anomalies[0].Issue)
	require.NotNil(t, anomalies[0].Val)
	assert.InDelta(t, 1.0, *anomalies[0].Val, 1e-9)
}

func TestProcessShortCircuits(t *testing.T) {
	dir := t.TempDir()
	headerCalls := 0
	read := func(ctx context.Context, path string) (*meta.Header, error) {
		headerCalls++
		return &meta.Header{Format: "WAV", Subtype: "PCM_16", SampleRate: 48000, Channels: 1, Duration: 600}, nil
	}

	tests := []struct {
		name       string
		file       string
		content    []byte
		status     Status
		issue      Issue
		recorderID string
	}{
		{"empty file", "REC01_20250601_032000.wav", nil, StatusEmptyFile, IssueEmptyFile, ""},
		{"bad filename", "garbage.wav", []byte("x"), StatusBadFilename, IssueBadFilename, ""},
		{"bad timestamp", "REC02_20251345_032000.wav", []byte("x"), StatusBadTimestamp, IssueBadTimestamp, "REC02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, tt.content, 0644))

			sink := &fakeSink{}
			b := newBuilder(t, sink, read)
			rec, anomalies := b.Process(context.Background(), path)

			assert.Equal(t, tt.status, rec.ScanStatus)
			assert.Equal(t, tt.recorderID, rec.RecorderID)
			assert.NotEmpty(t, rec.LastError)
			assert.False(t, rec.WavReadable)
			assert.True(t, rec.SolarSlot.IsZero())
			assert.Nil(t, rec.StartDT)
			assert.Equal(t, StageBlocked, rec.BirdnetStatus)
			assert.Equal(t, StageBlocked, rec.PerchStatus)
			require.Len(t, anomalies, 1)
			assert.Equal(t, tt.issue, anomalies[0].Issue)
			assert.Equal(t, 0, sink.count("slot"))
			assert.Equal(t, 1, sink.count("scan"))
		})
	}
	assert.Equal(t, 0, headerCalls, "header must not be read for short-circuited files")
}

func TestProcessMissingSunData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "REC01_20250602_032000.wav")
	writeWAV(t, path, 400)

	b := newBuilder(t, nil, nil)
	rec, anomalies := b.Process(context.Background(), path)

	assert.Equal(t, StatusScanned, rec.ScanStatus)
	assert.Equal(t, slot.NoRefData, rec.SolarSlot)
	assert.Nil(t, rec.MinToSunrise)
	require.Len(t, anomalies, 1)
	assert.Equal(t, IssueMissingSunData, anomalies[0].Issue)
}

func TestProcessCorruptAudio(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "REC01_20250601_130500.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF\x24\x00\x00\x00WAVEfmt "), 0644))

	b := newBuilder(t, nil, nil)
	rec, anomalies := b.Process(context.Background(), path)

	assert.Equal(t, StatusFailedRead, rec.ScanStatus)
	assert.False(t, rec.WavReadable)
	assert.NotEmpty(t, rec.LastError)
	assert.Equal(t, slot.OtherTime, rec.SolarSlot)
	assert.Nil(t, rec.DurationS)
	assert.Nil(t, rec.EndDT)
	assert.Equal(t, StageBlocked, rec.BirdnetStatus)
	require.Len(t, anomalies, 1)
	assert.Equal(t, IssueCorruptAudio, anomalies[0].Issue)
}

func TestProcessMissingFile(t *testing.T) {
	b := newBuilder(t, nil, nil)
	rec, anomalies := b.Process(context.Background(), filepath.Join(t.TempDir(), "REC01_20250601_032000.wav"))

	assert.Equal(t, StatusFailedRead, rec.ScanStatus)
	require.Len(t, anomalies, 1)
	assert.Equal(t, IssueCorruptAudio, anomalies[0].Issue)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "REC01_20250601_032000.wav"),
		filepath.Join(dir, "REC01_20250601_205500.wav"),
		filepath.Join(dir, "notes.wav"),
	}
	read := func(ctx context.Context, path string) (*meta.Header, error) {
		return &meta.Header{Format: "WAV", Subtype: "PCM_16", SampleRate: 48000, Channels: 1, Duration: 600}, nil
	}
	for _, p := range paths {
		require.NoError(t, os.WriteFile(p, []byte("data"), 0644))
	}

	b := newBuilder(t, nil, read)
	result, err := b.Build(context.Background(), paths)
	require.NoError(t, err)

	require.Len(t, result.Records, 3)
	for i, p := range paths {
		assert.Equal(t, p, result.Records[i].Filepath, "rows keep input order")
	}
	counts := result.CountByStatus()
	assert.Equal(t, 2, counts[StatusScanned])
	assert.Equal(t, 1, counts[StatusBadFilename])
	require.Len(t, result.Anomalies, 1)
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := newBuilder(t, nil, nil)
	result, err := b.Build(ctx, []string{"a.wav", "b.wav"})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, result.Records)
}

func TestProcessRetriesTransientHeaderErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "REC01_20250601_032000.wav")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	calls := 0
	read := func(ctx context.Context, path string) (*meta.Header, error) {
		calls++
		if calls == 1 {
			return nil, &os.PathError{Op: "read", Path: path, Err: syscall.ESTALE}
		}
		return &meta.Header{Format: "WAV", Subtype: "PCM_16", SampleRate: 48000, Channels: 1, Duration: 600}, nil
	}

	b := newBuilder(t, nil, read)
	b.cfg.Retry = &util.RetryPolicy{Attempts: 3, InitialWait: time.Millisecond, MaxWait: time.Millisecond}

	rec, anomalies := b.Process(context.Background(), path)
	assert.Equal(t, StatusScanned, rec.ScanStatus)
	assert.Empty(t, anomalies)
	assert.Equal(t, 2, calls)
}

func TestProcessStampsEveryReturnPath(t *testing.T) {
	dir := t.TempDir()
	read := func(ctx context.Context, path string) (*meta.Header, error) {
		return &meta.Header{Format: "WAV", Subtype: "PCM_16", SampleRate: 48000, Channels: 1, Duration: 600}, nil
	}

	tests := []struct {
		name    string
		file    string
		content []byte
		stage   StageStatus
	}{
		{"empty file", "REC1_20250601_032000.wav", nil, StageBlocked},
		{"bad filename", "notes.wav", []byte("x"), StageBlocked},
		{"scanned", "REC1_20250601_052000.wav", []byte("x"), StagePending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.file)
			require.NoError(t, os.WriteFile(path, tt.content, 0644))

			rec, _ := newBuilder(t, nil, read).Process(context.Background(), path)

			assert.Equal(t, tt.stage, rec.BirdnetStatus)
			assert.Equal(t, tt.stage, rec.PerchStatus)
			assert.Equal(t, fixedNow, rec.UpdatedAt)
		})
	}
}

func TestProcessSurvivesEventFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "REC01_20250601_032000.wav")
	writeWAV(t, path, 2)

	var console bytes.Buffer
	log, err := util.NewLogger(util.LoggerConfig{Level: util.LevelDebug, Console: &console})
	require.NoError(t, err)

	b := newBuilder(t, brokenSink{}, nil)
	b.log = log
	rec, anomalies := b.Process(context.Background(), path)

	assert.Equal(t, StatusScanned, rec.ScanStatus)
	assert.Equal(t, StagePending, rec.BirdnetStatus)
	require.Len(t, anomalies, 1)
	assert.Equal(t, IssueTooShort, anomalies[0].Issue)
	assert.Contains(t, console.String(), "Failed to write event: disk full")
}
