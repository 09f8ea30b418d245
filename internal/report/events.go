package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of event
type EventType string

const (
	EventRun     EventType = "run"
	EventSunref  EventType = "sunref"
	EventScan    EventType = "scan"
	EventSlot    EventType = "slot"
	EventAnomaly EventType = "anomaly"
	EventError   EventType = "error"
)

// EventLevel represents the severity level
type EventLevel string

const (
	LevelDebug   EventLevel = "debug"
	LevelInfo    EventLevel = "info"
	LevelWarning EventLevel = "warning"
	LevelError   EventLevel = "error"
)

// levelPriority maps event levels to numeric priorities for comparison
var levelPriority = map[EventLevel]int{
	LevelDebug:   0,
	LevelInfo:    1,
	LevelWarning: 2,
	LevelError:   3,
}

// Event represents a single event in the pipeline
type Event struct {
	Timestamp time.Time         `json:"ts"`
	RunID     string            `json:"run_id"`
	Level     EventLevel        `json:"level"`
	Event     EventType         `json:"event"`
	FileID    string            `json:"file_id,omitempty"`
	SrcPath   string            `json:"src_path,omitempty"`
	Status    string            `json:"status,omitempty"`
	Slot      string            `json:"slot,omitempty"`
	Issue     string            `json:"issue,omitempty"`
	Error     string            `json:"error,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// EventLogger writes events to a JSONL file
type EventLogger struct {
	file     *os.File
	encoder  *json.Encoder
	mu       sync.Mutex
	path     string
	runID    string
	minLevel EventLevel
}

// NewEventLogger creates a new event logger with a minimum log level.
// Every event carries the same random run id.
func NewEventLogger(outputDir string, minLevel EventLevel) (*EventLogger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	runID := uuid.NewString()
	timestamp := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("events-%s-%s.jsonl", timestamp, runID[:8])
	path := filepath.Join(outputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLogger{
		file:     file,
		encoder:  json.NewEncoder(file),
		path:     path,
		runID:    runID,
		minLevel: minLevel,
	}, nil
}

// Log writes an event to the JSONL file
func (l *EventLogger) Log(event *Event) error {
	if l == nil || l.file == nil {
		return nil
	}

	if levelPriority[event.Level] < levelPriority[l.minLevel] {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	event.RunID = l.runID

	if err := l.encoder.Encode(event); err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	return nil
}

// LogRun logs the start or end of a pipeline stage
func (l *EventLogger) LogRun(stage, phase string, extra map[string]string) error {
	return l.Log(&Event{
		Level:  LevelInfo,
		Event:  EventRun,
		Status: phase,
		Extra:  mergeExtra(map[string]string{"stage": stage}, extra),
	})
}

// LogSunref logs the result of building the solar reference table
func (l *EventLogger) LogSunref(path string, year, days, failed int) error {
	level := LevelInfo
	if failed > 0 {
		level = LevelWarning
	}
	return l.Log(&Event{
		Level:   level,
		Event:   EventSunref,
		SrcPath: path,
		Extra: map[string]string{
			"year":   strconv.Itoa(year),
			"days":   strconv.Itoa(days),
			"failed": strconv.Itoa(failed),
		},
	})
}

// LogScan logs the final status of one recording
func (l *EventLogger) LogScan(fileID, srcPath, status string, sizeBytes int64) error {
	level := LevelDebug
	if status != "scanned" {
		level = LevelWarning
	}
	return l.Log(&Event{
		Level:   level,
		Event:   EventScan,
		FileID:  fileID,
		SrcPath: srcPath,
		Status:  status,
		Extra: map[string]string{
			"size_bytes": strconv.FormatInt(sizeBytes, 10),
		},
	})
}

// LogSlot logs a solar slot assignment
func (l *EventLogger) LogSlot(fileID, srcPath, session, slot string) error {
	return l.Log(&Event{
		Level:   LevelDebug,
		Event:   EventSlot,
		FileID:  fileID,
		SrcPath: srcPath,
		Slot:    slot,
		Extra: map[string]string{
			"session": session,
		},
	})
}

// LogAnomaly logs a data-quality issue
func (l *EventLogger) LogAnomaly(file, issue, detail string) error {
	return l.Log(&Event{
		Level:   LevelWarning,
		Event:   EventAnomaly,
		SrcPath: file,
		Issue:   issue,
		Error:   detail,
	})
}

// LogError logs an error event
func (l *EventLogger) LogError(event EventType, srcPath string, err error) error {
	return l.Log(&Event{
		Level:   LevelError,
		Event:   event,
		SrcPath: srcPath,
		Error:   err.Error(),
	})
}

// Close closes the event log file
func (l *EventLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.file.Close()
	l.file = nil
	return err
}

// Path returns the path to the event log file
func (l *EventLogger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// RunID returns the id stamped on every event
func (l *EventLogger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

func mergeExtra(base, extra map[string]string) map[string]string {
	for k, v := range extra {
		base[k] = v
	}
	return base
}
