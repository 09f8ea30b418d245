package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the label used in log lines
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLevel converts a config string to a LogLevel, defaulting to info
func ParseLevel(level string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

const (
	colorGray   = "\033[90m"
	colorCyan   = "\033[36m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorReset  = "\033[0m"
)

// LoggerConfig configures a Logger
type LoggerConfig struct {
	Level  LogLevel
	Colors bool

	// Console receives short colored lines. Defaults to os.Stderr.
	Console io.Writer

	// FilePath enables a plain-text log file sink when set.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
}

// Logger writes leveled, timestamped lines to the console and an optional
// log file. A nil *Logger discards everything.
type Logger struct {
	mu      sync.Mutex
	level   LogLevel
	colors  bool
	console io.Writer
	file    io.WriteCloser
	now     func() time.Time
}

// NewLogger creates a Logger from cfg. The log file's parent directory is
// created if needed.
func NewLogger(cfg LoggerConfig) (*Logger, error) {
	l := &Logger{
		level:   cfg.Level,
		colors:  cfg.Colors,
		console: cfg.Console,
		now:     time.Now,
	}
	if l.console == nil {
		l.console = os.Stderr
	}

	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		maxSize := cfg.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 50
		}
		l.file = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    maxSize,
			MaxBackups: cfg.MaxBackups,
		}
	}

	return l, nil
}

// NopLogger returns a logger that discards all output
func NopLogger() *Logger {
	return &Logger{level: LevelError + 1, console: io.Discard, now: time.Now}
}

// Level returns the minimum level
func (l *Logger) Level() LogLevel {
	if l == nil {
		return LevelError + 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, "DEBUG", colorGray, format, args...)
}

// Info logs informational messages
func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, "INFO", colorCyan, format, args...)
}

// Warn logs warning messages
func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, "WARN", colorYellow, format, args...)
}

// Error logs error messages
func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, "ERROR", colorRed, format, args...)
}

// Success logs success messages (shown at info level)
func (l *Logger) Success(format string, args ...any) {
	l.log(LevelInfo, "OK", colorGreen, format, args...)
}

func (l *Logger) log(level LogLevel, label, color, format string, args ...any) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	msg := fmt.Sprintf(format, args...)
	ts := l.now()

	stamp := ts.Format("15:04:05")
	if l.colors {
		stamp = color + stamp + colorReset
	}
	fmt.Fprintf(l.console, "%s %-7s %s\n", stamp, "["+label+"]", msg)

	if l.file != nil {
		fmt.Fprintf(l.file, "%s | %s | %s\n", ts.Format("2006-01-02 15:04:05"), label, msg)
	}
}

// Close flushes and closes the file sink
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	err := l.file.Close()
	l.file = nil
	return err
}
