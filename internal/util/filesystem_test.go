package util

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireFile(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.csv")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0644))

	assert.NoError(t, RequireFile(present, "reference table"))

	err := RequireFile(filepath.Join(dir, "missing.csv"), "reference table")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "reference table")

	err = RequireFile(dir, "reference table")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestRequireDir(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, RequireDir(dir, "audio directory"))

	err := RequireDir(filepath.Join(dir, "nope"), "audio directory")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEnsureParentDirAndWritable(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "out.csv")

	require.NoError(t, EnsureParentDir(target))
	info, err := os.Stat(filepath.Dir(target))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	require.NoError(t, CheckWritableDir(filepath.Join(dir, "fresh")))
	entries, err := os.ReadDir(filepath.Join(dir, "fresh"))
	require.NoError(t, err)
	assert.Empty(t, entries, "write probe should be removed")
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables", "inventory.csv")

	write := func(text string) func(w io.Writer) error {
		return func(w io.Writer) error {
			_, err := io.WriteString(w, text)
			return err
		}
	}
	require.NoError(t, WriteFileAtomic(path, write("first\n")))
	require.NoError(t, WriteFileAtomic(path, write("second\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))

	failed := errors.New("encoder failed")
	err = WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return failed
	})
	assert.ErrorIs(t, err, failed)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data), "failed write must keep the previous file")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be cleaned up")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "0 B", FormatBytes(0))
	assert.Equal(t, "0 B", FormatBytes(-5))
	assert.Equal(t, "1.5 kB", FormatBytes(1500))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestLoggerConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	logPath := filepath.Join(t.TempDir(), "logs", "pipeline.log")

	log, err := NewLogger(LoggerConfig{
		Level:    LevelInfo,
		Console:  &console,
		FilePath: logPath,
	})
	require.NoError(t, err)

	log.Debug("hidden %d", 1)
	log.Info("processed %d files", 3)
	log.Error("boom")
	require.NoError(t, log.Close())

	out := console.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[INFO]  processed 3 files")
	assert.Contains(t, out, "[ERROR] boom")
	assert.NotContains(t, out, "\033[", "colors disabled")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], " | INFO | processed 3 files")
	assert.Contains(t, lines[1], " | ERROR | boom")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger
	log.Info("nothing")
	log.Warn("nothing")
	assert.NoError(t, log.Close())
	assert.Greater(t, log.Level(), LevelError)

	NopLogger().Error("discarded")
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{ErrUnsupported, ErrCorrupt, ErrNotFound, ErrInvalidConfig}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v must not match %v", a, b)
			}
		}
		if IsTransient(a) {
			t.Errorf("%v must not be retried", a)
		}
	}
}
