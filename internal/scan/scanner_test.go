package scan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/soundscape-inventory/internal/util"
)

func TestIsAudioFile(t *testing.T) {
	scanner := New(&Config{Extensions: []string{"wav", ".FLAC"}})

	tests := []struct {
		path     string
		expected bool
	}{
		{"REC01_20250601_032000.wav", true},
		{"REC01_20250601_032000.WAV", true}, // Case insensitive
		{"REC01_20250601_032000.flac", true},
		{"notes.txt", false},
		{"REC01_20250601_032000.wav.bak", false},
		{"noext", false},
	}

	for _, tt := range tests {
		result := scanner.IsAudioFile(tt.path)
		if result != tt.expected {
			t.Errorf("IsAudioFile(%s) = %v, expected %v", tt.path, result, tt.expected)
		}
	}

	exts := scanner.Extensions()
	if len(exts) != 2 || exts[0] != ".flac" || exts[1] != ".wav" {
		t.Errorf("Extensions() = %v", exts)
	}
}

func TestDefaultExtensions(t *testing.T) {
	scanner := New(&Config{})
	if !scanner.IsAudioFile("a.wav") || scanner.IsAudioFile("a.flac") {
		t.Error("default scanner should accept only .wav")
	}
}

func TestScannerWithRealFiles(t *testing.T) {
	tmpDir := t.TempDir()

	siteDir := filepath.Join(tmpDir, "site-b", "2025-06")
	if err := os.MkdirAll(siteDir, 0755); err != nil {
		t.Fatal(err)
	}

	testFiles := []string{
		filepath.Join(siteDir, "REC02_20250601_032000.wav"),
		filepath.Join(tmpDir, "REC01_20250601_032000.WAV"),
		filepath.Join(tmpDir, "site-b", "REC02_20250531_210000.wav"),
		filepath.Join(tmpDir, "README.txt"), // Should be ignored
	}
	for _, path := range testFiles {
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	scanner := New(&Config{Logger: util.NopLogger()})
	result, err := scanner.Scan(context.Background(), tmpDir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	want := []string{
		filepath.Join(tmpDir, "REC01_20250601_032000.WAV"),
		filepath.Join(tmpDir, "site-b", "2025-06", "REC02_20250601_032000.wav"),
		filepath.Join(tmpDir, "site-b", "REC02_20250531_210000.wav"),
	}
	if len(result.Files) != len(want) {
		t.Fatalf("Expected %d files, got %d: %v", len(want), len(result.Files), result.Files)
	}
	for i := range want {
		if result.Files[i] != want[i] {
			t.Errorf("Files[%d] = %s, expected %s", i, result.Files[i], want[i])
		}
	}
	if result.Skipped != 1 {
		t.Errorf("Expected 1 skipped file, got %d", result.Skipped)
	}
}

func TestScanMissingRoot(t *testing.T) {
	scanner := New(&Config{})
	_, err := scanner.Scan(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, util.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestScanCancelled(t *testing.T) {
	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, "a.wav"), []byte("x"), 0644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := New(&Config{})
	if _, err := scanner.Scan(ctx, tmpDir); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
