package scan

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/franz/soundscape-inventory/internal/util"
)

// DefaultExtensions are the recording extensions scanned when none are
// configured
var DefaultExtensions = []string{".wav"}

// Scanner discovers audio files in a directory tree
type Scanner struct {
	extensions map[string]bool
	log        *util.Logger
}

// Config holds scanner configuration
type Config struct {
	Extensions []string
	Logger     *util.Logger
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}

	// Build extension map (case-insensitive)
	extMap := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[ext] = true
	}

	return &Scanner{
		extensions: extMap,
		log:        cfg.Logger,
	}
}

// Result represents a scan result
type Result struct {
	Files   []string
	Skipped int
	Errors  []error
}

// Scan walks root and returns the matching files in lexical order.
// Unreadable subdirectories are logged and skipped; a missing root is an
// error wrapping util.ErrNotFound.
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	if err := util.RequireDir(root, "audio directory"); err != nil {
		return nil, err
	}

	s.log.Info("Scanning %s", root)
	result := &Result{}
	seen := make(map[string]bool)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			s.log.Warn("Error accessing path %s: %v", path, err)
			result.Errors = append(result.Errors, fmt.Errorf("access error: %s: %w", path, err))
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}

		if !s.IsAudioFile(path) {
			result.Skipped++
			return nil
		}

		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			result.Files = append(result.Files, clean)
		}
		return nil
	})
	if walkErr != nil {
		return result, fmt.Errorf("walk error: %w", walkErr)
	}

	sort.Strings(result.Files)

	s.log.Info("Found %d audio files (%d other files skipped, %d errors)",
		len(result.Files), result.Skipped, len(result.Errors))
	return result, nil
}

// IsAudioFile checks if a file has a configured extension
func (s *Scanner) IsAudioFile(path string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}

// Extensions returns the configured extensions in sorted order
func (s *Scanner) Extensions() []string {
	exts := make([]string, 0, len(s.extensions))
	for ext := range s.extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
