package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/franz/soundscape-inventory/internal/config"
	"github.com/franz/soundscape-inventory/internal/suncalc"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks on the environment and configuration",
	Long: `Run diagnostic checks to ensure ssinv can operate correctly.

This command checks:
- Configuration file presence and validity
- Astronomical engine at the configured location
- Audio directory readability and filesystem type
- Solar reference table presence and coverage
- Output directories are writable
- Disk space availability
- Optional tools (ffprobe for non-WAV formats)

Use this command to troubleshoot issues before running the pipeline.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

type checkResult struct {
	name    string
	message string
	error   bool
	warning bool
}

func runDoctor(cmd *cobra.Command, args []string) error {
	results := []checkResult{}

	// 1. Configuration; the remaining checks fall back to defaults
	cfg, res := checkConfig(viper.GetViper(), cfgFile)
	results = append(results, res)

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("=== ssinv Doctor - System Diagnostics ===")

	// 2. Astronomical engine
	results = append(results, checkSunEngine(cfg))

	// 3. Audio directory
	results = append(results, checkAudioDirectory(cfg.Paths.AudioDir))

	// 4. Solar reference table
	results = append(results, checkReferenceTable(cfg.Paths.SunReferenceCSV, cfg.SunReference.Year))

	// 5. Output directories
	for _, dir := range outputDirs(cfg) {
		results = append(results, checkOutputDirectory(dir))
	}

	// 6. Disk space
	results = append(results, checkDiskSpace(filepath.Dir(cfg.Paths.InventoryCSV), "outputs"))

	// 7. ffprobe (optional)
	results = append(results, checkFFprobe())

	// Print results
	log.Info("")
	log.Info("=== Diagnostic Results ===")
	log.Info("")

	hasErrors := false
	hasWarnings := false

	for _, r := range results {
		symbol := "✓"
		if r.error {
			symbol = "✗"
			hasErrors = true
		} else if r.warning {
			symbol = "⚠"
			hasWarnings = true
		}

		line := fmt.Sprintf("[%s] %s", symbol, r.name)
		if r.message != "" {
			line += fmt.Sprintf(": %s", r.message)
		}

		if r.error {
			log.Error("%s", line)
		} else if r.warning {
			log.Warn("%s", line)
		} else {
			log.Success("%s", line)
		}
	}

	// Summary
	log.Info("")
	if hasErrors {
		log.Error("❌ Some critical checks failed. Please resolve errors before running ssinv.")
		return fmt.Errorf("system diagnostics failed")
	} else if hasWarnings {
		log.Warn("⚠️  Some checks produced warnings. Review them before proceeding.")
	} else {
		log.Success("✅ All checks passed! Ready to build the inventory.")
	}

	return nil
}

// checkConfig reads and validates the config file. On failure the
// defaults are returned so the other checks can still run.
func checkConfig(v *viper.Viper, path string) (*config.Config, checkResult) {
	used, err := config.Read(v, path)
	if err != nil {
		return config.Default(), checkResult{
			name:    "Configuration",
			error:   true,
			message: fmt.Sprintf("%v (checking defaults instead)", err),
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return config.Default(), checkResult{
			name:    "Configuration",
			error:   true,
			message: fmt.Sprintf("%s: %v", used, err),
		}
	}

	return cfg, checkResult{
		name:    "Configuration",
		message: fmt.Sprintf("%s (%s, %.4f, %.4f)", used, cfg.Location.Name, cfg.Location.Latitude, cfg.Location.Longitude),
	}
}

// checkSunEngine computes the summer solstice at the configured site
func checkSunEngine(cfg *config.Config) checkResult {
	name := fmt.Sprintf("Sun engine (%s)", cfg.SunReference.Engine)

	loc, err := cfg.Location.TZ()
	if err != nil {
		return checkResult{name: name, error: true, message: err.Error()}
	}
	calc, err := suncalc.New(cfg.SunReference.Engine, suncalc.Observer{
		Latitude:  cfg.Location.Latitude,
		Longitude: cfg.Location.Longitude,
		Location:  loc,
	})
	if err != nil {
		return checkResult{name: name, error: true, message: err.Error()}
	}

	date := time.Date(cfg.SunReference.Year, time.June, 21, 0, 0, 0, 0, time.UTC)
	ev, err := calc.EventTimes(date)
	if errors.Is(err, suncalc.ErrNoEvent) {
		return checkResult{
			name:    name,
			warning: true,
			message: "no sunrise or sunset at the solstice (polar site); those days will be missing",
		}
	}
	if err != nil {
		return checkResult{name: name, error: true, message: err.Error()}
	}

	return checkResult{
		name: name,
		message: fmt.Sprintf("%s sunrise %s, sunset %s", date.Format(sunref.DateLayout),
			ev.Sunrise.Format("15:04 -07:00"), ev.Sunset.Format("15:04 -07:00")),
	}
}

// checkAudioDirectory verifies the audio directory is readable
func checkAudioDirectory(path string) checkResult {
	info, err := os.Stat(path)
	if err != nil {
		return checkResult{
			name:    "Audio directory",
			error:   true,
			message: fmt.Sprintf("cannot access %s: %v", path, err),
		}
	}

	if !info.IsDir() {
		return checkResult{
			name:    "Audio directory",
			error:   true,
			message: fmt.Sprintf("%s is not a directory", path),
		}
	}

	// Check read permission by trying to list directory
	entries, err := os.ReadDir(path)
	if err != nil {
		return checkResult{
			name:    "Audio directory",
			error:   true,
			message: fmt.Sprintf("cannot read %s: %v", path, err),
		}
	}

	message := fmt.Sprintf("%s (%d entries)", path, len(entries))
	if mount, err := util.DetectMount(path); err == nil && mount.Network {
		message += fmt.Sprintf(", network filesystem %s", mount.FSType)
	}
	return checkResult{
		name:    "Audio directory",
		message: message,
	}
}

// checkReferenceTable verifies the solar reference table is readable and
// covers year
func checkReferenceTable(path string, year int) checkResult {
	table, err := sunref.ReadCSV(path)
	if errors.Is(err, util.ErrNotFound) {
		return checkResult{
			name:    "Solar reference",
			warning: true,
			message: fmt.Sprintf("%s missing (run 'ssinv sunref' before 'ssinv scan')", path),
		}
	}
	if err != nil {
		return checkResult{
			name:    "Solar reference",
			error:   true,
			message: err.Error(),
		}
	}

	covered := 0
	for _, d := range table.Days() {
		if d.Date.Year() == year {
			covered++
		}
	}
	if covered == 0 {
		return checkResult{
			name:    "Solar reference",
			warning: true,
			message: fmt.Sprintf("%s has %d days but none in %d", path, table.Len(), year),
		}
	}

	return checkResult{
		name:    "Solar reference",
		message: fmt.Sprintf("%s (%d days, %d in %d)", path, table.Len(), covered, year),
	}
}

// outputDirs lists the distinct directories the pipeline writes to
func outputDirs(cfg *config.Config) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, dir := range []string{
		filepath.Dir(cfg.Paths.SunReferenceCSV),
		filepath.Dir(cfg.Paths.InventoryCSV),
		filepath.Dir(cfg.Paths.QCInventoryCSV),
		filepath.Dir(cfg.Paths.InventoryXLSX),
		filepath.Dir(cfg.Paths.PipelineLog),
		cfg.Paths.ArtifactsDir,
	} {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}
	return dirs
}

// checkOutputDirectory verifies an output directory is writable
func checkOutputDirectory(dir string) checkResult {
	info, err := os.Stat(dir)
	existed := err == nil && info.IsDir()
	if err := util.CheckWritableDir(dir); err != nil {
		return checkResult{
			name:    "Output directory",
			error:   true,
			message: err.Error(),
		}
	}

	message := fmt.Sprintf("%s (writable)", dir)
	if !existed {
		message = fmt.Sprintf("%s (created)", dir)
	}
	return checkResult{
		name:    "Output directory",
		message: message,
	}
}

// checkDiskSpace verifies available disk space
func checkDiskSpace(path string, label string) checkResult {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return checkResult{
			name:    fmt.Sprintf("Disk space (%s)", label),
			warning: true,
			message: fmt.Sprintf("cannot determine disk space: %v", err),
		}
	}

	availBytes := stat.Bavail * uint64(stat.Bsize)
	totalBytes := stat.Blocks * uint64(stat.Bsize)
	usedBytes := totalBytes - (stat.Bfree * uint64(stat.Bsize))

	// Tables are small; warn only when the disk is nearly full
	warning := false
	warningMsg := ""
	if availBytes < 512*1024*1024 {
		warning = true
		warningMsg = " (low space!)"
	} else if totalBytes > 0 && float64(usedBytes)/float64(totalBytes) > 0.98 {
		warning = true
		warningMsg = " (>98% used)"
	}

	return checkResult{
		name:    fmt.Sprintf("Disk space (%s)", label),
		warning: warning,
		message: fmt.Sprintf("%s available%s", util.FormatBytes(int64(availBytes)), warningMsg),
	}
}

// checkFFprobe looks for ffprobe, used only for files that are neither
// WAV nor FLAC
func checkFFprobe() checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe", "-version")
	output, err := cmd.CombinedOutput()

	if err != nil {
		return checkResult{
			name:    "ffprobe (optional)",
			warning: true,
			message: "not found (only needed for formats other than WAV and FLAC)",
		}
	}

	// Parse version from first line
	lines := strings.Split(string(output), "\n")
	version := "unknown"
	if len(lines) > 0 {
		parts := strings.Fields(lines[0])
		if len(parts) >= 3 {
			version = parts[2]
		}
	}

	return checkResult{
		name:    "ffprobe (optional)",
		message: fmt.Sprintf("version %s", version),
	}
}
