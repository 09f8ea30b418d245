package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/spf13/viper"
)

const (
	// DefaultPath is read when no --config flag is given
	DefaultPath = "config/pipeline.yaml"

	// EnvPrefix prefixes environment overrides, e.g. SSINV_PATHS_AUDIO_DIR
	EnvPrefix = "SSINV"
)

// Bind registers defaults and environment overrides on v. Every key gets a
// default so that AutomaticEnv also applies during Unmarshal.
func Bind(v *viper.Viper) {
	d := Default()

	v.SetDefault("location.name", d.Location.Name)
	v.SetDefault("location.latitude", d.Location.Latitude)
	v.SetDefault("location.longitude", d.Location.Longitude)
	v.SetDefault("location.timezone", d.Location.Timezone)

	v.SetDefault("paths.audio_dir", d.Paths.AudioDir)
	v.SetDefault("paths.pipeline_log", d.Paths.PipelineLog)
	v.SetDefault("paths.sun_reference_csv", d.Paths.SunReferenceCSV)
	v.SetDefault("paths.inventory_csv", d.Paths.InventoryCSV)
	v.SetDefault("paths.qc_inventory_csv", d.Paths.QCInventoryCSV)
	v.SetDefault("paths.inventory_xlsx", d.Paths.InventoryXLSX)
	v.SetDefault("paths.artifacts_dir", d.Paths.ArtifactsDir)

	v.SetDefault("scan.filename_regex", d.Scan.FilenameRegex)
	v.SetDefault("scan.extensions", d.Scan.Extensions)
	v.SetDefault("scan.min_duration_s", d.Scan.MinDurationS)

	v.SetDefault("session_rules.morning_hours", d.SessionRules.MorningHours)
	v.SetDefault("session_rules.evening_hours", d.SessionRules.EveningHours)
	v.SetDefault("session_rules.slot_tolerance_min", d.SessionRules.SlotToleranceMin)

	v.SetDefault("birdnet_week48.enabled", d.BirdnetWeek48.Enabled)

	v.SetDefault("sun_reference.year", d.SunReference.Year)
	v.SetDefault("sun_reference.engine", d.SunReference.Engine)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.color", d.Logging.Color)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Read loads the YAML file at path into v, or DefaultPath when path is
// empty. A missing file yields an error wrapping util.ErrNotFound. The
// path that was read is returned.
func Read(v *viper.Viper, path string) (string, error) {
	if path == "" {
		path = DefaultPath
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return path, fmt.Errorf("config file %s: %w (run 'ssinv config init' to create one)", path, util.ErrNotFound)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return path, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return path, nil
}

// Load unmarshals and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	for i, ext := range cfg.Scan.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.Scan.Extensions[i] = ext
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
