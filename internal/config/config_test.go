package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"latitude", func(c *Config) { c.Location.Latitude = 91 }, "location.latitude"},
		{"timezone", func(c *Config) { c.Location.Timezone = "Mars/Olympus" }, "location.timezone"},
		{"regex syntax", func(c *Config) { c.Scan.FilenameRegex = "(" }, "scan.filename_regex"},
		{"regex groups", func(c *Config) { c.Scan.FilenameRegex = `^(?P<rec>\w+)\.wav$` }, `named group "date"`},
		{"hours length", func(c *Config) { c.SessionRules.MorningHours = []int{3} }, "morning_hours"},
		{"hours range", func(c *Config) { c.SessionRules.EveningHours = []int{15, 24} }, "outside 0-23"},
		{"hours order", func(c *Config) { c.SessionRules.MorningHours = []int{12, 3} }, "above high"},
		{"tolerance", func(c *Config) { c.SessionRules.SlotToleranceMin = -1 }, "slot_tolerance_min"},
		{"engine", func(c *Config) { c.SunReference.Engine = "guess" }, "sun_reference.engine"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, util.ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOverlappingSessionsAccepted(t *testing.T) {
	cfg := Default()
	cfg.SessionRules.MorningHours = []int{3, 16}
	assert.NoError(t, cfg.Validate())
}

func TestReadMissingFile(t *testing.T) {
	v := viper.New()
	_, err := Read(v, filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrNotFound))
}

func TestLoadFromFileWithOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	yaml := `
location:
  latitude: 47.0
  longitude: 8.0
  timezone: Europe/Zurich
scan:
  extensions: [WAV, "flac"]
session_rules:
  morning_hours: [4, 10]
  slot_tolerance_min: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	v := viper.New()
	Bind(v)
	used, err := Read(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 47.0, cfg.Location.Latitude)
	assert.Equal(t, "Europe/Zurich", cfg.Location.Timezone)
	assert.Equal(t, []string{".wav", ".flac"}, cfg.Scan.Extensions)
	assert.Equal(t, []int{4, 10}, cfg.SessionRules.MorningHours)
	assert.Equal(t, []int{15, 23}, cfg.SessionRules.EveningHours, "default kept")
	assert.Equal(t, 10.0, cfg.SessionRules.SlotToleranceMin)
	assert.Equal(t, "outputs/inventory.csv", cfg.Paths.InventoryCSV)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SSINV_SUN_REFERENCE_YEAR", "2031")
	t.Setenv("SSINV_PATHS_AUDIO_DIR", "/mnt/rec")

	v := viper.New()
	Bind(v)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 2031, cfg.SunReference.Year)
	assert.Equal(t, "/mnt/rec", cfg.Paths.AudioDir)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "pipeline.yaml")
	require.NoError(t, WriteDefault(path, false))

	err := WriteDefault(path, false)
	require.Error(t, err, "existing file is not replaced without force")
	require.NoError(t, WriteDefault(path, true))

	v := viper.New()
	Bind(v)
	_, err = Read(v, path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
