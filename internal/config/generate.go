package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/franz/soundscape-inventory/internal/util"
	"gopkg.in/yaml.v3"
)

const header = `# soundscape-inventory pipeline configuration
#
# Every key can be overridden from the environment with the SSINV_ prefix,
# e.g. SSINV_PATHS_AUDIO_DIR=/mnt/recorders or SSINV_SUN_REFERENCE_YEAR=2026.
# Hour windows are inclusive [low, high] bounds (0-23).

`

// Marshal renders cfg as YAML with a short explanatory header
func Marshal(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(header)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteDefault writes the default configuration to path. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force && util.FileExists(path) {
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	data, err := Marshal(Default())
	if err != nil {
		return err
	}
	if err := util.EnsureParentDir(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
