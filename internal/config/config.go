package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/franz/soundscape-inventory/internal/util"
)

// Config is the pipeline configuration shared by both stages
type Config struct {
	Location      Location      `mapstructure:"location" yaml:"location"`
	Paths         Paths         `mapstructure:"paths" yaml:"paths"`
	Scan          Scan          `mapstructure:"scan" yaml:"scan"`
	SessionRules  SessionRules  `mapstructure:"session_rules" yaml:"session_rules"`
	BirdnetWeek48 Toggle        `mapstructure:"birdnet_week48" yaml:"birdnet_week48"`
	SunReference  SunReference  `mapstructure:"sun_reference" yaml:"sun_reference"`
	Logging       Logging       `mapstructure:"logging" yaml:"logging"`
}

// Location is the fixed observer position of the monitoring site
type Location struct {
	Name      string  `mapstructure:"name" yaml:"name"`
	Latitude  float64 `mapstructure:"latitude" yaml:"latitude"`
	Longitude float64 `mapstructure:"longitude" yaml:"longitude"`
	Timezone  string  `mapstructure:"timezone" yaml:"timezone"`
}

// TZ loads the IANA time zone of the location
func (l Location) TZ() (*time.Location, error) {
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q: %v", util.ErrInvalidConfig, l.Timezone, err)
	}
	return loc, nil
}

// Paths lists every input and output location of the pipeline
type Paths struct {
	AudioDir        string `mapstructure:"audio_dir" yaml:"audio_dir"`
	PipelineLog     string `mapstructure:"pipeline_log" yaml:"pipeline_log"`
	SunReferenceCSV string `mapstructure:"sun_reference_csv" yaml:"sun_reference_csv"`
	InventoryCSV    string `mapstructure:"inventory_csv" yaml:"inventory_csv"`
	QCInventoryCSV  string `mapstructure:"qc_inventory_csv" yaml:"qc_inventory_csv"`
	InventoryXLSX   string `mapstructure:"inventory_xlsx" yaml:"inventory_xlsx"`
	ArtifactsDir    string `mapstructure:"artifacts_dir" yaml:"artifacts_dir"`
}

// Scan controls file discovery and filename parsing
type Scan struct {
	FilenameRegex string   `mapstructure:"filename_regex" yaml:"filename_regex"`
	Extensions    []string `mapstructure:"extensions" yaml:"extensions"`
	MinDurationS  float64  `mapstructure:"min_duration_s" yaml:"min_duration_s"`
}

// SessionRules holds the inclusive hour windows and the slot tolerance
type SessionRules struct {
	MorningHours     []int   `mapstructure:"morning_hours" yaml:"morning_hours"`
	EveningHours     []int   `mapstructure:"evening_hours" yaml:"evening_hours"`
	SlotToleranceMin float64 `mapstructure:"slot_tolerance_min" yaml:"slot_tolerance_min"`
}

// Toggle is a feature switch section
type Toggle struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// SunReference selects the year and astronomical engine for stage 1
type SunReference struct {
	Year   int    `mapstructure:"year" yaml:"year"`
	Engine string `mapstructure:"engine" yaml:"engine"`
}

// Logging configures the pipeline log
type Logging struct {
	Level string `mapstructure:"level" yaml:"level"`
	Color bool   `mapstructure:"color" yaml:"color"`
}

// Supported astronomical engines
const (
	EngineAstral  = "astral"
	EngineSunrise = "sunrise"
)

// DefaultFilenameRegex matches names like REC01_20250601_052000.wav
const DefaultFilenameRegex = `^(?P<rec>[A-Za-z0-9-]+)_(?P<date>\d{8})_(?P<time>\d{6})\.wav$`

// Default returns the configuration used when no value is overridden
func Default() *Config {
	return &Config{
		Location: Location{
			Name:      "Berlin",
			Latitude:  52.52,
			Longitude: 13.405,
			Timezone:  "Europe/Berlin",
		},
		Paths: Paths{
			AudioDir:        "data/audio",
			PipelineLog:     "logs/pipeline.log",
			SunReferenceCSV: "outputs/reference_sun.csv",
			InventoryCSV:    "outputs/inventory.csv",
			QCInventoryCSV:  "outputs/qc_inventory.csv",
			InventoryXLSX:   "outputs/inventory.xlsx",
			ArtifactsDir:    "artifacts",
		},
		Scan: Scan{
			FilenameRegex: DefaultFilenameRegex,
			Extensions:    []string{".wav"},
			MinDurationS:  300,
		},
		SessionRules: SessionRules{
			MorningHours:     []int{3, 12},
			EveningHours:     []int{15, 23},
			SlotToleranceMin: 15,
		},
		BirdnetWeek48: Toggle{Enabled: true},
		SunReference: SunReference{
			Year:   2025,
			Engine: EngineAstral,
		},
		Logging: Logging{
			Level: "info",
			Color: true,
		},
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
// Overlapping session windows are accepted; morning takes precedence.
func (c *Config) Validate() error {
	var problems []string

	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		problems = append(problems, fmt.Sprintf("location.latitude %v out of range", c.Location.Latitude))
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		problems = append(problems, fmt.Sprintf("location.longitude %v out of range", c.Location.Longitude))
	}
	if _, err := time.LoadLocation(c.Location.Timezone); err != nil || c.Location.Timezone == "" {
		problems = append(problems, fmt.Sprintf("location.timezone %q is not a known IANA zone", c.Location.Timezone))
	}

	if c.Paths.AudioDir == "" {
		problems = append(problems, "paths.audio_dir is empty")
	}
	if c.Paths.SunReferenceCSV == "" {
		problems = append(problems, "paths.sun_reference_csv is empty")
	}
	if c.Paths.InventoryCSV == "" {
		problems = append(problems, "paths.inventory_csv is empty")
	}
	if c.Paths.QCInventoryCSV == "" {
		problems = append(problems, "paths.qc_inventory_csv is empty")
	}

	if re, err := regexp.Compile(c.Scan.FilenameRegex); err != nil {
		problems = append(problems, fmt.Sprintf("scan.filename_regex: %v", err))
	} else {
		for _, group := range []string{"rec", "date", "time"} {
			if re.SubexpIndex(group) < 0 {
				problems = append(problems, fmt.Sprintf("scan.filename_regex lacks named group %q", group))
			}
		}
	}
	if c.Scan.MinDurationS < 0 {
		problems = append(problems, "scan.min_duration_s must not be negative")
	}

	problems = append(problems, checkHours("session_rules.morning_hours", c.SessionRules.MorningHours)...)
	problems = append(problems, checkHours("session_rules.evening_hours", c.SessionRules.EveningHours)...)
	if c.SessionRules.SlotToleranceMin < 0 {
		problems = append(problems, "session_rules.slot_tolerance_min must not be negative")
	}

	if c.SunReference.Year < 1 || c.SunReference.Year > 9999 {
		problems = append(problems, fmt.Sprintf("sun_reference.year %d out of range", c.SunReference.Year))
	}
	switch c.SunReference.Engine {
	case EngineAstral, EngineSunrise:
	default:
		problems = append(problems, fmt.Sprintf("sun_reference.engine %q (want %s or %s)",
			c.SunReference.Engine, EngineAstral, EngineSunrise))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", util.ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func checkHours(key string, hours []int) []string {
	if len(hours) != 2 {
		return []string{fmt.Sprintf("%s must be [low, high], got %v", key, hours)}
	}
	var problems []string
	for _, h := range hours {
		if h < 0 || h > 23 {
			problems = append(problems, fmt.Sprintf("%s hour %d outside 0-23", key, h))
		}
	}
	if hours[0] > hours[1] {
		problems = append(problems, fmt.Sprintf("%s low %d above high %d", key, hours[0], hours[1]))
	}
	return problems
}
