package main

import (
	"fmt"
	"os"

	"github.com/franz/soundscape-inventory/internal/config"
	"github.com/franz/soundscape-inventory/internal/meta"
	"github.com/franz/soundscape-inventory/internal/report"
	"github.com/franz/soundscape-inventory/internal/slot"
	"github.com/franz/soundscape-inventory/internal/suncalc"
	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/spf13/viper"
)

// pipeline bundles what every stage command needs: the validated config,
// the pipeline logger and the JSONL event log
type pipeline struct {
	cfg     *config.Config
	cfgPath string
	log     *util.Logger
	events  *report.EventLogger
}

// loadPipeline reads and validates the config and opens both logs. A
// missing config file is fatal.
func loadPipeline(withEvents bool) (*pipeline, error) {
	v := viper.GetViper()

	path, err := config.Read(v, cfgFile)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("Using config file: %s", path)

	p := &pipeline{cfg: cfg, cfgPath: path, log: log}
	if withEvents {
		p.events = openEventLog(cfg.Paths.ArtifactsDir, log)
	}
	return p, nil
}

func (p *pipeline) Close() {
	if err := p.events.Close(); err != nil {
		p.log.Warn("Failed to close event log: %v", err)
	}
	p.log.Close()
}

// newLogger builds the pipeline logger. --verbose and --quiet override the
// configured level.
func newLogger(cfg *config.Config) (*util.Logger, error) {
	level := util.ParseLevel(cfg.Logging.Level)
	if viper.GetBool("verbose") {
		level = util.LevelDebug
	} else if viper.GetBool("quiet") {
		level = util.LevelError
	}

	log, err := util.NewLogger(util.LoggerConfig{
		Level:    level,
		Colors:   cfg.Logging.Color && util.IsTerminal(os.Stderr.Fd()),
		FilePath: cfg.Paths.PipelineLog,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pipeline log: %w", err)
	}
	return log, nil
}

// openEventLog creates the audit trail. Failure only costs the audit trail,
// so it is logged and a nil logger (which discards events) is returned.
func openEventLog(dir string, log *util.Logger) *report.EventLogger {
	level := report.LevelInfo
	if viper.GetBool("quiet") {
		level = report.LevelWarning
	} else if viper.GetBool("verbose") {
		level = report.LevelDebug
	}

	events, err := report.NewEventLogger(dir, level)
	if err != nil {
		log.Warn("Failed to create event log: %v", err)
		return nil
	}
	log.Info("Event log: %s", events.Path())
	return events
}

func (p *pipeline) calculator() (suncalc.Calculator, error) {
	loc, err := p.cfg.Location.TZ()
	if err != nil {
		return nil, err
	}
	return suncalc.New(p.cfg.SunReference.Engine, suncalc.Observer{
		Latitude:  p.cfg.Location.Latitude,
		Longitude: p.cfg.Location.Longitude,
		Location:  loc,
	})
}

func (p *pipeline) sessionWindows() (slot.HourRange, slot.HourRange, error) {
	morning, err := slot.NewHourRange(p.cfg.SessionRules.MorningHours)
	if err != nil {
		return slot.HourRange{}, slot.HourRange{}, fmt.Errorf("%w: morning_hours: %v", util.ErrInvalidConfig, err)
	}
	evening, err := slot.NewHourRange(p.cfg.SessionRules.EveningHours)
	if err != nil {
		return slot.HourRange{}, slot.HourRange{}, fmt.Errorf("%w: evening_hours: %v", util.ErrInvalidConfig, err)
	}
	return morning, evening, nil
}

func (p *pipeline) filenameParser() (*meta.FilenameParser, error) {
	parser, err := meta.NewFilenameParser(p.cfg.Scan.FilenameRegex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	return parser, nil
}
