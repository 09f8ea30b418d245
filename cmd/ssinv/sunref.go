package main

import (
	"fmt"
	"time"

	"github.com/franz/soundscape-inventory/internal/report"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/spf13/cobra"
)

var sunrefCmd = &cobra.Command{
	Use:   "sunref",
	Short: "Build the solar reference table (stage 1)",
	Long: `Compute sunrise, sunset and solar noon for every day of a year at the
configured location and write them to paths.sun_reference_csv.

Each row carries the times with their UTC offset and as naive local wall
clock, plus whether daylight saving time is active. Days for which the sun
does not rise or set (polar day or night) are logged and left out.`,
	Args: cobra.NoArgs,
	RunE: runSunrefCmd,
}

func init() {
	rootCmd.AddCommand(sunrefCmd)

	sunrefCmd.Flags().Int("year", 0, "year to compute (default: sun_reference.year)")
}

func runSunrefCmd(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	year, _ := cmd.Flags().GetInt("year")
	p.events.LogRun("sunref", "start", nil)
	if err := buildSunref(p, year); err != nil {
		p.events.LogError(report.EventSunref, p.cfg.Paths.SunReferenceCSV, err)
		return err
	}
	p.events.LogRun("sunref", "end", nil)
	return nil
}

// buildSunref runs stage 1. year 0 means the configured year.
func buildSunref(p *pipeline, year int) error {
	if year == 0 {
		year = p.cfg.SunReference.Year
	}
	if year < 1 || year > 9999 {
		return fmt.Errorf("year out of range: %d", year)
	}

	calc, err := p.calculator()
	if err != nil {
		return err
	}

	p.log.Info("=== Stage 1: Solar Reference ===")
	p.log.Info("Location: %s (%.4f, %.4f, %s)", p.cfg.Location.Name,
		p.cfg.Location.Latitude, p.cfg.Location.Longitude, p.cfg.Location.Timezone)
	p.log.Info("Engine: %s, year %d", p.cfg.SunReference.Engine, year)

	started := time.Now()
	start, end := sunref.YearRange(year)
	days := sunref.Build(calc, start, end, p.log)
	expected := int(end.Sub(start).Hours()/24) + 1
	failed := expected - len(days)

	if bad := sunref.Check(days, p.log); bad > 0 {
		p.log.Warn("%d days failed the sunrise < noon < sunset check", bad)
	}
	sunref.LogSolstices(days, p.log)

	if err := sunref.WriteCSV(p.cfg.Paths.SunReferenceCSV, days); err != nil {
		return fmt.Errorf("failed to write solar reference: %w", err)
	}
	p.events.LogSunref(p.cfg.Paths.SunReferenceCSV, year, len(days), failed)

	if failed > 0 {
		p.log.Warn("%d of %d days have no sunrise or sunset", failed, expected)
	}
	p.log.Success("Wrote %s (%d rows) in %v", p.cfg.Paths.SunReferenceCSV,
		len(days), time.Since(started).Round(time.Millisecond))
	return nil
}
