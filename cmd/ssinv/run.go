package main

import (
	"github.com/franz/soundscape-inventory/internal/report"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run both stages: solar reference, then inventory",
	Long: `Build the solar reference table for sun_reference.year and then scan
the audio directory, exactly like 'ssinv sunref' followed by 'ssinv scan'.
Both stages share one event log and run id.`,
	Args: cobra.NoArgs,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("year", 0, "year of the solar reference (default: sun_reference.year)")
	runCmd.Flags().Bool("report", false, "also write the markdown summary")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	year, _ := cmd.Flags().GetInt("year")
	withReport, _ := cmd.Flags().GetBool("report")

	p.events.LogRun("pipeline", "start", nil)

	if err := buildSunref(p, year); err != nil {
		p.events.LogError(report.EventSunref, p.cfg.Paths.SunReferenceCSV, err)
		return err
	}

	p.log.Info("")
	result, err := buildInventory(cmd.Context(), p)
	if err != nil {
		p.events.LogError(report.EventScan, p.cfg.Paths.AudioDir, err)
		return err
	}

	if withReport {
		p.log.Info("")
		if _, err := writeSummary(p, result.Records, result.Anomalies, ""); err != nil {
			return err
		}
	}

	p.events.LogRun("pipeline", "end", nil)
	return nil
}
