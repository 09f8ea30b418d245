package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/franz/soundscape-inventory/internal/inventory"
	"github.com/franz/soundscape-inventory/internal/report"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a summary report from the inventory tables",
	Long: `Generate a summary report in Markdown format from the inventory and QC
tables written by 'ssinv scan'.

The report includes:
- File counts, total size and hours of readable audio
- Rows per scan status, session and solar slot
- Per-recorder coverage
- Data-quality issues and the most common errors

The report is saved to <artifacts_dir>/reports/summary-<timestamp>.md`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().String("out", "", "Output directory for the report (default: <artifacts_dir>/reports)")
}

func runReport(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(false)
	if err != nil {
		return err
	}
	defer p.Close()

	outDir, _ := cmd.Flags().GetString("out")

	p.log.Info("=== Generating Summary Report ===")
	records, err := inventory.ReadInventoryCSV(p.cfg.Paths.InventoryCSV)
	if err != nil {
		return fmt.Errorf("%w (run 'ssinv scan' first)", err)
	}
	anomalies, err := inventory.ReadAnomaliesCSV(p.cfg.Paths.QCInventoryCSV)
	if err != nil {
		return err
	}

	_, err = writeSummary(p, records, anomalies, outDir)
	return err
}

// writeSummary renders the markdown summary and returns its path
func writeSummary(p *pipeline, records []inventory.Recording, anomalies []inventory.Anomaly, outDir string) (string, error) {
	if outDir == "" {
		outDir = filepath.Join(p.cfg.Paths.ArtifactsDir, "reports")
	}

	s := report.Summarize(records, anomalies)
	s.RunID = p.events.RunID()
	s.EventLogPath = p.events.Path()
	s.InventoryPath = p.cfg.Paths.InventoryCSV
	if len(anomalies) > 0 {
		s.QCPath = p.cfg.Paths.QCInventoryCSV
	}

	path := report.ReportPath(outDir, time.Now())
	if err := report.WriteMarkdownReport(s, path); err != nil {
		return "", err
	}

	p.log.Info("Files: %d, readable: %d, audio hours: %.1f", s.Files, s.Readable, s.AudioHours)
	p.log.Success("Report written to %s", path)
	return path, nil
}
