package main

import (
	"fmt"

	"github.com/franz/soundscape-inventory/internal/inventory"
	"github.com/franz/soundscape-inventory/internal/report"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export inventory, QC and solar reference tables as one workbook",
	Long: `Combine the CSV outputs of both stages into a single XLSX workbook with
the sheets inventory, qc and sun. The CSV files stay authoritative; the
workbook is a convenience copy for spreadsheet users.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("out", "", "workbook path (default: paths.inventory_xlsx)")
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(false)
	if err != nil {
		return err
	}
	defer p.Close()

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = p.cfg.Paths.InventoryXLSX
	}

	records, err := inventory.ReadInventoryCSV(p.cfg.Paths.InventoryCSV)
	if err != nil {
		return fmt.Errorf("%w (run 'ssinv scan' first)", err)
	}
	anomalies, err := inventory.ReadAnomaliesCSV(p.cfg.Paths.QCInventoryCSV)
	if err != nil {
		return err
	}
	table, err := sunref.ReadCSV(p.cfg.Paths.SunReferenceCSV)
	if err != nil {
		return err
	}

	if err := report.WriteWorkbook(out, records, anomalies, table.Days()); err != nil {
		return err
	}
	p.log.Success("Wrote %s (%d recordings, %d anomalies, %d days)", out, len(records), len(anomalies), table.Len())
	return nil
}
