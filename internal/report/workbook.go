package report

import (
	"fmt"
	"strconv"

	"github.com/franz/soundscape-inventory/internal/inventory"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SheetInventory = "inventory"
	SheetQC        = "qc"
	SheetSun       = "sun"
)

// numericColumns are written as numbers so spreadsheet filters and sums work
var numericColumns = map[string]bool{
	"size_bytes":     true,
	"month":          true,
	"min_to_sunrise": true,
	"min_to_sunset":  true,
	"duration_s":     true,
	"samplerate":     true,
	"channels":       true,
	"birdnet_week48": true,
	"val":            true,
}

// WriteWorkbook exports the inventory, QC and solar reference tables as
// one XLSX file with a sheet per table
func WriteWorkbook(path string, records []inventory.Recording, anomalies []inventory.Anomaly, days []sunref.Day) error {
	if err := util.EnsureParentDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetInventory); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetInventory, err)
	}
	for _, name := range []string{SheetQC, SheetSun} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	rows := make([][]string, len(records))
	for i := range records {
		rows[i] = records[i].Row()
	}
	if err := writeSheet(f, SheetInventory, inventory.Columns, rows, headerStyle); err != nil {
		return err
	}

	rows = make([][]string, len(anomalies))
	for i := range anomalies {
		rows[i] = anomalies[i].Row()
	}
	if err := writeSheet(f, SheetQC, inventory.AnomalyColumns, rows, headerStyle); err != nil {
		return err
	}

	rows = make([][]string, len(days))
	for i := range days {
		rows[i] = days[i].Row()
	}
	if err := writeSheet(f, SheetSun, sunref.Columns, rows, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, header []string, rows [][]string, headerStyle int) error {
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for r, row := range rows {
		cells := make([]interface{}, len(row))
		for c, v := range row {
			cells[c] = cellValue(header[c], v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, r+2, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", last, 18); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func cellValue(column, v string) interface{} {
	if v == "" || !numericColumns[column] {
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}
