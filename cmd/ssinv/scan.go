package main

import (
	"context"
	"fmt"
	"time"

	"github.com/franz/soundscape-inventory/internal/inventory"
	"github.com/franz/soundscape-inventory/internal/report"
	"github.com/franz/soundscape-inventory/internal/scan"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/franz/soundscape-inventory/internal/util"
	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Build the recording inventory (stage 2)",
	Long: `Scan the audio directory and build the recording inventory.

For every WAV file the recorder id and start time are parsed from the
filename, the session (morning, evening, other) is derived from the start
hour and the recording is matched against sunrise or sunset of its day in
the solar reference table. Audio headers provide duration, sample rate and
channel count.

Problems with single files never abort the scan: they are recorded in the
scan_status column and in the QC table. The solar reference table must
exist; run 'ssinv sunref' first.`,
	Args: cobra.NoArgs,
	RunE: runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	p.events.LogRun("inventory", "start", map[string]string{"audio_dir": p.cfg.Paths.AudioDir})
	if _, err := buildInventory(cmd.Context(), p); err != nil {
		p.events.LogError(report.EventScan, p.cfg.Paths.AudioDir, err)
		return err
	}
	p.events.LogRun("inventory", "end", nil)
	return nil
}

// buildInventory runs stage 2 and writes the inventory and QC tables
func buildInventory(ctx context.Context, p *pipeline) (*inventory.Result, error) {
	p.log.Info("=== Stage 2: Inventory ===")

	table, err := sunref.ReadCSV(p.cfg.Paths.SunReferenceCSV)
	if err != nil {
		return nil, err
	}
	p.log.Info("Solar reference: %s (%d days)", p.cfg.Paths.SunReferenceCSV, table.Len())

	parser, err := p.filenameParser()
	if err != nil {
		return nil, err
	}
	morning, evening, err := p.sessionWindows()
	if err != nil {
		return nil, err
	}

	// Phase 1: Discovery
	p.log.Info("Audio directory: %s", p.cfg.Paths.AudioDir)
	scanner := scan.New(&scan.Config{
		Extensions: p.cfg.Scan.Extensions,
		Logger:     p.log,
	})

	started := time.Now()
	found, err := scanner.Scan(ctx, p.cfg.Paths.AudioDir)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	p.log.Info("Discovered %d audio files (%d other files skipped)", len(found.Files), found.Skipped)
	if len(found.Errors) > 0 {
		p.log.Warn("%d paths could not be read", len(found.Errors))
	}

	retry := util.DefaultRetryPolicy()
	if mount, err := util.DetectMount(p.cfg.Paths.AudioDir); err == nil {
		p.log.Debug("Audio filesystem: %s", mount)
		if mount.Network {
			p.log.Info("Audio directory is on a network filesystem (%s), retrying transient read errors", mount.FSType)
			retry = util.NetworkRetryPolicy()
		}
	}

	// Phase 2: Classification
	builder, err := inventory.New(inventory.Config{
		Parser:       parser,
		Reference:    table,
		Morning:      morning,
		Evening:      evening,
		ToleranceMin: p.cfg.SessionRules.SlotToleranceMin,
		MinDurationS: p.cfg.Scan.MinDurationS,
		Week48:       p.cfg.BirdnetWeek48.Enabled,
		Logger:       p.log,
		Events:       p.events,
		ShowProgress: util.ShowProgress(p.log),
		Retry:        retry,
	})
	if err != nil {
		return nil, err
	}

	result, err := builder.Build(ctx, found.Files)
	if err != nil {
		return nil, fmt.Errorf("inventory interrupted after %d of %d files: %w",
			len(result.Records), len(found.Files), err)
	}

	if err := inventory.WriteInventoryCSV(p.cfg.Paths.InventoryCSV, result.Records); err != nil {
		return nil, fmt.Errorf("failed to write inventory: %w", err)
	}
	p.log.Success("Wrote %s (%d rows)", p.cfg.Paths.InventoryCSV, len(result.Records))

	written, err := inventory.SyncAnomaliesCSV(p.cfg.Paths.QCInventoryCSV, result.Anomalies)
	if err != nil {
		return nil, fmt.Errorf("failed to write QC table: %w", err)
	}
	if written {
		p.log.Warn("Wrote %s (%d anomalies)", p.cfg.Paths.QCInventoryCSV, len(result.Anomalies))
	} else {
		p.log.Success("No anomalies found")
	}

	p.log.Info("Inventory complete in %v", time.Since(started).Round(time.Millisecond))
	return result, nil
}
