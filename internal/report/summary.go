package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/franz/soundscape-inventory/internal/inventory"
	"github.com/franz/soundscape-inventory/internal/slot"
	"github.com/franz/soundscape-inventory/internal/util"
)

// Summary aggregates one inventory run
type Summary struct {
	GeneratedAt time.Time

	// Metadata
	RunID         string
	InventoryPath string
	QCPath        string
	EventLogPath  string

	// Totals
	Files      int
	TotalBytes int64
	AudioHours float64
	Readable   int
	FirstStart *time.Time
	LastStart  *time.Time

	// Breakdowns
	ByStatus   []Count
	BySession  []Count
	BySlot     []Count
	ByIssue    []Count
	ByRecorder []RecorderSummary
	TopErrors  []Count
}

// Count is a label with the number of rows carrying it
type Count struct {
	Label string
	Count int
}

// RecorderSummary aggregates the rows of one recorder
type RecorderSummary struct {
	RecorderID string
	Files      int
	Scanned    int
	AudioHours float64
	First      time.Time
	Last       time.Time
}

// Summarize builds a Summary from the inventory and QC tables
func Summarize(records []inventory.Recording, anomalies []inventory.Anomaly) *Summary {
	s := &Summary{
		GeneratedAt: time.Now(),
		Files:       len(records),
	}

	statuses := make(map[string]int)
	sessions := make(map[string]int)
	slots := make(map[slot.Slot]int)
	errs := make(map[string]int)
	recorders := make(map[string]*RecorderSummary)

	for i := range records {
		rec := &records[i]
		s.TotalBytes += rec.SizeBytes
		statuses[string(rec.ScanStatus)]++
		if rec.Session != "" {
			sessions[string(rec.Session)]++
		}
		if !rec.SolarSlot.IsZero() {
			slots[rec.SolarSlot]++
		}
		if rec.LastError != "" {
			errs[rec.LastError]++
		}

		var hours float64
		if rec.DurationS != nil {
			hours = *rec.DurationS / 3600
		}
		if rec.WavReadable {
			s.Readable++
			s.AudioHours += hours
		}

		if rec.StartDT == nil {
			continue
		}
		start := *rec.StartDT
		if s.FirstStart == nil || start.Before(*s.FirstStart) {
			s.FirstStart = &start
		}
		if s.LastStart == nil || start.After(*s.LastStart) {
			s.LastStart = &start
		}

		rs, ok := recorders[rec.RecorderID]
		if !ok {
			rs = &RecorderSummary{RecorderID: rec.RecorderID, First: start, Last: start}
			recorders[rec.RecorderID] = rs
		}
		rs.Files++
		if rec.ScanStatus == inventory.StatusScanned {
			rs.Scanned++
			rs.AudioHours += hours
		}
		if start.Before(rs.First) {
			rs.First = start
		}
		if start.After(rs.Last) {
			rs.Last = start
		}
	}

	// Statuses keep pipeline order, everything else is sorted by count
	for _, st := range inventory.Statuses {
		if n := statuses[string(st)]; n > 0 {
			s.ByStatus = append(s.ByStatus, Count{Label: string(st), Count: n})
			delete(statuses, string(st))
		}
	}
	s.ByStatus = append(s.ByStatus, sortedCounts(statuses, 0)...)
	s.BySession = sortedCounts(sessions, 0)

	keys := make([]slot.Slot, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Kind != keys[j].Kind {
			return keys[i].Kind < keys[j].Kind
		}
		return keys[i].Offset < keys[j].Offset
	})
	for _, k := range keys {
		s.BySlot = append(s.BySlot, Count{Label: k.String(), Count: slots[k]})
	}

	issues := make(map[string]int)
	for _, a := range anomalies {
		issues[string(a.Issue)]++
	}
	s.ByIssue = sortedCounts(issues, 0)
	s.TopErrors = sortedCounts(errs, 10)

	for _, rs := range recorders {
		s.ByRecorder = append(s.ByRecorder, *rs)
	}
	sort.Slice(s.ByRecorder, func(i, j int) bool {
		return s.ByRecorder[i].RecorderID < s.ByRecorder[j].RecorderID
	})

	return s
}

// sortedCounts orders counts descending, ties by label, keeping at most
// limit entries when limit > 0
func sortedCounts(m map[string]int, limit int) []Count {
	counts := make([]Count, 0, len(m))
	for label, n := range m {
		counts = append(counts, Count{Label: label, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Label < counts[j].Label
	})
	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// WriteMarkdownReport writes the summary as Markdown
func WriteMarkdownReport(s *Summary, outputPath string) error {
	if err := util.EnsureParentDir(outputPath); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var md strings.Builder

	// Header
	md.WriteString("# Soundscape Inventory - Summary Report\n\n")
	md.WriteString(fmt.Sprintf("**Generated:** %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05")))

	if s.RunID != "" {
		md.WriteString(fmt.Sprintf("**Run:** `%s`\n\n", s.RunID))
	}
	if s.InventoryPath != "" {
		md.WriteString(fmt.Sprintf("**Inventory:** `%s`\n\n", s.InventoryPath))
	}
	if s.QCPath != "" {
		md.WriteString(fmt.Sprintf("**QC Table:** `%s`\n\n", s.QCPath))
	}
	if s.EventLogPath != "" {
		md.WriteString(fmt.Sprintf("**Event Log:** `%s`\n\n", s.EventLogPath))
	}

	md.WriteString("---\n\n")

	// Overview
	md.WriteString("## 📊 Overview\n\n")
	md.WriteString("| Metric | Value |\n")
	md.WriteString("|--------|-------|\n")
	md.WriteString(fmt.Sprintf("| Files | %d |\n", s.Files))
	md.WriteString(fmt.Sprintf("| Readable Audio | %d |\n", s.Readable))
	md.WriteString(fmt.Sprintf("| Total Size | %s |\n", util.FormatBytes(s.TotalBytes)))
	md.WriteString(fmt.Sprintf("| Audio Hours | %.1f |\n", s.AudioHours))
	if s.FirstStart != nil && s.LastStart != nil {
		md.WriteString(fmt.Sprintf("| Period | %s to %s |\n",
			s.FirstStart.Format("2006-01-02"), s.LastStart.Format("2006-01-02")))
	}
	md.WriteString("\n")

	writeCounts(&md, "## 🩺 Scan Status", "Status", s.ByStatus)
	writeCounts(&md, "## 🕐 Sessions", "Session", s.BySession)
	writeCounts(&md, "## 🌅 Solar Slots", "Slot", s.BySlot)

	// Recorders
	if len(s.ByRecorder) > 0 {
		md.WriteString("## 🎙️ Recorders\n\n")
		md.WriteString("| Recorder | Files | Scanned | Hours | First | Last |\n")
		md.WriteString("|----------|-------|---------|-------|-------|------|\n")
		for _, r := range s.ByRecorder {
			md.WriteString(fmt.Sprintf("| %s | %d | %d | %.1f | %s | %s |\n",
				r.RecorderID, r.Files, r.Scanned, r.AudioHours,
				r.First.Format("2006-01-02"), r.Last.Format("2006-01-02")))
		}
		md.WriteString("\n")
	}

	writeCounts(&md, "## ⚠️ Data Quality", "Issue", s.ByIssue)

	// Errors
	if len(s.TopErrors) > 0 {
		md.WriteString("## 🚨 Top Errors\n\n")
		md.WriteString("| Count | Error |\n")
		md.WriteString("|-------|-------|\n")
		for _, e := range s.TopErrors {
			md.WriteString(fmt.Sprintf("| %d | %s |\n", e.Count, truncatePath(e.Label, 100)))
		}
		md.WriteString("\n")
	}

	md.WriteString("---\n\n")
	md.WriteString("*Generated by ssinv - Soundscape Inventory*\n")

	if err := os.WriteFile(outputPath, []byte(md.String()), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	return nil
}

func writeCounts(md *strings.Builder, title, column string, counts []Count) {
	if len(counts) == 0 {
		return
	}
	md.WriteString(title + "\n\n")
	md.WriteString(fmt.Sprintf("| %s | Files |\n", column))
	md.WriteString("|--------|-------|\n")
	for _, c := range counts {
		md.WriteString(fmt.Sprintf("| %s | %d |\n", c.Label, c.Count))
	}
	md.WriteString("\n")
}

// ReportPath returns the summary file name for a run started at t
func ReportPath(dir string, t time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("summary-%s.md", t.Format("20060102-150405")))
}

// truncatePath truncates a file path to a maximum length
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	// Truncate from the middle, keeping start and end
	start := maxLen/2 - 2
	end := len(path) - (maxLen/2 - 2)
	return path[:start] + "..." + path[end:]
}
