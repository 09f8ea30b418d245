package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/franz/soundscape-inventory/internal/meta"
	"github.com/franz/soundscape-inventory/internal/slot"
	"github.com/franz/soundscape-inventory/internal/sunref"
	"github.com/spf13/cobra"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <filename>...",
	Short: "Show how filenames would be classified",
	Long: `Parse one or more recording filenames and print the session and solar
slot they would receive, together with the sun times of their day. The
files do not need to exist; nothing is written.

Useful to check filename_regex, session hours and slot_tolerance_min
before running a full scan.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

// classifier holds the stage 2 rules without any file access
type classifier struct {
	parser    *meta.FilenameParser
	table     *sunref.Table
	morning   slot.HourRange
	evening   slot.HourRange
	tolerance float64
}

func runClassify(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(false)
	if err != nil {
		return err
	}
	defer p.Close()

	table, err := sunref.ReadCSV(p.cfg.Paths.SunReferenceCSV)
	if err != nil {
		return err
	}
	parser, err := p.filenameParser()
	if err != nil {
		return err
	}
	morning, evening, err := p.sessionWindows()
	if err != nil {
		return err
	}

	c := &classifier{
		parser:    parser,
		table:     table,
		morning:   morning,
		evening:   evening,
		tolerance: p.cfg.SessionRules.SlotToleranceMin,
	}
	out := cmd.OutOrStdout()
	for i, name := range args {
		if i > 0 {
			fmt.Fprintln(out)
		}
		c.describe(out, name)
	}
	return nil
}

func (c *classifier) describe(w io.Writer, name string) {
	fmt.Fprintf(w, "%s\n", name)

	fm, err := c.parser.Parse(name)
	switch {
	case errors.Is(err, meta.ErrBadFilename):
		fmt.Fprintf(w, "  status:      bad_filename (pattern %s)\n", c.parser.Pattern())
		return
	case err != nil:
		fmt.Fprintf(w, "  status:      bad_timestamp (%v)\n", err)
		return
	}

	session := slot.ClassifySession(fm.Start.Hour(), c.morning, c.evening)
	fmt.Fprintf(w, "  file_id:     %s\n", fm.FileID())
	fmt.Fprintf(w, "  recorder:    %s\n", fm.RecorderID)
	fmt.Fprintf(w, "  start:       %s\n", fm.Start.Format(sunref.NaiveLayout))
	fmt.Fprintf(w, "  week48:      %d\n", slot.Week48(fm.Start))
	fmt.Fprintf(w, "  session:     %s (morning %s, evening %s)\n", session, c.morning, c.evening)

	var ref *sunref.Day
	if day, ok := c.table.Lookup(fm.Start); ok {
		ref = &day
		fmt.Fprintf(w, "  sunrise:     %s\n", day.SunriseNaive.Format("15:04:05"))
		fmt.Fprintf(w, "  sunset:      %s\n", day.SunsetNaive.Format("15:04:05"))
	} else {
		fmt.Fprintf(w, "  sun data:    missing for %s\n", fm.Start.Format(sunref.DateLayout))
	}

	a := slot.Assign(fm.Start, session, ref, c.tolerance)
	fmt.Fprintf(w, "  solar_slot:  %s (tolerance %g min)\n", a.Slot, c.tolerance)
	if a.MinToSunrise != nil {
		fmt.Fprintf(w, "  to sunrise:  %+.1f min\n", *a.MinToSunrise)
	}
	if a.MinToSunset != nil {
		fmt.Fprintf(w, "  to sunset:   %+.1f min\n", *a.MinToSunset)
	}
}
