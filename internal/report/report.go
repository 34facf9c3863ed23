// Package report renders a ForensicsReport as fixed-layout text, both plain
// for files and colorized for terminals.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"forensiclens/internal/errors"
	"forensiclens/internal/logger"
	"forensiclens/pkg/models"
)

const rule = "======================================================================"
const thinRule = "----------------------------------------------------------------------"

// section pairs a technique with its report heading and the label used for
// its yes/no indicator line.
type section struct {
	technique models.Technique
	heading   string
	indicator string
}

var sections = []section{
	{models.TechniqueELA, "Error Level Analysis (ELA)", ""},
	{models.TechniqueNoise, "Noise Inconsistency Analysis", "Inconsistent Noise"},
	{models.TechniqueHistogram, "Histogram Manipulation Analysis", "Manipulation Detected"},
	{models.TechniqueBitDepth, "Bit-Depth Analysis", "Posterization Detected"},
	{models.TechniqueClone, "Clone/Copy-Move Detection", ""},
	{models.TechniqueFrequency, "Frequency Domain Analysis", "Periodic Patterns"},
	{models.TechniqueContrast, "Contrast Manipulation Analysis", "Inconsistent Contrast"},
	{models.TechniqueBlur, "Blur Inconsistency Analysis", "Inconsistent Blur"},
	{models.TechniqueBiasField, "Lighting Inconsistency Analysis", "Inconsistent Lighting"},
}

// Generate renders the full text report.
func Generate(fr *models.ForensicsReport) string {
	var b strings.Builder

	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	line(rule)
	line("FORENSICLENS - IMAGE MANIPULATION DETECTION REPORT")
	line(rule)
	line("")
	line("Analysis Date: %s", fr.Timestamp.Format("2006-01-02 15:04:05"))
	line("Image: %s", filepath.Base(fr.Source))
	line("Full Path: %s", fr.Source)
	line("Format: %s (%dx%d)", strings.ToUpper(fr.Format), fr.Width, fr.Height)
	line("")
	line(rule)
	line("")
	line("ANALYSIS SUMMARY")
	line(thinRule)

	for i, s := range sections {
		res := fr.Result(s.technique)
		line("")
		line("%d. %s", i+1, s.heading)
		if res == nil || !res.Usable() {
			reason := "not completed"
			if res != nil && res.Error != "" {
				reason = res.Error
			}
			line("   Status: SKIPPED (%s)", reason)
			continue
		}
		writeSection(line, s, res)
	}

	line("")
	line(rule)
	line("OVERALL VERDICT")
	line(rule)
	line("")
	if fr.Incomplete {
		line("NOTE: verdict computed from %d of %d techniques",
			fr.UsableCount, models.TechniqueCount)
		line("")
	}
	line("Average Suspicion Score: %.1f/100", fr.AverageScore)
	line("")
	for _, v := range verdictLines(fr.Verdict) {
		line("%s", v)
	}
	line("")
	line(rule)
	line("End of Report")
	line(rule)

	return b.String()
}

func writeSection(line func(string, ...interface{}), s section, res *models.AnalysisResult) {
	if s.indicator != "" {
		line("   %s: %s", s.indicator, yesNo(res.Suspicious))
	}
	if res.Detail != "" {
		line("   Type: %s", res.Detail)
	}
	switch s.technique {
	case models.TechniqueClone:
		line("   Cloned Regions Found: %d", int(res.Stats["regions_found"]))
	case models.TechniqueFrequency:
		line("   Frequency Peaks: %d", int(res.Stats["num_peaks"]))
	}
	line("   Suspicion Score: %.0f/100", res.Score)
	line("   Status: %s", models.StatusLabel(res.Score))
}

func yesNo(suspicious bool) string {
	if suspicious {
		return "YES"
	}
	return "NO"
}

func verdictLines(v models.Verdict) []string {
	switch v {
	case models.VerdictSevere:
		return []string{
			"SEVERE - HIGH PROBABILITY OF MANIPULATION",
			"   Recommendation: Image is almost certainly manipulated",
			"   Multiple strong forensic indicators detected",
		}
	case models.VerdictHigh:
		return []string{
			"HIGH PROBABILITY OF MANIPULATION",
			"   Recommendation: Image is likely manipulated",
			"   Multiple forensic indicators detected",
		}
	case models.VerdictModerate:
		return []string{
			"MODERATE SUSPICION",
			"   Recommendation: Further investigation recommended",
			"   Some forensic indicators present",
		}
	default:
		return []string{
			"LOW PROBABILITY OF MANIPULATION",
			"   Recommendation: Image appears authentic",
			"   Few forensic indicators detected",
		}
	}
}

// Write saves the rendered report under dir as forensics_report.txt.
func Write(fr *models.ForensicsReport, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.NewInternalError("cannot create output directory", err)
	}
	path := filepath.Join(dir, "forensics_report.txt")
	if err := os.WriteFile(path, []byte(Generate(fr)), 0o644); err != nil {
		return "", errors.NewInternalError("cannot write report", err)
	}
	logger.WithField("path", path).Info("report saved")
	return path, nil
}

// Print writes the report to w, colorizing score and verdict lines unless
// noColor is set.
func Print(w io.Writer, fr *models.ForensicsReport, noColor bool) {
	text := Generate(fr)
	if noColor {
		fmt.Fprint(w, text)
		return
	}

	for _, l := range strings.Split(text, "\n") {
		switch {
		case strings.Contains(l, "HIGH SUSPICION") || strings.HasPrefix(l, "SEVERE"):
			color.New(color.FgRed, color.Bold).Fprintln(w, l)
		case strings.HasPrefix(l, "HIGH PROBABILITY"):
			color.New(color.FgRed).Fprintln(w, l)
		case strings.Contains(l, "MODERATE"):
			color.New(color.FgYellow).Fprintln(w, l)
		case strings.HasPrefix(l, "LOW PROBABILITY") || strings.Contains(l, ": NORMAL"):
			color.New(color.FgGreen).Fprintln(w, l)
		default:
			fmt.Fprintln(w, l)
		}
	}
}
