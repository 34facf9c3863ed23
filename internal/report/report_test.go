package report

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"forensiclens/pkg/models"
)

func testReport() *models.ForensicsReport {
	techniques := models.Techniques()
	results := make([]models.AnalysisResult, len(techniques))
	for i, tech := range techniques {
		results[i] = models.AnalysisResult{
			Technique: tech,
			Score:     30,
			Completed: true,
			Stats:     map[string]float64{"regions_found": 2, "num_peaks": 4},
		}
	}
	return &models.ForensicsReport{
		Source:       "/photos/holiday.jpg",
		Format:       "jpeg",
		Width:        800,
		Height:       600,
		Timestamp:    time.Date(2026, 3, 14, 15, 9, 2, 0, time.UTC),
		Results:      results,
		AverageScore: 30,
		Verdict:      models.VerdictModerate,
		UsableCount:  models.TechniqueCount,
	}
}

func TestGenerateContainsAllSections(t *testing.T) {
	text := Generate(testReport())

	wantLines := []string{
		"FORENSICLENS - IMAGE MANIPULATION DETECTION REPORT",
		"Image: holiday.jpg",
		"Full Path: /photos/holiday.jpg",
		"Format: JPEG (800x600)",
		"1. Error Level Analysis (ELA)",
		"2. Noise Inconsistency Analysis",
		"3. Histogram Manipulation Analysis",
		"4. Bit-Depth Analysis",
		"5. Clone/Copy-Move Detection",
		"6. Frequency Domain Analysis",
		"7. Contrast Manipulation Analysis",
		"8. Blur Inconsistency Analysis",
		"9. Lighting Inconsistency Analysis",
		"Cloned Regions Found: 2",
		"Frequency Peaks: 4",
		"Average Suspicion Score: 30.0/100",
		"MODERATE SUSPICION",
		"End of Report",
	}
	for _, want := range wantLines {
		if !strings.Contains(text, want) {
			t.Errorf("Report missing %q", want)
		}
	}
}

func TestGenerateMarksSkippedTechniques(t *testing.T) {
	fr := testReport()
	fr.Results[1].Completed = false
	fr.Results[1].Error = "analysis cancelled"
	fr.Incomplete = true
	fr.UsableCount = 8

	text := Generate(fr)

	if !strings.Contains(text, "Status: SKIPPED (analysis cancelled)") {
		t.Error("Skipped technique not reported")
	}
	if !strings.Contains(text, "verdict computed from 8 of 9 techniques") {
		t.Error("Incomplete note missing")
	}
}

func TestGenerateVerdictLines(t *testing.T) {
	cases := []struct {
		verdict models.Verdict
		want    string
	}{
		{models.VerdictLow, "LOW PROBABILITY OF MANIPULATION"},
		{models.VerdictModerate, "MODERATE SUSPICION"},
		{models.VerdictHigh, "HIGH PROBABILITY OF MANIPULATION"},
		{models.VerdictSevere, "SEVERE - HIGH PROBABILITY OF MANIPULATION"},
	}
	for _, c := range cases {
		fr := testReport()
		fr.Verdict = c.verdict
		if !strings.Contains(Generate(fr), c.want) {
			t.Errorf("Verdict %s: report missing %q", c.verdict, c.want)
		}
	}
}

func TestWriteCreatesReportFile(t *testing.T) {
	dir := t.TempDir()

	path, err := Write(testReport(), dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Cannot read written report: %v", err)
	}
	if !strings.Contains(string(data), "FORENSICLENS") {
		t.Error("Written report has no header")
	}
}

func TestPrintNoColorMatchesGenerate(t *testing.T) {
	fr := testReport()
	var buf bytes.Buffer
	Print(&buf, fr, true)

	if buf.String() != Generate(fr) {
		t.Error("Uncolored Print output differs from Generate")
	}
}
