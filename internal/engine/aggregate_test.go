package engine

import (
	"testing"

	"forensiclens/internal/errors"
	"forensiclens/pkg/models"
)

func fullResults(score float64) []models.AnalysisResult {
	techniques := models.Techniques()
	results := make([]models.AnalysisResult, len(techniques))
	for i, tech := range techniques {
		results[i] = models.AnalysisResult{
			Technique: tech,
			Score:     score,
			Completed: true,
		}
	}
	return results
}

func TestAggregateFullSlate(t *testing.T) {
	fr, err := Aggregate("img.png", "png", 640, 480, fullResults(50))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if fr.AverageScore != 50 {
		t.Errorf("AverageScore = %g, want 50", fr.AverageScore)
	}
	if fr.Verdict != models.VerdictHigh {
		t.Errorf("Verdict = %s, want %s", fr.Verdict, models.VerdictHigh)
	}
	if fr.Incomplete {
		t.Error("Complete run marked incomplete")
	}
	if fr.UsableCount != models.TechniqueCount {
		t.Errorf("UsableCount = %d, want %d", fr.UsableCount, models.TechniqueCount)
	}
	if fr.Source != "img.png" || fr.Width != 640 || fr.Height != 480 {
		t.Error("Source metadata not carried into the report")
	}
	if fr.Timestamp.IsZero() {
		t.Error("Missing timestamp")
	}
}

func TestAggregateSkipsUnusableResults(t *testing.T) {
	results := fullResults(30)
	results[2].Completed = false
	results[2].Error = "analysis cancelled"
	results[5].Score = 90 // should still average over usable only

	fr, err := Aggregate("img.png", "png", 100, 100, results)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	// 7 results at 30 plus one at 90 over 8 usable results.
	want := (7*30.0 + 90) / 8
	if fr.AverageScore != want {
		t.Errorf("AverageScore = %g, want %g", fr.AverageScore, want)
	}
	if !fr.Incomplete {
		t.Error("Partial run not marked incomplete")
	}
	if fr.UsableCount != 8 {
		t.Errorf("UsableCount = %d, want 8", fr.UsableCount)
	}
}

func TestAggregateVerdictBands(t *testing.T) {
	cases := []struct {
		score float64
		want  models.Verdict
	}{
		{0, models.VerdictLow},
		{19.9, models.VerdictLow},
		{20, models.VerdictModerate},
		{49.9, models.VerdictModerate},
		{50, models.VerdictHigh},
		{74.9, models.VerdictHigh},
		{75, models.VerdictSevere},
		{100, models.VerdictSevere},
	}
	for _, c := range cases {
		fr, err := Aggregate("img.png", "png", 10, 10, fullResults(c.score))
		if err != nil {
			t.Fatalf("Aggregate(%g) failed: %v", c.score, err)
		}
		if fr.Verdict != c.want {
			t.Errorf("Score %g: verdict %s, want %s", c.score, fr.Verdict, c.want)
		}
	}
}

func TestAggregateRejectsShortSlate(t *testing.T) {
	_, err := Aggregate("img.png", "png", 10, 10, fullResults(10)[:8])
	if !errors.IsType(err, errors.ErrorTypeAggregation) {
		t.Errorf("Expected aggregation error for 8 results, got %v", err)
	}
}

func TestAggregateRejectsAllUnusable(t *testing.T) {
	results := fullResults(10)
	for i := range results {
		results[i].Completed = false
		results[i].Error = "failed"
	}

	_, err := Aggregate("img.png", "png", 10, 10, results)
	if !errors.IsType(err, errors.ErrorTypeAggregation) {
		t.Errorf("Expected aggregation error with no usable results, got %v", err)
	}
}
