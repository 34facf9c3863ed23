package engine

import (
	"fmt"
	"time"

	"forensiclens/internal/errors"
	"forensiclens/pkg/models"
)

// Aggregate combines per-technique results into a ForensicsReport. The
// verdict is the mean suspicion score over usable results only; missing or
// failed techniques mark the report incomplete rather than skewing the
// average. Aggregation fails when the result set is not the full technique
// slate or when no technique produced a usable score.
func Aggregate(source, format string, width, height int, results []models.AnalysisResult) (*models.ForensicsReport, error) {
	if len(results) != models.TechniqueCount {
		return nil, errors.NewAggregationError(
			fmt.Sprintf("result set does not cover every technique (got %d, want %d)",
				len(results), models.TechniqueCount), nil)
	}

	var sum float64
	usable := 0
	for i := range results {
		if results[i].Usable() {
			sum += results[i].Score
			usable++
		}
	}
	if usable == 0 {
		return nil, errors.NewAggregationError("no technique produced a usable result", nil)
	}

	avg := sum / float64(usable)
	return &models.ForensicsReport{
		Source:       source,
		Format:       format,
		Width:        width,
		Height:       height,
		Timestamp:    time.Now().UTC(),
		Results:      results,
		AverageScore: avg,
		Verdict:      models.ClassifyScore(avg),
		Incomplete:   usable < models.TechniqueCount,
		UsableCount:  usable,
	}, nil
}
