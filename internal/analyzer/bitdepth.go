package analyzer

import (
	"context"
	"math"

	"forensiclens/internal/config"
	"forensiclens/pkg/models"
)

// BitDepth detects posterization: quantization combs in the histogram and a
// unique-intensity count too low for the image's size both indicate the
// sample depth was reduced at some point.
type BitDepth struct {
	th config.BitDepthThresholds
}

// NewBitDepth creates the bit-depth reduction detector.
func NewBitDepth(th config.Thresholds) *BitDepth {
	return &BitDepth{th: th.BitDepth}
}

func (a *BitDepth) Name() models.Technique { return models.TechniqueBitDepth }

func (a *BitDepth) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	if cancelled(ctx) {
		return nil, ctx.Err()
	}

	hist := make([]float64, 256)
	pixels := 0
	for y := range in.Lum {
		for _, v := range in.Lum[y] {
			hist[int(v)]++
			pixels++
		}
	}

	posterized := false
	estimatedBits := 8.0
	score := 0.0

	peaks := findPeaks(hist, maxOf(hist)*a.th.PeakHeightRatio)
	if len(peaks) >= 4 {
		regularity, meanSpacing := peakSpacingRegularity(peaks)
		if regularity > a.th.SpacingRegularity && meanSpacing > 0 {
			posterized = true
			levels := 256 / meanSpacing
			estimatedBits = math.Floor(math.Log2(levels))
			score = regularity * 100
		}
	}

	uniqueValues := 0
	for _, c := range hist {
		if c > 0 {
			uniqueValues++
		}
	}
	// The unique-value test is meaningless for tiny images, which cannot
	// populate many bins in the first place.
	if pixels >= a.th.MinPixelsForUnique && uniqueValues < a.th.MinUniqueValues {
		posterized = true
		score = math.Max(score, (1-float64(uniqueValues)/256)*100)
	}

	result := &models.AnalysisResult{
		Technique:  models.TechniqueBitDepth,
		Score:      clampScore(score),
		Suspicious: posterized && score >= a.th.SuspicionScore,
		Stats: map[string]float64{
			"unique_values":   float64(uniqueValues),
			"estimated_bits":  estimatedBits,
			"histogram_peaks": float64(len(peaks)),
		},
		Completed: true,
	}
	if posterized {
		result.Detail = "posterization"
	}
	return result, nil
}
