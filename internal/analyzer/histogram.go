package analyzer

import (
	"context"
	"math"

	"forensiclens/internal/config"
	"forensiclens/pkg/models"
)

// Histogram detects tonal manipulations that reshape the intensity
// distribution: equalization, clipping from contrast stretching, global
// contrast shifts and posterization. Each sub-test produces its own score;
// the dominant one names the detected type.
type Histogram struct {
	th config.HistogramThresholds
}

// NewHistogram creates the histogram manipulation detector.
func NewHistogram(th config.Thresholds) *Histogram {
	return &Histogram{th: th.Histogram}
}

func (a *Histogram) Name() models.Technique { return models.TechniqueHistogram }

func (a *Histogram) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	if cancelled(ctx) {
		return nil, ctx.Err()
	}

	hist := make([]float64, 256)
	total := 0.0
	for y := range in.Lum {
		for _, v := range in.Lum[y] {
			hist[int(v)]++
			total++
		}
	}
	norm := make([]float64, 256)
	for i, c := range hist {
		norm[i] = c / total
	}

	scores := map[string]float64{
		"histogram equalization": a.equalizationScore(norm),
		"histogram clipping":     a.clippingScore(hist, total),
		"contrast enhancement":   a.contrastScore(norm),
		"posterization":          a.posterizationScore(hist),
	}

	dominantType, dominant := "", 0.0
	for name, s := range scores {
		if s > dominant || (s == dominant && name < dominantType) {
			dominantType, dominant = name, s
		}
	}

	result := &models.AnalysisResult{
		Technique: models.TechniqueHistogram,
		Stats: map[string]float64{
			"equalization_score":  scores["histogram equalization"],
			"clipping_score":      scores["histogram clipping"],
			"contrast_score":      scores["contrast enhancement"],
			"posterization_score": scores["posterization"],
		},
		Completed: true,
	}
	if dominant > a.th.ManipulationScore {
		result.Score = clampScore(dominant)
		result.Suspicious = true
		result.Detail = dominantType
	}
	return result, nil
}

// equalizationScore measures how close the histogram sits to the flat
// distribution an equalization pass leaves behind.
func (a *Histogram) equalizationScore(norm []float64) float64 {
	uniform := 1.0 / float64(len(norm))
	chiSquare := 0.0
	for _, p := range norm {
		d := p - uniform
		chiSquare += d * d / uniform
	}
	uniformity := 1 / (1 + chiSquare/100)

	mean := uniform
	variance := 0.0
	for _, p := range norm {
		variance += (p - mean) * (p - mean)
	}
	std := math.Sqrt(variance / float64(len(norm)))
	stdScore := 1 - std/mean
	if stdScore < 0 {
		stdScore = 0
	}

	return (uniformity*0.6 + stdScore*0.4) * 100
}

// clippingScore looks for the signature of contrast stretching: mass piled
// at the extremes plus emptied interior bins.
func (a *Histogram) clippingScore(hist []float64, total float64) float64 {
	blackPeak := hist[0] / total
	whitePeak := hist[255] / total
	extremePeakScore := (blackPeak + whitePeak) * 100

	// Interior gaps, ignoring the outermost bins.
	zeroBins := 0
	for i := 5; i < 250; i++ {
		if hist[i] == 0 {
			zeroBins++
		}
	}
	gapScore := float64(zeroBins) / 245 * 100

	nonZero := 0
	for _, c := range hist {
		if c > 0 {
			nonZero++
		}
	}
	rangeUsage := float64(nonZero) / 256

	var score float64
	if rangeUsage < a.th.RangeUsage && (blackPeak > a.th.ExtremePeakRatio || whitePeak > a.th.ExtremePeakRatio) {
		score = math.Max(extremePeakScore, gapScore) * 1.5
	} else {
		score = (extremePeakScore + gapScore) / 2
	}
	return math.Min(100, score)
}

// contrastScore checks the distribution moments: strong skew, kurtosis far
// from Gaussian and bimodality all point at global contrast manipulation.
func (a *Histogram) contrastScore(norm []float64) float64 {
	var mean float64
	for i, p := range norm {
		mean += float64(i) * p
	}
	var variance float64
	for i, p := range norm {
		d := float64(i) - mean
		variance += d * d * p
	}
	std := math.Sqrt(variance)

	var skewness, kurtosis float64
	for i, p := range norm {
		d := float64(i) - mean
		skewness += d * d * d * p
		kurtosis += d * d * d * d * p
	}
	skewness /= std*std*std + 1e-10
	kurtosis /= std*std*std*std + 1e-10

	kurtosisDeviation := math.Abs(kurtosis - 3)
	skewnessScore := math.Abs(skewness) * 20

	smoothed := smooth(norm, 21)
	peaks := findPeaks(smoothed, maxOf(smoothed)*0.1)
	bimodalScore := 0.0
	if len(peaks) >= 2 {
		bimodalScore = 50
	}

	return math.Min(100, skewnessScore+kurtosisDeviation*10+bimodalScore)
}

// posterizationScore detects the regularly spaced comb pattern bit-depth
// reduction leaves in a histogram.
func (a *Histogram) posterizationScore(hist []float64) float64 {
	smoothed := smooth(hist, 11)
	peaks := findPeaks(smoothed, maxOf(smoothed)*a.th.PeakHeightRatio)
	if len(peaks) < 4 {
		return 0
	}

	regularity, _ := peakSpacingRegularity(peaks)
	if regularity <= 0 {
		return 0
	}
	if regularity > a.th.SpacingRegularity {
		return math.Min(100, regularity*float64(len(peaks))*10)
	}
	return math.Min(100, regularity*30)
}

// peakSpacingRegularity quantifies how evenly a peak sequence is spaced;
// 1 means perfectly regular. The mean spacing is returned for bit-depth
// estimation.
func peakSpacingRegularity(peaks []int) (regularity, meanSpacing float64) {
	if len(peaks) < 3 {
		return 0, 0
	}
	spacings := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		spacings[i-1] = float64(peaks[i] - peaks[i-1])
	}
	var sum float64
	for _, s := range spacings {
		sum += s
	}
	meanSpacing = sum / float64(len(spacings))
	if meanSpacing == 0 {
		return 0, 0
	}
	var variance float64
	for _, s := range spacings {
		variance += (s - meanSpacing) * (s - meanSpacing)
	}
	std := math.Sqrt(variance / float64(len(spacings)))
	regularity = 1 - std/meanSpacing
	if regularity < 0 {
		regularity = 0
	}
	return regularity, meanSpacing
}

// smooth applies a centered moving average; the window is clamped odd.
func smooth(vals []float64, window int) []float64 {
	if window < 3 {
		return append([]float64(nil), vals...)
	}
	if window%2 == 0 {
		window++
	}
	half := window / 2
	out := make([]float64, len(vals))
	for i := range vals {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi >= len(vals) {
			hi = len(vals) - 1
		}
		sum := 0.0
		for j := lo; j <= hi; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// findPeaks returns indices of local maxima at or above minHeight.
func findPeaks(vals []float64, minHeight float64) []int {
	var peaks []int
	for i := 1; i < len(vals)-1; i++ {
		if vals[i] >= minHeight && vals[i] > vals[i-1] && vals[i] >= vals[i+1] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

func maxOf(vals []float64) float64 {
	m := math.Inf(-1)
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}
