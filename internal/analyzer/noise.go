package analyzer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"forensiclens/internal/config"
	"forensiclens/pkg/imageutil"
	"forensiclens/pkg/models"
)

// Noise maps per-block sensor noise and scores its spatial consistency.
// Spliced-in content carries noise from a different source, so its blocks
// fall outside the image's own variance distribution: unusually low variance
// points at over-smoothed or copy-pasted regions, unusually high variance at
// noisier inserted content. Both directions are flagged.
type Noise struct {
	th config.NoiseThresholds
}

// NewNoise creates the noise consistency mapper.
func NewNoise(th config.Thresholds) *Noise {
	return &Noise{th: th.Noise}
}

func (a *Noise) Name() models.Technique { return models.TechniqueNoise }

func (a *Noise) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	w, h := in.Width(), in.Height()
	blocks, err := imageutil.Grid(w, h, a.th.BlockSize, a.th.BlockSize, imageutil.DropPartial)
	if err != nil {
		return nil, err
	}
	cols, rows := imageutil.GridSize(w, h, a.th.BlockSize)
	if len(blocks) < 4 {
		return nil, fmt.Errorf("image too small for %dx%d noise blocks", a.th.BlockSize, a.th.BlockSize)
	}

	sigmas := make([]float64, len(blocks))
	for i, b := range blocks {
		sigmas[i] = estimateNoiseSigma(in.Lum, b)
		if i%512 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}

	mean, std := stat.MeanStdDev(sigmas, nil)
	lo := mean - a.th.OutlierK*std
	hi := mean + a.th.OutlierK*std

	outliers := 0
	for _, s := range sigmas {
		if s < lo || s > hi {
			outliers++
		}
	}
	outlierFraction := float64(outliers) / float64(len(sigmas))
	score := clampScore(outlierFraction * a.th.ScoreScale)

	return &models.AnalysisResult{
		Technique:  models.TechniqueNoise,
		Score:      score,
		Suspicious: score >= a.th.SuspicionScore,
		Stats: map[string]float64{
			"outlier_blocks":   float64(outliers),
			"outlier_fraction": outlierFraction,
			"sigma_mean":       mean,
			"sigma_std":        std,
		},
		Evidence:  imageutil.UpsampleBlockMap(sigmas, cols, rows, w, h),
		Completed: true,
	}, nil
}

// OutlierBlocks returns the indices of blocks outside mean +/- k*sigma,
// recomputed from a sigma map. Exposed for the evidence pipeline and tests.
func (a *Noise) OutlierBlocks(sigmas []float64) []int {
	mean, std := stat.MeanStdDev(sigmas, nil)
	lo := mean - a.th.OutlierK*std
	hi := mean + a.th.OutlierK*std
	var out []int
	for i, s := range sigmas {
		if s < lo || s > hi {
			out = append(out, i)
		}
	}
	return out
}

// estimateNoiseSigma estimates block noise via the median absolute deviation
// of the Laplacian response. MAD is robust to the block's own structure;
// 1.4826 rescales it to a Gaussian standard deviation.
func estimateNoiseSigma(lum [][]float64, b imageutil.Block) float64 {
	var resp []float64
	for y := b.Y + 1; y < b.Y+b.H-1; y++ {
		for x := b.X + 1; x < b.X+b.W-1; x++ {
			lap := -4*lum[y][x] + lum[y-1][x] + lum[y+1][x] + lum[y][x-1] + lum[y][x+1]
			resp = append(resp, lap)
		}
	}
	if len(resp) == 0 {
		return 0
	}
	med := median(resp)
	dev := make([]float64, len(resp))
	for i, v := range resp {
		dev[i] = math.Abs(v - med)
	}
	return 1.4826 * median(dev)
}

func median(values []float64) float64 {
	s := append([]float64(nil), values...)
	sort.Float64s(s)
	n := len(s)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}
