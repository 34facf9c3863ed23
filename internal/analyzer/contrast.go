package analyzer

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"forensiclens/internal/config"
	"forensiclens/pkg/imageutil"
	"forensiclens/pkg/models"
)

// Contrast maps block-local contrast and flags blocks that deviate sharply
// from their neighborhood. Local contrast adjustments leave patches whose
// spread no longer matches the surrounding image.
type Contrast struct {
	th config.ContrastThresholds
}

// NewContrast creates the local-contrast inconsistency detector.
func NewContrast(th config.Thresholds) *Contrast {
	return &Contrast{th: th.Contrast}
}

func (a *Contrast) Name() models.Technique { return models.TechniqueContrast }

func (a *Contrast) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	w, h := in.Width(), in.Height()
	blocks, err := imageutil.Grid(w, h, a.th.BlockSize, a.th.BlockSize, imageutil.DropPartial)
	if err != nil {
		return nil, err
	}
	cols, rows := imageutil.GridSize(w, h, a.th.BlockSize)
	if cols < 2 || rows < 2 {
		return nil, fmt.Errorf("image too small for %dx%d contrast blocks", a.th.BlockSize, a.th.BlockSize)
	}

	contrast := make([]float64, len(blocks))
	for i, b := range blocks {
		samples := imageutil.BlockPlane(in.Lum, b)
		contrast[i] = stat.StdDev(samples, nil)
		if i%256 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}

	mean, std := stat.MeanStdDev(contrast, nil)
	cv := std / (mean + 1e-8)

	// Blocks far from the mean of their 8-neighborhood.
	deviantBlocks := 0
	for i := range contrast {
		nMean, nStd := neighborhoodStats(contrast, cols, rows, i)
		if nStd > 0 && math.Abs(contrast[i]-nMean) > a.th.NeighborSigma*nStd {
			deviantBlocks++
		}
	}

	score := clampScore(cv * a.th.ScoreScale)
	return &models.AnalysisResult{
		Technique:  models.TechniqueContrast,
		Score:      score,
		Suspicious: cv > a.th.CV,
		Stats: map[string]float64{
			"cv":             cv,
			"contrast_mean":  mean,
			"contrast_std":   std,
			"deviant_blocks": float64(deviantBlocks),
		},
		Evidence:  imageutil.UpsampleBlockMap(contrast, cols, rows, w, h),
		Completed: true,
	}, nil
}

// neighborhoodStats computes mean and stddev of a block's 8-neighborhood in
// a cols x rows block map.
func neighborhoodStats(vals []float64, cols, rows, i int) (mean, std float64) {
	cx, cy := i%cols, i/cols
	var neighbors []float64
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			x, y := cx+dx, cy+dy
			if x < 0 || y < 0 || x >= cols || y >= rows {
				continue
			}
			neighbors = append(neighbors, vals[y*cols+x])
		}
	}
	if len(neighbors) == 0 {
		return 0, 0
	}
	return stat.MeanStdDev(neighbors, nil)
}
