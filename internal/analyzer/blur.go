package analyzer

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"forensiclens/internal/config"
	"forensiclens/pkg/imageutil"
	"forensiclens/pkg/models"
)

// Blur maps block-local sharpness via Laplacian variance and scores how
// inconsistent it is across the image. Selective blurring of an inserted or
// retouched region breaks the sharpness profile of the surrounding focus.
type Blur struct {
	th config.BlurThresholds
}

// NewBlur creates the blur inconsistency detector.
func NewBlur(th config.Thresholds) *Blur {
	return &Blur{th: th.Blur}
}

func (a *Blur) Name() models.Technique { return models.TechniqueBlur }

func (a *Blur) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	w, h := in.Width(), in.Height()
	blocks, err := imageutil.Grid(w, h, a.th.BlockSize, a.th.BlockSize, imageutil.DropPartial)
	if err != nil {
		return nil, err
	}
	cols, rows := imageutil.GridSize(w, h, a.th.BlockSize)
	if len(blocks) < 4 {
		return nil, fmt.Errorf("image too small for %dx%d blur blocks", a.th.BlockSize, a.th.BlockSize)
	}

	sharpness := make([]float64, len(blocks))
	for i, b := range blocks {
		sharpness[i] = laplacianVariance(in.Lum, b)
		if i%256 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}

	mean, std := stat.MeanStdDev(sharpness, nil)
	cv := std / (mean + 1e-8)
	score := clampScore(cv * a.th.ScoreScale)

	// Invert for display: bright regions in the evidence map are blurry.
	maxSharp := maxOf(sharpness)
	blurMap := make([]float64, len(sharpness))
	for i, s := range sharpness {
		blurMap[i] = maxSharp - s
	}

	return &models.AnalysisResult{
		Technique:  models.TechniqueBlur,
		Score:      score,
		Suspicious: cv > a.th.CV,
		Stats: map[string]float64{
			"cv":             cv,
			"sharpness_mean": mean,
			"sharpness_std":  std,
		},
		Evidence:  imageutil.UpsampleBlockMap(blurMap, cols, rows, w, h),
		Completed: true,
	}, nil
}

// laplacianVariance is the second-derivative energy of a block, the same
// sharpness measure used for whole-image blur checks.
func laplacianVariance(lum [][]float64, b imageutil.Block) float64 {
	var resp []float64
	for y := b.Y + 1; y < b.Y+b.H-1; y++ {
		for x := b.X + 1; x < b.X+b.W-1; x++ {
			resp = append(resp, -4*lum[y][x]+lum[y-1][x]+lum[y+1][x]+lum[y][x-1]+lum[y][x+1])
		}
	}
	if len(resp) == 0 {
		return 0
	}
	return stat.Variance(resp, nil)
}
