package analyzer

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"forensiclens/internal/config"
	"forensiclens/pkg/imageutil"
	"forensiclens/pkg/models"
)

// BiasField fits a smooth second-order polynomial illumination surface to
// the luminance channel. Natural lighting varies slowly, so it is captured
// by the low-order model; a spliced-in region lit differently leaves a
// bounded patch of large residuals.
type BiasField struct {
	th config.BiasFieldThresholds
}

// NewBiasField creates the lighting inconsistency detector.
func NewBiasField(th config.Thresholds) *BiasField {
	return &BiasField{th: th.BiasField}
}

func (a *BiasField) Name() models.Technique { return models.TechniqueBiasField }

func (a *BiasField) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	w, h := in.Width(), in.Height()

	coef, err := a.fitSurface(in.Lum, w, h)
	if err != nil {
		return nil, err
	}
	if cancelled(ctx) {
		return nil, ctx.Err()
	}

	// Full-resolution residual map.
	surface := make([]float64, w*h)
	residual := make([]float64, w*h)
	for y := 0; y < h; y++ {
		ny := norm(y, h)
		for x := 0; x < w; x++ {
			s := evalSurface(coef, norm(x, w), ny)
			surface[y*w+x] = s
			residual[y*w+x] = in.Lum[y][x] - s
		}
		if y%256 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}

	absResidual := make([]float64, len(residual))
	for i, r := range residual {
		absResidual[i] = math.Abs(r)
	}
	sigma := stat.StdDev(residual, nil)
	limit := a.th.ResidualK * sigma

	// A handful of scattered outlier pixels is texture, not lighting.
	// Inconsistent lighting means outliers concentrated in bounded
	// regions, so tally outlier density per block.
	blocks, err := imageutil.Grid(w, h, a.th.BlockSize, a.th.BlockSize, imageutil.DropPartial)
	if err != nil {
		return nil, err
	}
	inconsistentBlocks := 0
	for _, b := range blocks {
		outliers := 0
		for y := b.Y; y < b.Y+b.H; y++ {
			for x := b.X; x < b.X+b.W; x++ {
				if absResidual[y*w+x] > limit {
					outliers++
				}
			}
		}
		if float64(outliers)/float64(b.W*b.H) > a.th.BlockOutlierRatio {
			inconsistentBlocks++
		}
	}
	inconsistentFraction := float64(inconsistentBlocks) / float64(len(blocks))
	score := clampScore(inconsistentFraction * a.th.ScoreScale)

	return &models.AnalysisResult{
		Technique:  models.TechniqueBiasField,
		Score:      score,
		Suspicious: score >= a.th.SuspicionScore,
		Stats: map[string]float64{
			"residual_sigma":        sigma,
			"inconsistent_blocks":   float64(inconsistentBlocks),
			"inconsistent_fraction": inconsistentFraction,
		},
		Evidence:  imageutil.NormalizeToGray(absResidual, w, h),
		Extra:     imageutil.NormalizeToGray(surface, w, h),
		Completed: true,
	}, nil
}

// fitSurface solves the least-squares fit of
// z = c0 + c1*x + c2*y + c3*x^2 + c4*x*y + c5*y^2 over a subsampled
// luminance plane, with coordinates normalized to [-1,1] for conditioning.
func (a *BiasField) fitSurface(lum [][]float64, w, h int) ([]float64, error) {
	stride := a.th.SampleStride
	var rows int
	for y := 0; y < h; y += stride {
		for x := 0; x < w; x += stride {
			rows++
		}
	}
	if rows < 6 {
		return nil, fmt.Errorf("too few samples (%d) for surface fit", rows)
	}

	design := mat.NewDense(rows, 6, nil)
	rhs := mat.NewVecDense(rows, nil)
	i := 0
	for y := 0; y < h; y += stride {
		ny := norm(y, h)
		for x := 0; x < w; x += stride {
			nx := norm(x, w)
			design.SetRow(i, []float64{1, nx, ny, nx * nx, nx * ny, ny * ny})
			rhs.SetVec(i, lum[y][x])
			i++
		}
	}

	var qr mat.QR
	qr.Factorize(design)
	var sol mat.VecDense
	if err := qr.SolveVecTo(&sol, false, rhs); err != nil {
		return nil, fmt.Errorf("surface fit: %w", err)
	}
	coef := make([]float64, 6)
	for j := range coef {
		coef[j] = sol.AtVec(j)
	}
	return coef, nil
}

func evalSurface(c []float64, x, y float64) float64 {
	return c[0] + c[1]*x + c[2]*y + c[3]*x*x + c[4]*x*y + c[5]*y*y
}

// norm maps a pixel coordinate to [-1,1].
func norm(v, size int) float64 {
	if size <= 1 {
		return 0
	}
	return 2*float64(v)/float64(size-1) - 1
}
