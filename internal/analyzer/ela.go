package analyzer

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"math"

	"gonum.org/v1/gonum/stat"

	"forensiclens/internal/config"
	"forensiclens/pkg/imageutil"
	"forensiclens/pkg/models"
)

// ELA performs error level analysis: the image is re-encoded once at a fixed
// JPEG quality and compared pixel by pixel against the original. Regions with
// a different compression history than the rest of the image stand out in the
// difference map.
type ELA struct {
	th config.ELAThresholds
}

// NewELA creates the error level analyzer.
func NewELA(th config.Thresholds) *ELA {
	return &ELA{th: th.ELA}
}

func (a *ELA) Name() models.Technique { return models.TechniqueELA }

// Analyze re-encodes the input and scores the fraction of pixels whose
// recompression difference exceeds the noise floor. The floor keeps
// lossless-source images, whose uniform baseline difference is codec noise,
// from inflating the score.
func (a *ELA) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, in.RGB, &jpeg.Options{Quality: a.th.Quality}); err != nil {
		return nil, err
	}
	decoded, err := jpeg.Decode(&buf)
	if err != nil {
		return nil, err
	}
	recompressed := imageutil.ToNRGBA(decoded)

	if cancelled(ctx) {
		return nil, ctx.Err()
	}

	w, h := in.Width(), in.Height()
	diff := make([]float64, w*h)
	enhanced := image.NewGray(image.Rect(0, 0, w, h))
	exceeded := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := in.RGB.PixOffset(x, y)
			r := in.RGB.Pix[o : o+3 : o+3]
			c := recompressed.Pix[o : o+3 : o+3]
			d := 0.0
			for i := 0; i < 3; i++ {
				cd := math.Abs(float64(r[i]) - float64(c[i]))
				if cd > d {
					d = cd
				}
			}
			diff[y*w+x] = d
			if d > a.th.NoiseFloor {
				exceeded++
			}
			enhanced.Pix[y*enhanced.Stride+x] = uint8(math.Min(d*a.th.EnhanceGain, 255))
		}
		if y%256 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}

	exceedFraction := float64(exceeded) / float64(w*h)
	score := clampScore(exceedFraction * a.th.ScoreScale)

	return &models.AnalysisResult{
		Technique:  models.TechniqueELA,
		Score:      score,
		Suspicious: score >= a.th.SuspicionScore,
		Stats: map[string]float64{
			"exceed_fraction": exceedFraction,
			"mean_diff":       stat.Mean(diff, nil),
			"diff_variance":   stat.Variance(diff, nil),
		},
		Evidence:  imageutil.NormalizeToGray(diff, w, h),
		Extra:     enhanced,
		Completed: true,
	}, nil
}
