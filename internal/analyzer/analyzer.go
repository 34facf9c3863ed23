// Package analyzer implements the nine forensic detection techniques. Each
// analyzer is a pure function over the shared immutable input: it allocates
// its own working buffers, writes only its own result, and is safe to run
// concurrently with the others.
package analyzer

import (
	"context"
	"image"

	"forensiclens/pkg/imageutil"
	"forensiclens/pkg/models"
)

// Input is the decoded source image plus its derived views. It is built once
// per run and never mutated by any analyzer.
type Input struct {
	RGB  *image.NRGBA
	Gray *image.Gray
	Lum  [][]float64

	Path   string
	Format string
}

// NewInput derives the grayscale and luminance views for an analysis run.
func NewInput(img image.Image, path, format string) *Input {
	gray := imageutil.ToGray(img)
	return &Input{
		RGB:    imageutil.ToNRGBA(img),
		Gray:   gray,
		Lum:    imageutil.LuminancePlane(gray),
		Path:   path,
		Format: format,
	}
}

// Width returns the image width in pixels.
func (in *Input) Width() int { return in.Gray.Bounds().Dx() }

// Height returns the image height in pixels.
func (in *Input) Height() int { return in.Gray.Bounds().Dy() }

// Analyzer is one forensic technique.
type Analyzer interface {
	Name() models.Technique
	// Analyze produces the technique's result. Long-running analyzers
	// observe ctx and return ctx.Err() when cancelled; an error return
	// means the technique produced no usable score.
	Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error)
}

// cancelled is the cooperative check used inside long loops.
func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
