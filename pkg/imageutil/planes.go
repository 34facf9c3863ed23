package imageutil

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ToNRGBA returns the image as an NRGBA working copy.
func ToNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}

// ToGray converts an image to 8-bit grayscale using Rec. 601 luma weights.
func ToGray(img image.Image) *image.Gray {
	src := imaging.Grayscale(img)
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			// Grayscale output has R == G == B.
			gray.Pix[y*gray.Stride+x] = src.Pix[y*src.Stride+x*4]
		}
	}
	return gray
}

// LuminancePlane extracts a float64 luminance plane from a grayscale image.
func LuminancePlane(gray *image.Gray) [][]float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	plane := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			row[x] = float64(gray.Pix[y*gray.Stride+x])
		}
		plane[y] = row
	}
	return plane
}

// NormalizeToGray min-max scales a flat float64 plane to a displayable
// 8-bit grayscale image. A constant plane maps to black.
func NormalizeToGray(values []float64, w, h int) *image.Gray {
	gray := image.NewGray(image.Rect(0, 0, w, h))
	if len(values) != w*h || len(values) == 0 {
		return gray
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span < 1e-12 {
		return gray
	}
	for i, v := range values {
		gray.Pix[i/w*gray.Stride+i%w] = uint8(math.Round((v - lo) / span * 255))
	}
	return gray
}

// UpsampleBlockMap scales a per-block value map back up to pixel resolution
// with bilinear interpolation, for evidence-map visualization.
func UpsampleBlockMap(blockVals []float64, cols, rows, w, h int) *image.Gray {
	small := NormalizeToGray(blockVals, cols, rows)
	if cols <= 0 || rows <= 0 || w <= 0 || h <= 0 {
		return image.NewGray(image.Rect(0, 0, max(w, 0), max(h, 0)))
	}
	resized := imaging.Resize(small, w, h, imaging.Linear)
	gray := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray.Pix[y*gray.Stride+x] = resized.Pix[y*resized.Stride+x*4]
		}
	}
	return gray
}

// BlockPlane copies one block's samples out of a luminance plane.
func BlockPlane(plane [][]float64, b Block) []float64 {
	out := make([]float64, 0, b.W*b.H)
	for y := b.Y; y < b.Y+b.H; y++ {
		out = append(out, plane[y][b.X:b.X+b.W]...)
	}
	return out
}
