// Package visualize turns analyzer evidence maps into false-color heatmap
// PNGs and side-by-side comparison images.
package visualize

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"forensiclens/internal/errors"
	"forensiclens/internal/logger"
	"forensiclens/pkg/models"
)

// Heatmap maps a grayscale evidence image through a jet-style colormap,
// blue for low values through green and yellow to red for high.
func Heatmap(src *image.Gray) *image.NRGBA {
	b := src.Bounds()
	out := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float64(src.GrayAt(x, y).Y) / 255
			out.SetNRGBA(x, y, jet(v))
		}
	}
	return out
}

// jet approximates the classic jet colormap over v in [0,1].
func jet(v float64) color.NRGBA {
	r := clamp01(1.5 - abs(4*v-3)*0.5)
	g := clamp01(1.5 - abs(4*v-2)*0.5)
	b := clamp01(1.5 - abs(4*v-1)*0.5)
	return color.NRGBA{
		R: uint8(r * 255),
		G: uint8(g * 255),
		B: uint8(b * 255),
		A: 255,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// SideBySide places the original next to an evidence heatmap with a thin
// separator, for quick visual comparison.
func SideBySide(original image.Image, evidence *image.Gray) *image.NRGBA {
	const gap = 4
	ob := original.Bounds()
	heat := Heatmap(evidence)
	hb := heat.Bounds()

	w := ob.Dx() + gap + hb.Dx()
	h := ob.Dy()
	if hb.Dy() > h {
		h = hb.Dy()
	}
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(out, image.Rect(0, 0, ob.Dx(), ob.Dy()), original, ob.Min, draw.Src)
	draw.Draw(out, image.Rect(ob.Dx()+gap, 0, w, hb.Dy()), heat, hb.Min, draw.Src)
	return out
}

// artifactNames gives the output file stem per technique's primary evidence.
var artifactNames = map[models.Technique]string{
	models.TechniqueELA:       "ela_heatmap",
	models.TechniqueNoise:     "noise_map",
	models.TechniqueClone:     "clone_mask",
	models.TechniqueFrequency: "frequency_spectrum",
	models.TechniqueContrast:  "contrast_map",
	models.TechniqueBlur:      "blur_map",
	models.TechniqueBiasField: "bias_residual",
}

// extraNames covers secondary evidence maps.
var extraNames = map[models.Technique]string{
	models.TechniqueELA:       "ela_enhanced",
	models.TechniqueFrequency: "frequency_notched",
	models.TechniqueBiasField: "bias_surface",
}

// SaveArtifacts writes a heatmap PNG for every evidence map in the report
// and returns the paths written. Techniques without evidence are skipped.
func SaveArtifacts(fr *models.ForensicsReport, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewInternalError("cannot create output directory", err)
	}

	var paths []string
	for i := range fr.Results {
		res := &fr.Results[i]
		if res.Evidence != nil {
			name, ok := artifactNames[res.Technique]
			if !ok {
				name = string(res.Technique) + "_map"
			}
			p, err := writePNG(filepath.Join(dir, name+".png"), Heatmap(res.Evidence))
			if err != nil {
				return paths, err
			}
			paths = append(paths, p)
		}
		if res.Extra != nil {
			name, ok := extraNames[res.Technique]
			if !ok {
				name = string(res.Technique) + "_extra"
			}
			p, err := writePNG(filepath.Join(dir, name+".png"), Heatmap(res.Extra))
			if err != nil {
				return paths, err
			}
			paths = append(paths, p)
		}
	}

	logger.WithFields(logrus.Fields{
		"dir":   dir,
		"count": len(paths),
	}).Info("evidence artifacts saved")
	return paths, nil
}

func writePNG(path string, img image.Image) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", errors.NewInternalError("cannot create artifact file", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", errors.NewInternalError("cannot encode artifact", err)
	}
	return path, nil
}
