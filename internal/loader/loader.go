// Package loader decodes source images into the engine's input form and
// enforces the input contract before any analyzer runs.
package loader

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/image/bmp"

	"forensiclens/internal/analyzer"
	"forensiclens/internal/config"
	"forensiclens/internal/errors"
	"forensiclens/internal/logger"
)

// supportedFormats maps decoded format names to their accepted extensions.
var supportedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
	"bmp":  true,
}

// Load decodes the image at path and returns the shared analyzer input.
// Missing files, unsupported or corrupt formats, empty images and images
// over cfg.MaxPixels are all rejected as input errors.
func Load(path string, cfg *config.Config) (*analyzer.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewInputError(fmt.Sprintf("file not found: %s", path), err)
		}
		return nil, errors.NewInputError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	// Check the declared size before decoding so a huge file is rejected
	// without buffering its pixels.
	imgCfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, errors.NewInputError(
			fmt.Sprintf("unrecognized image format for %s", path), err)
	}
	if !supportedFormats[format] {
		return nil, errors.NewInputError(
			fmt.Sprintf("unsupported format %q (want jpeg, png or bmp)", format), nil)
	}
	if imgCfg.Width <= 0 || imgCfg.Height <= 0 {
		return nil, errors.NewInputError(
			fmt.Sprintf("image has no pixels (%dx%d)", imgCfg.Width, imgCfg.Height), nil)
	}
	if pixels := int64(imgCfg.Width) * int64(imgCfg.Height); pixels > cfg.MaxPixels {
		return nil, errors.NewInputError(
			fmt.Sprintf("image too large: %d pixels, limit %d", pixels, cfg.MaxPixels), nil)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("cannot rewind %s", path), err)
	}

	var img image.Image
	switch format {
	case "jpeg":
		img, err = jpeg.Decode(f)
	case "png":
		img, err = png.Decode(f)
	case "bmp":
		img, err = bmp.Decode(f)
	}
	if err != nil {
		return nil, errors.NewInputError(
			fmt.Sprintf("failed to decode %s image %s", format, path), err)
	}

	in := analyzer.NewInput(img, path, format)
	logger.WithFields(logrus.Fields{
		"path":   path,
		"format": format,
		"width":  in.Width(),
		"height": in.Height(),
	}).Debug("image loaded")
	return in, nil
}

// SupportedExtension reports whether path carries an extension the loader
// can decode. It is a cheap pre-flight check for CLI argument validation;
// Load still verifies the actual content.
func SupportedExtension(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return true
	}
	return false
}
