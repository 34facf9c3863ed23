package imageutil

import (
	"image"
	"image/color"
	"testing"
)

func TestToGrayKeepsGrayValues(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 180, G: 180, B: 180, A: 255})
		}
	}

	gray := ToGray(img)
	if got := gray.GrayAt(3, 3).Y; got != 180 {
		t.Errorf("Gray value = %d, want 180", got)
	}
}

func TestLuminancePlaneShape(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 10, 6))
	gray.SetGray(9, 5, color.Gray{Y: 42})

	plane := LuminancePlane(gray)
	if len(plane) != 6 || len(plane[0]) != 10 {
		t.Fatalf("Plane shape %dx%d, want 10x6", len(plane[0]), len(plane))
	}
	if plane[5][9] != 42 {
		t.Errorf("plane[5][9] = %g, want 42", plane[5][9])
	}
}

func TestNormalizeToGrayScalesRange(t *testing.T) {
	gray := NormalizeToGray([]float64{10, 20, 30, 40}, 2, 2)

	if got := gray.GrayAt(0, 0).Y; got != 0 {
		t.Errorf("Minimum value maps to %d, want 0", got)
	}
	if got := gray.GrayAt(1, 1).Y; got != 255 {
		t.Errorf("Maximum value maps to %d, want 255", got)
	}
	if got := gray.GrayAt(1, 0).Y; got != 85 {
		t.Errorf("Interior value maps to %d, want 85", got)
	}
}

func TestNormalizeToGrayConstantPlane(t *testing.T) {
	gray := NormalizeToGray([]float64{7, 7, 7, 7}, 2, 2)
	for i, p := range gray.Pix {
		if p != 0 {
			t.Errorf("Constant plane pixel %d = %d, want 0", i, p)
		}
	}
}

func TestNormalizeToGrayLengthMismatch(t *testing.T) {
	gray := NormalizeToGray([]float64{1, 2}, 3, 3)
	b := gray.Bounds()
	if b.Dx() != 3 || b.Dy() != 3 {
		t.Errorf("Expected empty 3x3 image, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestUpsampleBlockMapDimensions(t *testing.T) {
	up := UpsampleBlockMap([]float64{0, 1, 2, 3}, 2, 2, 64, 48)
	b := up.Bounds()
	if b.Dx() != 64 || b.Dy() != 48 {
		t.Errorf("Upsampled map is %dx%d, want 64x48", b.Dx(), b.Dy())
	}
}

func TestBlockPlane(t *testing.T) {
	plane := [][]float64{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
	}
	got := BlockPlane(plane, Block{X: 1, Y: 1, W: 2, H: 2})
	want := []float64{6, 7, 10, 11}
	if len(got) != len(want) {
		t.Fatalf("BlockPlane returned %d samples, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("BlockPlane[%d] = %g, want %g", i, got[i], want[i])
		}
	}
}
