package analyzer

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

// tiledNoiseInput repeats one noise tile across the image so every block
// has an identical noise signature.
func tiledNoiseInput(w, h, tile int, seed int64) *Input {
	rng := rand.New(rand.NewSource(seed))
	pattern := make([]uint8, tile*tile)
	for i := range pattern {
		pattern[i] = uint8(64 + rng.Intn(128))
	}
	return makeInput(w, h, func(x, y int) uint8 {
		return pattern[(y%tile)*tile+x%tile]
	})
}

func TestNoiseConsistentImageScoresZero(t *testing.T) {
	a := NewNoise(testThresholds())
	in := tiledNoiseInput(96, 96, 16, 11)

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// Identical per-block noise means zero spread, so no block can be an
	// outlier.
	if res.Stats["outlier_blocks"] != 0 {
		t.Errorf("Expected 0 outlier blocks, got %g", res.Stats["outlier_blocks"])
	}
	if res.Score != 0 {
		t.Errorf("Expected score 0, got %g", res.Score)
	}
	if res.Suspicious {
		t.Error("Consistent image flagged as suspicious")
	}
}

func TestNoiseSmoothedRegionFlagged(t *testing.T) {
	a := NewNoise(testThresholds())

	// Noise everywhere except one over-smoothed block, the signature of a
	// locally denoised or pasted flat region.
	rng := rand.New(rand.NewSource(23))
	w, h := 96, 96
	pix := make([]uint8, w*h)
	for i := range pix {
		pix[i] = uint8(64 + rng.Intn(128))
	}
	in := makeInput(w, h, func(x, y int) uint8 {
		if x >= 32 && x < 48 && y >= 32 && y < 48 {
			return 128
		}
		return pix[y*w+x]
	})

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if res.Stats["outlier_blocks"] < 1 {
		t.Errorf("Expected at least one outlier block, got %g", res.Stats["outlier_blocks"])
	}
	if res.Score <= 0 {
		t.Errorf("Expected positive score, got %g", res.Score)
	}
	if res.Evidence == nil {
		t.Error("Expected a noise map")
	}
}

func TestNoiseTooSmallImage(t *testing.T) {
	a := NewNoise(testThresholds())
	in := uniformInput(20, 20, 100)

	if _, err := a.Analyze(context.Background(), in); err == nil {
		t.Error("Expected error for image with fewer than 4 noise blocks")
	}
}

func TestEstimateNoiseSigmaFlatBlock(t *testing.T) {
	in := uniformInput(32, 32, 77)
	sigma := estimateNoiseSigma(in.Lum, blockAt(0, 0, 16))
	if sigma != 0 {
		t.Errorf("Expected sigma 0 for flat block, got %g", sigma)
	}
}

func TestMedian(t *testing.T) {
	if m := median([]float64{3, 1, 2}); m != 2 {
		t.Errorf("median of odd slice = %g, want 2", m)
	}
	if m := median([]float64{4, 1, 3, 2}); math.Abs(m-2.5) > 1e-12 {
		t.Errorf("median of even slice = %g, want 2.5", m)
	}
	if m := median(nil); m != 0 {
		t.Errorf("median of empty slice = %g, want 0", m)
	}
}
