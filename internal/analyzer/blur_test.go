package analyzer

import (
	"context"
	"testing"
)

func TestBlurConsistentSharpnessNotFlagged(t *testing.T) {
	a := NewBlur(testThresholds())
	in := checkerInput(256, 256)

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if res.Suspicious {
		t.Error("Uniformly sharp image flagged for blur inconsistency")
	}
	if res.Score > 10 {
		t.Errorf("Expected near-zero score, got %g", res.Score)
	}
}

func TestBlurSelectiveBlurFlagged(t *testing.T) {
	a := NewBlur(testThresholds())
	in := halfFlatInput(256, 256)

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !res.Suspicious {
		t.Errorf("Half-blurred image not flagged (cv=%g)", res.Stats["cv"])
	}
	if res.Evidence == nil {
		t.Error("Expected a blur map")
	}
}

func TestLaplacianVariance(t *testing.T) {
	flat := uniformInput(32, 32, 150)
	if v := laplacianVariance(flat.Lum, blockAt(0, 0, 32)); v != 0 {
		t.Errorf("Flat block Laplacian variance = %g, want 0", v)
	}

	sharp := checkerInput(32, 32)
	if v := laplacianVariance(sharp.Lum, blockAt(0, 0, 32)); v < 1000 {
		t.Errorf("Checkerboard Laplacian variance = %g, expected large", v)
	}
}
