package analyzer

import (
	"context"
	"testing"
)

func TestBitDepthPosterizedImageFlagged(t *testing.T) {
	a := NewBitDepth(testThresholds())
	// Gradient collapsed onto 8 levels: 3 effective bits.
	in := makeInput(128, 128, func(x, y int) uint8 {
		return uint8((x * 256 / 128) &^ 0x1f)
	})

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !res.Suspicious {
		t.Fatal("8-level image not flagged as posterized")
	}
	if res.Detail != "posterization" {
		t.Errorf("Expected posterization detail, got %q", res.Detail)
	}
	if res.Stats["unique_values"] != 8 {
		t.Errorf("Expected 8 unique values, got %g", res.Stats["unique_values"])
	}
	if res.Stats["estimated_bits"] != 3 {
		t.Errorf("Expected 3 estimated bits, got %g", res.Stats["estimated_bits"])
	}
}

func TestBitDepthFullDepthImageNotFlagged(t *testing.T) {
	a := NewBitDepth(testThresholds())
	in := gradientInput(256, 64)

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if res.Suspicious {
		t.Error("Full-depth gradient flagged as posterized")
	}
	if res.Stats["unique_values"] != 256 {
		t.Errorf("Expected 256 unique values, got %g", res.Stats["unique_values"])
	}
	if res.Stats["estimated_bits"] != 8 {
		t.Errorf("Expected 8 estimated bits, got %g", res.Stats["estimated_bits"])
	}
}

func TestBitDepthTinyImageSkipsUniqueTest(t *testing.T) {
	a := NewBitDepth(testThresholds())
	// 32x32 = 1024 pixels cannot populate 128 bins anyway, so the low
	// unique count alone must not trigger the detector.
	in := uniformInput(32, 32, 90)

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if res.Suspicious {
		t.Error("Tiny uniform image flagged by the unique-value test")
	}
	if res.Score != 0 {
		t.Errorf("Expected score 0, got %g", res.Score)
	}
}
