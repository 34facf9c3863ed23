package analyzer

import (
	"context"
	"math"
	"testing"
)

// periodicInput superimposes a horizontal sinusoid with an exact integer
// number of cycles, producing a clean conjugate peak pair in the spectrum.
func periodicInput(w, h, cycles int) *Input {
	return makeInput(w, h, func(x, y int) uint8 {
		v := 128 + 100*math.Sin(2*math.Pi*float64(cycles)*float64(x)/float64(w))
		return uint8(math.Round(v))
	})
}

func TestFrequencyPeriodicPatternDetected(t *testing.T) {
	a := NewFrequency(testThresholds())
	in := periodicInput(128, 128, 16)

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if !res.Suspicious {
		t.Fatalf("Strong periodic pattern not flagged (peaks=%g clusters=%g)",
			res.Stats["num_peaks"], res.Stats["peak_clusters"])
	}
	if res.Detail != "periodic pattern" {
		t.Errorf("Expected periodic pattern detail, got %q", res.Detail)
	}
	if res.Stats["peak_clusters"] < 1 {
		t.Errorf("Expected at least one cluster, got %g", res.Stats["peak_clusters"])
	}

	// The sinusoid has 16 cycles across the image, so the dominant radial
	// frequency must sit at 16 bins give or take the cluster tolerance.
	dom := res.Stats["dominant_frequency"]
	if dom < 13 || dom > 19 {
		t.Errorf("Dominant frequency = %g, want ~16", dom)
	}
	if res.Extra == nil {
		t.Error("Expected a periodicity-removed reconstruction")
	}
}

func TestFrequencyFlatImageNotFlagged(t *testing.T) {
	a := NewFrequency(testThresholds())
	in := uniformInput(128, 128, 90)

	res, err := a.Analyze(context.Background(), in)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if res.Suspicious {
		t.Error("Flat image flagged for periodic patterns")
	}
	if res.Stats["peak_clusters"] != 0 {
		t.Errorf("Expected 0 clusters, got %g", res.Stats["peak_clusters"])
	}
	if res.Extra != nil {
		t.Error("No reconstruction expected without detected peaks")
	}
	if res.Evidence == nil {
		t.Error("Expected a spectrum evidence map")
	}
}

func TestFrequencyTooSmallImage(t *testing.T) {
	a := NewFrequency(testThresholds())
	in := uniformInput(16, 16, 90)

	if _, err := a.Analyze(context.Background(), in); err == nil {
		t.Error("Expected error for image below the minimum analysis size")
	}
}

func TestFFTRoundTrip(t *testing.T) {
	in := noiseInput(32, 16, 5)
	ctx := context.Background()

	freq, err := fft2D(ctx, in.Lum, 32, 16)
	if err != nil {
		t.Fatalf("fft2D failed: %v", err)
	}
	back, err := ifft2D(ctx, freq, 32, 16)
	if err != nil {
		t.Fatalf("ifft2D failed: %v", err)
	}

	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			got := real(back[y*32+x])
			want := in.Lum[y][x]
			if math.Abs(got-want) > 1e-6 {
				t.Fatalf("Round trip mismatch at (%d,%d): got %g, want %g", x, y, got, want)
			}
			if im := imag(back[y*32+x]); math.Abs(im) > 1e-6 {
				t.Fatalf("Nonzero imaginary part %g at (%d,%d)", im, x, y)
			}
		}
	}
}

func TestNormalizeUnit(t *testing.T) {
	out := normalizeUnit([]float64{2, 4, 6})
	if out[0] != 0 || out[2] != 1 {
		t.Errorf("normalizeUnit endpoints = %g, %g; want 0, 1", out[0], out[2])
	}
	if math.Abs(out[1]-0.5) > 1e-12 {
		t.Errorf("normalizeUnit midpoint = %g, want 0.5", out[1])
	}

	for _, v := range normalizeUnit([]float64{7, 7, 7}) {
		if v != 0 {
			t.Errorf("Constant input must normalize to 0, got %g", v)
		}
	}
}
