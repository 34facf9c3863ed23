package analyzer

import (
	"context"
	"fmt"
	"image"
	"math"
	"math/cmplx"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"forensiclens/internal/config"
	"forensiclens/pkg/imageutil"
	"forensiclens/pkg/models"
)

// Frequency analyzes the luminance spectrum for periodic interference:
// resampling, screen captures and double JPEG compression all stamp
// regular peak patterns onto the 2D Fourier magnitude. Detected peaks are
// clustered by radial frequency, and a band-reject notch mask is
// synthesized to produce a periodicity-removed reconstruction.
type Frequency struct {
	th config.FrequencyThresholds
}

// NewFrequency creates the frequency-domain analyzer.
func NewFrequency(th config.Thresholds) *Frequency {
	return &Frequency{th: th.Frequency}
}

func (a *Frequency) Name() models.Technique { return models.TechniqueFrequency }

// spectralPeak is a local maximum in the centered magnitude spectrum.
// U and V are offsets from the DC bin; Radius is the radial frequency in
// bins, which equals cycles across the analyzed image.
type spectralPeak struct {
	U, V      int
	Radius    float64
	Magnitude float64
}

// peakCluster groups conjugate-symmetric peaks sharing a radial frequency.
type peakCluster struct {
	Radius float64
	Peaks  int
}

func (a *Frequency) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	// Even dimensions keep the conjugate symmetry bookkeeping clean.
	w := in.Width() &^ 1
	h := in.Height() &^ 1
	if w < 4*a.th.DCRadius || h < 4*a.th.DCRadius {
		return nil, fmt.Errorf("image too small for frequency analysis (%dx%d)", w, h)
	}

	freq, err := fft2D(ctx, in.Lum, w, h)
	if err != nil {
		return nil, err
	}

	// Centered, log-scaled, min-max normalized magnitude. Normalizing
	// before thresholding keeps peak sensitivity independent of
	// resolution and overall brightness.
	logMag := make([]float64, w*h)
	for v := 0; v < h; v++ {
		sv := (v + h/2) % h
		for u := 0; u < w; u++ {
			su := (u + w/2) % w
			logMag[v*w+u] = math.Log1p(cmplx.Abs(freq[sv*w+su]))
		}
	}
	normMag := normalizeUnit(logMag)

	if cancelled(ctx) {
		return nil, ctx.Err()
	}

	peaks, err := a.detectPeaks(ctx, normMag, w, h)
	if err != nil {
		return nil, err
	}
	clusters := a.clusterPeaks(peaks)

	score := clampScore(float64(len(clusters)) * a.th.ScorePerCluster)
	periodic := len(clusters) > 0

	stats := map[string]float64{
		"num_peaks":     float64(len(peaks)),
		"peak_clusters": float64(len(clusters)),
	}
	if periodic {
		stats["dominant_frequency"] = clusters[0].Radius
	}

	result := &models.AnalysisResult{
		Technique:  models.TechniqueFrequency,
		Score:      score,
		Suspicious: periodic && score >= a.th.SuspicionScore,
		Stats:      stats,
		Evidence:   imageutil.NormalizeToGray(logMag, w, h),
		Completed:  true,
	}
	if periodic {
		result.Detail = "periodic pattern"
		recon, err := a.notchReconstruct(ctx, freq, peaks, w, h)
		if err != nil {
			return nil, err
		}
		result.Extra = recon
	}
	return result, nil
}

// detectPeaks finds local maxima in the centered normalized magnitude that
// rise above both an absolute floor and their local background, applying
// non-maximum suppression so one broad lobe counts once. The central DC
// region is excluded.
func (a *Frequency) detectPeaks(ctx context.Context, normMag []float64, w, h int) ([]spectralPeak, error) {
	cx, cy := w/2, h/2
	dcR2 := a.th.DCRadius * a.th.DCRadius
	var peaks []spectralPeak
	for y := a.th.NMSRadius; y < h-a.th.NMSRadius; y++ {
		if y%64 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
		for x := a.th.NMSRadius; x < w-a.th.NMSRadius; x++ {
			du, dv := x-cx, y-cy
			if du*du+dv*dv <= dcR2 {
				continue
			}
			v := normMag[y*w+x]
			if v < a.th.PeakMinMagnitude {
				continue
			}
			if !a.isLocalMax(normMag, w, x, y) {
				continue
			}
			bg := a.localBackground(normMag, w, h, x, y)
			if bg > 0 && v < a.th.BackgroundRatio*bg {
				continue
			}
			peaks = append(peaks, spectralPeak{
				U:         du,
				V:         dv,
				Radius:    math.Hypot(float64(du), float64(dv)),
				Magnitude: v,
			})
		}
	}
	return peaks, nil
}

// isLocalMax applies non-maximum suppression within the NMS radius; ties go
// to the earlier raster position so a plateau yields a single peak.
func (a *Frequency) isLocalMax(normMag []float64, w, x, y int) bool {
	r := a.th.NMSRadius
	v := normMag[y*w+x]
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := normMag[(y+dy)*w+(x+dx)]
			if n > v || (n == v && (dy < 0 || (dy == 0 && dx < 0))) {
				return false
			}
		}
	}
	return true
}

// localBackground is the mean magnitude in an annulus-like box around the
// candidate, excluding the NMS core that belongs to the peak itself.
func (a *Frequency) localBackground(normMag []float64, w, h, x, y int) float64 {
	inner := a.th.NMSRadius
	outer := inner * 3
	var sum float64
	var n int
	for dy := -outer; dy <= outer; dy++ {
		for dx := -outer; dx <= outer; dx++ {
			if dx >= -inner && dx <= inner && dy >= -inner && dy <= inner {
				continue
			}
			px, py := x+dx, y+dy
			if px < 0 || py < 0 || px >= w || py >= h {
				continue
			}
			sum += normMag[py*w+px]
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// clusterPeaks groups peaks whose radial frequency agrees within the
// configured tolerance. A genuine periodic pattern always produces at least
// a conjugate-symmetric pair at the same radius, so buckets below the
// minimum peak count are discarded as isolated maxima.
func (a *Frequency) clusterPeaks(peaks []spectralPeak) []peakCluster {
	if len(peaks) == 0 {
		return nil
	}
	sorted := append([]spectralPeak(nil), peaks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Radius < sorted[j].Radius })

	var clusters []peakCluster
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].Radius-sorted[start].Radius <= a.th.ClusterTolerance {
			continue
		}
		group := sorted[start:i]
		if len(group) >= a.th.MinClusterPeaks {
			var rSum float64
			for _, p := range group {
				rSum += p.Radius
			}
			clusters = append(clusters, peakCluster{
				Radius: rSum / float64(len(group)),
				Peaks:  len(group),
			})
		}
		start = i
	}
	// Strongest (most populated) cluster first.
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Peaks > clusters[j].Peaks })
	return clusters
}

// notchReconstruct synthesizes a Gaussian-tapered band-reject mask over
// every detected peak and its conjugate, applies it to the spectrum and
// inverse-transforms. The smooth roll-off avoids ringing in the
// reconstruction.
func (a *Frequency) notchReconstruct(ctx context.Context, freq []complex128, peaks []spectralPeak, w, h int) (*image.Gray, error) {
	sigma2 := 2 * a.th.NotchSigma * a.th.NotchSigma
	filtered := make([]complex128, len(freq))
	copy(filtered, freq)

	// Work in unshifted coordinates; each peak is attenuated together with
	// its point-symmetric conjugate.
	for _, p := range peaks {
		for _, sign := range []int{1, -1} {
			pu := (sign*p.U + w) % w
			pv := (sign*p.V + h) % h
			reach := int(a.th.NotchSigma*4) + 1
			for dv := -reach; dv <= reach; dv++ {
				for du := -reach; du <= reach; du++ {
					u := (pu + du + w) % w
					v := (pv + dv + h) % h
					d2 := float64(du*du + dv*dv)
					atten := 1 - math.Exp(-d2/sigma2)
					filtered[v*w+u] *= complex(atten, 0)
				}
			}
		}
	}
	if cancelled(ctx) {
		return nil, ctx.Err()
	}

	spatial, err := ifft2D(ctx, filtered, w, h)
	if err != nil {
		return nil, err
	}
	recon := make([]float64, w*h)
	for i, c := range spatial {
		recon[i] = real(c)
	}
	return imageutil.NormalizeToGray(recon, w, h), nil
}

// fft2D computes the 2D DFT of the top-left w x h region of a luminance
// plane by transforming rows then columns.
func fft2D(ctx context.Context, lum [][]float64, w, h int) ([]complex128, error) {
	data := make([]complex128, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			data[y*w+x] = complex(lum[y][x], 0)
		}
	}

	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(row, data[y*w:(y+1)*w])
		rowFFT.Coefficients(data[y*w:(y+1)*w], row)
		if y%128 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	out := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = data[y*w+x]
		}
		colFFT.Coefficients(out, col)
		for y := 0; y < h; y++ {
			data[y*w+x] = out[y]
		}
		if x%128 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}
	return data, nil
}

// ifft2D inverts fft2D, including the 1/(w*h) scaling gonum leaves to the
// caller.
func ifft2D(ctx context.Context, freq []complex128, w, h int) ([]complex128, error) {
	data := make([]complex128, len(freq))
	copy(data, freq)

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	out := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = data[y*w+x]
		}
		colFFT.Sequence(out, col)
		for y := 0; y < h; y++ {
			data[y*w+x] = out[y]
		}
		if x%128 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}

	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	scale := complex(1/float64(w*h), 0)
	for y := 0; y < h; y++ {
		copy(row, data[y*w:(y+1)*w])
		rowFFT.Sequence(data[y*w:(y+1)*w], row)
		for x := 0; x < w; x++ {
			data[y*w+x] *= scale
		}
		if y%128 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}
	return data, nil
}

// normalizeUnit min-max scales values to [0,1]; a constant input maps to 0.
func normalizeUnit(vals []float64) []float64 {
	lo, hi := vals[0], vals[0]
	for _, v := range vals {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(vals))
	span := hi - lo
	if span < 1e-12 {
		return out
	}
	for i, v := range vals {
		out[i] = (v - lo) / span
	}
	return out
}
