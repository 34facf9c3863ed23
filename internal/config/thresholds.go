package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ThresholdsVersion tags the default threshold table. Bump when a default
// changes so stored reports can be traced back to the constants that
// produced them.
const ThresholdsVersion = "1"

// Thresholds collects every tunable constant of every technique in one
// explicit, versioned structure. Analyzers receive it at construction and
// hold no hidden thresholds of their own.
type Thresholds struct {
	Version string `yaml:"version"`

	ELA       ELAThresholds       `yaml:"ela"`
	Noise     NoiseThresholds     `yaml:"noise"`
	Histogram HistogramThresholds `yaml:"histogram"`
	BitDepth  BitDepthThresholds  `yaml:"bit_depth"`
	Clone     CloneThresholds     `yaml:"clone"`
	Frequency FrequencyThresholds `yaml:"frequency"`
	Contrast  ContrastThresholds  `yaml:"contrast"`
	Blur      BlurThresholds      `yaml:"blur"`
	BiasField BiasFieldThresholds `yaml:"bias_field"`
}

// ELAThresholds tunes error level analysis.
type ELAThresholds struct {
	// Quality is the JPEG re-encode quality.
	Quality int `yaml:"quality"`
	// NoiseFloor is the per-pixel difference (0-255) below which a
	// recompression difference counts as codec noise. Calibrated against
	// the baseline difference distribution of uncompressed sources so
	// lossless images do not inflate the score.
	NoiseFloor float64 `yaml:"noise_floor"`
	// ScoreScale maps the exceed fraction to the 0-100 score.
	ScoreScale float64 `yaml:"score_scale"`
	// EnhanceGain amplifies the difference map for the enhanced evidence
	// rendering.
	EnhanceGain float64 `yaml:"enhance_gain"`
	// SuspicionScore is the score above which the technique flags the image.
	SuspicionScore float64 `yaml:"suspicion_score"`
}

// NoiseThresholds tunes the noise consistency mapper.
type NoiseThresholds struct {
	BlockSize int `yaml:"block_size"`
	// OutlierK is the multiplier on the block-variance standard deviation;
	// blocks outside mean +/- k*sigma in either direction are outliers.
	OutlierK       float64 `yaml:"outlier_k"`
	ScoreScale     float64 `yaml:"score_scale"`
	SuspicionScore float64 `yaml:"suspicion_score"`
}

// HistogramThresholds tunes the histogram manipulation detector.
type HistogramThresholds struct {
	// ManipulationScore is the dominant sub-score above which the image is
	// flagged and the sub-test's type reported.
	ManipulationScore float64 `yaml:"manipulation_score"`
	// ExtremePeakRatio is the histogram mass at intensity 0 or 255 that
	// suggests clipping.
	ExtremePeakRatio float64 `yaml:"extreme_peak_ratio"`
	// RangeUsage is the fraction of populated bins below which clipping
	// evidence is weighted up.
	RangeUsage float64 `yaml:"range_usage"`
	// PeakHeightRatio is the minimum relative height for a smoothed
	// histogram peak.
	PeakHeightRatio float64 `yaml:"peak_height_ratio"`
	// SpacingRegularity is the peak-spacing regularity above which
	// posterization is suspected.
	SpacingRegularity float64 `yaml:"spacing_regularity"`
}

// BitDepthThresholds tunes posterization detection.
type BitDepthThresholds struct {
	// MinUniqueValues is the unique intensity count below which bit-depth
	// reduction is suspected for images of at least MinPixelsForUnique
	// pixels.
	MinUniqueValues    int     `yaml:"min_unique_values"`
	MinPixelsForUnique int     `yaml:"min_pixels_for_unique"`
	PeakHeightRatio    float64 `yaml:"peak_height_ratio"`
	SpacingRegularity  float64 `yaml:"spacing_regularity"`
	SuspicionScore     float64 `yaml:"suspicion_score"`
}

// CloneThresholds tunes copy-move detection. MinClusterMatches guards
// against the spurious matches that near-uniform regions (sky, flat walls)
// produce: isolated coincidental pairs never form a consistent displacement
// cluster of that size.
type CloneThresholds struct {
	BlockSize int `yaml:"block_size"`
	Stride    int `yaml:"stride"`
	// Similarity is the minimum normalized cross-correlation for a
	// candidate pair.
	Similarity float64 `yaml:"similarity"`
	// KeyWindow bounds how many sort-order neighbors each descriptor is
	// compared against after the scalar-key ordering.
	KeyWindow int `yaml:"key_window"`
	// KeyDelta additionally bounds the scalar-key distance of compared
	// pairs; genuine duplicates have near-identical keys.
	KeyDelta float64 `yaml:"key_delta"`
	// MinOffset suppresses trivially-adjacent matches: pairs closer than
	// this Euclidean distance are not evidence of cloning.
	MinOffset float64 `yaml:"min_offset"`
	// DisplacementQuant buckets match displacement vectors (pixels).
	DisplacementQuant int `yaml:"displacement_quant"`
	// MinClusterMatches is the minimum number of mutually consistent
	// matches a displacement bucket needs to count as a cloned region.
	MinClusterMatches int     `yaml:"min_cluster_matches"`
	RegionScore       float64 `yaml:"region_score"`
	AreaScale         float64 `yaml:"area_scale"`
	SuspicionScore    float64 `yaml:"suspicion_score"`
}

// FrequencyThresholds tunes the frequency-domain analyzer.
type FrequencyThresholds struct {
	// DCRadius excludes the central low-frequency region from peak search.
	DCRadius int `yaml:"dc_radius"`
	// PeakMinMagnitude is the minimum normalized log magnitude (0-1) for a
	// peak candidate; normalization keeps sensitivity resolution
	// independent.
	PeakMinMagnitude float64 `yaml:"peak_min_magnitude"`
	// BackgroundRatio is how far a peak must rise above the local mean.
	BackgroundRatio float64 `yaml:"background_ratio"`
	// NMSRadius is the non-maximum suppression neighborhood so one broad
	// lobe counts once.
	NMSRadius int `yaml:"nms_radius"`
	// ClusterTolerance groups peaks whose radial frequency differs by at
	// most this many frequency bins.
	ClusterTolerance float64 `yaml:"cluster_tolerance"`
	// MinClusterPeaks is the minimum peak count for a periodic cluster; a
	// single sinusoid contributes a conjugate-symmetric pair.
	MinClusterPeaks int     `yaml:"min_cluster_peaks"`
	ScorePerCluster float64 `yaml:"score_per_cluster"`
	// NotchSigma is the Gaussian taper of each synthesized band-reject
	// notch, in frequency bins.
	NotchSigma     float64 `yaml:"notch_sigma"`
	SuspicionScore float64 `yaml:"suspicion_score"`
}

// ContrastThresholds tunes local-contrast inconsistency detection.
type ContrastThresholds struct {
	BlockSize int `yaml:"block_size"`
	// CV is the coefficient of variation of block contrast above which the
	// image is flagged.
	CV         float64 `yaml:"cv"`
	ScoreScale float64 `yaml:"score_scale"`
	// NeighborSigma flags blocks deviating this many sigmas from their
	// neighborhood mean.
	NeighborSigma float64 `yaml:"neighbor_sigma"`
}

// BlurThresholds tunes blur inconsistency detection.
type BlurThresholds struct {
	BlockSize  int     `yaml:"block_size"`
	CV         float64 `yaml:"cv"`
	ScoreScale float64 `yaml:"score_scale"`
}

// BiasFieldThresholds tunes the illumination-model analyzer.
type BiasFieldThresholds struct {
	// SampleStride subsamples the luminance plane for the polynomial fit.
	SampleStride int `yaml:"sample_stride"`
	// ResidualK marks residuals beyond k sigma as illumination outliers.
	ResidualK float64 `yaml:"residual_k"`
	// BlockSize is the tally grid for checking that outliers concentrate
	// in a bounded region rather than scattering as noise.
	BlockSize int `yaml:"block_size"`
	// BlockOutlierRatio is the outlier density above which a tally block
	// counts as inconsistent.
	BlockOutlierRatio float64 `yaml:"block_outlier_ratio"`
	ScoreScale        float64 `yaml:"score_scale"`
	SuspicionScore    float64 `yaml:"suspicion_score"`
}

// DefaultThresholds returns the documented default threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Version: ThresholdsVersion,
		ELA: ELAThresholds{
			Quality:        95,
			NoiseFloor:     12,
			ScoreScale:     250,
			EnhanceGain:    10,
			SuspicionScore: 40,
		},
		Noise: NoiseThresholds{
			BlockSize:      16,
			OutlierK:       2,
			ScoreScale:     400,
			SuspicionScore: 40,
		},
		Histogram: HistogramThresholds{
			ManipulationScore: 40,
			ExtremePeakRatio:  0.02,
			RangeUsage:        0.7,
			PeakHeightRatio:   0.05,
			SpacingRegularity: 0.7,
		},
		BitDepth: BitDepthThresholds{
			MinUniqueValues:    128,
			MinPixelsForUnique: 4096,
			PeakHeightRatio:    0.05,
			SpacingRegularity:  0.7,
			SuspicionScore:     40,
		},
		Clone: CloneThresholds{
			BlockSize:         16,
			Stride:            8,
			Similarity:        0.92,
			KeyWindow:         32,
			KeyDelta:          4,
			MinOffset:         32,
			DisplacementQuant: 4,
			MinClusterMatches: 4,
			RegionScore:       25,
			AreaScale:         200,
			SuspicionScore:    25,
		},
		Frequency: FrequencyThresholds{
			DCRadius:         10,
			PeakMinMagnitude: 0.62,
			BackgroundRatio:  1.35,
			NMSRadius:        4,
			ClusterTolerance: 3,
			MinClusterPeaks:  2,
			ScorePerCluster:  25,
			NotchSigma:       3,
			SuspicionScore:   25,
		},
		Contrast: ContrastThresholds{
			BlockSize:     64,
			CV:            0.5,
			ScoreScale:    150,
			NeighborSigma: 2,
		},
		Blur: BlurThresholds{
			BlockSize:  64,
			CV:         0.6,
			ScoreScale: 120,
		},
		BiasField: BiasFieldThresholds{
			SampleStride:      4,
			ResidualK:         2.5,
			BlockSize:         32,
			BlockOutlierRatio: 0.35,
			ScoreScale:        500,
			SuspicionScore:    40,
		},
	}
}

// LoadThresholds reads a yaml threshold file layered over the defaults, so
// a partial file only overrides what it names.
func LoadThresholds(path string) (Thresholds, error) {
	th := DefaultThresholds()
	if path == "" {
		return th, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return th, fmt.Errorf("read thresholds: %w", err)
	}
	if err := yaml.Unmarshal(data, &th); err != nil {
		return th, fmt.Errorf("parse thresholds: %w", err)
	}
	if err := th.Validate(); err != nil {
		return th, err
	}
	return th, nil
}

// Validate rejects threshold tables that would break an analyzer.
func (t Thresholds) Validate() error {
	if t.ELA.Quality < 1 || t.ELA.Quality > 100 {
		return fmt.Errorf("ela.quality must be in 1..100 (got %d)", t.ELA.Quality)
	}
	if t.Noise.BlockSize < 4 {
		return fmt.Errorf("noise.block_size must be >= 4 (got %d)", t.Noise.BlockSize)
	}
	if t.Noise.OutlierK <= 0 {
		return fmt.Errorf("noise.outlier_k must be > 0 (got %g)", t.Noise.OutlierK)
	}
	if t.Clone.BlockSize < 4 {
		return fmt.Errorf("clone.block_size must be >= 4 (got %d)", t.Clone.BlockSize)
	}
	if t.Clone.Stride < 1 || t.Clone.Stride > t.Clone.BlockSize {
		return fmt.Errorf("clone.stride must be in 1..block_size (got %d)", t.Clone.Stride)
	}
	if t.Clone.Similarity <= 0 || t.Clone.Similarity > 1 {
		return fmt.Errorf("clone.similarity must be in (0,1] (got %g)", t.Clone.Similarity)
	}
	if t.Clone.MinClusterMatches < 1 {
		return fmt.Errorf("clone.min_cluster_matches must be >= 1 (got %d)", t.Clone.MinClusterMatches)
	}
	if t.Frequency.DCRadius < 1 {
		return fmt.Errorf("frequency.dc_radius must be >= 1 (got %d)", t.Frequency.DCRadius)
	}
	if t.Frequency.NMSRadius < 1 {
		return fmt.Errorf("frequency.nms_radius must be >= 1 (got %d)", t.Frequency.NMSRadius)
	}
	if t.Contrast.BlockSize < 4 || t.Blur.BlockSize < 4 {
		return fmt.Errorf("contrast/blur block sizes must be >= 4")
	}
	if t.BiasField.SampleStride < 1 {
		return fmt.Errorf("bias_field.sample_stride must be >= 1 (got %d)", t.BiasField.SampleStride)
	}
	return nil
}
