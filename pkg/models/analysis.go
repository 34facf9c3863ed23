package models

import (
	"image"
	"time"
)

// Technique identifies one forensic detection technique.
type Technique string

const (
	TechniqueHistogram Technique = "histogram"
	TechniqueBitDepth  Technique = "bit_depth"
	TechniqueELA       Technique = "ela"
	TechniqueNoise     Technique = "noise"
	TechniqueContrast  Technique = "contrast"
	TechniqueBlur      Technique = "blur"
	TechniqueBiasField Technique = "bias_field"
	TechniqueFrequency Technique = "frequency"
	TechniqueClone     Technique = "clone"
)

// Techniques returns the full set of techniques in report order.
func Techniques() []Technique {
	return []Technique{
		TechniqueELA,
		TechniqueNoise,
		TechniqueHistogram,
		TechniqueBitDepth,
		TechniqueClone,
		TechniqueFrequency,
		TechniqueContrast,
		TechniqueBlur,
		TechniqueBiasField,
	}
}

// TechniqueCount is the number of techniques a complete run produces.
const TechniqueCount = 9

// AnalysisResult is the output of a single technique for one image.
// A result is immutable once returned by an analyzer.
type AnalysisResult struct {
	Technique Technique `json:"technique"`
	Score     float64   `json:"score"` // suspicion score in [0,100]

	// Suspicious is set when the technique's own threshold was crossed.
	Suspicious bool `json:"suspicious"`

	// Detail names the detected manipulation type where the technique
	// distinguishes one (e.g. "histogram equalization", "posterization").
	Detail string `json:"detail,omitempty"`

	// Stats carries technique-specific numeric outputs such as peak or
	// cloned-region counts, keyed by a stable name.
	Stats map[string]float64 `json:"stats,omitempty"`

	// Evidence is the primary evidence map, normalized to a displayable
	// range and matching the analyzed image's spatial dimensions. Nil for
	// techniques that produce no map.
	Evidence *image.Gray `json:"-"`

	// Extra is a secondary evidence map (e.g. the periodicity-removed
	// reconstruction from the frequency analyzer).
	Extra *image.Gray `json:"-"`

	// Completed is false when the technique was cancelled or failed before
	// producing a score. An incomplete result never contributes to the
	// aggregate verdict.
	Completed bool   `json:"completed"`
	Error     string `json:"error,omitempty"`
}

// Usable reports whether the result carries a score the aggregator may use.
func (r *AnalysisResult) Usable() bool {
	return r != nil && r.Completed && r.Error == ""
}

// Verdict classifies an average suspicion score.
type Verdict string

const (
	VerdictLow      Verdict = "low"
	VerdictModerate Verdict = "moderate"
	VerdictHigh     Verdict = "high"
	VerdictSevere   Verdict = "severe"
)

// Suspicion band boundaries for the aggregate verdict.
const (
	BandModerate = 20.0
	BandHigh     = 50.0
	BandSevere   = 75.0
)

// ClassifyScore maps an average suspicion score to its verdict band.
func ClassifyScore(score float64) Verdict {
	switch {
	case score >= BandSevere:
		return VerdictSevere
	case score >= BandHigh:
		return VerdictHigh
	case score >= BandModerate:
		return VerdictModerate
	default:
		return VerdictLow
	}
}

// StatusLabel gives a per-technique status for report formatting.
func StatusLabel(score float64) string {
	switch {
	case score > 70:
		return "HIGH SUSPICION"
	case score > 40:
		return "MODERATE"
	default:
		return "NORMAL"
	}
}

// ForensicsReport aggregates all technique results for one image.
// It is created once by the aggregator and read-only thereafter.
type ForensicsReport struct {
	Source    string    `json:"source"`
	Format    string    `json:"format,omitempty"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Timestamp time.Time `json:"timestamp"`

	Results []AnalysisResult `json:"results"`

	AverageScore float64 `json:"average_score"`
	Verdict      Verdict `json:"verdict"`

	// Incomplete marks a report whose verdict was computed over fewer than
	// the full set of techniques. The average is never silently padded.
	Incomplete  bool `json:"incomplete"`
	UsableCount int  `json:"usable_count"`
}

// Result returns the result for a technique, or nil when missing.
func (fr *ForensicsReport) Result(t Technique) *AnalysisResult {
	for i := range fr.Results {
		if fr.Results[i].Technique == t {
			return &fr.Results[i]
		}
	}
	return nil
}
