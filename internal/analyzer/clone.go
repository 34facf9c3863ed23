package analyzer

import (
	"context"
	"image"
	"math"
	"sort"

	"forensiclens/internal/config"
	"forensiclens/pkg/imageutil"
	"forensiclens/pkg/models"
)

// Clone detects copy-move forgery. Every overlapping block is summarized by
// a compact descriptor; descriptors are ordered by a cheap scalar key so
// only a bounded window of sort-neighbors is ever compared pairwise, which
// keeps the search far below the quadratic cost of brute force. Surviving
// matches are grouped by displacement vector: blocks that all moved by the
// same offset form a cloned region, while the coincidental matches that
// near-uniform areas (sky, flat walls) produce scatter across displacement
// buckets and never reach the minimum cluster size.
type Clone struct {
	th config.CloneThresholds
}

// NewClone creates the copy-move detector.
func NewClone(th config.Thresholds) *Clone {
	return &Clone{th: th.Clone}
}

func (a *Clone) Name() models.Technique { return models.TechniqueClone }

// blockDescriptor is the fixed-length feature vector of one block: the four
// lowest-frequency 2D DCT coefficients plus mean and variance. The mean
// doubles as the scalar ordering key.
type blockDescriptor struct {
	block imageutil.Block
	key   float64 // mean intensity
	dct   [4]float64
	vari  float64
}

// blockMatch is a candidate duplicate pair surviving the prefilter.
type blockMatch struct {
	a, b   imageutil.Block
	dx, dy int
	ncc    float64
}

func (a *Clone) Analyze(ctx context.Context, in *Input) (*models.AnalysisResult, error) {
	w, h := in.Width(), in.Height()
	blocks, err := imageutil.Grid(w, h, a.th.BlockSize, a.th.Stride, imageutil.DropPartial)
	if err != nil {
		return nil, err
	}

	descriptors := make([]blockDescriptor, len(blocks))
	for i, b := range blocks {
		descriptors[i] = a.describe(in.Lum, b)
		if i%512 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].key < descriptors[j].key })

	matches, err := a.findMatches(ctx, in.Lum, descriptors)
	if err != nil {
		return nil, err
	}
	regions := a.clusterByDisplacement(matches)

	mask := image.NewGray(image.Rect(0, 0, w, h))
	clonedPixels := 0
	for _, region := range regions {
		for _, m := range region {
			clonedPixels += markBlock(mask, m.a)
			clonedPixels += markBlock(mask, m.b)
		}
	}
	areaFraction := float64(clonedPixels) / float64(w*h)

	score := clampScore(float64(len(regions))*a.th.RegionScore + areaFraction*a.th.AreaScale)

	stats := map[string]float64{
		"regions_found": float64(len(regions)),
		"matches":       float64(countMatches(regions)),
		"area_fraction": areaFraction,
	}
	if len(regions) > 0 {
		dx, dy := dominantDisplacement(regions[0])
		stats["displacement_x"] = dx
		stats["displacement_y"] = dy
	}

	return &models.AnalysisResult{
		Technique:  models.TechniqueClone,
		Score:      score,
		Suspicious: score >= a.th.SuspicionScore,
		Stats:      stats,
		Evidence:   mask,
		Completed:  true,
	}, nil
}

// describe computes a block's descriptor from its luminance samples.
func (a *Clone) describe(lum [][]float64, b imageutil.Block) blockDescriptor {
	n := float64(b.W * b.H)
	var sum, sumSq float64
	for y := b.Y; y < b.Y+b.H; y++ {
		for x := b.X; x < b.X+b.W; x++ {
			v := lum[y][x]
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / n

	d := blockDescriptor{
		block: b,
		key:   mean,
		vari:  sumSq/n - mean*mean,
	}
	// Low-frequency DCT-II coefficients (0,0), (0,1), (1,0), (1,1).
	idx := 0
	for u := 0; u < 2; u++ {
		for v := 0; v < 2; v++ {
			var c float64
			for y := 0; y < b.H; y++ {
				cy := math.Cos(math.Pi * (float64(y) + 0.5) * float64(u) / float64(b.H))
				for x := 0; x < b.W; x++ {
					c += lum[b.Y+y][b.X+x] * cy *
						math.Cos(math.Pi*(float64(x)+0.5)*float64(v)/float64(b.W))
				}
			}
			d.dct[idx] = c / float64(b.W*b.H)
			idx++
		}
	}
	return d
}

// findMatches compares each descriptor against its sort-order neighbors
// within the key window, confirming candidates by normalized
// cross-correlation of the raw blocks. Near-zero displacements are
// suppressed: adjacent overlapping blocks always resemble each other.
func (a *Clone) findMatches(ctx context.Context, lum [][]float64, descriptors []blockDescriptor) ([]blockMatch, error) {
	var matches []blockMatch
	minOffset2 := a.th.MinOffset * a.th.MinOffset
	for i := range descriptors {
		if i%256 == 0 && cancelled(ctx) {
			return nil, ctx.Err()
		}
		di := descriptors[i]
		if di.vari < 1e-6 {
			// Perfectly flat blocks match everything; no evidence value.
			continue
		}
		limit := i + a.th.KeyWindow
		if limit > len(descriptors) {
			limit = len(descriptors)
		}
		for j := i + 1; j < limit; j++ {
			dj := descriptors[j]
			if dj.key-di.key > a.th.KeyDelta {
				break
			}
			if dj.vari < 1e-6 {
				continue
			}
			dx := dj.block.X - di.block.X
			dy := dj.block.Y - di.block.Y
			if float64(dx*dx+dy*dy) < minOffset2 {
				continue
			}
			ncc := normalizedCrossCorrelation(lum, di.block, dj.block)
			if ncc >= a.th.Similarity {
				matches = append(matches, blockMatch{a: di.block, b: dj.block, dx: dx, dy: dy, ncc: ncc})
			}
		}
	}
	return matches, nil
}

// clusterByDisplacement buckets matches by quantized displacement vector
// (sign-normalized, so a pair and its reverse share a bucket) and keeps
// buckets of at least MinClusterMatches mutually consistent matches.
func (a *Clone) clusterByDisplacement(matches []blockMatch) [][]blockMatch {
	type key struct{ qx, qy int }
	buckets := make(map[key][]blockMatch)
	q := a.th.DisplacementQuant
	for _, m := range matches {
		dx, dy := m.dx, m.dy
		if dx < 0 || (dx == 0 && dy < 0) {
			dx, dy = -dx, -dy
		}
		k := key{qx: quantize(dx, q), qy: quantize(dy, q)}
		buckets[k] = append(buckets[k], m)
	}

	var regions [][]blockMatch
	for _, bucket := range buckets {
		if len(bucket) >= a.th.MinClusterMatches {
			regions = append(regions, bucket)
		}
	}
	// Deterministic order: largest cluster first, ties by displacement.
	sort.Slice(regions, func(i, j int) bool {
		if len(regions[i]) != len(regions[j]) {
			return len(regions[i]) > len(regions[j])
		}
		return regions[i][0].dx*10000+regions[i][0].dy < regions[j][0].dx*10000+regions[j][0].dy
	})
	return regions
}

func quantize(v, q int) int {
	if q <= 1 {
		return v
	}
	if v >= 0 {
		return (v + q/2) / q
	}
	return -((-v + q/2) / q)
}

// normalizedCrossCorrelation computes the NCC of two same-sized blocks.
func normalizedCrossCorrelation(lum [][]float64, a, b imageutil.Block) float64 {
	if a.W != b.W || a.H != b.H {
		return 0
	}
	n := float64(a.W * a.H)
	var sumA, sumB float64
	for y := 0; y < a.H; y++ {
		for x := 0; x < a.W; x++ {
			sumA += lum[a.Y+y][a.X+x]
			sumB += lum[b.Y+y][b.X+x]
		}
	}
	meanA, meanB := sumA/n, sumB/n
	var cov, varA, varB float64
	for y := 0; y < a.H; y++ {
		for x := 0; x < a.W; x++ {
			da := lum[a.Y+y][a.X+x] - meanA
			db := lum[b.Y+y][b.X+x] - meanB
			cov += da * db
			varA += da * da
			varB += db * db
		}
	}
	denom := math.Sqrt(varA * varB)
	if denom < 1e-9 {
		return 0
	}
	return cov / denom
}

// markBlock sets a block's pixels in the mask and returns how many were
// newly marked.
func markBlock(mask *image.Gray, b imageutil.Block) int {
	marked := 0
	for y := b.Y; y < b.Y+b.H; y++ {
		for x := b.X; x < b.X+b.W; x++ {
			if mask.Pix[y*mask.Stride+x] == 0 {
				mask.Pix[y*mask.Stride+x] = 255
				marked++
			}
		}
	}
	return marked
}

func countMatches(regions [][]blockMatch) int {
	n := 0
	for _, r := range regions {
		n += len(r)
	}
	return n
}

// dominantDisplacement averages a region's displacement vectors,
// sign-normalized the same way the clustering buckets them.
func dominantDisplacement(region []blockMatch) (float64, float64) {
	var sx, sy float64
	for _, m := range region {
		dx, dy := m.dx, m.dy
		if dx < 0 || (dx == 0 && dy < 0) {
			dx, dy = -dx, -dy
		}
		sx += float64(dx)
		sy += float64(dy)
	}
	n := float64(len(region))
	return sx / n, sy / n
}
