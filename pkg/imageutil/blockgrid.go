// Package imageutil provides the block-partitioning and pixel-plane helpers
// shared by the forensic analyzers.
package imageutil

import "fmt"

// BorderPolicy controls how partial blocks at the right/bottom border are
// handled by Grid.
type BorderPolicy int

const (
	// DropPartial discards blocks that would extend past the image.
	DropPartial BorderPolicy = iota
	// ClipPartial keeps border blocks, clipped to the image bounds.
	ClipPartial
)

// Block is a rectangular sub-region of an image, identified by its top-left
// coordinate. W and H equal the grid's block size except for clipped border
// blocks.
type Block struct {
	X, Y int
	W, H int
}

// Grid partitions a width x height image into blocks of the given size,
// advancing by stride in both directions. A stride smaller than the block
// size produces overlapping blocks. The returned sequence is deterministic
// and row-major: identical parameters always yield an identical sequence.
func Grid(width, height, block, stride int, policy BorderPolicy) ([]Block, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("imageutil: invalid image dimensions %dx%d", width, height)
	}
	if block <= 0 {
		return nil, fmt.Errorf("imageutil: invalid block size %d", block)
	}
	if stride <= 0 {
		return nil, fmt.Errorf("imageutil: invalid stride %d", stride)
	}
	if block > width || block > height {
		return nil, fmt.Errorf("imageutil: block size %d exceeds image dimensions %dx%d", block, width, height)
	}

	var blocks []Block
	for y := 0; y < height; y += stride {
		if y+block > height {
			if policy == DropPartial {
				break
			}
			if y >= height {
				break
			}
		}
		for x := 0; x < width; x += stride {
			if x+block > width {
				if policy == DropPartial {
					break
				}
				if x >= width {
					break
				}
			}
			b := Block{X: x, Y: y, W: block, H: block}
			if x+block > width {
				b.W = width - x
			}
			if y+block > height {
				b.H = height - y
			}
			blocks = append(blocks, b)
		}
	}
	return blocks, nil
}

// GridSize returns the number of whole blocks per row and column for a
// non-overlapping grid with DropPartial borders.
func GridSize(width, height, block int) (cols, rows int) {
	return width / block, height / block
}
