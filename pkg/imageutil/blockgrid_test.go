package imageutil

import (
	"reflect"
	"testing"
)

func TestGridNonOverlapping(t *testing.T) {
	blocks, err := Grid(64, 48, 16, 16, DropPartial)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}

	if len(blocks) != 4*3 {
		t.Fatalf("Expected 12 blocks, got %d", len(blocks))
	}
	// Row-major order with the top-left block first.
	if blocks[0] != (Block{X: 0, Y: 0, W: 16, H: 16}) {
		t.Errorf("First block = %+v", blocks[0])
	}
	if blocks[1] != (Block{X: 16, Y: 0, W: 16, H: 16}) {
		t.Errorf("Second block = %+v", blocks[1])
	}
	if blocks[11] != (Block{X: 48, Y: 32, W: 16, H: 16}) {
		t.Errorf("Last block = %+v", blocks[11])
	}
}

func TestGridOverlapping(t *testing.T) {
	blocks, err := Grid(32, 32, 16, 8, DropPartial)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	// Starts at 0, 8, 16 in each dimension.
	if len(blocks) != 3*3 {
		t.Errorf("Expected 9 overlapping blocks, got %d", len(blocks))
	}
}

func TestGridDropsPartialBlocks(t *testing.T) {
	blocks, err := Grid(40, 40, 16, 16, DropPartial)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if len(blocks) != 4 {
		t.Errorf("Expected 4 whole blocks in 40x40, got %d", len(blocks))
	}
	for _, b := range blocks {
		if b.W != 16 || b.H != 16 {
			t.Errorf("DropPartial produced partial block %+v", b)
		}
	}
}

func TestGridClipsPartialBlocks(t *testing.T) {
	blocks, err := Grid(40, 40, 16, 16, ClipPartial)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	if len(blocks) != 9 {
		t.Fatalf("Expected 9 clipped blocks in 40x40, got %d", len(blocks))
	}

	last := blocks[len(blocks)-1]
	if last.X != 32 || last.Y != 32 || last.W != 8 || last.H != 8 {
		t.Errorf("Border block = %+v, want clipped 8x8 at (32,32)", last)
	}
}

func TestGridDeterministic(t *testing.T) {
	a, err := Grid(100, 80, 16, 8, ClipPartial)
	if err != nil {
		t.Fatalf("Grid failed: %v", err)
	}
	b, _ := Grid(100, 80, 16, 8, ClipPartial)
	if !reflect.DeepEqual(a, b) {
		t.Error("Identical parameters produced different sequences")
	}
}

func TestGridRejectsInvalidArguments(t *testing.T) {
	cases := []struct {
		name                         string
		width, height, block, stride int
	}{
		{"zero width", 0, 10, 4, 4},
		{"zero height", 10, 0, 4, 4},
		{"zero block", 10, 10, 0, 4},
		{"zero stride", 10, 10, 4, 0},
		{"block too large", 10, 10, 16, 4},
	}
	for _, c := range cases {
		if _, err := Grid(c.width, c.height, c.block, c.stride, DropPartial); err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}
}

func TestGridSize(t *testing.T) {
	cols, rows := GridSize(100, 64, 16)
	if cols != 6 || rows != 4 {
		t.Errorf("GridSize = (%d,%d), want (6,4)", cols, rows)
	}
}
