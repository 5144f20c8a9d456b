package engine

import (
	"testing"

	"github.com/danielgoncalves/evacsim/components"
)

func TestIntGridOutOfBoundsReadsImpassable(t *testing.T) {
	g := NewIntGrid(3, 3, components.CellEmpty)
	if got := g.Get(components.Location{Row: -1, Col: 0}); got != components.CellImpassable {
		t.Fatalf("out of bounds read = %d, want CellImpassable", got)
	}
}

func TestIntGridSetOutOfBoundsNoop(t *testing.T) {
	g := NewIntGrid(2, 2, components.CellEmpty)
	g.Set(components.Location{Row: 5, Col: 5}, 99)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			if got := g.Get(components.Location{Row: r, Col: c}); got != components.CellEmpty {
				t.Fatalf("cell (%d,%d) = %d, want untouched CellEmpty", r, c, got)
			}
		}
	}
}

func TestIntGridStructuralCopyOnlyNonEmpty(t *testing.T) {
	src := NewIntGrid(2, 2, components.CellEmpty)
	src.Set(components.Location{Row: 0, Col: 0}, components.CellImpassable)

	dst := NewIntGrid(2, 2, components.CellEmpty)
	dst.Set(components.Location{Row: 1, Col: 1}, 7)

	src.StructuralCopy(dst)

	if got := dst.Get(components.Location{Row: 0, Col: 0}); got != components.CellImpassable {
		t.Fatalf("structural copy did not propagate non-empty cell, got %d", got)
	}
	if got := dst.Get(components.Location{Row: 1, Col: 1}); got != 7 {
		t.Fatalf("structural copy clobbered dst's own non-empty cell, got %d", got)
	}
}

func TestFloatGridSumExcludesSentinels(t *testing.T) {
	g := NewFloatGrid(2, 2, 0)
	g.Set(components.Location{Row: 0, Col: 0}, 2.5)
	g.Set(components.Location{Row: 0, Col: 1}, components.ImpassableValue)
	g.Set(components.Location{Row: 1, Col: 0}, components.FireValue)
	g.Set(components.Location{Row: 1, Col: 1}, 1.5)

	if got := g.Sum(); got != 4.0 {
		t.Fatalf("Sum() = %v, want 4.0", got)
	}
}

func TestDiagonalValidLenientDefault(t *testing.T) {
	obstacles := NewIntGrid(3, 3, components.CellEmpty)
	obstacles.Set(components.Location{Row: 1, Col: 2}, components.CellImpassable)

	origin := components.Location{Row: 1, Col: 1}
	if !DiagonalValid(obstacles, origin, 1, 1, false) {
		t.Fatalf("default mode should allow the diagonal when only one orthogonal neighbor is blocked")
	}
}

func TestDiagonalValidStrictCornerCrossing(t *testing.T) {
	obstacles := NewIntGrid(4, 4, components.CellEmpty)
	obstacles.Set(components.Location{Row: 1, Col: 2}, components.CellImpassable)
	obstacles.Set(components.Location{Row: 2, Col: 1}, components.CellImpassable)

	origin := components.Location{Row: 1, Col: 1}
	if DiagonalValid(obstacles, origin, 1, 1, true) {
		t.Fatalf("strict mode must reject the diagonal when both orthogonal neighbors are blocked")
	}
	if DiagonalValid(obstacles, origin, 1, 1, false) {
		t.Fatalf("lenient mode must also reject the diagonal when both orthogonal neighbors are blocked")
	}
}
