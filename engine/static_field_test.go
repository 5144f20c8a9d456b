package engine

import (
	"testing"

	"github.com/danielgoncalves/evacsim/components"
)

func buildBoxObstacles(rows, cols int) *IntGrid {
	g := NewIntGrid(rows, cols, components.CellEmpty)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r == 0 || r == rows-1 || c == 0 || c == cols-1 {
				g.Set(components.Location{Row: r, Col: c}, components.CellImpassable)
			}
		}
	}
	return g
}

func TestComputeVarasWeightMonotoneFromExit(t *testing.T) {
	obstacles := buildBoxObstacles(5, 5)
	exit := components.Location{Row: 2, Col: 0}
	obstacles.Set(exit, components.CellEmpty)

	weight := ComputeVarasWeight(obstacles, []components.Location{exit}, 1.41421356, false)

	if got := weight.Get(exit); got != 0 {
		t.Fatalf("exit cell weight = %v, want 0", got)
	}
	farther := weight.Get(components.Location{Row: 2, Col: 3})
	nearer := weight.Get(components.Location{Row: 2, Col: 1})
	if !(nearer < farther) {
		t.Fatalf("flood-fill weight must increase with distance from the exit: nearer=%v farther=%v", nearer, farther)
	}
}

func TestComputeZhengStaticFieldNormalisesToOne(t *testing.T) {
	obstacles := buildBoxObstacles(5, 5)
	exitsOnly := NewIntGrid(5, 5, components.CellEmpty)
	fire := NewIntGrid(5, 5, components.CellEmpty)

	exit := components.Location{Row: 2, Col: 0}
	obstacles.Set(exit, components.CellImpassable)
	exitsOnly.Set(exit, components.CellExit)

	field := ComputeZhengStaticField(obstacles, exitsOnly, fire, []components.Location{exit})

	sum := 0.0
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			loc := components.Location{Row: r, Col: c}
			if obstacles.Get(loc) == components.CellImpassable && exitsOnly.Get(loc) != components.CellExit {
				continue
			}
			sum += field.Get(loc)
		}
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("Zheng static field must normalise passable-cell sum to 1, got %v", sum)
	}
}

func TestComputeKirchnerStaticFieldExitIsMaximal(t *testing.T) {
	obstacles := buildBoxObstacles(5, 5)
	exitsOnly := NewIntGrid(5, 5, components.CellEmpty)
	exit := components.Location{Row: 2, Col: 0}
	obstacles.Set(exit, components.CellImpassable)
	exitsOnly.Set(exit, components.CellExit)

	field := ComputeKirchnerStaticField(obstacles, exitsOnly, []components.Location{exit})

	exitValue := field.Get(exit)
	farValue := field.Get(components.Location{Row: 2, Col: 3})
	if !(exitValue > farValue) {
		t.Fatalf("Kirchner form inverts distance, so the exit cell should score higher than a far cell: exit=%v far=%v", exitValue, farValue)
	}
}
