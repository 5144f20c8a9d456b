package engine

import (
	"testing"

	"github.com/danielgoncalves/evacsim/components"
)

func TestExitAccessibleWithOpenNeighbor(t *testing.T) {
	obstacles := buildBoxObstacles(5, 5)
	exitsOnly := NewIntGrid(5, 5, components.CellEmpty)
	cell := components.Location{Row: 2, Col: 0}
	obstacles.Set(cell, components.CellImpassable)
	exitsOnly.Set(cell, components.CellExit)

	e := NewExit(cell)
	if !e.Accessible(obstacles, exitsOnly) {
		t.Fatalf("an exit carved into a wall with an empty cell beside it must be accessible")
	}
}

func TestExitInaccessibleWhenFullySurrounded(t *testing.T) {
	obstacles := NewIntGrid(3, 3, components.CellImpassable)
	exitsOnly := NewIntGrid(3, 3, components.CellEmpty)
	cell := components.Location{Row: 1, Col: 1}
	exitsOnly.Set(cell, components.CellExit)

	e := NewExit(cell)
	if e.Accessible(obstacles, exitsOnly) {
		t.Fatalf("an exit surrounded entirely by obstacles must not be accessible")
	}
}

func TestExitBlockedByFireAllNeighborsCovered(t *testing.T) {
	obstacles := NewIntGrid(3, 3, components.CellImpassable)
	exitsOnly := NewIntGrid(3, 3, components.CellEmpty)
	fire := NewIntGrid(3, 3, components.CellEmpty)
	cell := components.Location{Row: 1, Col: 1}
	exitsOnly.Set(cell, components.CellExit)
	obstacles.Set(cell, components.CellImpassable)

	// every orthogonal neighbor is an obstacle already -> blocked regardless of fire.
	e := NewExit(cell)
	e.RefreshBlockedByFire(obstacles, exitsOnly, fire)
	if !e.BlockedByFire {
		t.Fatalf("an exit with every orthogonal neighbor obstacle/exit/fire must be blocked_by_fire")
	}
}

func TestExitBlockedByFireIsMonotone(t *testing.T) {
	obstacles := buildBoxObstacles(5, 5)
	exitsOnly := NewIntGrid(5, 5, components.CellEmpty)
	fire := NewIntGrid(5, 5, components.CellEmpty)
	cell := components.Location{Row: 2, Col: 0}
	obstacles.Set(cell, components.CellImpassable)
	exitsOnly.Set(cell, components.CellExit)

	e := NewExit(cell)
	fire.Set(components.Location{Row: 2, Col: 1}, components.CellFire)
	e.RefreshBlockedByFire(obstacles, exitsOnly, fire)
	if !e.BlockedByFire {
		t.Fatalf("exit must become blocked once its only open neighbor is on fire")
	}

	fire.Set(components.Location{Row: 2, Col: 1}, components.CellEmpty)
	e.RefreshBlockedByFire(obstacles, exitsOnly, fire)
	if !e.BlockedByFire {
		t.Fatalf("blocked_by_fire must stay true even if the fire later recedes (monotone within a simulation)")
	}
}

func TestExitSetAllAccessibleRequiresEvery(t *testing.T) {
	obstacles := buildBoxObstacles(5, 5)
	exitsOnly := NewIntGrid(5, 5, components.CellEmpty)

	good := components.Location{Row: 2, Col: 0}
	obstacles.Set(good, components.CellImpassable)
	exitsOnly.Set(good, components.CellExit)

	set := NewExitSet()
	set.Add(good)

	if !set.AllAccessible(obstacles, exitsOnly) {
		t.Fatalf("a single accessible exit should make the set accessible")
	}

	bad := components.Location{Row: 0, Col: 0}
	exitsOnly.Set(bad, components.CellExit)
	set.Add(bad)

	if set.AllAccessible(obstacles, exitsOnly) {
		t.Fatalf("one inaccessible exit (corner cell, all neighbors obstacle) must make the whole set inaccessible")
	}
}
