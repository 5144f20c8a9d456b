package engine

import (
	"math"

	"github.com/danielgoncalves/evacsim/components"
)

// FieldSet bundles the grids the transition-probability model reads from,
// so ScoreTransition takes one argument instead of a dozen (spec.md §4.6).
type FieldSet struct {
	Obstacles       *IntGrid
	ExitsOnly       *IntGrid
	Positions       *IntGrid
	Fire            *IntGrid
	Risky           *IntGrid
	Static          *FloatGrid
	Dynamic         *FloatGrid
	FireField       *FloatGrid
	DistanceToExit  *FloatGrid
	Ks, Kd, Kf      float64
	FireAlpha       float64
	RiskDistance    float64
	Omega           float64
}

// ScoreTransition fills p.Prob with the 3x3 transition-probability table
// of spec.md §4.6, for the fire-aware model: diagonals are always 0.
// auxStatic, when non-nil, replaces fields.Static for every cell of the
// table (the caller passes a field built from the exits the pedestrian
// can see).
func ScoreTransition(p *components.Pedestrian, fields *FieldSet, auxStatic *FloatGrid) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p.Prob[i][j] = 0
		}
	}

	static := fields.Static
	if auxStatic != nil {
		static = auxStatic
	}

	total := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i != 1 && j != 1 {
				continue // diagonals stay 0 in the fire-aware model
			}

			cell := components.Location{Row: p.Current.Row + i - 1, Col: p.Current.Col + j - 1}

			if !fields.Obstacles.InBounds(cell) ||
				fields.Obstacles.Get(cell) == components.CellImpassable ||
				fields.Fire.Get(cell) == components.CellFire ||
				fields.Risky.Get(cell) == components.RiskDanger {
				continue
			}

			value := math.Exp(fields.Ks*static.Get(cell)) * math.Exp(fields.Kd*fields.Dynamic.Get(cell))

			if fields.Risky.Get(cell) != components.RiskRisky {
				alpha := 1.0
				if fields.DistanceToExit.Get(cell) < fields.RiskDistance {
					alpha = fields.FireAlpha
				}
				value /= math.Exp(fields.Kf * alpha * fields.FireField.Get(cell))
			}

			if !(i == 1 && j == 1) && fields.Positions.Get(cell) > 0 {
				value = 0
			}

			p.Prob[i][j] = value
			total += value
		}
	}

	if !p.Previous.Equal(p.Current) {
		m := p.InertiaDirection()
		ii, jj := m.Row+1, m.Col+1
		former := p.Prob[ii][jj]
		p.Prob[ii][jj] *= fields.Omega
		total += p.Prob[ii][jj] - former
	}

	if total == 0 {
		return
	}
	inv := 1 / total
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			p.Prob[i][j] *= inv
		}
	}
}

// SelectTarget runs a roulette over p.Prob flattened to nine entries
// (row-major i,j) and returns the chosen absolute cell, defaulting to
// p.Current if rounding selects nothing (spec.md §4.6 "Target selection").
func SelectTarget(rng *RNG, p *components.Pedestrian) components.Location {
	weights := make([]float64, 0, 9)
	offsets := make([]components.Location, 0, 9)
	total := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			weights = append(weights, p.Prob[i][j])
			offsets = append(offsets, components.Location{Row: i - 1, Col: j - 1})
			total += p.Prob[i][j]
		}
	}

	idx := rng.Roulette(weights, total)
	if idx < 0 {
		return p.Current
	}
	return p.Current.Add(offsets[idx].Row, offsets[idx].Col)
}

// VisibleExitCells reports, for a pedestrian at origin, which of the
// unblocked exit cells are visible (no fire cell on the Bresenham line to
// them, start cell included) and whether at least one exit cell was
// excluded for being obstructed (spec.md §4.6 "Line-of-sight for exit
// visibility").
func VisibleExitCells(fire *IntGrid, origin components.Location, exitCells []components.Location) (visible []components.Location, anyBlocked bool) {
	if fire.Get(origin) == components.CellFire {
		return nil, len(exitCells) > 0
	}
	for _, cell := range exitCells {
		if isLineBlockedByFire(fire, origin, cell) {
			anyBlocked = true
			continue
		}
		visible = append(visible, cell)
	}
	return visible, anyBlocked
}

// isLineBlockedByFire traces the Bresenham line from origin to
// destination and reports whether any cell on the path (including
// origin) is on fire.
func isLineBlockedByFire(fire *IntGrid, origin, destination components.Location) bool {
	x1, y1 := origin.Col, origin.Row
	x2, y2 := destination.Col, destination.Row

	if fire.Get(components.Location{Row: y1, Col: x1}) == components.CellFire {
		return true
	}

	dx := x2 - x1
	dy := y2 - y1

	xStep, yStep := 1, 1
	if dy < 0 {
		yStep = -1
		dy = -dy
	}
	if dx < 0 {
		xStep = -1
		dx = -dx
	}

	x, y := x1, y1
	ddx, ddy := 2*dx, 2*dy

	if ddx >= ddy {
		errv := ddy - dx
		for i := 0; i < dx; i++ {
			x += xStep
			if errv > 0 {
				y += yStep
				errv -= ddx
			}
			errv += ddy
			if fire.Get(components.Location{Row: y, Col: x}) == components.CellFire {
				return true
			}
		}
		return false
	}

	errv := ddx - dy
	for i := 0; i < dy; i++ {
		y += yStep
		if errv > 0 {
			x += xStep
			errv -= ddy
		}
		errv += ddx
		if fire.Get(components.Location{Row: y, Col: x}) == components.CellFire {
			return true
		}
	}
	return false
}
