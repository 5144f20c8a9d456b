// Package render writes the textual visualisation stream of spec.md
// §6: a `Simulation N - timestep T` header followed by the grid in
// fixed-width glyphs.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/danielgoncalves/evacsim/components"
	"github.com/danielgoncalves/evacsim/engine"
)

const (
	glyphEmpty       = '.'
	glyphWall        = '#'
	glyphExit        = '_'
	glyphBlockedExit = 'x'
	glyphFire        = '*'
	glyphDead        = 'd'
)

// Snapshot is the minimal state WriteFrame needs to render one step:
// obstacles and exits don't change within a simulation, so callers may
// reuse the same Snapshot across steps and only refresh Positions/Fire.
type Snapshot struct {
	Obstacles *engine.IntGrid
	ExitsOnly *engine.IntGrid
	Fire      *engine.IntGrid
	Positions *engine.IntGrid
	Dead      []components.Location
}

// WriteFrame writes one visualisation frame: the `Simulation N -
// timestep T` header, then the grid glyphs, one row per line.
func WriteFrame(w io.Writer, simulation, timestep int, snap *Snapshot) error {
	if _, err := fmt.Fprintf(w, "Simulation %d - timestep %d\n", simulation, timestep); err != nil {
		return err
	}

	deadSet := make(map[components.Location]bool, len(snap.Dead))
	for _, d := range snap.Dead {
		deadSet[d] = true
	}

	rows, cols := snap.Obstacles.Rows, snap.Obstacles.Cols
	var b strings.Builder
	b.Grow(rows * (cols + 1))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			loc := components.Location{Row: r, Col: c}
			b.WriteByte(byte(glyphFor(snap, loc, deadSet)))
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func glyphFor(snap *Snapshot, loc components.Location, deadSet map[components.Location]bool) rune {
	switch {
	case deadSet[loc]:
		return glyphDead
	case snap.Fire != nil && snap.Fire.Get(loc) == components.CellFire:
		return glyphFire
	case snap.Positions != nil && snap.Positions.Get(loc) != components.CellEmpty:
		return 'p'
	case snap.ExitsOnly.Get(loc) == components.CellBlockedExit:
		return glyphBlockedExit
	case snap.ExitsOnly.Get(loc) == components.CellExit:
		return glyphExit
	case snap.Obstacles.Get(loc) == components.CellImpassable:
		return glyphWall
	default:
		return glyphEmpty
	}
}
