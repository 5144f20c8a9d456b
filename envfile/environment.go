// Package envfile parses the environment and auxiliary text file
// formats of spec.md §6 "External interfaces" into engine grids and
// exit-set specifications.
package envfile

import (
	"bufio"
	"fmt"
	"os"

	"github.com/danielgoncalves/evacsim/components"
	"github.com/danielgoncalves/evacsim/engine"
)

// Environment is a parsed environment file: the obstacle grid, the
// exits-only grid (populated only when the origin uses static exits),
// and the locations seeded with a static pedestrian glyph.
type Environment struct {
	Rows, Cols  int
	Obstacles   *engine.IntGrid
	ExitsOnly   *engine.IntGrid
	Pedestrians []components.Location
	FireCells   []components.Location
	EmptyCells  int
}

// LoadEnvironment parses the environment file at path (spec.md §6
// "Environment file"): a `rows cols` header followed by exactly rows
// lines of cols glyphs from {#, _, ., p, P}, plus `f`/`F` for an
// initial fire cell -- spec.md §4.5 says initial fire cells "are
// seeded from the environment" but the glyph alphabet of §6 predates
// fire support; this extends that alphabet rather than inventing a
// separate file (see DESIGN.md).
//
// staticExits selects whether '_' is read as an exit cell (true) or
// as a wall (false), matching config.EnvironmentOrigin's distinction
// between static and auxiliary-sourced exits.
func LoadEnvironment(path string, staticExits bool) (*Environment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening environment file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	if !scanner.Scan() {
		return nil, fmt.Errorf("malformed environment: missing dimension line")
	}
	var rows, cols int
	if _, err := fmt.Sscanf(scanner.Text(), "%d %d", &rows, &cols); err != nil {
		return nil, fmt.Errorf("malformed environment: bad dimension line %q: %w", scanner.Text(), err)
	}
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("malformed environment: non-positive dimensions %d x %d", rows, cols)
	}

	env := &Environment{
		Rows:      rows,
		Cols:      cols,
		Obstacles: engine.NewIntGrid(rows, cols, components.CellEmpty),
		ExitsOnly: engine.NewIntGrid(rows, cols, components.CellEmpty),
	}

	for r := 0; r < rows; r++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("malformed environment: expected %d rows, got %d", rows, r)
		}
		line := scanner.Text()
		if len(line) != cols {
			return nil, fmt.Errorf("malformed environment: row %d has %d columns, want %d", r, len(line), cols)
		}
		for c := 0; c < cols; c++ {
			loc := components.Location{Row: r, Col: c}
			switch line[c] {
			case '#':
				env.Obstacles.Set(loc, components.CellImpassable)
			case '_':
				if staticExits {
					env.ExitsOnly.Set(loc, components.CellExit)
				} else {
					env.Obstacles.Set(loc, components.CellImpassable)
				}
			case '.':
				env.EmptyCells++
			case 'p', 'P':
				env.EmptyCells++
				env.Pedestrians = append(env.Pedestrians, loc)
			case 'f', 'F':
				env.EmptyCells++
				env.FireCells = append(env.FireCells, loc)
			default:
				return nil, fmt.Errorf("malformed environment: unknown glyph %q at row %d col %d", line[c], r, c)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading environment file: %w", err)
	}

	return env, nil
}
