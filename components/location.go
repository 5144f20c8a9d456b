// Package components defines the plain data records shared by the engine,
// the simulation driver, and the external file/render shells: grid
// locations, cell sentinels, and the pedestrian record.
package components

// Location is a (row, col) grid coordinate. Row is the vertical/y axis,
// col is the horizontal/x axis.
type Location struct {
	Row, Col int
}

// Add returns the location offset by (dr, dc).
func (l Location) Add(dr, dc int) Location {
	return Location{Row: l.Row + dr, Col: l.Col + dc}
}

// Sub returns the component-wise difference l - o.
func (l Location) Sub(o Location) Location {
	return Location{Row: l.Row - o.Row, Col: l.Col - o.Col}
}

// Equal reports whether l and o refer to the same cell.
func (l Location) Equal(o Location) bool {
	return l.Row == o.Row && l.Col == o.Col
}

// IsOrthogonalUnit reports whether l is one of the four von-Neumann unit
// offsets (0,-1) (0,1) (-1,0) (1,0).
func (l Location) IsOrthogonalUnit() bool {
	if l.Row == 0 && (l.Col == 1 || l.Col == -1) {
		return true
	}
	if l.Col == 0 && (l.Row == 1 || l.Row == -1) {
		return true
	}
	return false
}
