package engine

import (
	"math"

	"github.com/danielgoncalves/evacsim/components"
)

// euclideanDistance returns the straight-line distance between two
// locations.
func euclideanDistance(a, b components.Location) float64 {
	dr := float64(a.Row - b.Row)
	dc := float64(a.Col - b.Col)
	return math.Hypot(dr, dc)
}
