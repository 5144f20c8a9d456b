package components

// Cell values for the integer grids (obstacle, exits-only, pedestrian
// position, fire). EMPTY must be the zero value: the pedestrian-position
// grid relies on 0 meaning "no pedestrian here" (spec.md §9, "Pedestrian
// identity").
const (
	CellEmpty       = 0
	CellImpassable  = -1
	CellExit        = -2
	CellBlockedExit = -3
	CellFire        = -4
)

// Risky-cell classification values (risky-cells grid).
const (
	RiskNone = iota
	RiskRisky
	RiskDanger
)

// Float-grid sentinels, distinct from any legal field value, so a single
// float grid can encode "obstacle"/"fire"/"blocked exit" alongside a real
// distance or probability (spec.md §3 invariant 4).
const (
	ImpassableValue  = -1.0
	FireValue        = -2.0
	BlockedExitValue = -3.0
	NoValue          = -4.0
)

// State is a pedestrian's lifecycle state (spec.md §3).
type State uint8

const (
	Moving State = iota
	Stopped
	Leaving
	GotOut
	Dead
)

func (s State) String() string {
	switch s {
	case Moving:
		return "MOVING"
	case Stopped:
		return "STOPPED"
	case Leaving:
		return "LEAVING"
	case GotOut:
		return "GOT_OUT"
	case Dead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}

// Active reports whether a pedestrian in this state still occupies a cell
// in the pedestrian-position grid (spec.md §3 invariant 2).
func (s State) Active() bool {
	return s == Moving || s == Stopped || s == Leaving
}
