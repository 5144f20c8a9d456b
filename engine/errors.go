package engine

import "errors"

// Sentinel errors for the engine-level error kinds of spec.md §7.
// ErrNoRoomForPedestrians is returned by random placement and ends the
// run; ErrInaccessibleExit is not returned by any function: sim.RunSet
// checks ExitSet.AllAccessible itself, records placeholders, and uses
// this error only as the text of its skip log line. The other kinds
// (AllocationFailure, FileIO, MalformedEnvironment, MalformedAuxiliary)
// have no sentinel: allocation failure is not modeled, and the envfile
// package reports file and format problems as plain formatted (or
// wrapped os) errors. NumericTolerance is not an error at all:
// Roulette's fallback-to-last-index behavior implements its policy
// silently.
var (
	// ErrInaccessibleExit indicates an exit has no orthogonal empty
	// neighbor to any of its cells (spec.md §4.2).
	ErrInaccessibleExit = errors.New("engine: exit is inaccessible")

	// ErrNoRoomForPedestrians indicates random pedestrian placement could
	// not find an empty cell after a full wrap-around scan (spec.md §7).
	ErrNoRoomForPedestrians = errors.New("engine: no room to place pedestrian")
)
