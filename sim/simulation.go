// Package sim implements the simulation driver of spec.md §4.9: the
// per-simulation inner loop, the per-set sweep over simulations, and
// the outer sweep/worker-pool driver.
package sim

import (
	"io"
	"math"

	"github.com/danielgoncalves/evacsim/components"
	"github.com/danielgoncalves/evacsim/config"
	"github.com/danielgoncalves/evacsim/engine"
	"github.com/danielgoncalves/evacsim/render"
)

// ErrNoRoomForPedestrians is returned by insertRandomPedestrians when a
// full wrap-around scan finds no empty cell left for a pedestrian
// (spec.md §7 "NoRoomForPedestrians").
var ErrNoRoomForPedestrians = engine.ErrNoRoomForPedestrians

// Simulation holds one simulation set's reusable grids and runs
// individual simulations over them (spec.md §5 "Resource policy": grids
// are sized once at simulation-set start and reused across the sweep and
// per-simulation iterations).
type Simulation struct {
	rows, cols int

	obstacles *engine.IntGrid
	exitSet   *engine.ExitSet
	exitsOnly *engine.IntGrid

	fire       *engine.FireField
	dynamic    *engine.DynamicField
	counts     *engine.IntGrid // particle counts, used only by the Kirchner-family kernels
	static     *engine.FloatGrid
	distToExit *engine.FloatGrid

	positions *engine.IntGrid
	heatmap   *engine.IntGrid
	scratch   *engine.IntGrid

	pedestrians *engine.PedestrianSet
	rng         *engine.RNG

	t         int
	hasSpread bool
	k         int

	numerics   config.Numerics
	flags      config.Flags
	staticForm config.StaticFieldForm
	kernel     config.DynamicKernel

	// FrameWriter, when non-nil, receives one visualisation frame
	// (spec.md §6 "Visualisation") after every committed step,
	// including the initial placement (timestep 0).
	FrameWriter io.Writer
	// SimIndex labels the frames written for this run, so a caller
	// running many simulations through the same Simulation can tell
	// their frames apart in one combined stream.
	SimIndex int
}

// NewSimulation allocates a simulation set's grids for the given
// obstacle layout and exit set, and derives the fire spread interval
// K = floor(cell_length / (spread_rate * timestep_duration)) (spec.md
// §4.5).
func NewSimulation(obstacles *engine.IntGrid, exitSet *engine.ExitSet, initialFireCells []components.Location, cfg *config.Config) *Simulation {
	rows, cols := obstacles.Rows, obstacles.Cols

	exitsOnly := engine.NewIntGrid(rows, cols, components.CellEmpty)
	exitSet.MarkOnGrid(exitsOnly)
	exitSet.BuildPrivateStructures(obstacles)

	k := int(math.Floor(cfg.Numerics.CellLength / (cfg.Numerics.SpreadRate * cfg.Numerics.TimestepDuration)))
	if k <= 0 {
		k = 1
	}

	return &Simulation{
		rows: rows, cols: cols,
		obstacles: obstacles,
		exitSet:   exitSet,
		exitsOnly: exitsOnly,

		fire:    engine.NewFireField(rows, cols, initialFireCells),
		dynamic: engine.NewDynamicField(rows, cols),
		counts:  engine.NewIntGrid(rows, cols, components.CellEmpty),
		static:  engine.NewFloatGrid(rows, cols, 0),

		distToExit: engine.NewFloatGrid(rows, cols, 0),

		positions: engine.NewIntGrid(rows, cols, components.CellEmpty),
		heatmap:   engine.NewIntGrid(rows, cols, components.CellEmpty),
		scratch:   engine.NewIntGrid(rows, cols, components.CellEmpty),

		pedestrians: engine.NewPedestrianSet(),
		rng:         engine.NewRNG(cfg.Seed),

		k:          k,
		numerics:   cfg.Numerics,
		flags:      cfg.Flags,
		staticForm: cfg.StaticField,
		kernel:     cfg.DynamicKernel,
	}
}

// Result is the outcome of one Run: the evacuation time in steps (-1 if
// the exit set was inaccessible) and the run's final heatmap.
type Result struct {
	EvacuationTime int
	Heatmap        []float64 // row-major, rows*cols
}

// Run executes one full simulation (spec.md §4.9 step 4): reseed, reset,
// seed pedestrians (staticPedestrians if non-empty, otherwise
// density-driven random placement), then loop until no pedestrian is
// still active.
func (s *Simulation) Run(seed int64, staticPedestrians []components.Location, numPedestrians int) (Result, error) {
	s.reset(seed)

	// Fire seeded in the environment is already present in s.fire.Grid
	// after reset, so exits it blocks must be marked before the first
	// accessibility check and static-field computation, not only on a
	// later spread (spec.md §8 Scenario 3: a never-spreading seeded fire
	// still blocks its adjacent exit from the first step).
	if s.flags.FirePresent && s.fire.HasFire() {
		s.exitSet.RefreshBlockedByFire(s.obstacles, s.exitsOnly, s.fire.Grid)
		s.exitSet.MarkOnGrid(s.exitsOnly)
	}

	if !s.exitSet.AllAccessible(s.obstacles, s.exitsOnly) {
		return Result{EvacuationTime: -1}, nil
	}

	s.fire.ComputeDistanceToFire()
	s.fire.ClassifyRisky(s.obstacles, s.flags.FirePresent)
	s.fire.ComputeFloorField(s.obstacles, s.exitsOnly, s.flags.FirePresent, s.numerics.FireGamma)
	s.recomputeStatic()

	if len(staticPedestrians) > 0 {
		for _, loc := range staticPedestrians {
			s.pedestrians.Spawn(loc)
		}
	} else if err := s.insertRandomPedestrians(numPedestrians); err != nil {
		return Result{}, err
	}
	s.pedestrians.RebuildPositionGrid(s.positions, s.heatmap)
	if err := s.writeFrame(); err != nil {
		return Result{}, err
	}

	// A fire-blocked exit set with no unblocked exit left admits no further
	// evacuation progress: every remaining pedestrian is permanently
	// trapped, so the run ends here rather than looping on Active() forever
	// (spec.md §8 Scenario 3 "the simulation must terminate").
	if s.noExitReachable() {
		s.pedestrians.StopAllLive()
		return Result{EvacuationTime: s.t, Heatmap: intGridToFloat64(s.heatmap)}, nil
	}

	for s.pedestrians.Active() {
		if s.hasSpread {
			s.exitSet.RefreshBlockedByFire(s.obstacles, s.exitsOnly, s.fire.Grid)
			s.exitSet.MarkOnGrid(s.exitsOnly)
			s.recomputeStatic()
			s.hasSpread = false

			if s.noExitReachable() {
				s.pedestrians.StopAllLive()
				break
			}
		}

		s.scoreAndSelect()
		engine.ResolveTargetConflicts(s.rng, s.pedestrians, s.scratch, s.numerics.Mu)
		if s.flags.EnableXConflicts && !s.flags.FirePresent {
			engine.ResolveCrossingConflicts(s.rng, s.pedestrians, s.positions)
		}
		s.commitMovement()
		s.pedestrians.RebuildPositionGrid(s.positions, s.heatmap)
		s.pedestrians.KillByFire(s.fire.Grid)
		s.pedestrians.ResetTransientState()

		s.t++
		if err := s.writeFrame(); err != nil {
			return Result{}, err
		}
		s.stepDynamicField()

		if s.flags.FirePresent && s.t%s.k == 0 {
			if s.fire.Spread(s.obstacles) {
				s.fire.ComputeDistanceToFire()
				s.fire.ClassifyRisky(s.obstacles, s.flags.FirePresent)
				s.fire.ComputeFloorField(s.obstacles, s.exitsOnly, s.flags.FirePresent, s.numerics.FireGamma)
				s.hasSpread = true
			}
		}
	}

	return Result{EvacuationTime: s.t, Heatmap: intGridToFloat64(s.heatmap)}, nil
}

// reset restores per-simulation state: PRNG stream, dead count, dynamic
// field, fire grid, exit blocked flags, positions/heatmap, and the
// pedestrian set (spec.md §4.9 step 4 "Reset").
func (s *Simulation) reset(seed int64) {
	s.rng.Reseed(seed)
	s.dynamic.Reset()
	s.counts.Fill(components.CellEmpty)
	s.fire.Reset()
	s.exitSet.ResetBlocked()
	s.exitSet.MarkOnGrid(s.exitsOnly)
	s.positions.Fill(components.CellEmpty)
	s.heatmap.Fill(components.CellEmpty)
	s.pedestrians.Reset()
	s.t = 0
	s.hasSpread = false
}

// noExitReachable reports whether every exit in the set is currently
// blocked by fire, meaning no further evacuation is possible this
// simulation (spec.md §8 Scenario 3).
func (s *Simulation) noExitReachable() bool {
	return len(s.exitSet.Exits) > 0 && len(s.exitSet.UnblockedCells()) == 0
}

// recomputeStatic rebuilds the aggregate static field for the currently
// unblocked exits, in the form config.StaticFieldForm selects (spec.md
// §4.3). Varas is a per-exit flood-fill field; the aggregate used by the
// transition model takes the minimum cost over every unblocked exit, cell
// by cell.
func (s *Simulation) recomputeStatic() {
	unblocked := s.exitSet.UnblockedCells()

	switch s.staticForm {
	case config.FormVaras:
		const unassigned = math.MaxFloat64
		merged := engine.NewFloatGrid(s.rows, s.cols, unassigned)
		for _, e := range s.exitSet.Exits {
			if e.BlockedByFire {
				continue
			}
			weight := engine.ComputeVarasWeight(s.obstacles, e.Cells, s.numerics.DiagonalCost, s.flags.PreventCornerCrossing)
			for r := 0; r < s.rows; r++ {
				for c := 0; c < s.cols; c++ {
					loc := components.Location{Row: r, Col: c}
					v := weight.Get(loc)
					if v < 0 {
						continue // impassable sentinel
					}
					if v < merged.Get(loc) {
						merged.Set(loc, v)
					}
				}
			}
		}
		for r := 0; r < s.rows; r++ {
			for c := 0; c < s.cols; c++ {
				loc := components.Location{Row: r, Col: c}
				if merged.Get(loc) == unassigned {
					merged.Set(loc, 0)
				}
			}
		}
		s.static = merged
	case config.FormKirchner:
		s.static = engine.ComputeKirchnerStaticField(s.obstacles, s.exitsOnly, unblocked)
	default: // config.FormZheng
		s.static = engine.ComputeZhengStaticField(s.obstacles, s.exitsOnly, s.fire.Grid, unblocked)
	}

	s.distToExit = engine.ComputeDistanceToExit(s.obstacles, unblocked)
}

// insertRandomPedestrians places numPedestrians at random empty cells,
// scanning from a random interior draw and wrapping once around the
// interior region before failing (spec.md §7 "NoRoomForPedestrians",
// grounded on original_source/src/pedestrian.c's
// insert_pedestrians_at_random).
func (s *Simulation) insertRandomPedestrians(numPedestrians int) error {
	if numPedestrians <= 0 {
		numPedestrians = 1
	}
	for i := 0; i < numPedestrians; i++ {
		startRow := 1 + s.rng.Intn(max(s.rows-2, 1))
		startCol := 1 + s.rng.Intn(max(s.cols-2, 1))

		loc, ok := s.firstEmptyFrom(startRow, startCol)
		if !ok {
			return ErrNoRoomForPedestrians
		}
		s.pedestrians.Spawn(loc)
		s.positions.Set(loc, 1) // mark claimed during the placement scan; Run's RebuildPositionGrid call fixes real ids up after
	}
	return nil
}

func (s *Simulation) firstEmptyFrom(startRow, startCol int) (components.Location, bool) {
	row, col := startRow, startCol
	wrapped := false
	for {
		for ; row <= s.rows-2; row++ {
			for ; col <= s.cols-2; col++ {
				loc := components.Location{Row: row, Col: col}
				if s.isCellEmpty(loc) {
					return loc, true
				}
			}
			col = 1
		}
		if wrapped {
			return components.Location{}, false
		}
		row, col = 1, 1
		wrapped = true
	}
}

// isCellEmpty reports whether loc is eligible for random pedestrian
// placement: passable, not an exit cell, and not already occupied
// (grounded on original_source/src/pedestrian.c's is_cell_empty, which
// checks exactly these three conditions).
func (s *Simulation) isCellEmpty(loc components.Location) bool {
	if s.obstacles.Get(loc) == components.CellImpassable {
		return false
	}
	if s.exitsOnly.Get(loc) == components.CellExit || s.exitsOnly.Get(loc) == components.CellBlockedExit {
		return false
	}
	return s.positions.Get(loc) == components.CellEmpty
}

// scoreAndSelect runs the transition-probability model for every Moving
// pedestrian, including the line-of-sight aux_static fallback of spec.md
// §4.6.
func (s *Simulation) scoreAndSelect() {
	unblocked := s.exitSet.UnblockedCells()
	fields := &engine.FieldSet{
		Obstacles:      s.obstacles,
		ExitsOnly:      s.exitsOnly,
		Positions:      s.positions,
		Fire:           s.fire.Grid,
		Risky:          s.fire.Risky,
		Static:         s.static,
		Dynamic:        s.dynamic.Phi,
		FireField:      s.fire.FloorField,
		DistanceToExit: s.distToExit,
		Ks:             s.numerics.Ks,
		Kd:             s.numerics.Kd,
		Kf:             s.numerics.Kf,
		FireAlpha:      s.numerics.FireAlpha,
		RiskDistance:   s.numerics.RiskDistance,
		Omega:          s.numerics.Omega,
	}

	s.pedestrians.EachOrdered(func(p *components.Pedestrian) {
		if p.State != components.Moving {
			return
		}

		var auxStatic *engine.FloatGrid
		visible, anyBlocked := engine.VisibleExitCells(s.fire.Grid, p.Current, unblocked)
		if anyBlocked {
			auxStatic = engine.ComputeZhengStaticField(s.obstacles, s.exitsOnly, s.fire.Grid, visible)
		}

		if s.flags.SelfTraceSubtraction && p.Previous != p.Current {
			original := s.dynamic.Phi.Get(p.Previous)
			s.dynamic.Phi.Set(p.Previous, math.Max(0, original-1))
			engine.ScoreTransition(p, fields, auxStatic)
			s.dynamic.Phi.Set(p.Previous, original)
		} else {
			engine.ScoreTransition(p, fields, auxStatic)
		}

		// A pedestrian surrounded on every orthogonal side by a wall, fire,
		// danger cell, or another pedestrian has no nonzero entry anywhere
		// in its table except possibly its own (always-scoreable) cell: the
		// roulette would deterministically pick "stay" regardless, so it
		// transitions straight to Stopped instead of silently staying
		// Moving forever (spec.md §8 "A pedestrian surrounded on all eight
		// sides by walls or pedestrians transitions to STOPPED (targets
		// its own cell)").
		if neighborProbTotal(p) == 0 {
			p.State = components.Stopped
			p.Target = p.Current
			return
		}
		p.Target = engine.SelectTarget(s.rng, p)
	})
}

// neighborProbTotal sums a pedestrian's 3x3 transition-probability table
// over every cell except its own (the center entry, [1][1]).
func neighborProbTotal(p *components.Pedestrian) float64 {
	total := 0.0
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if i == 1 && j == 1 {
				continue
			}
			total += p.Prob[i][j]
		}
	}
	return total
}

// commitMovement applies spec.md §4.8's per-pedestrian state machine in
// id order.
func (s *Simulation) commitMovement() {
	s.pedestrians.EachOrdered(func(p *components.Pedestrian) {
		switch p.State {
		case components.Stopped, components.GotOut, components.Dead:
			return
		case components.Leaving:
			p.State = components.GotOut
			return
		}

		if !p.Current.Equal(p.Target) {
			s.depositParticle(p.Current)
		}
		p.Previous = p.Current
		p.Current = p.Target

		if s.exitsOnly.Get(p.Current) == components.CellExit {
			if s.flags.ImmediateExit {
				p.State = components.GotOut
			} else {
				p.State = components.Leaving
			}
		}
	})
}

// depositParticle records a departure at loc in whichever dynamic-field
// representation the configured kernel uses: the combined decay-diffusion
// field keeps a float density directly, while the Kirchner-family kernels
// operate on integer particle counts (spec.md §4.4).
func (s *Simulation) depositParticle(loc components.Location) {
	switch s.kernel {
	case config.KernelDecay, config.KernelSingleDiffusion, config.KernelMultipleDiffusion:
		s.counts.Set(loc, s.counts.Get(loc)+1)
	default:
		s.dynamic.AddParticle(loc)
	}
}

// stepDynamicField advances the dynamic field by one step using the
// configured kernel, syncing the Kirchner-family integer count grid back
// into the float field ScoreTransition reads from.
func (s *Simulation) stepDynamicField() {
	switch s.kernel {
	case config.KernelDecay:
		engine.KirchnerDecay(s.rng, s.counts, s.numerics.Delta)
		s.syncCountsToPhi()
	case config.KernelSingleDiffusion:
		engine.KirchnerSingleDiffusion(s.rng, s.counts, s.obstacles, true)
		s.syncCountsToPhi()
	case config.KernelMultipleDiffusion:
		engine.KirchnerMultipleDiffusion(s.rng, s.counts, s.obstacles, s.numerics.Delta)
		s.syncCountsToPhi()
	default:
		s.dynamic.Step(s.obstacles, s.fire.Grid, s.numerics.Alpha, s.numerics.Delta)
	}
}

func (s *Simulation) syncCountsToPhi() {
	for r := 0; r < s.rows; r++ {
		for c := 0; c < s.cols; c++ {
			loc := components.Location{Row: r, Col: c}
			s.dynamic.Phi.Set(loc, float64(s.counts.Get(loc)))
		}
	}
}

// writeFrame emits one visualisation frame if a FrameWriter is set
// (spec.md §6 "Visualisation").
func (s *Simulation) writeFrame() error {
	if s.FrameWriter == nil {
		return nil
	}
	snap := &render.Snapshot{
		Obstacles: s.obstacles,
		ExitsOnly: s.exitsOnly,
		Fire:      s.fire.Grid,
		Positions: s.positions,
		Dead:      s.deadLocations(),
	}
	return render.WriteFrame(s.FrameWriter, s.SimIndex, s.t, snap)
}

func (s *Simulation) deadLocations() []components.Location {
	var dead []components.Location
	s.pedestrians.Each(func(p *components.Pedestrian) {
		if p.State == components.Dead {
			dead = append(dead, p.Current)
		}
	})
	return dead
}

// DeadCount returns the number of pedestrians killed by fire in the most
// recent Run.
func (s *Simulation) DeadCount() int { return s.pedestrians.DeadCount() }

// Dimensions returns the simulation set's grid shape.
func (s *Simulation) Dimensions() (rows, cols int) { return s.rows, s.cols }

func intGridToFloat64(g *engine.IntGrid) []float64 {
	rows, cols := g.Rows, g.Cols
	out := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r*cols+c] = float64(g.Get(components.Location{Row: r, Col: c}))
		}
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
