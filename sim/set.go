package sim

import (
	"fmt"
	"io"

	"github.com/danielgoncalves/evacsim/components"
	"github.com/danielgoncalves/evacsim/config"
	"github.com/danielgoncalves/evacsim/engine"
	"github.com/danielgoncalves/evacsim/telemetry"
)

// SetInput is one simulation set's static layout: the obstacle grid,
// the exit locations to register, the pedestrians to place statically
// (empty if the set uses density-driven random placement), and any
// initial fire cells (spec.md §4.9 step 3 "per simulation set").
type SetInput struct {
	Obstacles         *engine.IntGrid
	Exits             [][]components.Location // one slice of cells per exit
	StaticPedestrians []components.Location
	InitialFireCells  []components.Location
	EmptyCells        int

	// VisualisationWriter, when non-nil, receives one frame per step of
	// every simulation run in this set (spec.md §6 "Visualisation").
	VisualisationWriter io.Writer
	// SetIndex labels the simulations' visualisation frames so a reader
	// can tell which set they belong to.
	SetIndex int
}

// PointResult is one sweep point's accumulated results: the swept
// value and a collector holding every simulation run at that value.
type PointResult struct {
	SweepValue float64
	Collector  *telemetry.Collector
}

// RunSet runs every sweep point of one simulation set: builds the exit
// set, skips (recording a placeholder at every point) if inaccessible,
// otherwise allocates grids once and runs num_simulations simulations
// per sweep point, one telemetry.Collector per point (spec.md §4.9
// steps 3-4, §6 "one line per sweep point").
func RunSet(input SetInput, cfg *config.Config) ([]PointResult, error) {
	exitSet := engine.NewExitSet()
	for _, cells := range input.Exits {
		e := exitSet.Add(cells[0])
		for _, c := range cells[1:] {
			e.Expand(c)
		}
	}

	rows, cols := input.Obstacles.Rows, input.Obstacles.Cols
	points := cfg.Sweep.Points(sweepBaseValue(cfg))

	exitsOnly := engine.NewIntGrid(rows, cols, components.CellEmpty)
	exitSet.MarkOnGrid(exitsOnly)
	if !exitSet.AllAccessible(input.Obstacles, exitsOnly) {
		Logf("simulation set: %v, skipping", engine.ErrInaccessibleExit)
		results := make([]PointResult, len(points))
		for i, point := range points {
			c := telemetry.NewCollector(rows, cols)
			for j := 0; j < cfg.NumSimulations; j++ {
				c.RecordInaccessible()
			}
			results[i] = PointResult{SweepValue: point, Collector: c}
		}
		return results, nil
	}

	simulation := NewSimulation(input.Obstacles, exitSet, input.InitialFireCells, cfg)
	simulation.FrameWriter = input.VisualisationWriter

	numPedestrians := cfg.TotalPedestrians
	if numPedestrians <= 0 && input.EmptyCells > 0 {
		numPedestrians = int(cfg.Density * float64(input.EmptyCells))
		if numPedestrians < 1 {
			numPedestrians = 1
		}
	}

	results := make([]PointResult, len(points))
	for i, point := range points {
		runCfg := *cfg
		applySweepValue(&runCfg, point)
		simulation.numerics = runCfg.Numerics
		simulation.flags = runCfg.Flags

		pedCount := numPedestrians
		if cfg.Sweep.Variable == config.SweepDensity && input.EmptyCells > 0 {
			pedCount = int(point * float64(input.EmptyCells))
			if pedCount < 1 {
				pedCount = 1
			}
		}

		collector := telemetry.NewCollector(rows, cols)
		for j := 0; j < cfg.NumSimulations; j++ {
			seed := cfg.Seed + int64(j)
			simulation.SimIndex = input.SetIndex*cfg.NumSimulations*len(points) + i*cfg.NumSimulations + j
			result, err := simulation.Run(seed, input.StaticPedestrians, pedCount)
			if err != nil {
				return nil, fmt.Errorf("simulation set: run %d at sweep point %v: %w", j, point, err)
			}
			if result.EvacuationTime < 0 {
				collector.RecordInaccessible()
				continue
			}
			collector.RecordSimulation(result.EvacuationTime, result.Heatmap)
		}
		results[i] = PointResult{SweepValue: point, Collector: collector}
	}

	return results, nil
}

// sweepBaseValue returns the configured base value of whichever field
// cfg.Sweep.Variable names, used as Points' fallback when no sweep is
// active.
func sweepBaseValue(cfg *config.Config) float64 {
	switch cfg.Sweep.Variable {
	case config.SweepKs:
		return cfg.Numerics.Ks
	case config.SweepKd:
		return cfg.Numerics.Kd
	case config.SweepKf:
		return cfg.Numerics.Kf
	case config.SweepAlpha:
		return cfg.Numerics.Alpha
	case config.SweepDelta:
		return cfg.Numerics.Delta
	case config.SweepOmega:
		return cfg.Numerics.Omega
	case config.SweepMu:
		return cfg.Numerics.Mu
	case config.SweepRiskDistance:
		return cfg.Numerics.RiskDistance
	case config.SweepDensity:
		return cfg.Density
	default:
		return 0
	}
}

// applySweepValue writes point into whichever numeric field
// cfg.Sweep.Variable names (spec.md §4.9 "iterate the sweep variable").
func applySweepValue(cfg *config.Config, point float64) {
	switch cfg.Sweep.Variable {
	case config.SweepKs:
		cfg.Numerics.Ks = point
	case config.SweepKd:
		cfg.Numerics.Kd = point
	case config.SweepKf:
		cfg.Numerics.Kf = point
	case config.SweepAlpha:
		cfg.Numerics.Alpha = point
	case config.SweepDelta:
		cfg.Numerics.Delta = point
	case config.SweepOmega:
		cfg.Numerics.Omega = point
	case config.SweepMu:
		cfg.Numerics.Mu = point
	case config.SweepRiskDistance:
		cfg.Numerics.RiskDistance = point
	case config.SweepDensity:
		cfg.Density = point
	}
}
