package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danielgoncalves/evacsim/components"
	"github.com/danielgoncalves/evacsim/config"
	"github.com/danielgoncalves/evacsim/engine"
)

// buildCorridor builds a rows x cols box with impassable walls on every
// border and a single exit cell in the middle of the right wall.
func buildCorridor(rows, cols int) (*engine.IntGrid, components.Location) {
	obstacles := engine.NewIntGrid(rows, cols, components.CellEmpty)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r == 0 || r == rows-1 || c == 0 || c == cols-1 {
				obstacles.Set(components.Location{Row: r, Col: c}, components.CellImpassable)
			}
		}
	}
	exit := components.Location{Row: rows / 2, Col: cols - 1}
	obstacles.Set(exit, components.CellEmpty)
	return obstacles, exit
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load(\"\"): %v", err)
	}
	return cfg
}

func TestSimulationRunEvacuatesSinglePedestrian(t *testing.T) {
	obstacles, exit := buildCorridor(5, 6)
	exitSet := engine.NewExitSet()
	exitSet.Add(exit)

	cfg := testConfig(t)
	s := NewSimulation(obstacles, exitSet, nil, cfg)

	start := components.Location{Row: 2, Col: 1}
	result, err := s.Run(1, []components.Location{start}, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.EvacuationTime <= 0 {
		t.Fatalf("EvacuationTime = %d, want > 0 for a reachable exit", result.EvacuationTime)
	}
	if len(result.Heatmap) != 5*6 {
		t.Fatalf("Heatmap length = %d, want %d", len(result.Heatmap), 5*6)
	}
}

func TestSimulationRunInaccessibleExitReturnsNegativeOne(t *testing.T) {
	obstacles, exit := buildCorridor(5, 6)
	// Seal the exit off behind an interior wall so it can never be reached.
	obstacles.Set(components.Location{Row: 1, Col: 4}, components.CellImpassable)
	obstacles.Set(components.Location{Row: 2, Col: 4}, components.CellImpassable)
	obstacles.Set(components.Location{Row: 3, Col: 4}, components.CellImpassable)

	exitSet := engine.NewExitSet()
	exitSet.Add(exit)

	cfg := testConfig(t)
	s := NewSimulation(obstacles, exitSet, nil, cfg)

	start := components.Location{Row: 2, Col: 1}
	result, err := s.Run(1, []components.Location{start}, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.EvacuationTime != -1 {
		t.Fatalf("EvacuationTime = %d, want -1 for an inaccessible exit", result.EvacuationTime)
	}
}

func TestSimulationRunRandomPlacementOverSaturatedReturnsError(t *testing.T) {
	obstacles, exit := buildCorridor(4, 4)
	exitSet := engine.NewExitSet()
	exitSet.Add(exit)

	cfg := testConfig(t)
	s := NewSimulation(obstacles, exitSet, nil, cfg)

	// The interior is 2x2 (the exit sits on the border wall): only four
	// empty interior cells exist, so asking for far more pedestrians
	// than fit must surface ErrNoRoomForPedestrians.
	_, err := s.Run(1, nil, 1000)
	if err == nil {
		t.Fatal("Run: want error when density oversaturates the interior, got nil")
	}
}

func TestSimulationRunWritesVisualisationFrames(t *testing.T) {
	obstacles, exit := buildCorridor(5, 6)
	exitSet := engine.NewExitSet()
	exitSet.Add(exit)

	cfg := testConfig(t)
	s := NewSimulation(obstacles, exitSet, nil, cfg)

	var buf bytes.Buffer
	s.FrameWriter = &buf
	s.SimIndex = 3

	start := components.Location{Row: 2, Col: 1}
	if _, err := s.Run(1, []components.Location{start}, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}

	out := buf.String()
	if out == "" {
		t.Fatal("FrameWriter received no output")
	}
	if !strings.Contains(out, "3") {
		t.Fatalf("frame output does not reference SimIndex 3: %q", out)
	}
}

func TestSimulationRunDeterministicForFixedSeed(t *testing.T) {
	obstacles, exit := buildCorridor(6, 7)
	start := components.Location{Row: 3, Col: 1}

	run := func() Result {
		exitSet := engine.NewExitSet()
		exitSet.Add(exit)
		cfg := testConfig(t)
		s := NewSimulation(obstacles, exitSet, nil, cfg)
		result, err := s.Run(42, []components.Location{start}, 1)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result
	}

	a := run()
	b := run()
	if a.EvacuationTime != b.EvacuationTime {
		t.Fatalf("same seed produced different evacuation times: %d vs %d", a.EvacuationTime, b.EvacuationTime)
	}
}

func TestSimulationRunFireBlocksOnlyExitTerminates(t *testing.T) {
	// spec.md §8 Scenario 3: a 5x5 room, exit at (2,0), fire seeded at
	// (2,1) (the exit's only orthogonal interior neighbor) with a
	// spread_rate configured so the fire never spreads again, one
	// pedestrian at (2,3). The exit must be marked blocked_by_fire on the
	// first pre-step check, and the run must terminate rather than loop
	// forever chasing an exit that can never be reached.
	rows, cols := 5, 5
	obstacles := engine.NewIntGrid(rows, cols, components.CellEmpty)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if r == 0 || r == rows-1 || c == 0 || c == cols-1 {
				obstacles.Set(components.Location{Row: r, Col: c}, components.CellImpassable)
			}
		}
	}
	exit := components.Location{Row: 2, Col: 0}
	obstacles.Set(exit, components.CellEmpty)

	exitSet := engine.NewExitSet()
	exitSet.Add(exit)

	cfg := testConfig(t)
	cfg.Flags.FirePresent = true
	cfg.Numerics.SpreadRate = 1e-9 // effectively never, per the K = floor(cell_length/(spread_rate*dt)) formula

	fireCell := components.Location{Row: 2, Col: 1}
	s := NewSimulation(obstacles, exitSet, []components.Location{fireCell}, cfg)

	start := components.Location{Row: 2, Col: 3}
	result, err := s.Run(1, []components.Location{start}, 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !exitSet.Exits[0].BlockedByFire {
		t.Fatal("exit was not marked blocked_by_fire")
	}
	if result.EvacuationTime == -1 {
		t.Fatal("Run treated the exit as structurally inaccessible; it is reachable until fire blocks it")
	}

	p := s.pedestrians.ByID(1)
	if p == nil {
		t.Fatal("pedestrian 1 not found after Run")
	}
	if p.State != components.Stopped {
		t.Fatalf("trapped pedestrian state = %v, want Stopped", p.State)
	}
}

func TestScoreAndSelectBoxedInPedestrianTransitionsToStopped(t *testing.T) {
	obstacles, exit := buildCorridor(6, 7)
	pocket := components.Location{Row: 1, Col: 2}
	for _, wall := range []components.Location{{Row: 2, Col: 2}, {Row: 1, Col: 1}, {Row: 1, Col: 3}} {
		obstacles.Set(wall, components.CellImpassable)
	}

	exitSet := engine.NewExitSet()
	exitSet.Add(exit)

	cfg := testConfig(t)
	s := NewSimulation(obstacles, exitSet, nil, cfg)
	s.reset(1)

	if !s.exitSet.AllAccessible(s.obstacles, s.exitsOnly) {
		t.Fatal("exit unexpectedly inaccessible: pocket walls must not touch its only neighbor")
	}

	s.fire.ComputeDistanceToFire()
	s.fire.ClassifyRisky(s.obstacles, s.flags.FirePresent)
	s.fire.ComputeFloorField(s.obstacles, s.exitsOnly, s.flags.FirePresent, s.numerics.FireGamma)
	s.recomputeStatic()
	s.pedestrians.Spawn(pocket)
	s.pedestrians.RebuildPositionGrid(s.positions, s.heatmap)

	s.scoreAndSelect()

	p := s.pedestrians.ByID(1)
	if p == nil {
		t.Fatal("pedestrian 1 not found")
	}
	if p.State != components.Stopped {
		t.Fatalf("boxed-in pedestrian state = %v, want Stopped", p.State)
	}
	if !p.Target.Equal(pocket) {
		t.Fatalf("boxed-in pedestrian target = %v, want to stay at %v", p.Target, pocket)
	}
}

func TestSimulationSelfTraceSubtractionSkippedOnFirstStep(t *testing.T) {
	obstacles, exit := buildCorridor(5, 6)
	exitSet := engine.NewExitSet()
	exitSet.Add(exit)

	cfg := testConfig(t)
	cfg.Flags.SelfTraceSubtraction = true
	s := NewSimulation(obstacles, exitSet, nil, cfg)

	start := components.Location{Row: 2, Col: 1}
	if _, err := s.Run(1, []components.Location{start}, 1); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
