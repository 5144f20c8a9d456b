package sim

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/danielgoncalves/evacsim/components"
	"github.com/danielgoncalves/evacsim/config"
	"github.com/danielgoncalves/evacsim/engine"
	"github.com/danielgoncalves/evacsim/envfile"
	"github.com/danielgoncalves/evacsim/telemetry"
)

// Driver orchestrates one full run (spec.md §4.9): load the
// environment and, for auxiliary-exit origins, every exit-set
// specification; run each simulation set (in parallel, bounded by a
// worker pool); and write the configured output stream.
type Driver struct {
	cfg *config.Config
	env *envfile.Environment
}

// NewDriver loads the environment named by cfg.Environment.Path and
// returns a Driver ready to run every simulation set it implies.
func NewDriver(cfg *config.Config) (*Driver, error) {
	staticExits := cfg.Environment.Origin != config.OriginAuxiliaryExits
	env, err := envfile.LoadEnvironment(cfg.Environment.Path, staticExits)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	return &Driver{cfg: cfg, env: env}, nil
}

// setSpec is one simulation set's exit placement, whichever origin it
// came from.
type setSpec struct {
	exits [][]components.Location
}

// Run executes every simulation set implied by the driver's
// configuration and writes the accumulated results to the configured
// output streams (spec.md §6).
func (d *Driver) Run() error {
	sets, err := d.resolveSets()
	if err != nil {
		return err
	}

	evacWriter, err := telemetry.NewEvacuationWriter(d.outputPathFor(config.OutputEvacuationTime))
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	defer evacWriter.Close()

	heatmapWriter, err := telemetry.NewHeatmapWriter(d.outputPathFor(config.OutputHeatmap))
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	defer heatmapWriter.Close()

	if err := telemetry.WriteConfig(d.cfg, filepath.Dir(d.cfg.Output.Path)); err != nil {
		return fmt.Errorf("driver: %w", err)
	}

	// Visualisation output is one frame stream per simulation set: a
	// single shared writer would interleave frames from sets running
	// concurrently on the worker pool.
	visBase := d.outputPathFor(config.OutputVisualisation)
	visFiles := make([]*os.File, len(sets))
	if visBase != "" {
		for i := range sets {
			f, err := os.Create(visualisationPathFor(visBase, i))
			if err != nil {
				return fmt.Errorf("driver: opening visualisation output: %w", err)
			}
			visFiles[i] = f
		}
		defer func() {
			for _, f := range visFiles {
				if f != nil {
					f.Close()
				}
			}
		}()
	}

	workers := d.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	tokens := make(chan struct{}, workers)

	allResults := make([][]PointResult, len(sets))
	errs := make([]error, len(sets))
	var wg sync.WaitGroup

	for i, set := range sets {
		wg.Add(1)
		tokens <- struct{}{}
		go func(i int, set setSpec) {
			defer wg.Done()
			defer func() { <-tokens }()

			Logf("simulation set %d/%d: starting", i+1, len(sets))
			input := SetInput{
				Obstacles:         d.env.Obstacles,
				Exits:             set.exits,
				StaticPedestrians: d.staticPedestriansFor(),
				InitialFireCells:  d.env.FireCells,
				EmptyCells:        d.env.EmptyCells,
				SetIndex:          i,
			}
			if visFiles[i] != nil {
				input.VisualisationWriter = visFiles[i]
			}
			results, err := RunSet(input, d.cfg)
			allResults[i] = results
			errs[i] = err
			Logf("simulation set %d/%d: done", i+1, len(sets))
		}(i, set)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("driver: simulation set %d: %w", i, err)
		}
	}

	for _, results := range allResults {
		for _, r := range results {
			rows, cols := r.Collector.Dimensions()
			if err := evacWriter.WriteSet(r.SweepValue, r.Collector.EvacuationTimes()); err != nil {
				return fmt.Errorf("driver: %w", err)
			}
			if err := heatmapWriter.WriteSet(r.SweepValue, rows, cols, r.Collector.MeanHeatmap()); err != nil {
				return fmt.Errorf("driver: %w", err)
			}
		}
	}

	return nil
}

// staticPedestriansFor returns the environment's seeded pedestrian
// locations, or nil when the origin calls for density-driven random
// placement.
func (d *Driver) staticPedestriansFor() []components.Location {
	if d.cfg.Environment.Origin == config.OriginStaticExitsStaticPedestrians {
		return d.env.Pedestrians
	}
	return nil
}

// resolveSets builds one setSpec per auxiliary-file exit-set
// specification, or a single setSpec from the environment's static
// exits otherwise (spec.md §4.9 step 3 "per simulation set").
func (d *Driver) resolveSets() ([]setSpec, error) {
	if d.cfg.Environment.Origin != config.OriginAuxiliaryExits {
		exits := staticExitCells(d.env.ExitsOnly)
		if len(exits) == 0 {
			return nil, fmt.Errorf("driver: environment has no exit cells")
		}
		return []setSpec{{exits: exits}}, nil
	}

	specs, err := envfile.LoadAuxiliary(d.cfg.Auxiliary.Path)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	sets := make([]setSpec, len(specs))
	for i, s := range specs {
		sets[i] = setSpec{exits: s.Exits}
	}
	return sets, nil
}

// staticExitCells groups an exits-only grid's marked cells into
// contiguous exits by 4-connectivity, one exit per connected component.
func staticExitCells(exitsOnly *engine.IntGrid) [][]components.Location {
	visited := engine.NewIntGrid(exitsOnly.Rows, exitsOnly.Cols, 0)
	var exits [][]components.Location

	for r := 0; r < exitsOnly.Rows; r++ {
		for c := 0; c < exitsOnly.Cols; c++ {
			start := components.Location{Row: r, Col: c}
			if exitsOnly.Get(start) != components.CellExit || visited.Get(start) == 1 {
				continue
			}

			var component []components.Location
			stack := []components.Location{start}
			visited.Set(start, 1)
			for len(stack) > 0 {
				loc := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				component = append(component, loc)

				for _, off := range [4]components.Location{{Row: -1}, {Row: 1}, {Col: -1}, {Col: 1}} {
					n := loc.Add(off.Row, off.Col)
					if !exitsOnly.InBounds(n) || visited.Get(n) == 1 || exitsOnly.Get(n) != components.CellExit {
						continue
					}
					visited.Set(n, 1)
					stack = append(stack, n)
				}
			}
			exits = append(exits, component)
		}
	}
	return exits
}

// visualisationPathFor derives the per-set visualisation file path from
// the configured base path, inserting the set index before the
// extension (e.g. "out.jsonl" -> "out.set0.jsonl").
func visualisationPathFor(base string, setIndex int) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s.set%d%s", stem, setIndex, ext)
}

// outputPathFor returns the configured output path if its format
// matches want, otherwise "" (disabling that stream).
func (d *Driver) outputPathFor(want config.OutputFormat) string {
	if d.cfg.Output.Format != want {
		return ""
	}
	return d.cfg.Output.Path
}
