package telemetry

// Collector accumulates the per-simulation results of one simulation
// set (spec.md §4.9: a set runs num_simulations repetitions at a fixed
// sweep-point value) into the evacuation-time and heatmap output
// streams of spec.md §6.
type Collector struct {
	rows, cols int

	evacuationTimes []int // one entry per simulation, -1 if exits were never accessible
	heatmapAccum    []float64
	simulations     int
}

// NewCollector creates a collector for a grid of the given dimensions.
func NewCollector(rows, cols int) *Collector {
	return &Collector{
		rows:         rows,
		cols:         cols,
		heatmapAccum: make([]float64, rows*cols),
	}
}

// RecordInaccessible records a simulation whose exit set was never
// accessible, per spec.md §6's placeholder -1 convention.
func (c *Collector) RecordInaccessible() {
	c.evacuationTimes = append(c.evacuationTimes, -1)
	c.simulations++
}

// RecordSimulation records one completed simulation's evacuation time
// (in steps) and folds its per-cell visit counts into the set's
// running heatmap accumulator.
func (c *Collector) RecordSimulation(evacuationTime int, heatmap []float64) {
	c.evacuationTimes = append(c.evacuationTimes, evacuationTime)
	c.simulations++
	for i, v := range heatmap {
		c.heatmapAccum[i] += v
	}
}

// EvacuationTimes returns the set's recorded evacuation times in
// recording order, as spec.md §6 emits them: "one integer per
// simulation, separated by spaces".
func (c *Collector) EvacuationTimes() []int {
	return c.evacuationTimes
}

// MeanHeatmap returns mean_visits = heatmap[i][j] / num_simulations
// (spec.md §6), row-major over the collector's grid dimensions.
func (c *Collector) MeanHeatmap() []float64 {
	return MeanHeatmap(c.heatmapAccum, c.simulations)
}

// Summary computes mean/stddev/percentile statistics over the
// simulations that did reach an accessible exit (excludes -1
// placeholders).
func (c *Collector) Summary() Summary {
	values := make([]float64, 0, len(c.evacuationTimes))
	for _, t := range c.evacuationTimes {
		if t >= 0 {
			values = append(values, float64(t))
		}
	}
	return ComputeSummary(values)
}

// Dimensions returns the grid shape the heatmap is accumulated over.
func (c *Collector) Dimensions() (rows, cols int) {
	return c.rows, c.cols
}
