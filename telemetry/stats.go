// Package telemetry writes the evacuation-time and heatmap output
// streams of spec.md §6 (the visualisation stream is written by the
// render package) and provides summary statistics
// (mean/stddev/percentile) over evacuation times.
package telemetry

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary holds mean/stddev/percentile statistics over a set of
// evacuation times (spec.md §6 "Output streams", one sweep point's
// worth of simulations).
type Summary struct {
	Mean   float64
	StdDev float64
	P10    float64
	P50    float64
	P90    float64
}

// ComputeSummary computes mean, sample (unbiased) stddev, and the 10/50/90th
// percentiles of values using gonum/stat, replacing hand-rolled
// accumulation loops.
func ComputeSummary(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	return Summary{
		Mean:   mean,
		StdDev: std,
		P10:    stat.Quantile(0.10, stat.Empirical, sorted, nil),
		P50:    stat.Quantile(0.50, stat.Empirical, sorted, nil),
		P90:    stat.Quantile(0.90, stat.Empirical, sorted, nil),
	}
}

// MeanHeatmap divides every cell of an accumulated visit-count grid by
// numSimulations, producing the mean_visits matrix of spec.md §6.
func MeanHeatmap(accum []float64, numSimulations int) []float64 {
	out := make([]float64, len(accum))
	if numSimulations <= 0 {
		return out
	}
	n := float64(numSimulations)
	for i, v := range accum {
		out[i] = v / n
	}
	return out
}
