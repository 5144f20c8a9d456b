package telemetry

import (
	"math"
	"testing"
)

func TestComputeSummaryBasic(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	s := ComputeSummary(values)
	if math.Abs(s.Mean-5.5) > 1e-9 {
		t.Fatalf("mean = %v, want 5.5", s.Mean)
	}
	if s.P50 < 5 || s.P50 > 6 {
		t.Fatalf("p50 = %v, want within [5,6]", s.P50)
	}
}

func TestComputeSummaryEmpty(t *testing.T) {
	s := ComputeSummary(nil)
	if s.Mean != 0 || s.StdDev != 0 || s.P10 != 0 || s.P50 != 0 || s.P90 != 0 {
		t.Fatalf("empty input should produce a zero Summary, got %+v", s)
	}
}

func TestMeanHeatmapDivides(t *testing.T) {
	accum := []float64{10, 20, 30, 40}
	mean := MeanHeatmap(accum, 10)
	want := []float64{1, 2, 3, 4}
	for i := range want {
		if math.Abs(mean[i]-want[i]) > 1e-9 {
			t.Fatalf("MeanHeatmap()[%d] = %v, want %v", i, mean[i], want[i])
		}
	}
}

func TestMeanHeatmapZeroSimulationsIsZero(t *testing.T) {
	accum := []float64{10, 20}
	mean := MeanHeatmap(accum, 0)
	if mean[0] != 0 || mean[1] != 0 {
		t.Fatalf("MeanHeatmap with zero simulations should return zeros, got %v", mean)
	}
}

func TestCollectorEmptyRoomEvacuationExample(t *testing.T) {
	// spec.md §8 scenario 1: 5x5 room, single pedestrian reaching a
	// single exit at (2,0) from (2,3) in 3 steps, visiting (2,3),
	// (2,2), (2,1), (2,0) once each.
	c := NewCollector(5, 5)
	heatmap := make([]float64, 25)
	for _, cell := range []int{2*5 + 3, 2*5 + 2, 2*5 + 1, 2*5 + 0} {
		heatmap[cell] = 1
	}
	c.RecordSimulation(3, heatmap)

	times := c.EvacuationTimes()
	if len(times) != 1 || times[0] != 3 {
		t.Fatalf("EvacuationTimes() = %v, want [3]", times)
	}

	mean := c.MeanHeatmap()
	for _, cell := range []int{2*5 + 3, 2*5 + 2, 2*5 + 1, 2*5 + 0} {
		if math.Abs(mean[cell]-1) > 1e-9 {
			t.Fatalf("MeanHeatmap()[%d] = %v, want 1", cell, mean[cell])
		}
	}
}

func TestCollectorRecordInaccessiblePlaceholder(t *testing.T) {
	c := NewCollector(3, 3)
	c.RecordInaccessible()
	times := c.EvacuationTimes()
	if len(times) != 1 || times[0] != -1 {
		t.Fatalf("EvacuationTimes() = %v, want [-1] (spec.md §6 placeholder)", times)
	}
}
