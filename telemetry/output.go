package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/danielgoncalves/evacsim/config"
)

// evacuationTimeRow is one CSV row of the evacuation-time stream:
// the sweep-point value and the recorded times for that set's
// simulations (spec.md §6 "Evacuation time").
type evacuationTimeRow struct {
	SweepValue float64 `csv:"sweep_value"`
	Times      string  `csv:"times"` // space-separated, placeholder -1 per spec.md §6
}

// heatmapRow is one CSV row of the heatmap stream: a single cell's
// mean visit count for one simulation set.
type heatmapRow struct {
	SweepValue float64 `csv:"sweep_value"`
	Row        int     `csv:"row"`
	Col        int     `csv:"col"`
	MeanVisits float64 `csv:"mean_visits"`
}

// EvacuationWriter writes the evacuation-time output stream of
// spec.md §6. A ".csv" path writes CSV rows (gocsv-backed, like
// pthm-soup/telemetry/output.go); any other extension writes the
// plain space-separated text format spec.md names directly.
type EvacuationWriter struct {
	file          *os.File
	headerWritten bool
	firstSet      bool
}

// NewEvacuationWriter creates the evacuation-time stream at path. An
// empty path disables output (returns nil, nil).
func NewEvacuationWriter(path string) (*EvacuationWriter, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating evacuation-time output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating evacuation-time output: %w", err)
	}
	return &EvacuationWriter{file: f, firstSet: true}, nil
}

// WriteSet appends one simulation set's evacuation times: one line
// per sweep point, separated by spaces, with two blank lines between
// sets in the plain text format (spec.md §6).
func (w *EvacuationWriter) WriteSet(sweepValue float64, times []int) error {
	if w == nil {
		return nil
	}
	if strings.EqualFold(filepath.Ext(w.file.Name()), ".csv") {
		return w.writeCSVRow(sweepValue, times)
	}
	return w.writePlainTextLine(times)
}

func (w *EvacuationWriter) writeCSVRow(sweepValue float64, times []int) error {
	records := []evacuationTimeRow{{SweepValue: sweepValue, Times: joinTimes(times)}}
	if !w.headerWritten {
		if err := gocsv.Marshal(records, w.file); err != nil {
			return fmt.Errorf("writing evacuation-time row: %w", err)
		}
		w.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, w.file); err != nil {
		return fmt.Errorf("writing evacuation-time row: %w", err)
	}
	return nil
}

func (w *EvacuationWriter) writePlainTextLine(times []int) error {
	if !w.firstSet {
		if _, err := io.WriteString(w.file, "\n\n"); err != nil {
			return err
		}
	}
	w.firstSet = false
	_, err := io.WriteString(w.file, joinTimes(times)+"\n")
	return err
}

func joinTimes(times []int) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, " ")
}

// Close flushes and closes the underlying file.
func (w *EvacuationWriter) Close() error {
	if w == nil {
		return nil
	}
	return w.file.Close()
}

// HeatmapWriter writes the per-simulation-set heatmap stream of
// spec.md §6: mean_visits = heatmap[i][j] / num_simulations,
// formatted %.2f, either as CSV rows or as a plain text matrix.
type HeatmapWriter struct {
	file          *os.File
	headerWritten bool
}

// NewHeatmapWriter creates the heatmap output stream at path. An
// empty path disables output (returns nil, nil).
func NewHeatmapWriter(path string) (*HeatmapWriter, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating heatmap output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating heatmap output: %w", err)
	}
	return &HeatmapWriter{file: f}, nil
}

// WriteSet appends one simulation set's mean-visit matrix, row-major
// over rows*cols, formatted %.2f per cell (spec.md §6 "Heatmap").
func (w *HeatmapWriter) WriteSet(sweepValue float64, rows, cols int, meanVisits []float64) error {
	if w == nil {
		return nil
	}

	if strings.EqualFold(filepath.Ext(w.file.Name()), ".csv") {
		records := make([]heatmapRow, 0, rows*cols)
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				records = append(records, heatmapRow{
					SweepValue: sweepValue,
					Row:        r,
					Col:        c,
					MeanVisits: meanVisits[r*cols+c],
				})
			}
		}
		if !w.headerWritten {
			if err := gocsv.Marshal(records, w.file); err != nil {
				return fmt.Errorf("writing heatmap rows: %w", err)
			}
			w.headerWritten = true
			return nil
		}
		return gocsv.MarshalWithoutHeaders(records, w.file)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# sweep_value=%v\n", sweepValue)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%.2f", meanVisits[r*cols+c])
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w.file, b.String())
	return err
}

// Close flushes and closes the underlying file.
func (w *HeatmapWriter) Close() error {
	if w == nil {
		return nil
	}
	return w.file.Close()
}

// WriteConfig saves the run's effective configuration as YAML next to
// its output, mirroring pthm-soup/telemetry/output.go's WriteConfig.
func WriteConfig(cfg *config.Config, dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return cfg.WriteYAML(filepath.Join(dir, "config.yaml"))
}
