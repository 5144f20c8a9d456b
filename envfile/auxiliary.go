package envfile

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/danielgoncalves/evacsim/components"
)

// ExitSetSpec is one parsed simulation set from the auxiliary file: a
// list of exits, each a list of contiguous door cells (spec.md §6
// "Auxiliary file").
type ExitSetSpec struct {
	Exits [][]components.Location
}

// LoadAuxiliary parses the auxiliary file at path: a sequence of
// simulation sets, one per non-empty line. Each set is a list of
// exits, an exit a list of `lin col` pairs joined by `+` (same exit)
// and exits separated by `,`, the whole line terminated by `.`.
// Example: "3 0+4 0,10 7." is a two-cell exit at (3,0)-(4,0) and a
// one-cell exit at (10,7).
func LoadAuxiliary(path string) ([]ExitSetSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening auxiliary file: %w", err)
	}
	defer f.Close()

	var sets []ExitSetSpec
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		spec, err := parseSetLine(line)
		if err != nil {
			return nil, fmt.Errorf("malformed auxiliary at line %d: %w", lineNum, err)
		}
		sets = append(sets, spec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading auxiliary file: %w", err)
	}
	return sets, nil
}

func parseSetLine(line string) (ExitSetSpec, error) {
	if !strings.HasSuffix(line, ".") {
		return ExitSetSpec{}, fmt.Errorf("missing terminating '.'")
	}
	body := strings.TrimSuffix(line, ".")
	if body == "" {
		return ExitSetSpec{}, fmt.Errorf("empty set before terminator")
	}

	var spec ExitSetSpec
	for _, exitField := range strings.Split(body, ",") {
		var cells []components.Location
		for _, pairField := range strings.Split(exitField, "+") {
			loc, err := parsePair(pairField)
			if err != nil {
				return ExitSetSpec{}, err
			}
			cells = append(cells, loc)
		}
		spec.Exits = append(spec.Exits, cells)
	}
	return spec, nil
}

func parsePair(field string) (components.Location, error) {
	fields := strings.Fields(strings.TrimSpace(field))
	if len(fields) != 2 {
		return components.Location{}, fmt.Errorf("expected 'lin col', got %q", field)
	}
	row, err := strconv.Atoi(fields[0])
	if err != nil {
		return components.Location{}, fmt.Errorf("bad row %q: %w", fields[0], err)
	}
	col, err := strconv.Atoi(fields[1])
	if err != nil {
		return components.Location{}, fmt.Errorf("bad col %q: %w", fields[1], err)
	}
	return components.Location{Row: row, Col: col}, nil
}
