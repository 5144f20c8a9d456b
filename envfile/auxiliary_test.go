package envfile

import (
	"testing"

	"github.com/danielgoncalves/evacsim/components"
)

func TestLoadAuxiliaryExampleLine(t *testing.T) {
	path := writeTemp(t, "aux.txt", "3 0+4 0,10 7.\n")

	sets, err := LoadAuxiliary(path)
	if err != nil {
		t.Fatalf("LoadAuxiliary() error: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("len(sets) = %d, want 1", len(sets))
	}
	set := sets[0]
	if len(set.Exits) != 2 {
		t.Fatalf("len(set.Exits) = %d, want 2", len(set.Exits))
	}
	want0 := []components.Location{{Row: 3, Col: 0}, {Row: 4, Col: 0}}
	if len(set.Exits[0]) != 2 || set.Exits[0][0] != want0[0] || set.Exits[0][1] != want0[1] {
		t.Fatalf("set.Exits[0] = %v, want %v", set.Exits[0], want0)
	}
	want1 := components.Location{Row: 10, Col: 7}
	if len(set.Exits[1]) != 1 || set.Exits[1][0] != want1 {
		t.Fatalf("set.Exits[1] = %v, want [%v]", set.Exits[1], want1)
	}
}

func TestLoadAuxiliaryMultipleSetsAndBlankLines(t *testing.T) {
	path := writeTemp(t, "aux.txt", "0 0.\n\n1 1.\n")

	sets, err := LoadAuxiliary(path)
	if err != nil {
		t.Fatalf("LoadAuxiliary() error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("len(sets) = %d, want 2 (blank lines skipped)", len(sets))
	}
}

func TestLoadAuxiliaryMissingTerminatorError(t *testing.T) {
	path := writeTemp(t, "aux.txt", "0 0\n")

	if _, err := LoadAuxiliary(path); err == nil {
		t.Fatalf("expected an error for a missing terminator")
	}
}

func TestLoadAuxiliaryBadPairError(t *testing.T) {
	path := writeTemp(t, "aux.txt", "abc.\n")

	if _, err := LoadAuxiliary(path); err == nil {
		t.Fatalf("expected an error for a malformed pair")
	}
}
