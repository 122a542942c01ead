package theme

import (
	"reflect"
	"testing"
)

func TestLookup(t *testing.T) {
	if got := Lookup("nautical").Name; got != "nautical" {
		t.Errorf("Lookup(nautical).Name = %q", got)
	}
	if got := Lookup("NAUTICAL").Name; got != "nautical" {
		t.Errorf("Lookup is not case-insensitive: %q", got)
	}
	if got := Lookup("no-such-theme").Name; got != "software" {
		t.Errorf("unknown theme should fall back to software, got %q", got)
	}
}

func TestNames(t *testing.T) {
	want := []string{"nautical", "software", "spec"}
	if got := Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestSoftwareTheme_WIPLimits(t *testing.T) {
	limits := map[string]int{}
	for _, col := range Lookup("software").Columns {
		limits[col.ID] = col.WIPLimit
	}
	want := map[string]int{"backlog": 0, "ready": 5, "in_progress": 3, "review": 2, "done": 0}
	if !reflect.DeepEqual(limits, want) {
		t.Errorf("WIP limits = %v, want %v", limits, want)
	}
}

func TestCanonicalStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"backlog", "backlog", true},
		{"In-Progress", "in_progress", true},
		{"IN PROGRESS", "in_progress", true},
		{"  done  ", "done", true},
		{"underway", "in_progress", true},
		{"harbor", "backlog", true},
		{"arrived", "done", true},
		{"accepted", "done", true},
		{"completed", "done", true},
		{"shipped", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := CanonicalStatus(tc.raw)
		if got != tc.want || ok != tc.ok {
			t.Errorf("CanonicalStatus(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPrefix(t *testing.T) {
	software := Lookup("software")
	if got := software.Prefix("feature"); got != "FEAT" {
		t.Errorf("Prefix(feature) = %q", got)
	}
	if got := software.Prefix("BUG"); got != "BUG" {
		t.Errorf("Prefix should be case-insensitive on type, got %q", got)
	}

	nautical := Lookup("nautical")
	if got := nautical.Prefix("expedition"); got != "EXP" {
		t.Errorf("Prefix(expedition) = %q", got)
	}

	// Unknown types derive a prefix from the first four letters.
	if got := software.Prefix("research"); got != "RESE" {
		t.Errorf("Prefix(research) = %q, want RESE", got)
	}
	if got := software.Prefix(""); got != "ITEM" {
		t.Errorf("Prefix(\"\") = %q, want ITEM", got)
	}
}

func TestKnownType(t *testing.T) {
	nautical := Lookup("nautical")
	if !nautical.KnownType("voyage") {
		t.Error("voyage should be a nautical type")
	}
	if nautical.KnownType("feature") {
		t.Error("feature is not a nautical type")
	}
}

func TestBoardName(t *testing.T) {
	if got := Lookup("nautical").BoardName(); got != "Nautical Board" {
		t.Errorf("BoardName() = %q", got)
	}
}
