package main

import (
	"strings"
	"testing"

	"github.com/odavlstudio/odavl/internal/corpus"
)

func TestRenderList(t *testing.T) {
	fixtures := []*corpus.Fixture{
		{
			Name: "sample",
			Manifest: &corpus.Manifest{
				Description: "slice walker with declared defects",
				Defects: []corpus.Defect{
					{Kind: corpus.DefectOutOfBounds},
					{Kind: corpus.DefectExplicitPanic},
					{Kind: corpus.DefectOutOfBounds},
				},
				Cases: []corpus.Case{{Name: "strict"}, {Name: "helper"}},
			},
		},
		{
			Name:     "plain",
			Manifest: &corpus.Manifest{Cases: []corpus.Case{{Name: "default"}}},
		},
	}

	out := renderList(fixtures)

	for _, want := range []string{
		"sample",
		"2 case(s)",
		"out-of-bounds, explicit-panic",
		"slice walker with declared defects",
		"plain",
		"none",
		"2 fixture(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("renderList() missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderListEmpty(t *testing.T) {
	if got := renderList(nil); got != "No fixtures found.\n" {
		t.Errorf("renderList(nil) = %q", got)
	}
}

func TestListViews(t *testing.T) {
	fixtures := []*corpus.Fixture{
		{
			Name: "race-counter",
			Manifest: &corpus.Manifest{
				Description: "unsynchronized counter",
				Defects:     []corpus.Defect{{Kind: corpus.DefectDataRace}},
				Cases:       []corpus.Case{{Name: "plain"}, {Name: "race", Race: true}},
			},
		},
		{
			Name:     "plain",
			Manifest: &corpus.Manifest{Cases: []corpus.Case{{Name: "default"}}},
		},
	}

	views := listViews(fixtures)
	if len(views) != 2 {
		t.Fatalf("listViews() returned %d views, want 2", len(views))
	}

	rc := views[0]
	if rc.Name != "race-counter" || !rc.Race {
		t.Errorf("race-counter view = %+v, want race mode flagged", rc)
	}
	if len(rc.Cases) != 2 || rc.Cases[0] != "plain" || rc.Cases[1] != "race" {
		t.Errorf("race-counter cases = %v", rc.Cases)
	}
	if len(rc.Defects) != 1 || rc.Defects[0] != "data-race" {
		t.Errorf("race-counter defects = %v", rc.Defects)
	}

	if views[1].Race || len(views[1].Defects) != 0 {
		t.Errorf("plain view = %+v, want no race flag and no defects", views[1])
	}
}
