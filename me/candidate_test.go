package me

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/pictdec/config"
)

func TestBuildCandidatesOrderingMatchesSeedScenario(t *testing.T) {
	cfg := config.Default(testLogger{})
	list0 := []RefMV{
		{Idx: 0, Dist: 100, Alive: true},
		{Idx: 1, Dist: 105, Alive: true},
	}
	list1 := []RefMV{
		{Idx: 0, Dist: 101, Alive: true},
		{Idx: 1, Dist: 102, Alive: true},
		{Idx: 2, Dist: 103, Alive: true},
	}

	got := BuildCandidates(list0, list1, 50, &cfg)

	want := []Candidate{
		{Direction: UniL0, Ref0List: 0, Ref0Idx: 0},
		{Direction: UniL0, Ref0List: 0, Ref0Idx: 1},
		{Direction: UniL1, Ref1List: 1, Ref1Idx: 0},
		{Direction: UniL1, Ref1List: 1, Ref1Idx: 1},
		{Direction: UniL1, Ref1List: 1, Ref1Idx: 2},
		{Direction: Bi, Ref0List: 0, Ref0Idx: 0, Ref1List: 1, Ref1Idx: 0},
		{Direction: Bi, Ref0List: 0, Ref0Idx: 0, Ref1List: 1, Ref1Idx: 1},
		{Direction: Bi, Ref0List: 0, Ref0Idx: 0, Ref1List: 1, Ref1Idx: 2},
		{Direction: Bi, Ref0List: 0, Ref0Idx: 1, Ref1List: 1, Ref1Idx: 0},
		{Direction: Bi, Ref0List: 0, Ref0Idx: 1, Ref1List: 1, Ref1Idx: 1},
		{Direction: Bi, Ref0List: 0, Ref0Idx: 1, Ref1List: 1, Ref1Idx: 2},
		{Direction: Bi, Ref0List: 0, Ref0Idx: 0, Ref1List: 0, Ref1Idx: 1},
		{Direction: Bi, Ref0List: 1, Ref0Idx: 0, Ref1List: 1, Ref1Idx: 2},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("BuildCandidates() mismatch (-want +got):\n%s", diff)
	}
	if len(got) != config.MaxPAMECand {
		t.Fatalf("len(got) = %d, want MAX_PA_ME_CAND = %d", len(got), config.MaxPAMECand)
	}
}

func TestBuildCandidatesPrunesOutOfThreshold(t *testing.T) {
	cfg := config.Default(testLogger{})
	list0 := []RefMV{
		{Idx: 0, Dist: 100, Alive: true},
		{Idx: 1, Dist: 1000, Alive: true}, // Far outside a 10% threshold.
	}
	got := BuildCandidates(list0, nil, 10, &cfg)
	for _, c := range got {
		if c.Ref0Idx == 1 {
			t.Fatalf("candidate referencing pruned ref1 leaked through: %+v", c)
		}
	}
}
