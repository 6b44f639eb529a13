package minigop

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPartitionTwoCompleteMiniGops(t *testing.T) {
	p := NewPartitioner(3)
	got, err := p.Partition(16, 2, 1)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	want := []MiniGop{
		{StartIndex: 0, EndIndex: 7, HierarchicalLevels: 3},
		{StartIndex: 8, EndIndex: 15, HierarchicalLevels: 3, IntraCount: 2, IDRCount: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Partition(16) mismatch (-want +got):\n%s", diff)
	}
}

func TestPartitionSingletonFallsBackToSynthetic(t *testing.T) {
	p := NewPartitioner(4)
	got, err := p.Partition(1, 0, 0)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	want := []MiniGop{{StartIndex: 0, EndIndex: 0, HierarchicalLevels: MinHierarchicalLevel}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Partition(1) mismatch (-want +got):\n%s", diff)
	}
}

func TestPartitionFiveLevelFull(t *testing.T) {
	p := NewPartitioner(5)
	got, err := p.Partition(32, 0, 0)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(got) != 1 || got[0].HierarchicalLevels != 5 || got[0].Length() != 32 {
		t.Errorf("Partition(32) = %+v, want single level-5 mini-GOP of length 32", got)
	}
}

func TestPartitionFallsBackWhenWindowShortOfFullMiniGop(t *testing.T) {
	p := NewPartitioner(3)
	got, err := p.Partition(10, 0, 0)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	// [0,7] complete level-3 mini-GOP, then a synthetic trailing mini-GOP
	// covering the remaining 2 pictures.
	want := []MiniGop{
		{StartIndex: 0, EndIndex: 7, HierarchicalLevels: 3},
		{StartIndex: 8, EndIndex: 9, HierarchicalLevels: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Partition(10) mismatch (-want +got):\n%s", diff)
	}
}

func TestPartitionRejectsOversizedBuffer(t *testing.T) {
	p := NewPartitioner(3)
	if _, err := p.Partition(33, 0, 0); err == nil {
		t.Fatal("Partition(33): want error, got nil")
	}
}
