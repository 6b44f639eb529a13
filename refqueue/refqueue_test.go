package refqueue

import (
	"testing"

	"github.com/ausocean/pictdec/picture"
)

func TestAdmitAndSweepReclaimsOnlyNullHeads(t *testing.T) {
	q := NewQueue(4)
	for i := int64(0); i < 4; i++ {
		if err := q.Admit(&Entry{PictureNumber: i, DependentCount: 1}); err != nil {
			t.Fatalf("Admit(%d): %v", i, err)
		}
	}
	if err := q.Admit(&Entry{PictureNumber: 4}); err == nil {
		t.Fatal("Admit on full queue: want ResourceExhausted, got nil")
	}

	e0, _ := q.Find(0)
	e0.DependentCount = 0
	e2, _ := q.Find(2)
	e2.DependentCount = 0

	q.Sweep()
	if q.Len() != 2 {
		t.Fatalf("Len() after sweep = %d, want 2", q.Len())
	}
	// head was at entry 0's slot; it's now nil, so head should have
	// advanced to slot 1 (entry 1, still live) and stopped there —
	// slot 2 being nil further along must NOT be skipped past.
	if _, ok := q.Find(1); !ok {
		t.Fatal("entry 1 should still be live")
	}
	if _, ok := q.Find(0); ok {
		t.Fatal("entry 0 should have been reclaimed")
	}
}

func TestReconcileTransitionNoOpWhenLevelsEqual(t *testing.T) {
	q := NewQueue(4)
	e := &Entry{PictureNumber: 7, List0: []int32{-1, -2}, DepList0Count: 2, DependentCount: 2}
	q.Admit(e)
	if err := ReconcileTransition(q, 8, 3, 3, BaseLayerDeps{}); err != nil {
		t.Fatalf("ReconcileTransition: %v", err)
	}
	if e.DependentCount != 2 {
		t.Fatalf("DependentCount mutated on no-op path: got %d, want 2", e.DependentCount)
	}
}

func TestReconcileTransitionStripsAndInherits(t *testing.T) {
	q := NewQueue(4)
	// Transition entry: picture 7, one positive (forward) dependent
	// and one negative (backward) dependent in list0.
	e := &Entry{
		PictureNumber:  7,
		List0:          []int32{-1, 3},
		List1:          []int32{2},
		DepList0Count:  2,
		DepList1Count:  1,
		DependentCount: 3,
	}
	q.Admit(e)

	newBase := BaseLayerDeps{List0: []int32{1, 5}, List1: []int32{4}}
	if err := ReconcileTransition(q, 8, 3, 4, newBase); err != nil {
		t.Fatalf("ReconcileTransition: %v", err)
	}

	// Positive entries (3 from list0, 2 from list1) stripped; inherited
	// positives from newBase appended: list0 gets {-1, 1, 5}, list1
	// gets {4}.
	if len(e.List0) != 3 || e.List0[0] != -1 {
		t.Fatalf("List0 = %v, want [-1 1 5]", e.List0)
	}
	if len(e.List1) != 1 || e.List1[0] != 4 {
		t.Fatalf("List1 = %v, want [4]", e.List1)
	}
	if e.DepList0Count != 3 || e.DepList1Count != 1 {
		t.Fatalf("DepList0Count/DepList1Count = %d/%d, want 3/1", e.DepList0Count, e.DepList1Count)
	}
	// old_sum=3, old_dependent_count=3, new_total=4 -> dependent_count = 4-(3-3) = 4.
	if e.DependentCount != 4 {
		t.Fatalf("DependentCount = %d, want 4", e.DependentCount)
	}
}

func TestReconcileTransitionMissingEntryIsFatal(t *testing.T) {
	q := NewQueue(4)
	if err := ReconcileTransition(q, 8, 3, 4, BaseLayerDeps{}); err == nil {
		t.Fatal("ReconcileTransition with no matching entry: want error, got nil")
	} else if k, ok := picture.AsKind(err); !ok || k != picture.KindInvariantViolated {
		t.Fatalf("error kind = %v, want InvariantViolated", k)
	}
}

func TestRecomputeDeltasZeroesBrokenReferences(t *testing.T) {
	q := NewQueue(4)
	// Transition entry so ReconcileTransition doesn't no-op.
	transition := &Entry{PictureNumber: 7, DependentCount: 0}
	q.Admit(transition)

	// Another live entry whose list0 references pictures both before
	// and on/after the new base POC (the latter is broken).
	other := &Entry{
		PictureNumber:  3,
		List0:          []int32{1, 5}, // refs picture 4 (ok) and picture 8 (broken, >= base 8).
		DependentCount: 2,
	}
	q.Admit(other)

	if err := ReconcileTransition(q, 8, 3, 4, BaseLayerDeps{}); err != nil {
		t.Fatalf("ReconcileTransition: %v", err)
	}
	if other.List0[0] != 1 {
		t.Errorf("List0[0] = %d, want unchanged 1", other.List0[0])
	}
	if other.List0[1] != 0 {
		t.Errorf("List0[1] = %d, want zeroed", other.List0[1])
	}
	if other.DependentCount != 1 {
		t.Errorf("DependentCount = %d, want 1", other.DependentCount)
	}
}
