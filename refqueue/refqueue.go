/*
DESCRIPTION
  refqueue.go implements the PA Reference Queue Manager (spec.md §4.5): a
  circular queue of picture-analysis reference entries, dependent-count
  bookkeeping, and hierarchical-level-transition reconciliation.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package refqueue implements the PA Reference Queue: the bookkeeping
// structure that tracks how many downstream pictures still depend on
// each admitted picture's analysis results, and reconciles that
// bookkeeping across hierarchical-level transitions and intra/IDR
// boundaries (spec.md §4.5).
package refqueue

import (
	"github.com/ausocean/pictdec/picture"
)

// DefaultCapacity is the PA reference queue depth used when the caller
// doesn't need a different bound; sized to comfortably hold two
// complete mini-GOPs at the maximum hierarchical level (spec.md §4.2:
// "N <= 32").
const DefaultCapacity = 64

// Entry is one PA Reference Queue Entry (spec.md §3): a picture's
// dependent lists and outstanding-consumer count.
type Entry struct {
	PictureNumber int64

	// List0/List1 hold signed offsets (in picture-number space) to the
	// pictures that depend on this entry as a backward/forward
	// reference, respectively. A zeroed slot (offset 0 pointing at
	// itself) means "no dependent in this position".
	List0 []int32
	List1 []int32

	DepList0Count int
	DepList1Count int

	// DependentCount is the number of outstanding consumers; the entry
	// is released once this reaches zero.
	DependentCount int

	Picture *picture.Picture

	// Index is this entry's slot within the owning Queue's ring.
	Index int
}

// BaseLayerDeps is the dependent-list shape contributed by a new
// prediction structure's base-layer (anchor) position, as consulted by
// ReconcileTransition step 2 (spec.md §4.5).
type BaseLayerDeps struct {
	List0 []int32
	List1 []int32
}

// Queue is a fixed-capacity circular buffer of *Entry, indexed by
// ring slot; released entries leave a nil hole that Sweep reclaims.
type Queue struct {
	entries []*Entry
	head    int
	tail    int
	size    int
}

// NewQueue returns an empty queue of the given capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{entries: make([]*Entry, capacity)}
}

// Len returns the number of live entries currently held.
func (q *Queue) Len() int { return q.size }

// Admit enqueues e, assigning it the next ring slot. Returns
// ResourceExhausted if the queue is full (spec.md §4.7: "ResourceExhausted:
// PA reference queue saturated").
func (q *Queue) Admit(e *Entry) error {
	if q.size == len(q.entries) {
		return picture.NewError(picture.KindResourceExhausted,
			"refqueue: queue full (capacity %d)", len(q.entries))
	}
	e.Index = q.tail
	q.entries[q.tail] = e
	q.tail = (q.tail + 1) % len(q.entries)
	q.size++
	return nil
}

// Find returns the live entry with the given picture number, if any.
func (q *Queue) Find(pictureNumber int64) (*Entry, bool) {
	for _, e := range q.entries {
		if e != nil && e.PictureNumber == pictureNumber {
			return e, true
		}
	}
	return nil, false
}

// All returns every live entry, in ring (not necessarily picture) order.
func (q *Queue) All() []*Entry {
	out := make([]*Entry, 0, q.size)
	for _, e := range q.entries {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Sweep releases every entry whose DependentCount has reached zero,
// then advances the queue head over the resulting (and any
// pre-existing) run of null slots only — it never skips a live entry
// to catch up (spec.md §4.7 "Sweep").
func (q *Queue) Sweep() {
	for i, e := range q.entries {
		if e != nil && e.DependentCount <= 0 {
			q.entries[i] = nil
			q.size--
		}
	}
	n := len(q.entries)
	for steps := 0; steps < n && q.entries[q.head] == nil; steps++ {
		q.head = (q.head + 1) % n
	}
}

// stripPositive partitions deltas into the kept (non-positive) subset
// and the count removed.
func stripPositive(deltas []int32) (kept []int32, removed int) {
	kept = make([]int32, 0, len(deltas))
	for _, d := range deltas {
		if d > 0 {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	return kept, removed
}

// positiveOnly returns the subset of deltas that are positive.
func positiveOnly(deltas []int32) []int32 {
	var out []int32
	for _, d := range deltas {
		if d > 0 {
			out = append(out, d)
		}
	}
	return out
}

// ReconcileTransition implements spec.md §4.5: when a newly admitted
// mini-GOP's hierarchical_levels differs from the previous one, the
// entry for picture (currentBasePOC - 1) has its positive dependent
// entries stripped and replaced by the new prediction structure's
// base-layer dependents, and every other live entry has those listed
// deltas zeroed whose referenced picture now falls on or past the new
// base POC (a broken reference across an intra/IDR boundary).
//
// prevLevels/currLevels are the previous and current mini-GOP's
// hierarchical_levels; if they're equal, ReconcileTransition is a
// no-op, per spec.md.
func ReconcileTransition(q *Queue, currentBasePOC int64, prevLevels, currLevels uint8, newBase BaseLayerDeps) error {
	if prevLevels == currLevels {
		return nil
	}

	transitionPOC := currentBasePOC - 1
	e, ok := q.Find(transitionPOC)
	if !ok {
		return picture.NewError(picture.KindInvariantViolated,
			"refqueue: no PA reference entry for picture %d at hierarchical-level transition", transitionPOC)
	}

	oldList0Count, oldList1Count := e.DepList0Count, e.DepList1Count
	oldDependentCount := e.DependentCount

	l0, _ := stripPositive(e.List0)
	l1, _ := stripPositive(e.List1)
	l0 = append(l0, positiveOnly(newBase.List0)...)
	l1 = append(l1, positiveOnly(newBase.List1)...)

	e.List0 = l0
	e.List1 = l1
	e.DepList0Count = len(l0)
	e.DepList1Count = len(l1)

	newTotal := e.DepList0Count + e.DepList1Count
	oldSum := oldList0Count + oldList1Count
	e.DependentCount = newTotal - (oldSum - oldDependentCount)
	if e.DependentCount < 0 {
		return picture.NewError(picture.KindInvariantViolated,
			"refqueue: dependent_count underflow for picture %d after level transition", transitionPOC)
	}

	for _, other := range q.All() {
		if other == e {
			continue
		}
		if err := recomputeDeltas(other, currentBasePOC); err != nil {
			return err
		}
	}
	return nil
}

// recomputeDeltas computes the picture each listed delta of e refers to
// (e's picture number plus the delta) and zeroes any delta whose picture
// is on or past currentBasePOC, decrementing DependentCount accordingly (spec.md
// §4.5 "For every other entry").
func recomputeDeltas(e *Entry, currentBasePOC int64) error {
	zero := func(deltas []int32) {
		for i, d := range deltas {
			if d == 0 {
				continue
			}
			refPOC := e.PictureNumber + int64(d)
			if refPOC >= currentBasePOC {
				deltas[i] = 0
				e.DependentCount--
			}
		}
	}
	zero(e.List0)
	zero(e.List1)
	if e.DependentCount < 0 {
		return picture.NewError(picture.KindInvariantViolated,
			"refqueue: dependent_count underflow for picture %d during broken-reference sweep", e.PictureNumber)
	}
	return nil
}
