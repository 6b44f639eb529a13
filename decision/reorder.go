/*
DESCRIPTION
  reorder.go implements the Picture Decision Reorder Queue (spec.md
  §4.7 states 1-2): placing inbound pictures by picture-number slot and
  deciding when the head may advance.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decision implements the Picture Decision Driver state
// machine (spec.md §4.7): reordering, window checking, mini-GOP
// admission, RPS/skip-mode generation, and PA reference queue sweeps.
package decision

import (
	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

// ReorderQueue places inbound pictures into a fixed-depth ring slot
// keyed by picture_number_hint, and determines when its head may
// advance (spec.md §4.7 "Reorder", "Window Check").
type ReorderQueue struct {
	depth      int64
	slots      []*picture.Picture
	headNumber int64
}

// NewReorderQueue returns an empty queue of the given depth (typically
// config.ReorderQueueMaxDepth).
func NewReorderQueue(depth int64) *ReorderQueue {
	return &ReorderQueue{depth: depth, slots: make([]*picture.Picture, depth)}
}

func (q *ReorderQueue) slotIndex(pictureNumber int64) int64 {
	idx := pictureNumber % q.depth
	if idx < 0 {
		idx += q.depth
	}
	return idx
}

// Place inserts pic at its picture-number slot. A duplicate assignment
// to an already-populated slot is fatal (spec.md §4.7 "if already
// occupied, fatal error").
func (q *ReorderQueue) Place(pic *picture.Picture) error {
	idx := q.slotIndex(pic.PictureNumberHint)
	if q.slots[idx] != nil {
		return picture.NewError(picture.KindInvariantViolated,
			"decision: duplicate reorder-slot assignment for picture_number %d", pic.PictureNumberHint)
	}
	q.slots[idx] = pic
	return nil
}

// head returns the picture currently at the head slot, if any.
func (q *ReorderQueue) head() *picture.Picture { return q.slots[q.slotIndex(q.headNumber)] }

// predecessor returns the picture one slot before the head, used for
// SCD context.
func (q *ReorderQueue) predecessor() *picture.Picture {
	if q.headNumber == 0 {
		return nil
	}
	return q.slots[q.slotIndex(q.headNumber-1)]
}

// future returns the picture i slots ahead of the head (i >= 1).
func (q *ReorderQueue) future(i int64) *picture.Picture {
	return q.slots[q.slotIndex(q.headNumber+i)]
}

// WindowReady implements spec.md §4.7's "Window Check": the head may
// advance once its own slot, its predecessor slot (when one exists),
// and FutureWindowWidth future slots are all populated, or the head
// itself carries the end-of-sequence flag (which passes the window
// through immediately).
func (q *ReorderQueue) WindowReady() bool {
	h := q.head()
	if h == nil {
		return false
	}
	if h.EndOfSequence {
		return true
	}
	if q.headNumber > 0 && q.predecessor() == nil {
		return false
	}
	for i := int64(1); i <= config.FutureWindowWidth; i++ {
		if q.future(i) == nil {
			return false
		}
	}
	return true
}

// Advance returns the head slot and moves headNumber forward by one.
// It deliberately does not clear the slot it just returned: the new
// head's Window Check needs that picture as its predecessor. Instead
// it clears the slot one generation further back, which by then is no
// longer reachable as anyone's predecessor.
func (q *ReorderQueue) Advance() *picture.Picture {
	idx := q.slotIndex(q.headNumber)
	pic := q.slots[idx]
	staleIdx := q.slotIndex(q.headNumber - 1)
	q.slots[staleIdx] = nil
	q.headNumber++
	return pic
}

// HeadNumber reports the picture_number_hint the queue is currently
// waiting to release.
func (q *ReorderQueue) HeadNumber() int64 { return q.headNumber }
