/*
DESCRIPTION
  bufferpool.go implements the PA reference buffer pool (spec.md §5):
  the one cross-stage mutable structure, shared between Picture
  Decision (which increments a reference's live-count once per reader)
  and Motion Estimation workers (which decrement it on completion).
  Acquisition is non-blocking with a bounded wait, returning a
  ResourceExhausted error on timeout rather than blocking indefinitely
  (spec.md §5 "Suspension points").

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline wires the Picture Decision and Motion Estimation
// stages together: bounded FIFOs, the reference-counted PA buffer
// pool, and the ME worker pool with cooperative cancellation (spec.md
// §5).
package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ausocean/pictdec/picture"
)

// RefBuffer is one PA reference's backing pixel storage plus its live
// reader count. It is acquired non-blockingly via BufferPool.Put
// and released through the Handle returned by that call, which
// guarantees release on every exit path including errors (spec.md §5:
// "scoped handles that guarantee release on all exit paths").
type RefBuffer struct {
	Full      *[]uint8 // Full-resolution luma (+ chroma planes owned elsewhere).
	Quarter   *[]uint8
	Sixteenth *[]uint8

	live int32 // Atomic live-reader count.
	pool *BufferPool
	slot int
}

// AddReader increments the live-reader count once per ME worker that
// will read this buffer (spec.md §5: "incremented by Picture Decision
// (once per reader)").
func (b *RefBuffer) AddReader() { atomic.AddInt32(&b.live, 1) }

// release decrements the live-reader count; the buffer becomes
// reclaimable once it reaches zero (spec.md §5: "decremented by ME").
func (b *RefBuffer) release() {
	if atomic.AddInt32(&b.live, -1) <= 0 {
		b.pool.reclaim(b.slot)
	}
}

// Handle is a scoped acquisition of a RefBuffer; its Release method is
// idempotent and safe to call from a defer on every exit path.
type Handle struct {
	buf      *RefBuffer
	released int32
}

// Buffer returns the acquired buffer.
func (h *Handle) Buffer() *RefBuffer { return h.buf }

// Release returns this reader's claim on the buffer. Safe to call
// multiple times or after an error.
func (h *Handle) Release() {
	if atomic.CompareAndSwapInt32(&h.released, 0, 1) {
		h.buf.release()
	}
}

// BufferPool is a fixed-capacity pool of RefBuffer slots.
type BufferPool struct {
	mu    sync.Mutex
	cond  *sync.Cond
	slots []*RefBuffer
	free  []bool
}

// NewBufferPool allocates a pool of the given capacity; each slot's
// buffer planes are nil until first assigned via Put.
func NewBufferPool(capacity int) *BufferPool {
	p := &BufferPool{
		slots: make([]*RefBuffer, capacity),
		free:  make([]bool, capacity),
	}
	p.cond = sync.NewCond(&p.mu)
	for i := range p.slots {
		p.slots[i] = &RefBuffer{pool: p, slot: i}
		p.free[i] = true
	}
	return p
}

// Put installs full/quarter/sixteenth plane data into a free slot and
// returns a Handle with a live-reader count of zero (the caller adds
// readers via AddReader before publishing the picture). Returns
// ResourceExhausted if no slot is free within timeout (spec.md §7).
func (p *BufferPool) Put(full, quarter, sixteenth *[]uint8, timeout time.Duration) (*Handle, error) {
	deadline := time.Now().Add(timeout)
	p.mu.Lock()
	for {
		for i, free := range p.free {
			if free {
				p.free[i] = false
				buf := p.slots[i]
				buf.Full, buf.Quarter, buf.Sixteenth = full, quarter, sixteenth
				atomic.StoreInt32(&buf.live, 0)
				p.mu.Unlock()
				return &Handle{buf: buf}, nil
			}
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.mu.Unlock()
			return nil, picture.NewError(picture.KindResourceExhausted, "pipeline: buffer pool empty beyond bounded wait")
		}
		timer := time.AfterFunc(remaining, func() { p.cond.Broadcast() })
		p.cond.Wait()
		timer.Stop()
	}
}

// reclaim marks slot free and wakes any Put waiters.
func (p *BufferPool) reclaim(slot int) {
	p.mu.Lock()
	p.free[slot] = true
	p.mu.Unlock()
	p.cond.Broadcast()
}
