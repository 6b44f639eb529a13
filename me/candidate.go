/*
DESCRIPTION
  candidate.go implements the per-PU ME Candidate Builder (spec.md §3,
  §4.6): unipred candidates per alive reference within threshold of the
  best distortion, followed by bipred candidates in the fixed ordering
  spec.md §3 defines, capped at MAX_PA_ME_CAND.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package me

import "github.com/ausocean/pictdec/config"

// Direction identifies a candidate's prediction mode.
type Direction uint8

const (
	UniL0 Direction = iota
	UniL1
	Bi
)

// RefMV is one alive reference's best integer-ME result, indexed by its
// position within its list (0 = nearest).
type RefMV struct {
	Idx   int
	MV    [2]int16 // X, Y.
	Dist  uint32
	Alive bool
}

// Candidate is one entry of the per-PU ME candidate list (spec.md §3
// "Me Candidate List").
type Candidate struct {
	Direction        Direction
	Ref0List, Ref0Idx int
	Ref1List, Ref1Idx int
}

// BuildCandidates implements spec.md §4.6's "Candidate Builder (per
// PU)": list0 and list1 are this PU's alive references, already sorted
// nearest-first (index 0 = nearest). pruneTh is me_prune_th, a percent.
func BuildCandidates(list0, list1 []RefMV, pruneTh uint, cfg *config.Config) []Candidate {
	best := bestDist(list0, list1)

	within := func(r RefMV) bool {
		return r.Alive && withinThreshold(r.Dist, best, pruneTh)
	}

	var l0ok, l1ok []RefMV
	for _, r := range list0 {
		if within(r) {
			l0ok = append(l0ok, r)
		}
	}
	for _, r := range list1 {
		if within(r) {
			l1ok = append(l1ok, r)
		}
	}

	var out []Candidate
	push := func(c Candidate) bool {
		if len(out) >= config.MaxPAMECand {
			return false
		}
		out = append(out, c)
		return true
	}

	// Unipreds: list0 refs, then list1 refs, in index order.
	for _, r := range l0ok {
		if !push(Candidate{Direction: UniL0, Ref0List: 0, Ref0Idx: r.Idx}) {
			return out
		}
	}
	for _, r := range l1ok {
		if !push(Candidate{Direction: UniL1, Ref1List: 1, Ref1Idx: r.Idx}) {
			return out
		}
	}

	// Bipreds (a): across lists, list0 outer, list1 inner.
	for _, a := range l0ok {
		for _, b := range l1ok {
			if !push(Candidate{Direction: Bi, Ref0List: 0, Ref0Idx: a.Idx, Ref1List: 1, Ref1Idx: b.Idx}) {
				return out
			}
		}
	}

	// Bipreds (b): within list0, ref 0 paired with every other alive
	// list0 ref.
	if len(l0ok) >= 2 && l0ok[0].Idx == 0 {
		for _, b := range l0ok[1:] {
			if !push(Candidate{Direction: Bi, Ref0List: 0, Ref0Idx: 0, Ref1List: 0, Ref1Idx: b.Idx}) {
				return out
			}
		}
	}

	// Bipreds (c): within list1, the fixed (ref0, ref2) pair.
	if hasIdx(l1ok, 0) && hasIdx(l1ok, 2) {
		push(Candidate{Direction: Bi, Ref0List: 1, Ref0Idx: 0, Ref1List: 1, Ref1Idx: 2})
	}

	return out
}

func bestDist(list0, list1 []RefMV) uint32 {
	best := ^uint32(0)
	for _, r := range list0 {
		if r.Alive && r.Dist < best {
			best = r.Dist
		}
	}
	for _, r := range list1 {
		if r.Alive && r.Dist < best {
			best = r.Dist
		}
	}
	return best
}

func withinThreshold(dist, best uint32, pruneTh uint) bool {
	if best == ^uint32(0) {
		return false
	}
	return (uint64(dist)-uint64(best))*100 <= uint64(pruneTh)*uint64(best)
}

func hasIdx(refs []RefMV, idx int) bool {
	for _, r := range refs {
		if r.Idx == idx {
			return true
		}
	}
	return false
}
