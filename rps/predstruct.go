/*
DESCRIPTION
  predstruct.go derives the hierarchical prediction structure for a
  complete mini-GOP of length N = 1<<hierarchical_levels as data rather
  than the reference encoder's hand-transcribed per-(temporal_layer,
  picture_index) switch statements (spec.md §9 design note: "encode as
  data: a 2-D table keyed by (hierarchical_levels, picture_index)").

  Layer assignment follows the classic dyadic B-pyramid: position N (the
  new anchor) and position 0 (the previous mini-GOP's anchor / key frame)
  are layer 0; every interior position is recursively bisected, the
  midpoint of each open interval taking the next layer down. Reference
  candidates for a position are simply the nearest already-coded
  positions of layer <= the current position's layer, looking backward
  for list0 and forward for list1 — which is how hierarchical-B
  structures construct reference lists in general, not a fact specific to
  this one encoder's literal tables.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rps

import "math/bits"

// PredStruct is the fully derived reference structure for one complete
// mini-GOP of length 1<<levels.
type PredStruct struct {
	Levels uint8
	N      int
	// Layer[pos] is the temporal layer of display position pos, for
	// pos in [0, N]. Layer[0] and Layer[N] are always 0.
	Layer []uint8
}

// BuildPredStruct derives the structure for the given hierarchical level.
func BuildPredStruct(levels uint8) *PredStruct {
	n := 1 << levels
	ps := &PredStruct{Levels: levels, N: n, Layer: make([]uint8, n+1)}
	assignLayer(ps.Layer, 0, n, 1)
	return ps
}

func assignLayer(layer []uint8, lo, hi int, depth uint8) {
	if hi-lo <= 1 {
		return
	}
	mid := (lo + hi) / 2
	layer[mid] = depth
	assignLayer(layer, lo, mid, depth+1)
	assignLayer(layer, mid, hi, depth+1)
}

// decodeLayerForIndex reproduces the decode-order layer sequence spec.md
// §8 seed scenario 1 describes (picture_index 0 -> layer 0, else levels -
// ctz(picture_index)), used by tests and diagnostics that want the
// decode-order (not display-order) layer sequence.
func decodeLayerForIndex(levels uint8, pictureIndex int) uint8 {
	if pictureIndex == 0 {
		return 0
	}
	return levels - uint8(bits.TrailingZeros(uint(pictureIndex)))
}

// refCandidates returns the up to `want` nearest already-coded positions
// of layer <= layer(pos), searching outward from pos in direction dir
// (-1 = backward for list0, +1 = forward for list1), within [0, N].
func (ps *PredStruct) refCandidates(pos, want, dir int) []int {
	curLayer := ps.Layer[pos]
	var out []int
	for p := pos + dir; p >= 0 && p <= ps.N && len(out) < want; p += dir {
		if ps.Layer[p] <= curLayer {
			out = append(out, p)
		}
	}
	return out
}

// List0 returns up to 4 backward reference positions for pos (LAST, LAST2,
// LAST3, GOLD), nearest first.
func (ps *PredStruct) List0(pos int) []int { return ps.refCandidates(pos, 4, -1) }

// List1 returns up to 3 forward reference positions for pos (BWD, ALT2,
// ALT), nearest first.
func (ps *PredStruct) List1(pos int) []int { return ps.refCandidates(pos, 3, 1) }
