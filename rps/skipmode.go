/*
DESCRIPTION
  skipmode.go implements Skip-Mode Derivation (spec.md §4.4): locating the
  nearest forward/backward references in order-hint space and, failing
  that, the two nearest forward references.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)
*/

package rps

import "github.com/ausocean/pictdec/picture"

// RelativeDist is AV1's get_relative_dist: the signed difference of two
// order hints, clipped to ±(1 << (orderHintBits-1)) (spec.md §4.4,
// GLOSSARY "order-hint").
func RelativeDist(a, b int64, orderHintBits uint) int64 {
	diff := a - b
	mask := int64(1) << (orderHintBits - 1)
	diff &= (mask << 1) - 1
	if diff > mask {
		diff -= mask << 1
	} else if diff < -mask {
		diff += mask << 1
	}
	return diff
}

type refCandidate struct {
	slot picture.RefSlot
	dist int64 // RelativeDist(refOrderHint, curOrderHint)
}

// DeriveSkipMode fills r.SkipModeAllowed/Idx0/Idx1 for a single-reference-
// mode-ineligible picture. refList0Count/refList1Count bound how many of
// the seven RPS slots are in play (spec.md §4.4). curOrderHint is the
// current picture's order hint (typically its POC modulo the order-hint
// range); each populated slot's order hint is read from r.RefPOC,
// indexed by picture.RefSlot.
func DeriveSkipMode(r *picture.RPS, refList0Count, refList1Count uint8, curOrderHint int64, orderHintBits uint) {
	r.SkipModeAllowed = false
	if refList0Count == 0 && refList1Count == 0 {
		return
	}

	l0Slots := []picture.RefSlot{picture.Last, picture.Last2, picture.Last3, picture.Gold}
	l1Slots := []picture.RefSlot{picture.Bwd, picture.Alt2, picture.Alt}

	var candidates []refCandidate
	for i, s := range l0Slots {
		if uint8(i) >= refList0Count {
			break
		}
		candidates = append(candidates, refCandidate{slot: s, dist: RelativeDist(r.RefPOC[s], curOrderHint, orderHintBits)})
	}
	for i, s := range l1Slots {
		if uint8(i) >= refList1Count {
			break
		}
		candidates = append(candidates, refCandidate{slot: s, dist: RelativeDist(r.RefPOC[s], curOrderHint, orderHintBits)})
	}

	var forward, backward []refCandidate
	for _, c := range candidates {
		switch {
		case c.dist < 0:
			forward = append(forward, c)
		case c.dist > 0:
			backward = append(backward, c)
		}
	}

	// Nearest forward: largest (closest to zero) negative distance.
	nearestForward, haveForward := nearest(forward, true)
	nearestBackward, haveBackward := nearest(backward, false)

	if haveForward && haveBackward {
		setSkipMode(r, nearestForward.slot, nearestBackward.slot)
		return
	}

	if haveForward {
		rest := make([]refCandidate, 0, len(forward)-1)
		for _, c := range forward {
			if c.slot != nearestForward.slot {
				rest = append(rest, c)
			}
		}
		if second, ok := nearest(rest, true); ok {
			setSkipMode(r, nearestForward.slot, second.slot)
			return
		}
	}
}

// nearest returns the candidate with distance closest to zero; wantNegative
// selects among negative distances (forward refs), else positive
// (backward refs).
func nearest(cands []refCandidate, wantNegative bool) (refCandidate, bool) {
	var best refCandidate
	found := false
	for _, c := range cands {
		if !found || (wantNegative && c.dist > best.dist) || (!wantNegative && c.dist < best.dist) {
			best, found = c, true
		}
	}
	return best, found
}

func setSkipMode(r *picture.RPS, a, b picture.RefSlot) {
	idx0, idx1 := r.DPBIndex[a], r.DPBIndex[b]
	if idx0 > idx1 {
		idx0, idx1 = idx1, idx0
	}
	r.SkipModeAllowed = true
	r.SkipModeIdx0 = idx0
	r.SkipModeIdx1 = idx1
}
