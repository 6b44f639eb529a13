/*
DESCRIPTION
  rps.go implements the Reference Picture Signaling Generator (spec.md
  §4.3): stateless-per-call derivation, given the DPB toggle state, of
  per-picture DPB index arrays, reference POCs, refresh masks, and
  show/show-existing flags.

  Rather than the reference encoder's hard-coded, hand-transcribed
  per-(temporal_layer, picture_index) symbolic-position tables, this
  generator keeps a real, small model of DPB slot occupancy (which POC
  currently lives in each of the 8 slots) and assigns/reuses ring-sized
  slot groups per temporal layer (spec.md §9: "deep nested switch
  statements... encode as data"). The ring sizes (3 for layer 0, 2 for
  layers 1..levels-2, 1 for the deepest reference layer when levels>=4)
  reproduce exactly the slot counts spec.md §4.3 gives for the 4- and
  5-level structures; layers beyond the reference ring depth (the leaf
  layer, always non-reference) never refresh a slot.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rps implements Reference Picture Signaling derivation.
package rps

import (
	"sort"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/minigop"
	"github.com/ausocean/pictdec/picture"
)

// maxReferenceRings bounds the number of distinct ring-backed reference
// layers regardless of hierarchical_levels (spec.md doesn't give explicit
// §4.3 rules beyond L=4; we cap reference depth at 4 rings so the DPB
// budget of 8 slots is never exceeded -- layers beyond this depth are
// always non-reference. Recorded as an Open Question resolution in
// DESIGN.md).
const maxReferenceRings = 4

// ringSize returns the slot count of reference ring index r (0-based) for
// a structure of the given hierarchical levels.
func ringSize(r int, levels uint8) uint8 {
	switch {
	case r == 0:
		return 3
	case r == int(referenceRingCount(levels))-1 && levels >= 4:
		return 1
	default:
		return 2
	}
}

func referenceRingCount(levels uint8) uint8 {
	if int(levels) > maxReferenceRings {
		return maxReferenceRings
	}
	if levels == 0 {
		return 0
	}
	return levels
}

func ringOffsets(levels uint8) []uint8 {
	n := referenceRingCount(levels)
	offs := make([]uint8, n)
	var off uint8
	for r := 0; r < int(n); r++ {
		offs[r] = off
		off += ringSize(r, levels)
	}
	return offs
}

// ToggleState is the DPB Toggle State owned by the Picture Decision driver
// (spec.md §3): per-ring toggles plus the tracked DPB slot occupancy and
// the most recent key POC.
type ToggleState struct {
	ringToggle []uint8          // Current toggle value per active ring.
	slotPOC    [picture.DPBSize]int64
	slotValid  [picture.DPBSize]bool
	refreshed  map[uint8]bool // Slots refreshed so far in the current mini-GOP (show_existing_loc check).
	KeyPOC     int64
}

// NewToggleState returns a freshly reset toggle state, as if a KEY frame
// had just been coded.
func NewToggleState() *ToggleState {
	t := &ToggleState{}
	t.Reset(0)
	return t
}

// Reset clears all toggles and DPB occupancy and records keyPOC, as a KEY
// frame does (spec.md §3: "reset on KEY frame").
func (t *ToggleState) Reset(keyPOC int64) {
	t.ringToggle = make([]uint8, maxReferenceRings)
	for i := range t.slotValid {
		t.slotValid[i] = false
	}
	t.refreshed = make(map[uint8]bool)
	t.KeyPOC = keyPOC
}

func (t *ToggleState) beginMiniGop() { t.refreshed = make(map[uint8]bool) }

// assignSlot picks and advances the ring slot for a reference picture of
// the given layer, records its POC as occupying that slot, and returns
// the slot index.
func (t *ToggleState) assignSlot(levels uint8, layer uint8, poc int64) uint8 {
	offs := ringOffsets(levels)
	r := int(layer)
	size := ringSize(r, levels)
	slot := offs[r] + t.ringToggle[r]
	t.ringToggle[r] = (t.ringToggle[r] + 1) % size
	t.slotPOC[slot] = poc
	t.slotValid[slot] = true
	t.refreshed[slot] = true
	return slot
}

func (t *ToggleState) findSlot(poc int64) (uint8, bool) {
	for s := 0; s < picture.DPBSize; s++ {
		if t.slotValid[s] && t.slotPOC[s] == poc {
			return uint8(s), true
		}
	}
	return 0, false
}

// getRefPOC clamps a requested reference POC to key_poc, per spec.md §4.3
// ("get_ref_poc(cur_poc, delta) = max(cur_poc - delta, key_poc)") and its
// §9 open-question resolution.
func getRefPOC(curPOC, delta, keyPOC int64) int64 {
	poc := curPOC - delta
	if poc < keyPOC {
		return keyPOC
	}
	return poc
}

// Generator derives RPS for every picture of a mini-GOP in one call.
type Generator struct {
	cfg *config.Config
}

// NewGenerator constructs a Generator bound to cfg.
func NewGenerator(cfg *config.Config) *Generator { return &Generator{cfg: cfg} }

// Result is the RPS-relevant output for one picture of the mini-GOP, keyed
// by its position within the mini-GOP's pre-assignment-buffer span.
type Result struct {
	Index              int // 0-based position within the mini-GOP (its first picture is 0).
	Layer              uint8
	RPS                picture.RPS
	ShowFrame          bool
	ShowExisting       bool
	ShowExistingLoc    uint8
	DecodeOrder        int
}

// Generate derives RPS for the pictures of a single complete or synthetic
// mini-GOP. basePOC is the POC of the picture immediately preceding the
// mini-GOP (position 0 in the internal prediction-structure numbering);
// toggle is mutated in place. pred is LowDelayP for the legacy
// low-delay path, RandomAccess otherwise.
func (g *Generator) Generate(mg minigop.MiniGop, basePOC int64, pred picture.PredStructure, toggle *ToggleState) ([]Result, error) {
	n := mg.Length()

	if pred == picture.LowDelayP {
		return g.generateLowDelay(n, basePOC, toggle), nil
	}
	if mg.HierarchicalLevels == 0 || n == 1 {
		return g.generateKeyOrIntra(toggle, basePOC+1), nil
	}

	levels := mg.HierarchicalLevels
	if 1<<levels != n {
		return nil, picture.NewError(picture.KindInvariantViolated,
			"rps: unexpected GOP structure: length %d is not 1<<%d", n, levels)
	}

	ps := BuildPredStruct(levels)
	toggle.beginMiniGop()

	type decodeEntry struct {
		pos int
	}
	order := make([]decodeEntry, 0, n)
	for pos := 1; pos <= n; pos++ {
		order = append(order, decodeEntry{pos: pos})
	}
	sort.Slice(order, func(i, j int) bool {
		li, lj := ps.Layer[order[i].pos], ps.Layer[order[j].pos]
		if li != lj {
			return li < lj
		}
		return order[i].pos < order[j].pos
	})

	results := make([]Result, n)
	refCount := referenceRingCount(levels)

	for decodeIdx, e := range order {
		pos := e.pos
		layer := ps.Layer[pos]
		curPOC := basePOC + int64(pos)

		var r picture.RPS
		l0 := ps.List0(pos)
		l1 := ps.List1(pos)

		slotFor := func(refPos int) (uint8, int64, error) {
			wantPOC := getRefPOC(curPOC, int64(pos-refPos), toggle.KeyPOC)
			slot, ok := toggle.findSlot(wantPOC)
			if !ok {
				return 0, 0, picture.NewError(picture.KindInvariantViolated,
					"rps: no DPB slot holds POC %d (referenced from POC %d)", wantPOC, curPOC)
			}
			return slot, wantPOC, nil
		}

		assignRef := func(slotIdx picture.RefSlot, refPos int) error {
			s, poc, err := slotFor(refPos)
			if err != nil {
				return err
			}
			r.DPBIndex[slotIdx] = s
			r.RefPOC[slotIdx] = poc
			return nil
		}

		l0Slots := []picture.RefSlot{picture.Last, picture.Last2, picture.Last3, picture.Gold}
		for i, refPos := range l0 {
			if i >= len(l0Slots) {
				break
			}
			if err := assignRef(l0Slots[i], refPos); err != nil {
				return nil, err
			}
		}
		l1Slots := []picture.RefSlot{picture.Bwd, picture.Alt2, picture.Alt}
		for i, refPos := range l1 {
			if i >= len(l1Slots) {
				break
			}
			if err := assignRef(l1Slots[i], refPos); err != nil {
				return nil, err
			}
		}
		// Final reorder: swap ALT and ALT2 so list1 runs closest-to-farthest
		// (spec.md §4.3 last RA bullet).
		r.DPBIndex[picture.Alt], r.DPBIndex[picture.Alt2] = r.DPBIndex[picture.Alt2], r.DPBIndex[picture.Alt]
		r.RefPOC[picture.Alt], r.RefPOC[picture.Alt2] = r.RefPOC[picture.Alt2], r.RefPOC[picture.Alt]

		isRef := layer < refCount
		var showFrame, showExisting bool
		var showExistingLoc uint8
		if isRef {
			showFrame = false
			r.RefreshFrameMask = 1 << toggle.assignSlot(levels, layer, curPOC)
		} else {
			showExisting = true
			showFrame = true
			parentLayer := layer - 1
			parentPos := pos
			for _, cand := range append(append([]int{}, l0...), l1...) {
				if ps.Layer[cand] == parentLayer {
					parentPos = cand
					break
				}
			}
			if parentPos != pos {
				parentPOC := basePOC + int64(parentPos)
				slot, ok := toggle.findSlot(parentPOC)
				if !ok || !toggle.refreshed[slot] {
					return nil, picture.NewError(picture.KindInvariantViolated,
						"rps: show_existing_loc for POC %d refers to a slot not yet refreshed in this mini-GOP", curPOC)
				}
				showExistingLoc = slot
			}
		}

		results[decodeIdx] = Result{
			Index:           pos - 1,
			Layer:           layer,
			RPS:             r,
			ShowFrame:       showFrame,
			ShowExisting:    showExisting,
			ShowExistingLoc: showExistingLoc,
			DecodeOrder:     decodeIdx,
		}
	}

	// Re-sort results by Index (display/buffer order) for the caller.
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results, nil
}

// generateKeyOrIntra handles hierarchical_levels == 0 (spec.md §4.3 "For
// L = 0"): a single I picture whose references all map to DPB slot 0.
func (g *Generator) generateKeyOrIntra(toggle *ToggleState, poc int64) []Result {
	var r picture.RPS
	for s := picture.RefSlot(0); int(s) < picture.NumRefSlots; s++ {
		r.DPBIndex[s] = 0
		r.RefPOC[s] = poc
	}
	r.RefreshFrameMask = 1
	toggle.Reset(poc)
	toggle.slotPOC[0] = poc
	toggle.slotValid[0] = true
	return []Result{{Index: 0, Layer: 0, RPS: r, ShowFrame: true}}
}

// generateLowDelay handles the LowDelayP path: all seven reference slots
// mirror DPB slot 0, show_frame=true unconditionally (spec.md §4.3).
func (g *Generator) generateLowDelay(n int, basePOC int64, toggle *ToggleState) []Result {
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		poc := basePOC + int64(i) + 1
		var r picture.RPS
		for s := picture.RefSlot(0); int(s) < picture.NumRefSlots; s++ {
			r.DPBIndex[s] = 0
			r.RefPOC[s] = toggle.slotPOC[0]
		}
		r.RefreshFrameMask = 1
		toggle.slotPOC[0] = poc
		toggle.slotValid[0] = true
		results[i] = Result{Index: i, Layer: 0, RPS: r, ShowFrame: true, DecodeOrder: i}
	}
	return results
}
