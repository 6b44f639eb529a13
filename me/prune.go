/*
DESCRIPTION
  prune.go implements post-HME reference pruning and integer-ME
  search-radius adjustment (spec.md §4.6 "Reference pruning").

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

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

// RefHME is one candidate reference's HME outcome, aggregated over the
// sixty-four 8×8 best SADs at the closest HME scale (spec.md §4.6:
// "sum over sixty-four 8×8 best SADs at the closest scale").
type RefHME struct {
	List       int // 0 or 1.
	RefIndex   int // Position within the list; 0 = closest.
	BlockSADs  [64]uint32
	MV         picture.MV
}

// totalSAD sums the 64 per-block best SADs via gonum/floats for the
// same reduction the reference encoder performs in floating point
// accumulation.
func (r RefHME) totalSAD() uint32 {
	f := make([]float64, len(r.BlockSADs))
	for i, s := range r.BlockSADs {
		f[i] = float64(s)
	}
	return uint32(floats.Sum(f))
}

// PruneDecision is the per-reference outcome of the pruning pass: the
// reference is either kept (possibly with its integer-ME search radius
// reduced) or dropped from further consideration.
type PruneDecision struct {
	List          int
	RefIndex      int
	DoRef         bool
	SearchRadiusDivisor uint // 1 = unchanged.
}

// PruneReferences implements spec.md §4.6's "Reference pruning": the
// global best total SAD across every (list, ref) is found, then every
// reference whose SAD exceeds it by more than
// MEHMEPrune.PruneRefIfHMESADDevBiggerThanTh percent is dropped (do_ref = 0), with an optional guard protecting
// each list's closest reference. Independently, references with
// near-zero motion and low SAD have their integer-ME search radius
// reduced per MESRAdjustment.
func PruneReferences(refs []RefHME, cfg *config.Config) []PruneDecision {
	if len(refs) == 0 {
		return nil
	}

	totals := make([]uint32, len(refs))
	best := refs[0].totalSAD()
	for i, r := range refs {
		totals[i] = r.totalSAD()
		if totals[i] < best {
			best = totals[i]
		}
	}

	out := make([]PruneDecision, len(refs))
	for i, r := range refs {
		d := PruneDecision{List: r.List, RefIndex: r.RefIndex, DoRef: true, SearchRadiusDivisor: 1}

		sad := totals[i]
		protect := cfg.MEHMEPrune.ProtectClosestRefs && r.RefIndex == 0
		if !protect && sad > best {
			if (uint64(sad)-uint64(best))*100 > uint64(cfg.MEHMEPrune.PruneRefIfHMESADDevBiggerThanTh)*uint64(best) {
				d.DoRef = false
			}
		}

		if d.DoRef && cfg.MESRAdjustment.Enable {
			stationary := isStationary(r.MV)
			switch {
			case cfg.MESRAdjustment.ReduceMESRBasedOnMVLengthTh && stationary:
				d.SearchRadiusDivisor = cfg.MESRAdjustment.StationaryMESRDivisor
			case lowHMESAD(sad, best):
				d.SearchRadiusDivisor = cfg.MESRAdjustment.MESRDivisorForLowHMESAD
			}
			if d.SearchRadiusDivisor == 0 {
				d.SearchRadiusDivisor = 1
			}
		}

		out[i] = d
	}
	return out
}

// stationaryMVThreshold bounds |mv| (in the integer-pel units of the
// HME seed RunSuperBlock supplies) below which a reference is considered to exhibit near-zero
// motion.
const stationaryMVThreshold = 8

func isStationary(mv picture.MV) bool {
	return abs16(mv.X) <= stationaryMVThreshold && abs16(mv.Y) <= stationaryMVThreshold
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}

// lowHMESADFactor bounds how close to the global best a reference's
// SAD must be to count as "simply low" (spec.md §4.6: "similarly
// reduce when SAD is simply low").
const lowHMESADFactor = 1.2

func lowHMESAD(sad, best uint32) bool {
	return float64(sad) <= float64(best)*lowHMESADFactor
}
