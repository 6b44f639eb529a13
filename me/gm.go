/*
DESCRIPTION
  gm.go implements per-SB Global Motion activity detection (spec.md
  §4.6 "GM Detection"): bucketing chosen unipred MVs by (list, ref,
  component, sign) against a distance-scaled activity threshold, and
  separately flagging stationary blocks.

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
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/pictdec/config"
)

// BlockMV is one 16x16 (high-res) or 8x8 (low-res) partition's chosen
// unipred candidate MV, as fed to GM detection.
type BlockMV struct {
	List, RefIdx int
	MVX, MVY     int16
	TemporalDist int // Signed POC delta to this block's reference.
}

// GMResult is the per-SB outcome of GM Detection.
type GMResult struct {
	AllowGM                bool
	StationaryBlockPresent bool
}

// bucketKey identifies one (list, ref, component, sign) activity
// bucket.
type bucketKey struct {
	list, ref int
	component int // 0 = X, 1 = Y.
	sign      int // 0 = non-negative, 1 = negative.
}

// stationaryBlockTh bounds |mv| (integer-pel partition MV units) below which a block
// counts as stationary for the "> 5%" stationary_block_present check.
const stationaryBlockTh = 8

// baseActivityThreshold is the un-scaled per-component activity
// threshold; it is widened per block by the block's temporal distance,
// mirroring the same distance-scaling idiom HME search uses (spec.md
// §4.6 "distance-scaled activity threshold").
const baseActivityThreshold = 24

// DetectGM implements spec.md §4.6's "GM Detection (per SB)" over the
// superblock's partition MVs.
func DetectGM(blocks []BlockMV, cfg *config.GMConfig) GMResult {
	if len(blocks) == 0 {
		return GMResult{}
	}

	buckets := make(map[bucketKey]int)
	stationaryIndicator := make([]float64, len(blocks))

	for i, b := range blocks {
		th := activityThreshold(b.TemporalDist, cfg.UseDistanceBasedActiveTh)

		if abs16(b.MVX) > th {
			buckets[bucketKey{b.List, b.RefIdx, 0, signOf(b.MVX)}]++
		}
		if abs16(b.MVY) > th {
			buckets[bucketKey{b.List, b.RefIdx, 1, signOf(b.MVY)}]++
		}
		if abs16(b.MVX) <= stationaryBlockTh && abs16(b.MVY) <= stationaryBlockTh {
			stationaryIndicator[i] = 1
		}
	}

	total := len(blocks)
	half := float64(total) / 2
	allowGM := false
	for _, count := range buckets {
		if float64(count) > half {
			allowGM = true
			break
		}
	}

	fractionStationary := stat.Mean(stationaryIndicator, nil)
	return GMResult{
		AllowGM:                allowGM,
		StationaryBlockPresent: fractionStationary > 0.05,
	}
}

func activityThreshold(temporalDist int, distanceBased bool) int16 {
	if !distanceBased {
		return baseActivityThreshold
	}
	if temporalDist < 0 {
		temporalDist = -temporalDist
	}
	return int16(baseActivityThreshold * (1 + temporalDist))
}

func signOf(v int16) int {
	if v < 0 {
		return 1
	}
	return 0
}
