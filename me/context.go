/*
DESCRIPTION
  context.go defines the Motion-Estimation Context (spec.md §3): the
  85-entry per-(list,ref) per-SB partition pyramid — one 64x64, four
  32x32, sixteen 16x16, and sixty-four 8x8 — that the Integer ME sweep
  (integer.go) populates and the orchestrator (orchestrate.go) reads
  back out into candidates, MVs, and distortion aggregates.

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

import "github.com/ausocean/pictdec/picture"

// NumPartitions is the total partition count of a Motion-Estimation
// Context: 1 (64x64) + 4 (32x32) + 16 (16x16) + 64 (8x8) = 85 (spec.md
// §3 "Motion-Estimation Context").
const NumPartitions = 1 + 4 + 16 + 64

// Partition-pyramid base offsets, in raster order within each size
// class (row-major).
const (
	idx64Base = 0
	idx32Base = idx64Base + 1  // 1
	idx16Base = idx32Base + 4  // 5
	idx8Base  = idx16Base + 16 // 21
)

// index64 returns the partition index of the single 64x64 block.
func index64() int { return idx64Base }

// index32 returns the partition index of the 32x32 block at (row, col)
// of the 2x2 grid.
func index32(row, col int) int { return idx32Base + row*2 + col }

// index16 returns the partition index of the 16x16 block at (row, col)
// of the 4x4 grid.
func index16(row, col int) int { return idx16Base + row*4 + col }

// index8 returns the partition index of the 8x8 block at (row, col) of
// the 8x8 grid.
func index8(row, col int) int { return idx8Base + row*8 + col }

// PartitionResult is one partition's best integer-ME outcome: its
// motion vector (in integer-pel units relative to the partition's own
// origin) and the SAD it achieved.
type PartitionResult struct {
	MV  picture.MV
	SAD uint32
}

// RefContext is the per-(list,ref) Motion-Estimation Context for one
// superblock (spec.md §3).
type RefContext struct {
	List     int
	RefIndex int

	Partitions [NumPartitions]PartitionResult
}

// NewRefContext allocates a RefContext with every partition's SAD set
// to the sentinel maximum, so an un-searched partition can never look
// like a winning zero-SAD match (spec.md §3 "sentinel-maximum SAD
// initialization").
func NewRefContext(list, refIndex int) *RefContext {
	rc := &RefContext{List: list, RefIndex: refIndex}
	for i := range rc.Partitions {
		rc.Partitions[i].SAD = ^uint32(0)
	}
	return rc
}
