/*
DESCRIPTION
  integer.go implements the Integer ME sweep (spec.md §4.6 "Integer
  ME"): a per-8x8-block integer-pel window search around an HME-
  derived seed, aggregated upward into the 16x16/32x32/64x64
  partitions of a Motion-Estimation Context by partial-sum reuse.

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

// defaultIntegerSearchRadius is the nominal integer-pel window half-
// extent swept around each reference's HME-derived seed, before a
// PruneDecision's SearchRadiusDivisor narrows it (spec.md §4.6
// "Integer ME", "reduce integer-ME search radius").
const defaultIntegerSearchRadius = 16

// IntegerMESearch sweeps an integer-pel window of the given radius
// around center (an offset from the SB's own origin) independently
// for every 8x8 block of the superblock rooted at (sbX, sbY), then
// aggregates those sixty-four results upward: a parent partition's SAD
// is the sum of its children's SADs, and its representative MV is
// copied from whichever child had the lowest SAD (spec.md §4.6
// "aggregation ... via partial-sum reuse").
func IntegerMESearch(cur, ref *Plane, sbX, sbY int, center picture.MV, radius int) *RefContext {
	rc := NewRefContext(0, 0)
	for br := 0; br < 8; br++ {
		for bc := 0; bc < 8; bc++ {
			blockX := sbX + bc*8
			blockY := sbY + br*8
			centerX := blockX + int(center.X)
			centerY := blockY + int(center.Y)

			win := ref.Clamp(Window{
				X0: centerX - radius, Y0: centerY - radius,
				X1: centerX + radius, Y1: centerY + radius,
			})

			best := SearchResult{SAD: ^uint32(0)}
			for y := win.Y0; y+8 <= win.Y1; y++ {
				for x := win.X0; x+8 <= win.X1; x++ {
					sad := SAD(cur, blockX, blockY, ref, x, y, 8, 8)
					if sad < best.SAD {
						best = SearchResult{MV: picture.MV{X: int16(x - blockX), Y: int16(y - blockY)}, SAD: sad}
					}
				}
			}
			rc.Partitions[index8(br, bc)] = PartitionResult{MV: best.MV, SAD: best.SAD}
		}
	}
	aggregate(rc)
	return rc
}

// aggregate fills the 16x16, 32x32, and 64x64 partitions from the
// already-populated 8x8 results.
func aggregate(rc *RefContext) {
	for r16 := 0; r16 < 4; r16++ {
		for c16 := 0; c16 < 4; c16++ {
			var sum uint32
			best := PartitionResult{SAD: ^uint32(0)}
			for dr := 0; dr < 2; dr++ {
				for dc := 0; dc < 2; dc++ {
					p := rc.Partitions[index8(r16*2+dr, c16*2+dc)]
					sum += p.SAD
					if p.SAD < best.SAD {
						best = p
					}
				}
			}
			rc.Partitions[index16(r16, c16)] = PartitionResult{MV: best.MV, SAD: sum}
		}
	}
	for r32 := 0; r32 < 2; r32++ {
		for c32 := 0; c32 < 2; c32++ {
			var sum uint32
			best := PartitionResult{SAD: ^uint32(0)}
			for dr := 0; dr < 2; dr++ {
				for dc := 0; dc < 2; dc++ {
					p := rc.Partitions[index16(r32*2+dr, c32*2+dc)]
					sum += p.SAD
					if p.SAD < best.SAD {
						best = p
					}
				}
			}
			rc.Partitions[index32(r32, c32)] = PartitionResult{MV: best.MV, SAD: sum}
		}
	}
	var sum64 uint32
	best64 := PartitionResult{SAD: ^uint32(0)}
	for i := 0; i < 4; i++ {
		p := rc.Partitions[idx32Base+i]
		sum64 += p.SAD
		if p.SAD < best64.SAD {
			best64 = p
		}
	}
	rc.Partitions[index64()] = PartitionResult{MV: best64.MV, SAD: sum64}
}
