/*
DESCRIPTION
  minigop.go implements the Mini-GOP Partitioner (spec.md §4.2): it splits a
  pre-assignment window into mini-GOPs of valid hierarchical depth, walking
  a static candidate-slot table from largest (root) to smallest (leaf)
  hierarchical level so that a slot too big for the remaining window falls
  back to its children automatically.

  Per spec.md §9's design note ("deep nested switch statements... encode as
  data"), the static table is generated by recursive bisection rather than
  hand-transcribed from the reference encoder's literal per-index switch,
  which only ever enumerates the same power-of-two bisection in source.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package minigop implements the Mini-GOP Partitioner.
package minigop

import (
	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

// MinHierarchicalLevel is the smallest valid hierarchical-levels value a
// mini-GOP may use (spec.md §3: hierarchical_levels ∈ {3,4,5}; 0 is the
// degenerate low-delay single-picture case handled outside partitioning).
const MinHierarchicalLevel = 3

// MiniGop describes one partitioned group (spec.md §3).
type MiniGop struct {
	StartIndex, EndIndex int
	HierarchicalLevels   uint8
	IntraCount           uint32
	IDRCount             uint32
}

// Length returns end-start+1.
func (m MiniGop) Length() int { return m.EndIndex - m.StartIndex + 1 }

// slot is one static candidate-table entry.
type slot struct {
	start, end int
	level      uint8
}

// buildTable generates the static candidate-slot table for the configured
// maximum hierarchical level, root (largest) entries first, each followed
// immediately by its two bisected children, repeated across the whole
// config.MaxPreAssignmentBufferSize window.
func buildTable(maxLevel uint8) []slot {
	var table []slot
	stride := 1 << maxLevel
	for start := 0; start < config.MaxPreAssignmentBufferSize; start += stride {
		end := start + stride - 1
		appendSubtree(&table, start, end, maxLevel)
	}
	return table
}

func appendSubtree(table *[]slot, start, end int, level uint8) {
	*table = append(*table, slot{start: start, end: end, level: level})
	if level > MinHierarchicalLevel {
		length := end - start + 1
		mid := start + length/2
		appendSubtree(table, start, mid-1, level-1)
		appendSubtree(table, mid, end, level-1)
	}
}

// Partitioner enumerates mini-GOPs from a pre-assignment buffer of
// pictures, given a configured maximum hierarchical level.
type Partitioner struct {
	table []slot
}

// NewPartitioner builds the static slot table for maxLevel once.
// config.Config.Validate admits 0, 3, 4 and 5; values below 3 are raised
// to 3 here.
func NewPartitioner(maxLevel uint8) *Partitioner {
	if maxLevel < MinHierarchicalLevel {
		maxLevel = MinHierarchicalLevel
	}
	return &Partitioner{table: buildTable(maxLevel)}
}

// Partition splits a buffer of n pictures (n <= config.MaxPreAssignmentBufferSize)
// into mini-GOPs, propagating intraCount/idrCount onto the last emitted
// mini-GOP only (spec.md §4.2).
func (p *Partitioner) Partition(n int, intraCount, idrCount uint32) ([]MiniGop, error) {
	if n <= 0 {
		return nil, nil
	}
	if n > config.MaxPreAssignmentBufferSize {
		return nil, picture.NewError(picture.KindInvariantViolated,
			"minigop: pre-assignment buffer size %d exceeds maximum %d", n, config.MaxPreAssignmentBufferSize)
	}

	active := make([]bool, len(p.table))
	for i, s := range p.table {
		active[i] = s.end < n
	}

	var gops []MiniGop
	i := 0
	for i < len(p.table) {
		if active[i] {
			s := p.table[i]
			gops = append(gops, MiniGop{StartIndex: s.start, EndIndex: s.end, HierarchicalLevels: s.level})
			i += advanceFor(p.table, i, s.level)
		} else {
			i++
		}
	}

	if len(gops) == 0 {
		gops = append(gops, MiniGop{StartIndex: 0, EndIndex: n - 1, HierarchicalLevels: MinHierarchicalLevel})
	} else if last := gops[len(gops)-1]; last.EndIndex < n-1 {
		gops = append(gops, MiniGop{StartIndex: last.EndIndex + 1, EndIndex: n - 1, HierarchicalLevels: MinHierarchicalLevel})
	}

	gops[len(gops)-1].IntraCount = intraCount
	gops[len(gops)-1].IDRCount = idrCount

	return gops, nil
}

// advanceFor returns how many table rows to skip past the subtree rooted
// at table[i] (the slot's own entry plus every descendant bisection entry
// the recursive builder emitted for it).
func advanceFor(table []slot, i int, level uint8) int {
	count := 1
	for level > MinHierarchicalLevel {
		count = count*2 + 1
		level--
	}
	_ = table
	return count
}
