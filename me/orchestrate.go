/*
DESCRIPTION
  orchestrate.go composes HME Search, Reference Pruning, Integer ME,
  the Candidate Builder, Intra OIS, and GM Detection into the single
  per-superblock pipeline spec.md §4.6/§6 describes, and is the sole
  caller of those packages' exported entry points. RunSuperBlock is
  the function package pipeline's SegmentProcessor ultimately invokes
  per (picture, SB, segment) job.

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
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

// SBSize is the luma superblock edge length, full resolution (spec.md
// GLOSSARY "SB"; mirrors decision.SBSize — package me does not import
// package decision, so the constant is kept in step here rather than
// shared, to avoid a reverse dependency on the Picture Decision layer).
const SBSize = 64

// Surfaces bundles one picture's full, quarter, and sixteenth
// resolution decimations, as HME's three levels each require (spec.md
// §4.6 "HME Search").
type Surfaces struct {
	Full      *Plane
	Quarter   *Plane
	Sixteenth *Plane
}

// RefInput is one candidate reference's surfaces together with its
// list position (0 = nearest) and signed temporal distance, as
// consumed by RunSuperBlock.
type RefInput struct {
	List             int
	Idx              int
	Surfaces         Surfaces
	TemporalDistance int
}

// RefSBMV is one alive reference's chosen 64x64 motion vector for a
// superblock, expressed in 1/4-pel units with MV-range clipping
// applied (spec.md §6 "MV array per (list, ref) in 1/4-pel units").
type RefSBMV struct {
	List, Idx int
	MV        picture.MV
	Clipped   bool
}

// SBDistortion is the per-SB distortion aggregates spec.md §6
// requires: the best alive reference's SAD at each partition size,
// normalized to the SB's own 64x64 area, plus the variance across the
// sixty-four 8x8 SADs.
type SBDistortion struct {
	SAD64     uint32
	SAD32     [4]uint32
	SAD16     [16]uint32
	SAD8      [64]uint32
	Variance8 float64
}

// SBResult is the full per-SB Motion Estimation output (spec.md §6):
// the candidate list per 16x16 PU, the per-(list,ref) MV array,
// distortion aggregates, per-block intra-OIS results, and the GM/
// stationary-block flags.
type SBResult struct {
	SBIndex int

	Candidates [16][]Candidate
	RefMVs     []RefSBMV
	Distortion SBDistortion
	Intra      [16]OISResult

	AllowGM                bool
	StationaryBlockPresent bool
}

// sbArea is the pixel area of a 64x64 superblock, the normalization
// base SBDistortion's partition-size aggregates share (spec.md §6
// "normalized to SB area").
const sbArea = SBSize * SBSize

// partitionArea returns the pixel area of the partition at idx within
// the 85-entry pyramid.
func partitionArea(idx int) int {
	switch {
	case idx < idx32Base:
		return 64 * 64
	case idx < idx16Base:
		return 32 * 32
	case idx < idx8Base:
		return 16 * 16
	default:
		return 8 * 8
	}
}

// normalize scales a partition's raw SAD to the SB's 64x64 area so
// aggregates at different partition sizes are directly comparable.
func normalize(sad uint32, idx int) uint32 {
	return uint32(uint64(sad) * sbArea / uint64(partitionArea(idx)))
}

// searchHME chains Level 0 (sixteenth-res, four quadrants) into two
// Refine passes (quarter-res then full-res) for one reference,
// returning the resulting full-res integer-pel seed (as an offset
// from the SB's own origin) and the four quadrant-level SADs used by
// reference pruning.
//
// SearchLevel0 reports its best match as a true offset already scaled
// for the next (quarter-res) level, but Refine reports an absolute
// window position instead. Each Refine call's result must therefore
// have the SB's own origin (at that level's resolution, not the
// center the search ran around) subtracted back out before it is
// rescaled into the next, finer level's units.
func searchHME(cur Surfaces, sbX, sbY int, ri RefInput, cfg *config.Config, preHME []PreHMERegion) (picture.MV, [4]uint32) {
	const quadEdge = SBSize / 2 // 32, full-res quadrant edge; 2x2 grid of quadrants.
	grid := [4][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

	quadrants := make([]Quadrant, 0, 4)
	params := make([]Level0Params, 0, 4)
	results := make([]SearchResult, 0, 4)
	for _, g := range grid {
		originFullX := sbX + g[0]*quadEdge
		originFullY := sbY + g[1]*quadEdge
		q := Quadrant{
			OriginX: originFullX / 16, OriginY: originFullY / 16,
			Width:   quadEdge / 16, Height: quadEdge / 16,
		}
		p := Level0Params{
			TotalSearchWidth: quadEdge / 16, TotalSearchHeight: quadEdge / 16,
			TemporalDistance: ri.TemporalDistance, MinExtent: 2,
			RefPicIndex: ri.Idx,
		}
		quadrants = append(quadrants, q)
		params = append(params, p)
		results = append(results, SearchLevel0(cur.Sixteenth, ri.Surfaces.Sixteenth, q.OriginX, q.OriginY, q, p, cfg))
	}

	if len(preHME) > 0 {
		// Every quadrant shares the same sixteenth-res kernel, so one
		// representative (quadrant, params) pair is enough to drive
		// the extra regions (spec.md §4.6 "Pre-HME").
		results = RunPreHME(cur.Sixteenth, ri.Surfaces.Sixteenth, preHME, quadrants[0], params[0], cfg, results)
	}

	var quadrantSADs [4]uint32
	best := SearchResult{SAD: ^uint32(0)}
	for i, r := range results {
		if i < 4 {
			quadrantSADs[i] = r.SAD
		}
		if r.SAD < best.SAD {
			best = r
		}
	}

	quarterOriginX, quarterOriginY := sbX/4, sbY/4
	level1 := Refine(cur.Quarter, ri.Surfaces.Quarter,
		quarterOriginX+int(best.MV.X), quarterOriginY+int(best.MV.Y),
		quadEdge/4, quadEdge/4,
		RefineParams{SearchWidth: 4, SearchHeight: 4, TemporalDistance: ri.TemporalDistance, ScaleByDistance: true},
	)

	level1OffsetX := int(level1.MV.X) - quarterOriginX
	level1OffsetY := int(level1.MV.Y) - quarterOriginY

	level2 := Refine(cur.Full, ri.Surfaces.Full,
		sbX+level1OffsetX*4, sbY+level1OffsetY*4,
		quadEdge, quadEdge,
		RefineParams{SearchWidth: 4, SearchHeight: 4, TemporalDistance: ri.TemporalDistance, ScaleByDistance: true},
	)

	return picture.MV{X: int16(int(level2.MV.X) - sbX), Y: int16(int(level2.MV.Y) - sbY)}, quadrantSADs
}

// refKey identifies a reference by (list, index within list).
type refKey [2]int

// collectRefMVs gathers the given list's alive references' results at
// partitionIdx, sorted nearest-reference-first, as BuildCandidates
// requires.
func collectRefMVs(refs []RefInput, contexts map[refKey]*RefContext, list, partitionIdx int) []RefMV {
	var out []RefMV
	for _, ri := range refs {
		if ri.List != list {
			continue
		}
		rc, ok := contexts[refKey{ri.List, ri.Idx}]
		if !ok {
			continue
		}
		p := rc.Partitions[partitionIdx]
		out = append(out, RefMV{Idx: ri.Idx, MV: [2]int16{p.MV.X, p.MV.Y}, Dist: p.SAD, Alive: true})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Idx < out[j].Idx })
	return out
}

// buildDistortion normalizes the surviving reference with the lowest
// 64x64 SAD into the SB's distortion aggregates.
func buildDistortion(contexts map[refKey]*RefContext) SBDistortion {
	var best *RefContext
	for _, rc := range contexts {
		if best == nil || rc.Partitions[index64()].SAD < best.Partitions[index64()].SAD {
			best = rc
		}
	}
	var d SBDistortion
	if best == nil {
		return d
	}
	d.SAD64 = normalize(best.Partitions[index64()].SAD, idx64Base)
	for i := 0; i < 4; i++ {
		d.SAD32[i] = normalize(best.Partitions[idx32Base+i].SAD, idx32Base)
	}
	for i := 0; i < 16; i++ {
		d.SAD16[i] = normalize(best.Partitions[idx16Base+i].SAD, idx16Base)
	}
	vals := make([]float64, 64)
	for i := 0; i < 64; i++ {
		sad := normalize(best.Partitions[idx8Base+i].SAD, idx8Base)
		d.SAD8[i] = sad
		vals[i] = float64(sad)
	}
	d.Variance8 = stat.Variance(vals, nil)
	return d
}

// intraOISConfig maps the ambient config's IntraOIS toggles into
// package me's own OISConfig, avoiding an import cycle (config cannot
// import me, since me already imports config).
func intraOISConfig(cfg *config.Config) OISConfig {
	metric := CostSAD
	if cfg.IntraOIS.UseSATD {
		metric = CostSATD
	}
	return OISConfig{
		EnablePaeth:       cfg.IntraOIS.EnablePaeth,
		EnableSmoothH:     cfg.IntraOIS.EnableSmoothH,
		EnableDirectional: cfg.IntraOIS.EnableDirectional,
		Metric:            metric,
	}
}

// extractBlock flattens the 16x16 block of p at (x0, y0) into the
// layout SearchOIS expects.
func extractBlock(p *Plane, x0, y0 int) [16 * 16]uint8 {
	var b [16 * 16]uint8
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			b[y*16+x] = p.at(x0+x, y0+y)
		}
	}
	return b
}

// intraPredictor builds a Predictor over p's already-reconstructed
// causal neighbour samples (left column and top row) of the 16x16
// block at (blockX, blockY), approximating the reference encoder's DC/
// Paeth/SMOOTH_H/directional kernels (spec.md §4.6 "Intra OIS search").
func intraPredictor(p *Plane, blockX, blockY int) Predictor {
	return func(mode IntraMode) [16 * 16]uint8 {
		var out [16 * 16]uint8
		switch mode {
		case IntraPaeth:
			corner := int(p.at(blockX-1, blockY-1))
			for y := 0; y < 16; y++ {
				left := int(p.at(blockX-1, blockY+y))
				for x := 0; x < 16; x++ {
					top := int(p.at(blockX+x, blockY-1))
					out[y*16+x] = paeth(left, top, corner)
				}
			}
		case IntraSmoothH:
			topRight := int(p.at(blockX+16, blockY-1))
			for y := 0; y < 16; y++ {
				left := int(p.at(blockX-1, blockY+y))
				for x := 0; x < 16; x++ {
					w := 16 - x
					out[y*16+x] = uint8((left*w + topRight*(x+1)) / 17)
				}
			}
		case IntraD45:
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					out[y*16+x] = p.at(blockX+x+y+1, blockY-1)
				}
			}
		case IntraD67:
			for y := 0; y < 16; y++ {
				for x := 0; x < 16; x++ {
					out[y*16+x] = p.at(blockX-1, blockY+y+x/2+1)
				}
			}
		default: // IntraDC
			var sum, n int
			for i := 0; i < 16; i++ {
				sum += int(p.at(blockX+i, blockY-1))
				sum += int(p.at(blockX-1, blockY+i))
				n += 2
			}
			dc := uint8(sum / n)
			for i := range out {
				out[i] = dc
			}
		}
		return out
	}
}

func paeth(left, top, corner int) uint8 {
	base := left + top - corner
	dl, dt, dc := iabs(base-left), iabs(base-top), iabs(base-corner)
	switch {
	case dl <= dt && dl <= dc:
		return uint8(left)
	case dt <= dc:
		return uint8(top)
	default:
		return uint8(corner)
	}
}

func iabs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// RunSuperBlock runs HME Search, Reference Pruning, Integer ME, the
// Candidate Builder, Intra OIS, and GM Detection for one superblock,
// composing them into the single per-SB result spec.md §6 requires.
// refs need not already be pruned; RunSuperBlock itself decides which
// stay alive.
func RunSuperBlock(sbIndex, sbX, sbY int, cur Surfaces, refs []RefInput, cfg *config.Config, preHME []PreHMERegion) SBResult {
	result := SBResult{SBIndex: sbIndex}

	seeds := make(map[refKey]picture.MV, len(refs))
	refHMEs := make([]RefHME, 0, len(refs))
	for _, ri := range refs {
		seed, quadSADs := searchHME(cur, sbX, sbY, ri, cfg, preHME)
		key := refKey{ri.List, ri.Idx}
		seeds[key] = seed

		var blockSADs [64]uint32
		for q := 0; q < 4; q++ {
			for b := 0; b < 16; b++ {
				blockSADs[q*16+b] = quadSADs[q] / 16
			}
		}
		refHMEs = append(refHMEs, RefHME{List: ri.List, RefIndex: ri.Idx, BlockSADs: blockSADs, MV: seed})
	}

	doRef := make(map[refKey]PruneDecision, len(refHMEs))
	for _, d := range PruneReferences(refHMEs, cfg) {
		doRef[refKey{d.List, d.RefIndex}] = d
	}

	contexts := make(map[refKey]*RefContext, len(refs))
	for _, ri := range refs {
		key := refKey{ri.List, ri.Idx}
		d, ok := doRef[key]
		if !ok || !d.DoRef {
			continue
		}
		radius := defaultIntegerSearchRadius
		if d.SearchRadiusDivisor > 0 {
			radius /= int(d.SearchRadiusDivisor)
		}
		if radius < 1 {
			radius = 1
		}
		rc := IntegerMESearch(cur.Full, ri.Surfaces.Full, sbX, sbY, seeds[key], radius)
		rc.List, rc.RefIndex = ri.List, ri.Idx
		contexts[key] = rc

		mv, clipped := (picture.MV{
			X: rc.Partitions[index64()].MV.X * 4,
			Y: rc.Partitions[index64()].MV.Y * 4,
		}).Clip()
		result.RefMVs = append(result.RefMVs, RefSBMV{List: ri.List, Idx: ri.Idx, MV: mv, Clipped: clipped})
	}

	for pu := 0; pu < 16; pu++ {
		idx := index16(pu/4, pu%4)
		list0 := collectRefMVs(refs, contexts, 0, idx)
		list1 := collectRefMVs(refs, contexts, 1, idx)
		result.Candidates[pu] = BuildCandidates(list0, list1, cfg.PruneMECandidatesTh, cfg)
	}

	result.Distortion = buildDistortion(contexts)

	var blocks []BlockMV
	for _, ri := range refs {
		rc, ok := contexts[refKey{ri.List, ri.Idx}]
		if !ok {
			continue
		}
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				p := rc.Partitions[index16(row, col)]
				blocks = append(blocks, BlockMV{List: ri.List, RefIdx: ri.Idx, MVX: p.MV.X, MVY: p.MV.Y, TemporalDist: ri.TemporalDistance})
			}
		}
	}
	gm := DetectGM(blocks, &cfg.GM)
	result.AllowGM, result.StationaryBlockPresent = gm.AllowGM, gm.StationaryBlockPresent

	oisCfg := intraOISConfig(cfg)
	for i := 0; i < 16; i++ {
		blockX, blockY := sbX+(i%4)*16, sbY+(i/4)*16
		result.Intra[i] = SearchOIS(extractBlock(cur.Full, blockX, blockY), intraPredictor(cur.Full, blockX, blockY), oisCfg)
	}

	return result
}
