/*
DESCRIPTION
  hme.go implements the Hierarchical Motion Estimation search: Level 0
  (sixteenth-resolution, multi-quadrant), Levels 1/2 (quarter- and full-
  resolution center refinement), and the optional Pre-HME pass (spec.md
  §4.6).

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
	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

// SearchResult is the outcome of one HME or integer-ME search: the
// best offset found (in the resolution space it was searched at) and
// its SAD.
type SearchResult struct {
	MV  picture.MV
	SAD uint32
}

// Quadrant identifies one of the (typically 2x2) HME Level 0 search
// regions within a block.
type Quadrant struct {
	OriginX, OriginY int // Top-left of this quadrant, in sixteenth-res plane coordinates.
	Width, Height    int
}

// Level0Params configures a single (list, ref, quadrant) HME Level 0
// search (spec.md §4.6 "HME Level 0").
type Level0Params struct {
	// TotalSearchWidth/Height is the per-quadrant nominal search extent
	// before distance scaling.
	TotalSearchWidth  int
	TotalSearchHeight int

	// TemporalDistance is the signed POC delta to the reference; its
	// magnitude widens the search area (with MinExtent as a floor).
	TemporalDistance int
	MinExtent        int

	// RefPicIndex is this reference's position within its list (0 =
	// nearest); used by distance_based_hme_resizing.
	RefPicIndex int

	// List0Ref0Horizontal/Vertical communicate a strongly-directional
	// list0/ref0 result so later references can bias their search
	// extent asymmetrically (spec.md §4.6 "(d) optional direction
	// asymmetry").
	List0Ref0Horizontal bool
	List0Ref0Vertical   bool
}

// searchExtent derives the half-width/half-height of the Level 0 search
// area from the configured total extent, temporal-distance scaling,
// per-reference-index resizing, and direction asymmetry.
func searchExtent(p Level0Params, cfg *config.Config) (halfW, halfH int) {
	dist := p.TemporalDistance
	if dist < 0 {
		dist = -dist
	}
	scale := 1 + dist
	w := p.TotalSearchWidth * scale
	h := p.TotalSearchHeight * scale

	if cfg.MESRAdjustment.DistanceBasedHMEResizing && p.RefPicIndex > 0 {
		w /= 1 + p.RefPicIndex
		h /= 1 + p.RefPicIndex
	}
	if w < p.MinExtent {
		w = p.MinExtent
	}
	if h < p.MinExtent {
		h = p.MinExtent
	}

	if p.List0Ref0Horizontal {
		h /= 2
	}
	if p.List0Ref0Vertical {
		w /= 2
	}
	return w / 2, h / 2
}

// SearchLevel0 runs one (list, ref, quadrant) HME Level 0 search on the
// sixteenth-resolution reference, centered at (centerX, centerY) in
// sixteenth-res coordinates, and returns the best offset scaled ×4 into
// quarter-resolution units (the next HME level) alongside its SAD (spec.md §4.6:
// "Output is scaled ×4").
func SearchLevel0(cur, ref *Plane, centerX, centerY int, q Quadrant, p Level0Params, cfg *config.Config) SearchResult {
	halfW, halfH := searchExtent(p, cfg)
	win := ref.Clamp(Window{
		X0: centerX - halfW, Y0: centerY - halfH,
		X1: centerX + halfW, Y1: centerY + halfH,
	})

	sadFn := SAD
	if cfg.HMESearchMethod == config.HMESearchSubSAD {
		sadFn = SADSubsampled
	}

	best := SearchResult{SAD: ^uint32(0)}
	for y := win.Y0; y+q.Height <= win.Y1; y++ {
		for x := win.X0; x+q.Width <= win.X1; x++ {
			sad := sadFn(cur, q.OriginX, q.OriginY, ref, x, y, q.Width, q.Height)
			if sad < best.SAD {
				best = SearchResult{MV: picture.MV{X: int16((x - q.OriginX) * 4), Y: int16((y - q.OriginY) * 4)}, SAD: sad}
			}
		}
	}
	return best
}

// RefineParams configures a Level 1/2 refinement pass around a Level 0
// (or Level 1) center (spec.md §4.6: "using narrower search extents").
type RefineParams struct {
	SearchWidth, SearchHeight int
	TemporalDistance          int // Only applied when ScaleByDistance.
	ScaleByDistance           bool
}

// Refine narrows a coarser-level center into a finer-resolution plane.
// centerX/centerY and the returned MV are both in the finer plane's
// coordinate space (the caller is responsible for rescaling the
// incoming center from the coarser level).
func Refine(cur, ref *Plane, centerX, centerY, blockW, blockH int, p RefineParams) SearchResult {
	w, h := p.SearchWidth, p.SearchHeight
	if p.ScaleByDistance {
		dist := p.TemporalDistance
		if dist < 0 {
			dist = -dist
		}
		scale := 1 + dist
		w *= scale
		h *= scale
	}
	win := ref.Clamp(Window{X0: centerX - w/2, Y0: centerY - h/2, X1: centerX + w/2, Y1: centerY + h/2})

	best := SearchResult{SAD: ^uint32(0)}
	for y := win.Y0; y+blockH <= win.Y1; y++ {
		for x := win.X0; x+blockW <= win.X1; x++ {
			sad := SAD(cur, 0, 0, ref, x, y, blockW, blockH)
			if sad < best.SAD {
				best = SearchResult{MV: picture.MV{X: int16(x), Y: int16(y)}, SAD: sad}
			}
		}
	}
	return best
}

// PreHMERegion is one of the one-or-two configured extra Level 0 search
// regions evaluated by the optional Pre-HME pass.
type PreHMERegion struct {
	CenterX, CenterY int
}

// RunPreHME searches each configured region with the same Level 0
// kernel and, if its best result beats the worst of the existing
// quadrant results, replaces that quadrant (spec.md §4.6 "Pre-HME").
func RunPreHME(cur, ref *Plane, regions []PreHMERegion, q Quadrant, p Level0Params, cfg *config.Config, quadrantResults []SearchResult) []SearchResult {
	for _, reg := range regions {
		cand := SearchLevel0(cur, ref, reg.CenterX, reg.CenterY, q, p, cfg)
		worst := 0
		for i, r := range quadrantResults {
			if r.SAD > quadrantResults[worst].SAD {
				worst = i
			}
		}
		if len(quadrantResults) == 0 || cand.SAD < quadrantResults[worst].SAD {
			if len(quadrantResults) == 0 {
				quadrantResults = append(quadrantResults, cand)
			} else {
				quadrantResults[worst] = cand
			}
		}
	}
	return quadrantResults
}
