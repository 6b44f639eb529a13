/*
DESCRIPTION
  scd.go implements the Scene Transition Detector (spec.md §4.1): region-wise
  luma/chroma histogram and intensity analysis that classifies a picture as
  carrying an abrupt change, a gradual change, a flash, a fade, or a scene
  change, and maintains the running 3:1 IIR average of per-region
  accumulated histogram differences (AHD).

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package scd implements the Scene Transition Detector.
package scd

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

// Thresholds taken from the reference encoder (spec.md §4.1, §8 seed
// scenario 3/4).
const (
	flashTh             = 5
	fadeTh              = 3
	sceneTh             = 3000
	noisySceneTh        = 4500
	highPictureVarianceTh = 1500
	noiseVarianceTh     = 100
	block64Log2Area     = 12 // log2(64*64)
)

// Transition is the per-region-pooled classification Update returns.
type Transition struct {
	// SceneChange is the final decision (spec.md §4.1 last paragraph): the
	// abrupt-change region count met threshold, and the current picture is
	// not mid fade-in/fade-out.
	SceneChange bool

	AbruptChangeRegions  int
	GradualChangeRegions int
	FlashRegions         int
	FadeRegions          int
	TotalRegions         int
}

// RunningAverages holds the per-region 3:1 IIR running average of AHD for
// luma, Cb and Cr, replacing the teacher-pattern global mutable scratch
// arrays with an owned struct (spec.md §9 design note).
type RunningAverages struct {
	cols, rows int
	luma       [][]uint32
	cb         [][]uint32
	cr         [][]uint32
	reset      bool
}

// NewRunningAverages allocates state for a cols x rows region grid. The
// first Update call always resets the average to the observed AHD (spec.md
// §4.1: "reset on abrupt-change majority", and unconditionally on the very
// first picture since there is no prior average yet).
func NewRunningAverages(cols, rows int) *RunningAverages {
	r := &RunningAverages{cols: cols, rows: rows, reset: true}
	r.luma = make([][]uint32, cols)
	r.cb = make([][]uint32, cols)
	r.cr = make([][]uint32, cols)
	for c := 0; c < cols; c++ {
		r.luma[c] = make([]uint32, rows)
		r.cb[c] = make([]uint32, rows)
		r.cr[c] = make([]uint32, rows)
	}
	return r
}

// Detector runs SceneTransitionDetector over a sliding three-picture window.
type Detector struct {
	cfg *config.Config
	avg *RunningAverages
}

// NewDetector constructs a Detector for the given configuration's region
// grid.
func NewDetector(cfg *config.Config) *Detector {
	return &Detector{
		cfg: cfg,
		avg: NewRunningAverages(cfg.PictureAnalysisRegionsPerWidth, cfg.PictureAnalysisRegionsPerHeight),
	}
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func absDiffI(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// ahd sums the per-bin absolute histogram difference for one channel over
// HistogramNumberOfBins bins via a gonum reduction, matching the teacher's
// preference for gonum/floats vector ops over hand-rolled loops where a
// reduction is natural (SPEC_FULL.md §3).
func ahd(cur, prev [picture.HistogramNumberOfBins]uint32) uint32 {
	var diff [picture.HistogramNumberOfBins]float64
	for i := range diff {
		if cur[i] > prev[i] {
			diff[i] = float64(cur[i] - prev[i])
		} else {
			diff[i] = float64(prev[i] - cur[i])
		}
	}
	return uint32(floats.Sum(diff[:]))
}

// Update runs the detector over (prev, cur, fut), updating the running
// averages in place and returning the classification for cur. width/height
// are cur's luma dimensions, used to scale the per-region threshold by the
// number of 64x64 blocks in the (possibly edge-clipped) region.
func (d *Detector) Update(prev, cur, fut *picture.Picture, width, height int) (Transition, error) {
	if prev == nil || cur == nil || fut == nil {
		return Transition{}, picture.NewError(picture.KindInvariantViolated, "scd: Update requires three non-nil pictures")
	}
	cols, rows := d.avg.cols, d.avg.rows
	if err := cur.RegionHistograms.Validate(cols, rows); err != nil {
		return Transition{}, picture.Wrap(err, "scd: current picture")
	}
	if err := prev.RegionHistograms.Validate(cols, rows); err != nil {
		return Transition{}, picture.Wrap(err, "scd: previous picture")
	}

	regionWidth := width / cols
	regionHeight := height / rows

	var t Transition
	t.TotalRegions = cols * rows

	noisy := absDiffI32(cur.AverageVariance, prev.AverageVariance) > noiseVarianceTh &&
		(cur.AverageVariance > highPictureVarianceTh || prev.AverageVariance > highPictureVarianceTh)

	for ci := 0; ci < cols; ci++ {
		for ri := 0; ri < rows; ri++ {
			rw, rh := regionWidth, regionHeight
			if ci == cols-1 {
				rw = width - cols*regionWidth + regionWidth
			}
			if ri == rows-1 {
				rh = height - rows*regionHeight + regionHeight
			}
			num64 := (rw * rh) >> block64Log2Area
			if num64 == 0 {
				num64 = 1
			}

			th := uint32(sceneTh * num64)
			if noisy {
				th = uint32(noisySceneTh * num64)
			}
			thChroma := th / 4

			curHist := cur.RegionHistograms.Bins[ci][ri]
			prevHist := prev.RegionHistograms.Bins[ci][ri]

			ahdY := ahd(curHist[0], prevHist[0])
			ahdCb := ahd(curHist[1], prevHist[1])
			ahdCr := ahd(curHist[2], prevHist[2])

			if d.avg.reset {
				d.avg.luma[ci][ri] = ahdY
				d.avg.cb[ci][ri] = ahdCb
				d.avg.cr[ci][ri] = ahdCr
			}

			errY := absDiff(d.avg.luma[ci][ri], ahdY)
			errCb := absDiff(d.avg.cb[ci][ri], ahdCb)
			errCr := absDiff(d.avg.cr[ci][ri], ahdCr)

			abrupt := (errY > th && ahdY >= errY) ||
				(errCb > thChroma && ahdCb >= errCb) ||
				(errCr > thChroma && ahdCr >= errCr)
			gradual := !abrupt && errY > th/2 && ahdY >= errY

			if abrupt {
				anyAbrupt = true
				t.AbruptChangeRegions++

				futPast := absDiffI(fut.RegionHistograms.Intensity(ci, ri), prev.RegionHistograms.Intensity(ci, ri))
				futPresent := absDiffI(fut.RegionHistograms.Intensity(ci, ri), cur.RegionHistograms.Intensity(ci, ri))
				presentPast := absDiffI(cur.RegionHistograms.Intensity(ci, ri), prev.RegionHistograms.Intensity(ci, ri))

				switch {
				case futPast < flashTh && futPresent >= flashTh && presentPast >= flashTh:
					t.FlashRegions++
				case futPresent < fadeTh && presentPast < fadeTh:
					t.FadeRegions++
				default:
					// scene-change region; counted in isSceneChangeCount analog below.
				}
			} else if gradual {
				t.GradualChangeRegions++
				d.avg.luma[ci][ri] = (3*d.avg.luma[ci][ri] + ahdY) / 4
			} else {
				d.avg.luma[ci][ri] = (3*d.avg.luma[ci][ri] + ahdY) / 4
			}
			// Cb/Cr running averages are only ever set on reset; the IIR
			// update itself is luma-only, matching the reference detector.
		}
	}

	d.avg.reset = anyAbrupt

	// Scene-change region count, mirroring the source's separate
	// isSceneChangeCount tally: abrupt regions that are neither flash nor
	// fade.
	sceneChangeRegions := t.AbruptChangeRegions - t.FlashRegions - t.FadeRegions

	pct := 50
	if d.cfg.SceneChangeDetection == config.SCDMode2 {
		pct = 75
	}
	threshold := int(math.Round(float64(t.TotalRegions*pct) / 100))

	t.SceneChange = sceneChangeRegions >= threshold && !isFading(cur)

	return t, nil
}

func absDiffI32(a, b uint16) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// isFading reports whether cur is mid fade-in or fade-out, per spec.md
// §4.1's final clause. The flags originate in upstream Picture Analysis.
func isFading(cur *picture.Picture) bool {
	return cur.FadeInToBlack || cur.FadeOutFromBlack
}
