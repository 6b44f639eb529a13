/*
DESCRIPTION
  picture.go defines the picture descriptor that flows between the Picture
  Decision driver, the RPS generator, the PA reference queue, and Motion
  Estimation. A Picture is owned by its producer until published, and is
  safe for concurrent read-only access afterwards (see package pipeline).

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package picture holds the data model shared by the picture-decision,
// RPS, reference-queue and motion-estimation packages: the picture
// descriptor, its slice/frame/pred-structure enums, the seven AV1
// reference slots, and the DPB refresh-mask helpers.
package picture

import (
	"gonum.org/v1/gonum/mat"
)

// SliceType classifies a picture's coding slice type.
type SliceType uint8

const (
	SliceI SliceType = iota
	SliceP
	SliceB
)

func (t SliceType) String() string {
	switch t {
	case SliceI:
		return "I"
	case SliceP:
		return "P"
	case SliceB:
		return "B"
	default:
		return "unknown"
	}
}

// FrameType distinguishes the AV1 frame types relevant to RPS derivation.
type FrameType uint8

const (
	FrameKey FrameType = iota
	FrameIntraOnly
	FrameInter
)

// PredStructure is the prediction-structure family a picture belongs to.
type PredStructure uint8

const (
	RandomAccess PredStructure = iota
	LowDelayP
	LowDelayB
)

// RefSlot indexes the seven AV1 reference-frame slots (order matters: it is
// the order RPS.DPBIndex/RefPOC/ and downstream list construction use).
type RefSlot uint8

const (
	Last RefSlot = iota
	Last2
	Last3
	Gold
	Bwd
	Alt2
	Alt
	numRefSlots
)

func (s RefSlot) String() string {
	names := [...]string{"LAST", "LAST2", "LAST3", "GOLD", "BWD", "ALT2", "ALT"}
	if int(s) < len(names) {
		return names[s]
	}
	return "UNKNOWN"
}

// NumRefSlots is the number of AV1 reference-frame slots a picture's RPS
// carries (spec.md §3).
const NumRefSlots = int(numRefSlots)

// DPBSize is the number of decoded-picture-buffer ring slots (spec.md
// GLOSSARY: DPB).
const DPBSize = 8

// MV is a motion vector in 1/4-pel units. Packing into a single 32-bit word
// (upper 16 = y, lower 16 = x) is confined to the SAD-kernel boundary in
// package me; every other consumer uses this struct (spec.md §9).
type MV struct {
	X, Y int16
}

// Motion vector range, AV1 spec clause 7.10.2.10.
const (
	MVLow = -(1 << 14)
	MVUpp = (1 << 14) - 1
)

// Clip clips m into [MVLow, MVUpp], reporting whether clipping occurred so
// callers can log-and-continue per spec.md §7 ("MV out-of-range ... logged
// and converted to safe defaults").
func (m MV) Clip() (clipped MV, wasClipped bool) {
	x, y := int(m.X), int(m.Y)
	if x < MVLow {
		x, wasClipped = MVLow, true
	} else if x > MVUpp {
		x, wasClipped = MVUpp, true
	}
	if y < MVLow {
		y, wasClipped = MVLow, true
	} else if y > MVUpp {
		y, wasClipped = MVUpp, true
	}
	return MV{X: int16(x), Y: int16(y)}, wasClipped
}

// RPS is a picture's Reference Picture Signaling: the per-slot DPB index
// and reference POC for the seven AV1 reference slots, the refresh mask,
// and the skip-mode pair (spec.md §3, §4.3, §4.4).
type RPS struct {
	DPBIndex [NumRefSlots]uint8
	RefPOC   [NumRefSlots]int64

	// RefreshFrameMask is the 8-bit DPB slot refresh mask.
	RefreshFrameMask uint8

	SkipModeAllowed bool
	SkipModeIdx0    uint8
	SkipModeIdx1    uint8
}

// Picture is the parent control set for one source picture (spec.md §3).
type Picture struct {
	// PictureNumberHint is admission order, not display POC (spec.md §6).
	PictureNumberHint int64

	POC         int64
	DecodeOrder int64

	SliceType          SliceType
	FrameType          FrameType
	HierarchicalLayer  uint8
	TemporalLayerIndex uint8
	HierarchicalLevels uint8
	PredStructure      PredStructure

	RefList0Count uint8
	RefList1Count uint8

	SceneChange bool
	IDRFlag     bool
	CRAFlag     bool

	// FadeInToBlack / FadeOutFromBlack are carried from upstream Picture
	// Analysis and suppress scene-change declaration while set (spec.md
	// §4.1 last paragraph).
	FadeInToBlack    bool
	FadeOutFromBlack bool

	ShowFrame       bool
	ShowExisting    bool
	ShowExistingLoc uint8

	RPS RPS

	AverageIntensity  uint8
	RegionHistograms  *Histograms
	AverageVariance   uint16

	EndOfSequence bool
}

// Histograms holds the per-region YUV histograms and per-region average
// luma intensity for one picture, as delivered by the upstream Picture
// Analysis stage (spec.md §6). HistogramNumberOfBins follows the AV1
// reference encoder convention of a 64-bin per-channel luma/chroma
// histogram.
const HistogramNumberOfBins = 64

// Histograms is laid out [regionCol][regionRow][channel][bin] for Bins,
// matching the iteration order of the Scene Transition Detector (spec.md
// §4.1). AvgIntensity is a RegionRows x RegionCols table of per-region
// average luma intensity, held as a *mat.Dense so the detector's
// region-to-region comparisons are plain matrix indexing rather than
// nested slices.
type Histograms struct {
	RegionCols, RegionRows int
	Bins                   [][][3][HistogramNumberOfBins]uint32
	AvgIntensity           *mat.Dense
}

// NewHistograms allocates a zeroed Histograms for the given region grid.
func NewHistograms(cols, rows int) *Histograms {
	h := &Histograms{
		RegionCols:   cols,
		RegionRows:   rows,
		Bins:         make([][][3][HistogramNumberOfBins]uint32, cols),
		AvgIntensity: mat.NewDense(rows, cols, nil),
	}
	for c := 0; c < cols; c++ {
		h.Bins[c] = make([][3][HistogramNumberOfBins]uint32, rows)
	}
	return h
}

// Intensity returns the average luma intensity of region (col, row).
func (h *Histograms) Intensity(col, row int) uint8 { return uint8(h.AvgIntensity.At(row, col)) }

// SetIntensity sets the average luma intensity of region (col, row).
func (h *Histograms) SetIntensity(col, row int, v uint8) { h.AvgIntensity.Set(row, col, float64(v)) }

// Validate checks the region grid matches cfg's expectations; callers pass
// the configured region counts (spec.md §7: "histogram region count
// mismatch vs. configuration" is InputViolated).
func (h *Histograms) Validate(cols, rows int) error {
	if h == nil {
		return NewError(KindInputViolated, "picture: nil histograms")
	}
	if h.RegionCols != cols || h.RegionRows != rows {
		return NewError(KindInputViolated, "picture: histogram region grid %dx%d does not match configured %dx%d", h.RegionCols, h.RegionRows, cols, rows)
	}
	return nil
}
