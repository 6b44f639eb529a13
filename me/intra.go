/*
DESCRIPTION
  intra.go implements the per-MB Intra OIS (Open-loop Intra Search)
  (spec.md §4.6): for each 16×16 block, evaluate a configured intra mode
  set and keep the lowest-cost mode.

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

// IntraMode identifies one of the candidate OIS prediction modes.
type IntraMode uint8

const (
	IntraDC IntraMode = iota
	IntraPaeth
	IntraSmoothH
	IntraD45
	IntraD67
)

// CostMetric selects how a predicted block is scored against the
// source (spec.md §4.6: "scoring by either SAD ... or SATD").
type CostMetric uint8

const (
	CostSAD CostMetric = iota
	CostSATD
)

// OISConfig configures which modes beyond mandatory DC are evaluated.
type OISConfig struct {
	EnablePaeth     bool
	EnableSmoothH   bool
	EnableDirectional bool // Through D67, with edge filtering.
	Metric          CostMetric
}

// Predictor produces a predicted 16x16 block for the given mode using
// already-reconstructed neighbour samples; it is supplied by the
// caller so intra.go stays free of the pixel-reconstruction details
// that live in the encoder's transform/reconstruction stage.
type Predictor func(mode IntraMode) [16 * 16]uint8

// OISResult is the lowest-cost intra mode found for one 16×16 block.
type OISResult struct {
	Mode IntraMode
	Cost uint32
}

// SearchOIS evaluates every mode enabled by cfg against src (a flattened
// 16x16 source block) using predict to generate each mode's prediction,
// and returns the lowest-cost mode (spec.md §4.6 "Intra OIS search").
func SearchOIS(src [16 * 16]uint8, predict Predictor, cfg OISConfig) OISResult {
	modes := []IntraMode{IntraDC}
	if cfg.EnablePaeth {
		modes = append(modes, IntraPaeth)
	}
	if cfg.EnableSmoothH {
		modes = append(modes, IntraSmoothH)
	}
	if cfg.EnableDirectional {
		modes = append(modes, IntraD45, IntraD67)
	}

	best := OISResult{Mode: IntraDC, Cost: ^uint32(0)}
	for _, m := range modes {
		pred := predict(m)
		var cost uint32
		switch cfg.Metric {
		case CostSATD:
			cost = satd16(src, pred)
		default:
			cost = sad16(src, pred)
		}
		if cost < best.Cost {
			best = OISResult{Mode: m, Cost: cost}
		}
	}
	return best
}

func sad16(a, b [16 * 16]uint8) uint32 {
	var sum uint32
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d < 0 {
			d = -d
		}
		sum += uint32(d)
	}
	return sum
}

// satd16 scores the residual of a 16x16 block via a Walsh-Hadamard
// transform applied to each 4x4 sub-block (spec.md §4.6: "SATD of a
// Walsh-Hadamard transform on the residual").
func satd16(a, b [16 * 16]uint8) uint32 {
	var total uint32
	var residual [16]int32
	for by := 0; by < 4; by++ {
		for bx := 0; bx < 4; bx++ {
			for y := 0; y < 4; y++ {
				for x := 0; x < 4; x++ {
					idx := (by*4+y)*16 + bx*4 + x
					residual[y*4+x] = int32(a[idx]) - int32(b[idx])
				}
			}
			total += hadamard4x4(residual)
		}
	}
	return total
}

// hadamard4x4 applies a 1-D Walsh-Hadamard transform across rows then
// columns of a 4x4 block and returns the sum of absolute coefficients.
func hadamard4x4(block [16]int32) uint32 {
	var m [4][4]int32
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = block[i*4+j]
		}
	}
	for i := 0; i < 4; i++ {
		hadamard1D(&m[i])
	}
	for j := 0; j < 4; j++ {
		var col [4]int32
		for i := 0; i < 4; i++ {
			col[i] = m[i][j]
		}
		hadamard1D(&col)
		for i := 0; i < 4; i++ {
			m[i][j] = col[i]
		}
	}
	var sum uint32
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			v := m[i][j]
			if v < 0 {
				v = -v
			}
			sum += uint32(v)
		}
	}
	return sum
}

func hadamard1D(v *[4]int32) {
	a, b, c, d := v[0], v[1], v[2], v[3]
	e := a + b
	f := a - b
	g := c + d
	h := c - d
	v[0] = e + g
	v[1] = f + h
	v[2] = e - g
	v[3] = f - h
}
