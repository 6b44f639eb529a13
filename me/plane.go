/*
DESCRIPTION
  plane.go defines the raw-sample plane and SAD primitives shared by every
  stage of the Motion Estimation core (spec.md §4.6).

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package me implements the Motion Estimation core: HME, integer-pel
// search, candidate building, intra OIS search, and global-motion
// detection (spec.md §4.6).
package me

// Plane is a single padded luma plane, either a full-resolution picture
// or one of its sixteenth/quarter-resolution HME decimations. Padding
// extends the valid [0,Width)x[0,Height) region on all sides by Pad
// samples so search windows never need per-access bounds checks beyond
// the single clamp performed when the window is built.
type Plane struct {
	Pix    []uint8
	Stride int
	Width  int
	Height int
	Pad    int
}

// at returns the sample at unpadded coordinate (x, y); x and y may be
// negative or exceed Width/Height by up to Pad.
func (p *Plane) at(x, y int) uint8 {
	return p.Pix[(y+p.Pad)*p.Stride+(x+p.Pad)]
}

// SAD computes the sum of absolute differences between a w×h block of
// cur starting at (curX, curY) and a same-size block of ref starting at
// (refX, refY).
func SAD(cur *Plane, curX, curY int, ref *Plane, refX, refY, w, h int) uint32 {
	var sum uint32
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := int(cur.at(curX+x, curY+y))
			r := int(ref.at(refX+x, refY+y))
			if d := c - r; d < 0 {
				sum += uint32(-d)
			} else {
				sum += uint32(d)
			}
		}
	}
	return sum
}

// SADSubsampled computes SAD over every other row only, doubling the
// result to approximate the full-block cost (spec.md §4.6: "optionally
// sub-sampling every other row, doubling the reported SAD").
func SADSubsampled(cur *Plane, curX, curY int, ref *Plane, refX, refY, w, h int) uint32 {
	var sum uint32
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			c := int(cur.at(curX+x, curY+y))
			r := int(ref.at(refX+x, refY+y))
			if d := c - r; d < 0 {
				sum += uint32(-d)
			} else {
				sum += uint32(d)
			}
		}
	}
	return sum * 2
}

// Window is a rectangular search area in a reference plane, already
// clamped to the plane's padded bounds.
type Window struct {
	X0, Y0, X1, Y1 int // [X0,X1) x [Y0,Y1), exclusive upper bound.
}

// Clamp intersects w with the plane's valid (including padding) extent.
func (p *Plane) Clamp(w Window) Window {
	minX, minY := -p.Pad, -p.Pad
	maxX, maxY := p.Width+p.Pad, p.Height+p.Pad
	if w.X0 < minX {
		w.X0 = minX
	}
	if w.Y0 < minY {
		w.Y0 = minY
	}
	if w.X1 > maxX {
		w.X1 = maxX
	}
	if w.Y1 > maxY {
		w.Y1 = maxY
	}
	return w
}
