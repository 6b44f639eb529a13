package me

import (
	"testing"

	"github.com/ausocean/pictdec/config"
)

func TestSearchLevel0FindsKnownShift(t *testing.T) {
	cfg := config.Default(testLogger{})
	const w, h, pad = 64, 64, 16
	ref := newPlane(w, h, pad, func(x, y int) uint8 { return uint8((x*7 + y*13) % 256) })
	// cur(x,y) = ref(x-3, y-2): the block at (24,24) in cur matches the
	// block at (21,22) in ref, i.e. offset (-3,-2) from the search
	// center -- within this search window's valid [-8,0]x[-8,0] range.
	cur := newPlane(w, h, pad, func(x, y int) uint8 {
		rx, ry := x-3, y-2
		if rx < 0 {
			rx = 0
		}
		if rx >= w {
			rx = w - 1
		}
		if ry < 0 {
			ry = 0
		}
		if ry >= w {
			ry = w - 1
		}
		return uint8((rx*7 + ry*13) % 256)
	})

	q := Quadrant{OriginX: 24, OriginY: 24, Width: 8, Height: 8}
	p := Level0Params{TotalSearchWidth: 8, TotalSearchHeight: 8, MinExtent: 16}

	res := SearchLevel0(cur, ref, 24, 24, q, p, &cfg)
	if res.SAD != 0 {
		t.Fatalf("best SAD = %d, want 0 (exact shift should be found)", res.SAD)
	}
	if res.MV.X != -3*4 || res.MV.Y != -2*4 {
		t.Errorf("MV = (%d,%d), want (%d,%d) [x4 quarter-res scale]", res.MV.X, res.MV.Y, -3*4, -2*4)
	}
}

func TestSearchExtentAppliesDistanceBasedResizing(t *testing.T) {
	cfg := config.Default(testLogger{})
	cfg.MESRAdjustment.DistanceBasedHMEResizing = true

	base := Level0Params{TotalSearchWidth: 64, TotalSearchHeight: 64, MinExtent: 1, RefPicIndex: 0}
	scaled := base
	scaled.RefPicIndex = 3

	w0, _ := searchExtent(base, &cfg)
	w3, _ := searchExtent(scaled, &cfg)
	if w3 >= w0 {
		t.Errorf("search extent for RefPicIndex=3 (%d) should be smaller than RefPicIndex=0 (%d)", w3, w0)
	}
}
