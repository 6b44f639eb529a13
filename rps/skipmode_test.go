package rps

import (
	"testing"

	"github.com/ausocean/pictdec/picture"
)

func TestDeriveSkipModeSymmetricRefs(t *testing.T) {
	var r picture.RPS
	r.DPBIndex[picture.Last] = 0
	r.RefPOC[picture.Last] = 99 // N-1 for N=100
	r.DPBIndex[picture.Bwd] = 4
	r.RefPOC[picture.Bwd] = 101 // N+1

	DeriveSkipMode(&r, 1, 1, 100, 7)

	if !r.SkipModeAllowed {
		t.Fatal("SkipModeAllowed = false, want true")
	}
	if r.SkipModeIdx0 != 0 || r.SkipModeIdx1 != 4 {
		t.Errorf("SkipModeIdx0/1 = %d/%d, want 0/4", r.SkipModeIdx0, r.SkipModeIdx1)
	}
}

func TestDeriveSkipModeOnlyForwardUsesSecondNearest(t *testing.T) {
	var r picture.RPS
	r.DPBIndex[picture.Last] = 2
	r.RefPOC[picture.Last] = 99
	r.DPBIndex[picture.Last2] = 5
	r.RefPOC[picture.Last2] = 97

	DeriveSkipMode(&r, 2, 0, 100, 7)

	if !r.SkipModeAllowed {
		t.Fatal("SkipModeAllowed = false, want true")
	}
	if r.SkipModeIdx0 != 2 || r.SkipModeIdx1 != 5 {
		t.Errorf("SkipModeIdx0/1 = %d/%d, want 2/5", r.SkipModeIdx0, r.SkipModeIdx1)
	}
}

func TestDeriveSkipModeNoCandidates(t *testing.T) {
	var r picture.RPS
	DeriveSkipMode(&r, 0, 0, 100, 7)
	if r.SkipModeAllowed {
		t.Fatal("SkipModeAllowed = true, want false")
	}
}
