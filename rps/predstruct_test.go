package rps

import "testing"

func TestDecodeLayerForIndexMatchesFourLevelSequence(t *testing.T) {
	want := []uint8{0, 3, 2, 3, 1, 3, 2, 3}
	for i, w := range want {
		if got := decodeLayerForIndex(3, i); got != w {
			t.Errorf("decodeLayerForIndex(3, %d) = %d, want %d", i, got, w)
		}
	}
}

func TestBuildPredStructAnchorsAreLayerZero(t *testing.T) {
	ps := BuildPredStruct(3)
	if ps.Layer[0] != 0 || ps.Layer[ps.N] != 0 {
		t.Fatalf("anchors: Layer[0]=%d Layer[N]=%d, want 0,0", ps.Layer[0], ps.Layer[ps.N])
	}
	if ps.Layer[4] != 1 {
		t.Errorf("Layer[4] (midpoint) = %d, want 1", ps.Layer[4])
	}
}

func TestList0List1NearestFirst(t *testing.T) {
	ps := BuildPredStruct(3)
	l0 := ps.List0(3) // layer(3) == 3 (leaf), candidates: 2(layer2),1(layer3),0(layer0)
	if len(l0) == 0 || l0[0] != 2 {
		t.Errorf("List0(3) = %v, want nearest-first starting at 2", l0)
	}
	l1 := ps.List1(3)
	if len(l1) == 0 || l1[0] != 4 {
		t.Errorf("List1(3) = %v, want nearest-first starting at 4", l1)
	}
}
