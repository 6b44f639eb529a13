package me

import (
	"testing"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

func makeRefHME(list, refIdx int, sad uint32, mv picture.MV) RefHME {
	var r RefHME
	r.List, r.RefIndex, r.MV = list, refIdx, mv
	per := sad / 64
	for i := range r.BlockSADs {
		r.BlockSADs[i] = per
	}
	return r
}

func TestPruneReferencesDropsFarOutliers(t *testing.T) {
	cfg := config.Default(testLogger{})
	cfg.MEHMEPrune.PruneRefIfHMESADDevBiggerThanTh = 60
	cfg.MEHMEPrune.ProtectClosestRefs = false
	cfg.MESRAdjustment.Enable = false

	refs := []RefHME{
		makeRefHME(0, 0, 6400, picture.MV{}),  // best, total ~6400.
		makeRefHME(0, 1, 64000, picture.MV{}), // far worse: (64000-6400)*100 > 60*6400 -> pruned.
	}
	decisions := PruneReferences(refs, &cfg)
	if !decisions[0].DoRef {
		t.Error("best reference was pruned, want kept")
	}
	if decisions[1].DoRef {
		t.Error("far-worse reference was kept, want pruned")
	}
}

func TestPruneReferencesProtectsClosestRef(t *testing.T) {
	cfg := config.Default(testLogger{})
	cfg.MEHMEPrune.PruneRefIfHMESADDevBiggerThanTh = 10
	cfg.MEHMEPrune.ProtectClosestRefs = true
	cfg.MESRAdjustment.Enable = false

	refs := []RefHME{
		makeRefHME(0, 1, 6400, picture.MV{}),  // best.
		makeRefHME(0, 0, 64000, picture.MV{}), // would be pruned, but RefIndex==0 is protected.
	}
	decisions := PruneReferences(refs, &cfg)
	for _, d := range decisions {
		if d.RefIndex == 0 && !d.DoRef {
			t.Error("closest reference was pruned despite ProtectClosestRefs")
		}
	}
}

func TestPruneReferencesReducesRadiusForStationaryRef(t *testing.T) {
	cfg := config.Default(testLogger{})
	cfg.MEHMEPrune.PruneRefIfHMESADDevBiggerThanTh = 100
	cfg.MESRAdjustment.Enable = true
	cfg.MESRAdjustment.ReduceMESRBasedOnMVLengthTh = true
	cfg.MESRAdjustment.StationaryMESRDivisor = 4

	refs := []RefHME{makeRefHME(0, 0, 6400, picture.MV{X: 0, Y: 0})}
	decisions := PruneReferences(refs, &cfg)
	if decisions[0].SearchRadiusDivisor != 4 {
		t.Errorf("SearchRadiusDivisor = %d, want 4", decisions[0].SearchRadiusDivisor)
	}
}
