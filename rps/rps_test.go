package rps

import (
	"testing"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/minigop"
	"github.com/ausocean/pictdec/picture"
)

func newTestGenerator() *Generator {
	cfg := config.Default(testLogger{})
	return NewGenerator(&cfg)
}

type testLogger struct{}

func (testLogger) Debug(string, ...interface{})   {}
func (testLogger) Info(string, ...interface{})    {}
func (testLogger) Warning(string, ...interface{}) {}
func (testLogger) Error(string, ...interface{})   {}
func (testLogger) Fatal(string, ...interface{})   {}

func TestGenerateFourLevelLayerSequenceMatchesSeedScenario(t *testing.T) {
	g := newTestGenerator()
	toggle := NewToggleState()
	toggle.Reset(0)
	toggle.slotPOC[0] = 0
	toggle.slotValid[0] = true

	mg := minigop.MiniGop{StartIndex: 0, EndIndex: 7, HierarchicalLevels: 3}
	results, err := g.Generate(mg, 0, picture.RandomAccess, toggle)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(results) != 8 {
		t.Fatalf("len(results) = %d, want 8", len(results))
	}
	wantLayers := []uint8{3, 2, 3, 1, 3, 2, 3, 0} // display positions 1..8
	for i, r := range results {
		if r.Layer != wantLayers[i] {
			t.Errorf("position %d: layer = %d, want %d", i+1, r.Layer, wantLayers[i])
		}
	}
}

func TestGenerateRefreshMaskInvariant(t *testing.T) {
	g := newTestGenerator()
	toggle := NewToggleState()
	toggle.Reset(0)
	toggle.slotPOC[0] = 0
	toggle.slotValid[0] = true

	mg := minigop.MiniGop{StartIndex: 0, EndIndex: 7, HierarchicalLevels: 3}
	results, err := g.Generate(mg, 0, picture.RandomAccess, toggle)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	nonRefCount := 0
	for _, r := range results {
		if r.RPS.RefreshFrameMask == 0 {
			nonRefCount++
			if !r.ShowExisting || !r.ShowFrame {
				t.Errorf("non-reference picture at index %d: ShowExisting=%v ShowFrame=%v, want true,true", r.Index, r.ShowExisting, r.ShowFrame)
			}
		}
		if r.ShowExisting && !r.ShowFrame {
			t.Errorf("index %d: ShowExisting implies ShowFrame", r.Index)
		}
	}
	wantRefs := 8 - nonRefCount
	gotRefs := 0
	for _, r := range results {
		if r.RPS.RefreshFrameMask != 0 {
			gotRefs++
		}
	}
	if gotRefs != wantRefs {
		t.Fatalf("inconsistent refresh accounting")
	}
}

func TestGenerateRejectsNonPowerOfTwoMiniGop(t *testing.T) {
	g := newTestGenerator()
	toggle := NewToggleState()
	mg := minigop.MiniGop{StartIndex: 0, EndIndex: 6, HierarchicalLevels: 3} // length 7, not 8
	if _, err := g.Generate(mg, 0, picture.RandomAccess, toggle); err == nil {
		t.Fatal("Generate: want error for non-power-of-two mini-GOP, got nil")
	}
}
