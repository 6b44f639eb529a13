package scd

import (
	"testing"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

type testLogger struct{}

func (testLogger) Debug(string, ...interface{})   {}
func (testLogger) Info(string, ...interface{})    {}
func (testLogger) Warning(string, ...interface{}) {}
func (testLogger) Error(string, ...interface{})   {}
func (testLogger) Fatal(string, ...interface{})   {}

func newTestConfig() config.Config {
	cfg := config.Default(testLogger{})
	cfg.PictureAnalysisRegionsPerWidth = 1
	cfg.PictureAnalysisRegionsPerHeight = 1
	return cfg
}

func picWithHist(cols, rows int, fill uint32, intensity uint8) *picture.Picture {
	h := picture.NewHistograms(cols, rows)
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			for ch := 0; ch < 3; ch++ {
				h.Bins[c][r][ch][0] = fill
			}
			h.SetIntensity(c, r, intensity)
		}
	}
	return &picture.Picture{RegionHistograms: h}
}

func TestUpdateRejectsNilPictures(t *testing.T) {
	cfg := newTestConfig()
	d := NewDetector(&cfg)
	p := picWithHist(1, 1, 10, 128)
	if _, err := d.Update(nil, p, p, 128, 128); err == nil {
		t.Fatal("Update(nil, ...) = nil error, want error")
	}
}

func TestUpdateRejectsHistogramGridMismatch(t *testing.T) {
	cfg := newTestConfig()
	d := NewDetector(&cfg)
	prev := picWithHist(1, 1, 10, 128)
	cur := picWithHist(2, 2, 10, 128)
	if _, err := d.Update(prev, cur, prev, 128, 128); err == nil {
		t.Fatal("Update() with mismatched region grids = nil error, want error")
	}
}

func TestUpdateNoChangeIsNotASceneChange(t *testing.T) {
	cfg := newTestConfig()
	d := NewDetector(&cfg)
	p := picWithHist(1, 1, 10, 128)
	tr, err := d.Update(p, p, p, 128, 128)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tr.SceneChange {
		t.Error("SceneChange = true for identical pictures, want false")
	}
	if tr.AbruptChangeRegions != 0 {
		t.Errorf("AbruptChangeRegions = %d, want 0", tr.AbruptChangeRegions)
	}
}

func TestUpdateLargeHistogramShiftIsSceneChange(t *testing.T) {
	cfg := newTestConfig()
	d := NewDetector(&cfg)
	prev := picWithHist(1, 1, 0, 0)
	cur := picWithHist(1, 1, 1<<20, 255)
	fut := picWithHist(1, 1, 1<<20, 255)

	// Prime the running average on a quiet first picture so the shift on
	// the second Update call registers as abrupt rather than a reset.
	if _, err := d.Update(prev, prev, prev, 128, 128); err != nil {
		t.Fatalf("priming Update: %v", err)
	}
	tr, err := d.Update(prev, cur, fut, 128, 128)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !tr.SceneChange {
		t.Error("SceneChange = false for a large histogram shift, want true")
	}
}

func TestUpdateSuppressesSceneChangeDuringFade(t *testing.T) {
	cfg := newTestConfig()
	d := NewDetector(&cfg)
	prev := picWithHist(1, 1, 0, 0)
	cur := picWithHist(1, 1, 1<<20, 255)
	cur.FadeInToBlack = true
	fut := picWithHist(1, 1, 1<<20, 255)

	if _, err := d.Update(prev, prev, prev, 128, 128); err != nil {
		t.Fatalf("priming Update: %v", err)
	}
	tr, err := d.Update(prev, cur, fut, 128, 128)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tr.SceneChange {
		t.Error("SceneChange = true during a fade, want false")
	}
}
