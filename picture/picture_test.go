package picture

import "testing"

func TestMVClipWithinRangeIsUnchanged(t *testing.T) {
	m := MV{X: 100, Y: -100}
	clipped, wasClipped := m.Clip()
	if wasClipped {
		t.Fatal("wasClipped = true for an in-range MV, want false")
	}
	if clipped != m {
		t.Fatalf("clipped = %+v, want %+v", clipped, m)
	}
}

func TestMVClipOutOfRangeClampsAndReports(t *testing.T) {
	m := MV{X: MVUpp + 1000, Y: MVLow - 1000}
	clipped, wasClipped := m.Clip()
	if !wasClipped {
		t.Fatal("wasClipped = false for an out-of-range MV, want true")
	}
	if clipped.X != MVUpp {
		t.Errorf("clipped.X = %d, want %d", clipped.X, MVUpp)
	}
	if clipped.Y != MVLow {
		t.Errorf("clipped.Y = %d, want %d", clipped.Y, MVLow)
	}
}

func TestHistogramsIntensityRoundTrips(t *testing.T) {
	h := NewHistograms(3, 2)
	h.SetIntensity(2, 1, 200)
	if got := h.Intensity(2, 1); got != 200 {
		t.Fatalf("Intensity(2, 1) = %d, want 200", got)
	}
	if got := h.Intensity(0, 0); got != 0 {
		t.Fatalf("Intensity(0, 0) = %d, want 0 (default)", got)
	}
}

func TestHistogramsValidateRejectsGridMismatch(t *testing.T) {
	h := NewHistograms(3, 2)
	if err := h.Validate(3, 2); err != nil {
		t.Fatalf("Validate(3, 2) = %v, want nil", err)
	}
	if err := h.Validate(2, 3); err == nil {
		t.Fatal("Validate(2, 3) = nil, want error for mismatched grid")
	}
}

func TestHistogramsValidateRejectsNil(t *testing.T) {
	var h *Histograms
	if err := h.Validate(1, 1); err == nil {
		t.Fatal("Validate() on nil Histograms = nil, want error")
	}
}
