package diagnostics

import (
	"testing"

	"github.com/ausocean/pictdec/decision"
	"github.com/ausocean/pictdec/picture"
)

func TestAddSkipsSelfAndPreTraceReferences(t *testing.T) {
	tl := NewTimeline()

	tl.Add(decision.Output{
		Picture: &picture.Picture{POC: 10},
		Layer:   0,
		RPS:     picture.RPS{RefPOC: [picture.NumRefSlots]int64{5, 10}}, // 5 predates tracing, 10 is self.
	})
	if len(tl.edges) != 0 {
		t.Fatalf("len(edges) = %d, want 0 (no prior points to reference)", len(tl.edges))
	}

	tl.Add(decision.Output{
		Picture: &picture.Picture{POC: 11},
		Layer:   2,
		RPS:     picture.RPS{RefPOC: [picture.NumRefSlots]int64{10}},
	})
	if len(tl.edges) != 1 {
		t.Fatalf("len(edges) = %d, want 1", len(tl.edges))
	}
	e := tl.edges[0]
	if e.x0 != 10 || e.y0 != 0 || e.x1 != 11 || e.y1 != 2 {
		t.Fatalf("edge = %+v, want {10 0 11 2}", e)
	}
}

func TestAddAccumulatesPoints(t *testing.T) {
	tl := NewTimeline()
	for i := int64(0); i < 3; i++ {
		tl.Add(decision.Output{Picture: &picture.Picture{POC: i}, Layer: uint8(i)})
	}
	if len(tl.points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(tl.points))
	}
}
