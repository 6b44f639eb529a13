package decision

import (
	"testing"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

func TestPlaceDuplicateSlotIsFatal(t *testing.T) {
	q := NewReorderQueue(config.ReorderQueueMaxDepth)
	if err := q.Place(&picture.Picture{PictureNumberHint: 5}); err != nil {
		t.Fatalf("first Place: %v", err)
	}
	if err := q.Place(&picture.Picture{PictureNumberHint: 5}); err == nil {
		t.Fatal("duplicate Place: want error, got nil")
	} else if k, ok := picture.AsKind(err); !ok || k != picture.KindInvariantViolated {
		t.Fatalf("error kind = %v, want InvariantViolated", k)
	}
}

func TestWindowReadyRequiresFutureWindow(t *testing.T) {
	q := NewReorderQueue(config.ReorderQueueMaxDepth)
	q.Place(&picture.Picture{PictureNumberHint: 0})
	if q.WindowReady() {
		t.Fatal("WindowReady() = true with no future slots populated, want false")
	}
	for i := int64(1); i <= config.FutureWindowWidth; i++ {
		q.Place(&picture.Picture{PictureNumberHint: i})
	}
	if !q.WindowReady() {
		t.Fatal("WindowReady() = false once head and full future window are populated, want true")
	}
}

func TestWindowReadyEOSBypassesFutureWindow(t *testing.T) {
	q := NewReorderQueue(config.ReorderQueueMaxDepth)
	q.Place(&picture.Picture{PictureNumberHint: 0, EndOfSequence: true})
	if !q.WindowReady() {
		t.Fatal("WindowReady() = false for an EOS-marked head, want true (EOS passes the window through)")
	}
}

func TestAdvanceMovesHeadAndRetainsPredecessor(t *testing.T) {
	q := NewReorderQueue(config.ReorderQueueMaxDepth)
	q.Place(&picture.Picture{PictureNumberHint: 0})
	pic := q.Advance()
	if pic == nil || pic.PictureNumberHint != 0 {
		t.Fatalf("Advance() = %+v, want picture 0", pic)
	}
	if q.HeadNumber() != 1 {
		t.Fatalf("HeadNumber() = %d, want 1", q.HeadNumber())
	}
	// Picture 0's slot must still be reachable as the new head's
	// predecessor -- Advance must not clear it immediately.
	if q.predecessor() == nil || q.predecessor().PictureNumberHint != 0 {
		t.Fatal("predecessor() should still return picture 0 right after advancing past it")
	}

	// Two generations later, picture 0's slot is reclaimed.
	q.Place(&picture.Picture{PictureNumberHint: 1})
	q.Advance()
	if err := q.Place(&picture.Picture{PictureNumberHint: config.ReorderQueueMaxDepth}); err != nil {
		t.Fatalf("Place after two Advances: %v", err)
	}
}
