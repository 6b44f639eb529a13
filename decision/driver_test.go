package decision

import (
	"testing"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/picture"
)

func TestDriverLowDelayReleasesOnceFutureWindowIsFull(t *testing.T) {
	cfg := config.Default(testLogger{})
	jobs := make(chan MEJob, 1024)
	d := New(&cfg, picture.LowDelayP, 128, 128, 2, jobs)

	// The reorder queue's Window Check needs FutureWindowWidth
	// lookahead slots populated before the head can advance, so the
	// first FutureWindowWidth admissions produce no output yet.
	var allOutputs []Output
	for i := int64(0); i < config.FutureWindowWidth; i++ {
		outs, err := d.AdmitPicture(&picture.Picture{PictureNumberHint: i})
		if err != nil {
			t.Fatalf("AdmitPicture(%d): %v", i, err)
		}
		if len(outs) != 0 {
			t.Fatalf("AdmitPicture(%d) produced output before the future window filled: %+v", i, outs)
		}
	}

	outs, err := d.AdmitPicture(&picture.Picture{PictureNumberHint: config.FutureWindowWidth})
	if err != nil {
		t.Fatalf("AdmitPicture(%d): %v", config.FutureWindowWidth, err)
	}
	allOutputs = append(allOutputs, outs...)

	if len(allOutputs) != 1 {
		t.Fatalf("len(allOutputs) = %d, want 1", len(allOutputs))
	}
	o := allOutputs[0]
	if !o.ShowFrame {
		t.Error("ShowFrame = false, want true (low-delay path)")
	}
	if o.Picture.POC != 0 {
		t.Errorf("POC = %d, want 0", o.Picture.POC)
	}

	close(jobs)
	n := 0
	for range jobs {
		n++
	}
	sbCols, sbRows := (128+SBSize-1)/SBSize, (128+SBSize-1)/SBSize
	if want := sbCols * sbRows; n != want {
		t.Fatalf("posted %d ME jobs, want %d", n, want)
	}
}

type testLogger struct{}

func (testLogger) Debug(string, ...interface{})   {}
func (testLogger) Info(string, ...interface{})    {}
func (testLogger) Warning(string, ...interface{}) {}
func (testLogger) Error(string, ...interface{})   {}
func (testLogger) Fatal(string, ...interface{})   {}
