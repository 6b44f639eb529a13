package pipeline

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ausocean/pictdec/decision"
	"github.com/ausocean/pictdec/picture"
)

type testLogger struct{}

func (testLogger) Debug(string, ...interface{})   {}
func (testLogger) Info(string, ...interface{})    {}
func (testLogger) Warning(string, ...interface{}) {}
func (testLogger) Error(string, ...interface{})   {}
func (testLogger) Fatal(string, ...interface{})   {}

func TestWorkerPoolProcessesAllJobs(t *testing.T) {
	jobs := make(chan decision.MEJob, 8)
	var processed int32
	pool := NewWorkerPool(2, jobs, func(job decision.MEJob) error {
		atomic.AddInt32(&processed, 1)
		return nil
	}, testLogger{}, nil)

	for i := 0; i < 6; i++ {
		jobs <- decision.MEJob{Picture: &picture.Picture{}, SBIndex: i}
	}
	close(jobs)
	pool.Wait()

	if got := atomic.LoadInt32(&processed); got != 6 {
		t.Fatalf("processed = %d, want 6", got)
	}
	if pool.Cancelled() {
		t.Fatal("Cancelled() = true, want false after an all-success run")
	}
}

func TestWorkerPoolCancelsOnProcessError(t *testing.T) {
	jobs := make(chan decision.MEJob, 8)
	var processed int32
	pool := NewWorkerPool(1, jobs, func(job decision.MEJob) error {
		n := atomic.AddInt32(&processed, 1)
		if n == 1 {
			return errors.New("segment failed")
		}
		return nil
	}, testLogger{}, nil)

	for i := 0; i < 5; i++ {
		jobs <- decision.MEJob{Picture: &picture.Picture{}, SBIndex: i}
	}
	close(jobs)
	pool.Wait()

	if !pool.Cancelled() {
		t.Fatal("Cancelled() = false after a process error, want true")
	}
}

func TestWorkerPoolRecordsHotLogPerSegment(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	jobs := make(chan decision.MEJob, 4)
	pool := NewWorkerPool(1, jobs, func(job decision.MEJob) error {
		return nil
	}, testLogger{}, zap.New(core))

	for i := 0; i < 3; i++ {
		jobs <- decision.MEJob{Picture: &picture.Picture{POC: int64(i)}, SBIndex: i}
	}
	close(jobs)
	pool.Wait()

	if got := logs.Len(); got != 3 {
		t.Fatalf("hot-log entries = %d, want 3", got)
	}
}

func TestWorkerPoolSkipsEOSPoisonPill(t *testing.T) {
	jobs := make(chan decision.MEJob, 1)
	called := make(chan struct{}, 1)
	pool := NewWorkerPool(1, jobs, func(job decision.MEJob) error {
		called <- struct{}{}
		return nil
	}, testLogger{}, nil)

	jobs <- decision.MEJob{Picture: &picture.Picture{EndOfSequence: true}, SBIndex: 0, SegmentIndex: 0}
	close(jobs)
	pool.Wait()

	select {
	case <-called:
		t.Fatal("process was invoked for the EOS poison-pill job")
	case <-time.After(50 * time.Millisecond):
	}
}
