/*
DESCRIPTION
  workers.go implements the Motion Estimation worker pool (spec.md §5):
  parallel workers pulling (picture, segment) jobs from a bounded FIFO,
  processing disjoint SB segments, and honoring cooperative
  cancellation at segment boundaries.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package pipeline

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/ausocean/pictdec/decision"
	"github.com/ausocean/utils/logging"
)

// SegmentProcessor performs the actual ME work (HME, integer search,
// candidate building, intra OIS, GM detection) for one job's disjoint
// SB segment; it is supplied by the caller so the worker pool itself
// stays free of ME algorithm detail.
type SegmentProcessor func(job decision.MEJob) error

// WorkerPool runs a fixed number of ME workers pulling from a shared
// jobs channel.
type WorkerPool struct {
	jobs      <-chan decision.MEJob
	process   SegmentProcessor
	log       logging.Logger
	hotLog    *zap.Logger // Per-segment structured logging; allocation-free fields keep this cheap in the hot loop.
	cancelled int32       // Atomic cooperative-cancel flag.

	wg sync.WaitGroup
}

// NewWorkerPool starts n workers immediately; call Wait to block until
// the jobs channel is closed and all in-flight jobs finish. log carries
// cross-stage visible events (errors, cancellation); hotLog, if
// non-nil, additionally records a debug-level entry per completed
// segment for profiling runs. A nil hotLog disables per-segment
// logging entirely rather than paying zap's call overhead.
func NewWorkerPool(n int, jobs <-chan decision.MEJob, process SegmentProcessor, log logging.Logger, hotLog *zap.Logger) *WorkerPool {
	p := &WorkerPool{jobs: jobs, process: process, log: log, hotLog: hotLog}
	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.run(i)
	}
	return p
}

func (p *WorkerPool) run(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		if atomic.LoadInt32(&p.cancelled) != 0 {
			continue // Drain the channel without doing further work.
		}
		if job.Picture != nil && job.Picture.EndOfSequence && job.SBIndex == 0 && job.SegmentIndex == 0 {
			// The EOS poison pill carries no real SB work; workers
			// observe it only to note the stream is ending.
			continue
		}
		if err := p.process(job); err != nil {
			p.log.Error("me worker: segment failed", "worker", id, "poc", job.Picture.POC, "sb", job.SBIndex, "err", err)
			p.Cancel()
			continue
		}
		if p.hotLog != nil {
			p.hotLog.Debug("segment done",
				zap.Int("worker", id),
				zap.Int64("poc", job.Picture.POC),
				zap.Int("sb", job.SBIndex),
				zap.Int("segment", job.SegmentIndex),
			)
		}
	}
}

// Cancel sets the cooperative-cancel flag; workers stop doing real
// work at their next segment boundary but keep draining the channel
// so producers never block on a full queue during shutdown (spec.md
// §5 "Cancellation is cooperative").
func (p *WorkerPool) Cancel() { atomic.StoreInt32(&p.cancelled, 1) }

// Cancelled reports whether Cancel has been called.
func (p *WorkerPool) Cancelled() bool { return atomic.LoadInt32(&p.cancelled) != 0 }

// Wait blocks until every worker has returned (the jobs channel must
// be closed by the producer for this to complete).
func (p *WorkerPool) Wait() { p.wg.Wait() }
