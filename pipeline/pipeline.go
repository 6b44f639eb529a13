/*
DESCRIPTION
  pipeline.go wires the Picture Decision driver to the Motion
  Estimation worker pool: a single bounded jobs channel carries
  decision.MEJob values from AdmitPicture to the worker pool, and the
  caller retrieves per-picture Output values as the driver produces
  them (spec.md §4.7, §5).

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
	"go.uber.org/zap"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/decision"
	"github.com/ausocean/pictdec/picture"
	"github.com/ausocean/utils/logging"
)

// DefaultJobQueueDepth bounds the decision-to-ME jobs channel; once
// full, AdmitPicture's emit step blocks until workers drain it, which
// is the back-pressure mechanism spec.md §5 describes between the two
// stages.
const DefaultJobQueueDepth = 1024

// Pipeline owns the shared jobs channel between one Picture Decision
// Driver and one ME WorkerPool.
type Pipeline struct {
	Driver *decision.Driver
	Pool   *WorkerPool

	jobs chan decision.MEJob
}

// New constructs a Driver and starts an n-worker WorkerPool sharing a
// single bounded jobs channel. process performs the actual per-segment
// ME work; it is supplied by the caller so this package stays free of
// ME algorithm detail. hotLog may be nil to disable per-segment
// structured logging.
func New(cfg *config.Config, pred picture.PredStructure, width, height, numSegments, numWorkers int, process SegmentProcessor, log logging.Logger, hotLog *zap.Logger) *Pipeline {
	jobs := make(chan decision.MEJob, DefaultJobQueueDepth)
	return &Pipeline{
		Driver: decision.New(cfg, pred, width, height, numSegments, jobs),
		Pool:   NewWorkerPool(numWorkers, jobs, process, log, hotLog),
		jobs:   jobs,
	}
}

// AdmitPicture forwards to the underlying Driver; ME jobs it posts
// flow directly to the worker pool over the shared channel.
func (p *Pipeline) AdmitPicture(pic *picture.Picture) ([]decision.Output, error) {
	return p.Driver.AdmitPicture(pic)
}

// SetOnAdmit forwards to the underlying Driver's admission callback,
// letting a caller register a picture's real pixel-plane storage
// before any ME job referencing it can reach the worker pool.
func (p *Pipeline) SetOnAdmit(f func(*picture.Picture)) {
	p.Driver.SetOnAdmit(f)
}

// Close closes the shared jobs channel and blocks until every worker
// has drained it and returned (spec.md §5 "EOS poison pill"; the
// driver itself posts the EOS job as part of emitting an
// end-of-sequence picture, so Close only needs to wait once the caller
// knows no further AdmitPicture calls are coming).
func (p *Pipeline) Close() {
	close(p.jobs)
	p.Pool.Wait()
}
