/*
DESCRIPTION
  driver.go implements the Picture Decision Driver state machine
  (spec.md §4.7): Reorder -> Window Check -> Admit -> Emit? -> On Emit
  -> Sweep -> Advance, wiring the scd, minigop, rps, and refqueue
  packages and producing per-SB ME work items for the downstream FIFO.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decision

import (
	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/minigop"
	"github.com/ausocean/pictdec/picture"
	"github.com/ausocean/pictdec/refqueue"
	"github.com/ausocean/pictdec/rps"
	"github.com/ausocean/pictdec/scd"
)

// SBSize is the luma super-block edge length (spec.md GLOSSARY "SB").
const SBSize = 64

// MEJob is one (picture, SB, segment) work item posted to the
// downstream Motion Estimation FIFO (spec.md §4.7 "post one ME work
// item per (SB × me-segment)").
type MEJob struct {
	Picture      *picture.Picture
	SBIndex      int
	SegmentIndex int
}

// Output is the per-picture decision result (spec.md §6 "Per-picture
// output"): the derived slice type, structural placement, and RPS.
type Output struct {
	Picture         *picture.Picture
	Layer           uint8
	RPS             picture.RPS
	ShowFrame       bool
	ShowExisting    bool
	ShowExistingLoc uint8
	DecodeOrder     int64
}

// Driver holds all Picture-Decision mutable state; it is not safe for
// concurrent use by design (spec.md §5: "Picture Decision is
// single-threaded per stream").
type Driver struct {
	cfg *config.Config

	reorder *ReorderQueue

	buffer         []*picture.Picture
	bufferSawIntra bool
	intraCount     uint32
	idrCount       uint32
	intraPeriodPos int32

	lastPOC          int64
	decodeBaseNumber int64

	predStruct picture.PredStructure

	toggle      *rps.ToggleState
	rpsGen      *rps.Generator
	partitioner *minigop.Partitioner
	scdDet      *scd.Detector
	refQueue    *refqueue.Queue

	prevMiniGopLevels uint8
	haveEmittedAny    bool

	width, height int
	numSegments   int

	jobs chan<- MEJob

	// onAdmit, if set, is invoked once per picture in admission order,
	// immediately after admit assigns its POC, and strictly before any
	// ME job that could reference it is posted by a later emit (spec.md
	// §4.7 step 3 "Admit"). A caller uses it to register the picture's
	// real pixel-plane storage, keyed for later lookup by RPS.RefPOC
	// (spec.md §5), without any ordering race against the ME worker pool.
	onAdmit func(*picture.Picture)
}

// SetOnAdmit installs the admission callback described above. Safe to
// call once before any AdmitPicture call; nil disables it.
func (d *Driver) SetOnAdmit(f func(*picture.Picture)) {
	d.onAdmit = f
}

// New constructs a Driver. pred selects the top-level structure
// (RandomAccess for hierarchical GOPs, LowDelayP for the legacy
// low-delay path). width/height are the luma picture dimensions used
// to size per-SB ME job fan-out; numSegments partitions the SB grid
// into that many disjoint ME worker segments.
func New(cfg *config.Config, pred picture.PredStructure, width, height, numSegments int, jobs chan<- MEJob) *Driver {
	return &Driver{
		cfg:         cfg,
		reorder:     NewReorderQueue(config.ReorderQueueMaxDepth),
		predStruct:  pred,
		toggle:      rps.NewToggleState(),
		rpsGen:      rps.NewGenerator(cfg),
		partitioner: minigop.NewPartitioner(cfg.HierarchicalLevels),
		scdDet:      scd.NewDetector(cfg),
		refQueue:    refqueue.NewQueue(refqueue.DefaultCapacity),
		width:       width,
		height:      height,
		numSegments: numSegments,
		jobs:        jobs,
	}
}

// AdmitPicture runs the full Reorder/Window-Check/Admit/Emit?/On-Emit/
// Sweep/Advance loop for one freshly analyzed inbound picture,
// returning every Output produced as a result (zero or more mini-GOPs
// may be emitted per call once the window is primed).
func (d *Driver) AdmitPicture(pic *picture.Picture) ([]Output, error) {
	if err := d.reorder.Place(pic); err != nil {
		return nil, err
	}

	var outputs []Output
	for d.reorder.WindowReady() {
		prev, fut := d.reorder.predecessor(), d.reorder.future(1)
		cur := d.reorder.Advance()

		if err := d.runSCD(prev, cur, fut); err != nil {
			return outputs, err
		}

		d.admit(cur)

		if d.shouldEmit(cur) {
			emitted, err := d.emit()
			if err != nil {
				return outputs, err
			}
			outputs = append(outputs, emitted...)
			d.refQueue.Sweep()
		}
	}
	return outputs, nil
}

// runSCD invokes the Scene Transition Detector using the reorder
// queue's predecessor/current/lookahead slots (spec.md §4.1, §4.7), as
// read before the head advanced past cur. It does nothing when either
// neighbour is absent.
func (d *Driver) runSCD(prev, cur, fut *picture.Picture) error {
	if d.cfg.SceneChangeDetection == config.SCDOff {
		return nil
	}
	if prev == nil || fut == nil {
		return nil
	}
	t, err := d.scdDet.Update(prev, cur, fut, d.width, d.height)
	if err != nil {
		return err
	}
	if t.SceneChange {
		cur.SceneChange = true
		if d.cfg.IntraRefreshType == config.IntraRefreshCRA {
			cur.CRAFlag = true
		} else {
			cur.IDRFlag = true
		}
	}
	return nil
}

// admit implements spec.md §4.7 step 3: push into the pre-assignment
// buffer, assign POC, and update intra/IDR/refresh-position counters.
func (d *Driver) admit(cur *picture.Picture) {
	if len(d.buffer) == 0 && !d.haveEmittedAny {
		cur.POC = 0
	} else {
		cur.POC = d.lastPOC + 1
	}
	d.lastPOC = cur.POC

	isIntra := cur.POC == 0 || cur.CRAFlag || cur.IDRFlag ||
		(d.cfg.IntraPeriodLength == 0) ||
		(d.cfg.IntraPeriodLength > 0 && d.intraPeriodPos >= d.cfg.IntraPeriodLength)

	if isIntra {
		cur.FrameType = picture.FrameKey
		d.bufferSawIntra = true
		d.intraCount++
		if cur.IDRFlag {
			d.idrCount++
		}
		d.intraPeriodPos = 0
	} else {
		cur.FrameType = picture.FrameInter
		d.intraPeriodPos++
	}

	d.buffer = append(d.buffer, cur)

	if d.onAdmit != nil {
		d.onAdmit(cur)
	}
}

// shouldEmit implements spec.md §4.7 step 4 ("Emit?").
func (d *Driver) shouldEmit(cur *picture.Picture) bool {
	full := len(d.buffer) == 1<<d.cfg.HierarchicalLevels
	return d.bufferSawIntra || full || cur.EndOfSequence || d.predStruct == picture.LowDelayP
}

// emit implements spec.md §4.7 step 5 ("On Emit"): partition the
// pre-assignment buffer into mini-GOPs, reconcile level transitions,
// derive RPS/skip-mode per picture, admit PA reference entries, and
// post per-SB ME jobs.
func (d *Driver) emit() ([]Output, error) {
	n := len(d.buffer)
	mgs, err := d.partitioner.Partition(n, d.intraCount, d.idrCount)
	if err != nil {
		return nil, err
	}

	var outputs []Output
	base := d.buffer
	d.buffer = nil
	d.bufferSawIntra = false
	d.intraCount, d.idrCount = 0, 0

	for _, mg := range mgs {
		pics := base[mg.StartIndex : mg.EndIndex+1]
		// Generate and admitReferences take the POC of the picture just
		// before the mini-GOP; decodeBaseNumber is the mini-GOP's first POC.
		basePOC := d.decodeBaseNumber - 1

		if err := d.reconcile(mg, d.decodeBaseNumber); err != nil {
			return outputs, err
		}

		results, err := d.rpsGen.Generate(mg, basePOC, d.predStruct, d.toggle)
		if err != nil {
			return outputs, err
		}

		if err := d.admitReferences(mg, basePOC, results); err != nil {
			return outputs, err
		}

		for _, r := range results {
			pic := pics[r.Index]
			pic.TemporalLayerIndex = r.Layer
			pic.HierarchicalLayer = r.Layer
			pic.RPS = r.RPS
			pic.ShowFrame = r.ShowFrame
			pic.ShowExisting = r.ShowExisting
			pic.ShowExistingLoc = r.ShowExistingLoc
			pic.DecodeOrder = int64(r.DecodeOrder)
			pic.HierarchicalLevels = mg.HierarchicalLevels
			pic.PredStructure = d.predStruct

			rps.DeriveSkipMode(&pic.RPS, pic.RefList0Count, pic.RefList1Count, pic.POC, d.cfg.OrderHintBits)

			outputs = append(outputs, Output{
				Picture:         pic,
				Layer:           r.Layer,
				RPS:             r.RPS,
				ShowFrame:       r.ShowFrame,
				ShowExisting:    r.ShowExisting,
				ShowExistingLoc: r.ShowExistingLoc,
				DecodeOrder:     int64(r.DecodeOrder),
			})

			d.postMEJobs(pic)
		}

		d.decodeBaseNumber += int64(mg.Length())
		d.prevMiniGopLevels = mg.HierarchicalLevels
		d.haveEmittedAny = true
	}
	return outputs, nil
}

// reconcile wraps refqueue.ReconcileTransition, deriving the new
// mini-GOP's base-layer dependent offsets from its prediction
// structure (spec.md §4.5).
func (d *Driver) reconcile(mg minigop.MiniGop, basePOC int64) error {
	if d.prevMiniGopLevels == mg.HierarchicalLevels || !d.haveEmittedAny {
		return nil
	}
	if mg.HierarchicalLevels == 0 || mg.Length() == 1 {
		return refqueue.ReconcileTransition(d.refQueue, basePOC, d.prevMiniGopLevels, mg.HierarchicalLevels, refqueue.BaseLayerDeps{})
	}
	ps := rps.BuildPredStruct(mg.HierarchicalLevels)
	var deps refqueue.BaseLayerDeps
	for _, r := range ps.List1(0) {
		deps.List0 = append(deps.List0, int32(r))
	}
	return refqueue.ReconcileTransition(d.refQueue, basePOC, d.prevMiniGopLevels, mg.HierarchicalLevels, deps)
}

// admitReferences creates a PA reference queue entry for every
// reference picture of the mini-GOP, with DependentCount seeded from
// how many sibling positions reference it within this mini-GOP
// (spec.md §3 "PA Reference Queue Entry").
func (d *Driver) admitReferences(mg minigop.MiniGop, basePOC int64, results []rps.Result) error {
	if mg.HierarchicalLevels == 0 || mg.Length() == 1 {
		if len(results) == 0 {
			return nil
		}
		return d.refQueue.Admit(&refqueue.Entry{PictureNumber: basePOC + 1, DependentCount: 0})
	}

	ps := rps.BuildPredStruct(mg.HierarchicalLevels)
	dependents := make(map[int][]int32)
	for pos := 1; pos <= ps.N; pos++ {
		for _, ref := range append(append([]int{}, ps.List0(pos)...), ps.List1(pos)...) {
			dependents[ref] = append(dependents[ref], int32(pos-ref))
		}
	}

	for _, r := range results {
		if r.RPS.RefreshFrameMask == 0 {
			continue
		}
		pos := r.Index + 1
		offsets := dependents[pos]
		e := &refqueue.Entry{
			PictureNumber:  basePOC + int64(pos),
			List0:          offsets,
			DepList0Count:  len(offsets),
			DependentCount: len(offsets),
		}
		if err := d.refQueue.Admit(e); err != nil {
			return err
		}
	}
	return nil
}

// postMEJobs posts one ME work item per SB for pic to the downstream
// FIFO, assigning SBs to segments round-robin (spec.md §4.7, §5).
func (d *Driver) postMEJobs(pic *picture.Picture) {
	if d.jobs == nil {
		return
	}
	sbCols := (d.width + SBSize - 1) / SBSize
	sbRows := (d.height + SBSize - 1) / SBSize
	total := sbCols * sbRows
	segments := d.numSegments
	if segments <= 0 {
		segments = 1
	}
	for sb := 0; sb < total; sb++ {
		d.jobs <- MEJob{Picture: pic, SBIndex: sb, SegmentIndex: sb % segments}
	}
}
