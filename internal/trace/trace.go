/*
DESCRIPTION
  trace.go implements the decision-trace writer (SPEC_FULL.md §3): one
  JSON record per emitted picture, staged through a pool.Buffer ring
  buffer and drained to a size/age-rotated file, following the same
  pool-buffer-plus-output-routine shape as revid/senders.go's
  mtsSender.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package trace writes one JSON record per Picture Decision output to
// a rotated file, for offline inspection of RPS/skip-mode/layer
// decisions (SPEC_FULL.md §3).
package trace

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/pictdec/decision"
	"github.com/ausocean/pictdec/picture"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"
)

// Rotation defaults, mirroring cmd/rv's lumberjack configuration.
const (
	maxSizeMB  = 50
	maxBackups = 5
	maxAgeDays = 7
)

const (
	poolElementSize = 4096
	poolNumElements = 64
	poolReadTimeout = 2 * time.Second
)

// Record is one emitted picture's decision trace.
type Record struct {
	POC             int64             `json:"poc"`
	DecodeOrder     int64             `json:"decode_order"`
	Layer           uint8             `json:"layer"`
	FrameType       uint8             `json:"frame_type"`
	ShowFrame       bool              `json:"show_frame"`
	ShowExisting    bool              `json:"show_existing"`
	ShowExistingLoc uint8             `json:"show_existing_loc,omitempty"`
	RefreshMask     uint8             `json:"refresh_frame_mask"`
	DPBIndex        [picture.NumRefSlots]uint8 `json:"dpb_index"`
	RefPOC          [picture.NumRefSlots]int64 `json:"ref_poc"`
	SkipModeAllowed bool              `json:"skip_mode_allowed"`
	SkipModeIdx0    uint8             `json:"skip_mode_idx0,omitempty"`
	SkipModeIdx1    uint8             `json:"skip_mode_idx1,omitempty"`
}

// Writer stages Records through a pool.Buffer and drains them to a
// rotated file via an output goroutine, matching the mtsSender pattern
// in revid/senders.go.
type Writer struct {
	file *lumberjack.Logger
	buf  *pool.Buffer
	log  logging.Logger
	done chan struct{}
	wg   sync.WaitGroup
}

// New opens (or creates) path and starts the drain routine. cmd/pictdec
// passes its -trace flag as path and constructs no Writer when that
// flag is empty.
func New(path string, log logging.Logger) *Writer {
	w := &Writer{
		file: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
		},
		buf:  pool.NewBuffer(poolNumElements, poolElementSize, poolReadTimeout),
		log:  log,
		done: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.drain()
	return w
}

// Write appends one Output's decision trace as a single-line JSON
// record. It never blocks the Picture Decision driver for longer than
// the pool buffer's own write budget.
func (w *Writer) Write(o decision.Output) error {
	r := Record{
		POC:             o.Picture.POC,
		DecodeOrder:     o.DecodeOrder,
		Layer:           o.Layer,
		FrameType:       uint8(o.Picture.FrameType),
		ShowFrame:       o.ShowFrame,
		ShowExisting:    o.ShowExisting,
		ShowExistingLoc: o.ShowExistingLoc,
		RefreshMask:     o.RPS.RefreshFrameMask,
		DPBIndex:        o.RPS.DPBIndex,
		RefPOC:          o.RPS.RefPOC,
		SkipModeAllowed: o.RPS.SkipModeAllowed,
		SkipModeIdx0:    o.RPS.SkipModeIdx0,
		SkipModeIdx1:    o.RPS.SkipModeIdx1,
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	n, err := w.buf.Write(b)
	if err == nil {
		w.buf.Flush()
	}
	if err != nil {
		w.log.Warning("trace: pool buffer write error", "error", err.Error(), "n", n)
		return err
	}
	return nil
}

// drain reads completed chunks from the pool buffer and appends them
// to the rotated file, following mtsSender.output's read-repair-write
// loop (minus the repair step, which has no analogue for plain JSON
// lines).
func (w *Writer) drain() {
	defer w.wg.Done()
	var chunk *pool.Chunk
	for {
		select {
		case <-w.done:
			return
		default:
			if chunk == nil {
				var err error
				chunk, err = w.buf.Next(poolReadTimeout)
				switch err {
				case nil, io.EOF:
				case pool.ErrTimeout:
					continue
				default:
					w.log.Error("trace: unexpected pool read error", "error", err.Error())
					continue
				}
				if chunk == nil {
					continue
				}
			}
			if _, err := w.file.Write(chunk.Bytes()); err != nil {
				w.log.Warning("trace: file write error", "error", err.Error())
			}
			chunk.Close()
			chunk = nil
		}
	}
}

// Close stops the drain routine and closes the rotated file.
func (w *Writer) Close() error {
	close(w.done)
	w.wg.Wait()
	return w.file.Close()
}
