/*
DESCRIPTION
  pictdec reads a sequence of picture descriptors (as newline-delimited
  JSON) and runs them through the Picture Decision / Motion Estimation
  pipeline, emitting one decision record per output picture.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pictdec is a CLI driver for the picture-decision/motion-
// estimation core: it feeds a recorded picture sequence through the
// pipeline and reports the resulting decisions.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/pictdec/config"
	"github.com/ausocean/pictdec/decision"
	"github.com/ausocean/pictdec/internal/diagnostics"
	"github.com/ausocean/pictdec/internal/trace"
	"github.com/ausocean/pictdec/me"
	"github.com/ausocean/pictdec/picture"
	"github.com/ausocean/pictdec/pipeline"
	"github.com/ausocean/utils/logging"
)

const version = "v0.1.0"

const pkg = "pictdec: "

// Logging configuration, following cmd/rv's lumberjack setup.
const (
	logPath      = "pictdec.log"
	logMaxSizeMB = 100
	logMaxBackup = 5
	logMaxAgeDay = 14
)

func main() {
	showVersion := flag.Bool("version", false, "show version")
	input := flag.String("input", "", "path to newline-delimited JSON picture descriptors (default: stdin)")
	width := flag.Int("width", 1920, "luma picture width")
	height := flag.Int("height", 1080, "luma picture height")
	levels := flag.Int("levels", 3, "hierarchical_levels (0, 3, 4 or 5)")
	lowDelay := flag.Bool("low-delay", false, "use the low-delay predictor instead of random-access")
	segments := flag.Int("segments", 4, "ME segments per SB grid")
	workers := flag.Int("workers", 4, "ME worker count")
	buffers := flag.Int("buffers", 16, "PA reference buffer pool capacity")
	tracePath := flag.String("trace", "", "decision-trace output path (empty disables tracing)")
	plotPath := flag.String("plot", "", "diagnostics timeline PNG output path (empty disables)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAgeDay,
	}
	log := logging.New(logging.Info, io.MultiWriter(fileLog, os.Stderr), true)
	log.Info("starting pictdec", "version", version)

	cfg := config.Default(log)
	cfg.HierarchicalLevels = uint8(*levels)
	if err := cfg.Validate(); err != nil {
		log.Fatal(pkg+"invalid configuration", "error", err.Error())
	}

	pred := picture.RandomAccess
	if *lowDelay {
		pred = picture.LowDelayP
	}

	var tw *trace.Writer
	if *tracePath != "" {
		tw = trace.New(*tracePath, log)
		defer tw.Close()
	}
	tl := diagnostics.NewTimeline()

	hotLog, err := zap.NewProduction()
	if err != nil {
		log.Warning(pkg+"could not build structured ME logger, segment logging disabled", "error", err.Error())
		hotLog = nil
	}

	reg := newPlaneRegistry(*width, *height, *buffers, log)
	results := newResultStore()

	pl := pipeline.New(&cfg, pred, *width, *height, *segments, *workers, processSegment(reg, results, &cfg, log), log, hotLog)
	pl.SetOnAdmit(reg.register)

	in := os.Stdin
	if *input != "" {
		f, err := os.Open(*input)
		if err != nil {
			log.Fatal(pkg+"could not open input", "error", err.Error())
		}
		defer f.Close()
		in = f
	}

	log.Debug(pkg + "reading picture descriptors")
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	var n, m int
	for sc.Scan() {
		var pic picture.Picture
		if err := json.Unmarshal(sc.Bytes(), &pic); err != nil {
			log.Error(pkg+"could not decode picture descriptor", "line", n, "error", err.Error())
			continue
		}
		n++

		outs, err := pl.AdmitPicture(&pic)
		if err != nil {
			log.Fatal(pkg+"fatal decision error", "error", err.Error())
		}
		for _, o := range outs {
			m++
			report(o)
			tl.Add(o)
			if tw != nil {
				if err := tw.Write(o); err != nil {
					log.Warning(pkg+"trace write failed", "error", err.Error())
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		log.Fatal(pkg+"input scan failed", "error", err.Error())
	}

	pl.Close()
	log.Info("finished pictdec", "input_pictures", n, "output_pictures", m)

	if *plotPath != "" {
		if err := tl.Save(*plotPath, 8, 6); err != nil {
			log.Warning(pkg+"diagnostics plot failed", "error", err.Error())
		}
	}
}

// planeDims records the stride/pad geometry synthesizePlane used for
// each of a picture's three decimations, so surfaces can reconstruct
// matching me.Plane values from a pool buffer's raw pixel slices.
type planeDims struct {
	fullW, fullH             int
	quarterW, quarterH       int
	sixteenthW, sixteenthH   int
	fullPad, quarterPad, sixteenthPad int
}

// putTimeout bounds how long register waits for a free buffer pool
// slot before giving up on a picture (spec.md §5 "bounded wait").
const putTimeout = 2 * time.Second

// planeRegistry synthesizes placeholder full/quarter/sixteenth pixel
// planes for each admitted picture and files them under both the
// picture's own pointer and its POC, so a later ME job can resolve
// itself and its RPS references to real pixel-plane storage pulled
// from the pipeline's BufferPool (spec.md §5). Picture descriptors
// carry no raw samples (package picture stores histograms and average
// intensity only), so each plane is filled with the picture's average
// luma intensity: enough to drive every ME kernel's real code paths
// without requiring a decoded reference bitstream.
type planeRegistry struct {
	dims   planeDims
	planes *pipeline.BufferPool
	log    logging.Logger

	mu     sync.Mutex
	byPtr  map[*picture.Picture]*pipeline.Handle
	byPOC  map[int64]*pipeline.Handle
}

func newPlaneRegistry(width, height, capacity int, log logging.Logger) *planeRegistry {
	const fullPad, quarterPad, sixteenthPad = 32, 16, 8
	return &planeRegistry{
		dims: planeDims{
			fullW: width, fullH: height,
			quarterW: (width + 3) / 4, quarterH: (height + 3) / 4,
			sixteenthW: (width + 15) / 16, sixteenthH: (height + 15) / 16,
			fullPad: fullPad, quarterPad: quarterPad, sixteenthPad: sixteenthPad,
		},
		planes: pipeline.NewBufferPool(capacity),
		log:    log,
		byPtr:  make(map[*picture.Picture]*pipeline.Handle),
		byPOC:  make(map[int64]*pipeline.Handle),
	}
}

// synthesizePlane builds a flat, padded pixel buffer of the given
// unpadded width/height filled with fill, matching the layout
// me.Plane.at expects (spec.md §4.6 surfaces).
func synthesizePlane(width, height, pad int, fill uint8) *[]uint8 {
	stride := width + 2*pad
	buf := make([]uint8, stride*(height+2*pad))
	for i := range buf {
		buf[i] = fill
	}
	return &buf
}

// register synthesizes pic's three decimated planes and files them in
// the pool under both pic's pointer (for self-reference lookups while
// processing pic's own SBs) and its POC (for lookups by later
// pictures' RPS.RefPOC entries). Installed as the Driver's onAdmit
// callback, it therefore always runs before any ME job that could
// reference pic reaches the worker pool. On pool exhaustion, pic
// never becomes resolvable, neither as a reference nor for its own
// SBs: processSegment looks pic itself up the same way and skips its
// SBs when no planes are registered.
func (r *planeRegistry) register(pic *picture.Picture) {
	fill := pic.AverageIntensity
	full := synthesizePlane(r.dims.fullW, r.dims.fullH, r.dims.fullPad, fill)
	quarter := synthesizePlane(r.dims.quarterW, r.dims.quarterH, r.dims.quarterPad, fill)
	sixteenth := synthesizePlane(r.dims.sixteenthW, r.dims.sixteenthH, r.dims.sixteenthPad, fill)

	h, err := r.planes.Put(full, quarter, sixteenth, putTimeout)
	if err != nil {
		r.log.Warning(pkg+"plane registry: buffer pool exhausted, picture cannot serve as a reference", "poc", pic.POC, "error", err.Error())
		return
	}
	h.Buffer().AddReader()

	r.mu.Lock()
	r.byPtr[pic] = h
	r.byPOC[pic.POC] = h
	r.mu.Unlock()
}

// plane wraps a pool buffer's raw pixel slice and this registry's
// recorded geometry into a me.Plane.
func plane(pix *[]uint8, width, height, pad int) *me.Plane {
	return &me.Plane{Pix: *pix, Stride: width + 2*pad, Width: width, Height: height, Pad: pad}
}

// surfaces reconstructs the me.Surfaces a handle's pool buffer backs.
func (r *planeRegistry) surfaces(h *pipeline.Handle) me.Surfaces {
	buf := h.Buffer()
	return me.Surfaces{
		Full:      plane(buf.Full, r.dims.fullW, r.dims.fullH, r.dims.fullPad),
		Quarter:   plane(buf.Quarter, r.dims.quarterW, r.dims.quarterH, r.dims.quarterPad),
		Sixteenth: plane(buf.Sixteenth, r.dims.sixteenthW, r.dims.sixteenthH, r.dims.sixteenthPad),
	}
}

func (r *planeRegistry) byPointer(pic *picture.Picture) (*pipeline.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byPtr[pic]
	return h, ok
}

func (r *planeRegistry) byPOCLookup(poc int64) (*pipeline.Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.byPOC[poc]
	return h, ok
}

// resultStore collects the per-SB ME results RunSuperBlock produces,
// keyed by picture, in a SB-index-ordered slice sized from the
// picture's own grid. Index writes race-free across workers since
// SB indices within one picture are disjoint by construction
// (decision.Driver.postMEJobs posts exactly one job per SB).
type resultStore struct {
	mu sync.Mutex
	m  map[*picture.Picture][]me.SBResult
}

func newResultStore() *resultStore {
	return &resultStore{m: make(map[*picture.Picture][]me.SBResult)}
}

func (s *resultStore) store(pic *picture.Picture, width, height int, res me.SBResult) {
	sbCols := (width + decision.SBSize - 1) / decision.SBSize
	sbRows := (height + decision.SBSize - 1) / decision.SBSize

	s.mu.Lock()
	slice, ok := s.m[pic]
	if !ok {
		slice = make([]me.SBResult, sbCols*sbRows)
		s.m[pic] = slice
	}
	s.mu.Unlock()

	slice[res.SBIndex] = res
}

// refSlot returns the RPS.RefPOC index for the i'th reference of the
// given list (0 or 1), following picture.RefSlot's documented order:
// list 0 is Last, Last2, Last3, Gold (slots 0-3); list 1 is Bwd, Alt2,
// Alt (slots 4-6).
func refSlot(list, i int) int {
	if list == 1 {
		return 4 + i
	}
	return i
}

// refInput resolves the i'th reference of the given list for pic into
// a me.RefInput carrying that reference's registered surfaces. A
// reference whose POC was never registered (buffer pool exhaustion,
// or a descriptor referencing a picture pictdec hasn't seen) comes
// back with a nil Surfaces.Full, which filterAlive strips.
func refInput(reg *planeRegistry, pic *picture.Picture, list, i int) me.RefInput {
	poc := pic.RPS.RefPOC[refSlot(list, i)]
	h, ok := reg.byPOCLookup(poc)
	if !ok {
		return me.RefInput{List: list, Idx: i}
	}
	return me.RefInput{
		List: list, Idx: i,
		Surfaces:         reg.surfaces(h),
		TemporalDistance: int(poc - pic.POC),
	}
}

// filterAlive drops references whose surfaces never resolved.
func filterAlive(refs []me.RefInput) []me.RefInput {
	alive := refs[:0]
	for _, r := range refs {
		if r.Surfaces.Full != nil {
			alive = append(alive, r)
		}
	}
	return alive
}

// sbOrigin converts a raster SB index over a width-wide SB grid into
// its full-resolution top-left pixel coordinate.
func sbOrigin(sbIndex, width int) (int, int) {
	sbCols := (width + decision.SBSize - 1) / decision.SBSize
	col, row := sbIndex%sbCols, sbIndex/sbCols
	return col * decision.SBSize, row * decision.SBSize
}

// processSegment builds the pipeline.SegmentProcessor the worker pool
// invokes for each (picture, SB, segment) job: it resolves the job's
// picture and its RPS references to real pixel-plane surfaces via reg,
// runs the full HME/pruning/integer-ME/candidate-building/OIS/GM
// pipeline for that one superblock, and files the result in results.
func processSegment(reg *planeRegistry, results *resultStore, cfg *config.Config, log logging.Logger) pipeline.SegmentProcessor {
	return func(job decision.MEJob) error {
		if job.Picture == nil || job.Picture.EndOfSequence {
			return nil
		}
		curHandle, ok := reg.byPointer(job.Picture)
		if !ok {
			log.Warning(pkg+"me: picture has no registered planes, skipping SB", "poc", job.Picture.POC, "sb", job.SBIndex)
			return nil
		}
		cur := reg.surfaces(curHandle)

		refs := make([]me.RefInput, 0, int(job.Picture.RefList0Count)+int(job.Picture.RefList1Count))
		for i := 0; i < int(job.Picture.RefList0Count); i++ {
			refs = append(refs, refInput(reg, job.Picture, 0, i))
		}
		for i := 0; i < int(job.Picture.RefList1Count); i++ {
			refs = append(refs, refInput(reg, job.Picture, 1, i))
		}
		refs = filterAlive(refs)

		sbX, sbY := sbOrigin(job.SBIndex, reg.dims.fullW)
		res := me.RunSuperBlock(job.SBIndex, sbX, sbY, cur, refs, cfg, nil)
		results.store(job.Picture, reg.dims.fullW, reg.dims.fullH, res)
		return nil
	}
}

func report(o decision.Output) {
	fmt.Printf("poc=%d decode_order=%d layer=%d show_frame=%t show_existing=%t refresh_mask=%#02x\n",
		o.Picture.POC, o.DecodeOrder, o.Layer, o.ShowFrame, o.ShowExisting, o.RPS.RefreshFrameMask)
}
