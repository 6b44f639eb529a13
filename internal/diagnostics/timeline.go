/*
DESCRIPTION
  timeline.go renders a mini-GOP/RPS timeline plot for offline
  debugging, written when cmd/pictdec is given a -plot path
  (SPEC_FULL.md §3). It plots each emitted picture's POC against its
  hierarchical layer, and connects each picture to every reference it
  points to, following the kind of gonum/plot scatter-plus-line
  composition used for analysis tooling throughout the corpus.

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package diagnostics renders Picture Decision output as a gonum/plot
// timeline, for visualizing mini-GOP structure, layer assignment, and
// RPS reference edges offline (SPEC_FULL.md §3).
package diagnostics

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ausocean/pictdec/decision"
	"github.com/ausocean/pictdec/picture"
)

// Timeline accumulates Outputs across one or more AdmitPicture calls
// and renders them as a single plot on Save.
type Timeline struct {
	points    plotter.XYs
	edges     []edge
	pocLayer  map[int64]uint8
	firstPOC  int64
	haveFirst bool
}

type edge struct{ x0, y0, x1, y1 float64 }

// NewTimeline returns an empty Timeline.
func NewTimeline() *Timeline { return &Timeline{pocLayer: make(map[int64]uint8)} }

// Add records one emitted Output's placement and its RPS reference
// edges, one line per DPB slot that refers back to a POC this
// Timeline has already plotted (slots referring to pictures emitted
// before tracing started, or to the picture's own POC, are skipped).
func (t *Timeline) Add(o decision.Output) {
	poc := o.Picture.POC
	x := float64(poc)
	y := float64(o.Layer)
	t.points = append(t.points, plotter.XY{X: x, Y: y})
	t.pocLayer[poc] = o.Layer
	if !t.haveFirst {
		t.firstPOC, t.haveFirst = poc, true
	}

	for i := 0; i < picture.NumRefSlots; i++ {
		refPOC := o.RPS.RefPOC[i]
		if refPOC == poc || refPOC < t.firstPOC {
			continue
		}
		refLayer, ok := t.pocLayer[refPOC]
		if !ok {
			continue
		}
		t.edges = append(t.edges, edge{x0: float64(refPOC), y0: float64(refLayer), x1: x, y1: y})
	}
}

// Save renders the accumulated timeline to path (PNG, inferred from
// the file extension as gonum/plot's Plot.Save does).
func (t *Timeline) Save(path string, width, height vg.Length) error {
	p, err := plot.New()
	if err != nil {
		return fmt.Errorf("diagnostics: new plot: %w", err)
	}
	p.Title.Text = "picture decision timeline"
	p.X.Label.Text = "POC"
	p.Y.Label.Text = "hierarchical layer"

	scatter, err := plotter.NewScatter(t.points)
	if err != nil {
		return fmt.Errorf("diagnostics: new scatter: %w", err)
	}
	p.Add(scatter)

	for _, e := range t.edges {
		line, err := plotter.NewLine(plotter.XYs{{X: e.x0, Y: e.y0}, {X: e.x1, Y: e.y1}})
		if err != nil {
			return fmt.Errorf("diagnostics: new reference edge: %w", err)
		}
		p.Add(line)
	}

	p.Legend.Add(fmt.Sprintf("%d pictures, %d reference edges", len(t.points), len(t.edges)))

	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("diagnostics: save plot: %w", err)
	}
	return nil
}
