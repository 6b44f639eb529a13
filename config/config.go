/*
DESCRIPTION
  config.go contains the tunable configuration settings for the picture
  decision and motion estimation core (spec.md §6).

AUTHORS
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config holds the tunable configuration for the picture-decision
// pipeline and motion-estimation core, following the enum-block-plus-flat-
// struct style of revid/config.
package config

import (
	"fmt"

	"github.com/ausocean/utils/logging"
)

// Scene-change-detection modes (spec.md §4.1, §6).
const (
	SCDOff = iota
	SCDMode1 // 50% region threshold.
	SCDMode2 // 75% region threshold.
)

// Intra refresh types (spec.md §6).
const (
	IntraRefreshCRA = iota
	IntraRefreshIDR
)

// HME decimation levels (spec.md §6).
const (
	HMEDecimationFull = iota
	HMEDecimationQuarter
	HMEDecimationSixteenth
)

// HME search methods (spec.md §6).
const (
	HMESearchFullSAD = iota
	HMESearchSubSAD // Every other row, SAD doubled.
)

// FutureWindowWidth is the number of future-display-order successors the
// Picture Decision driver requires to be populated before it will advance
// the reorder-queue head (spec.md §4.7, §6).
const FutureWindowWidth = 4

// ReorderQueueMaxDepth bounds the reorder queue and picture-number wrap
// arithmetic (spec.md §8 "Reorder wrap").
const ReorderQueueMaxDepth = 1 << 10

// MaxPreAssignmentBufferSize is the largest mini-GOP-partitioning window
// (spec.md §4.2: "N ≤ 32").
const MaxPreAssignmentBufferSize = 32

// MaxPAMECand bounds the per-PU motion-estimation candidate list (spec.md
// §3).
const MaxPAMECand = 13

// MESRAdjustment configures integer-ME search-radius reduction (spec.md
// §4.6, §6).
type MESRAdjustment struct {
	Enable                        bool
	DistanceBasedHMEResizing      bool
	ReduceMESRBasedOnMVLengthTh   bool
	StationaryMESRDivisor         uint
	MESRDivisorForLowHMESAD       uint
}

// MEHMEPrune configures HME-based reference pruning (spec.md §4.6, §6).
type MEHMEPrune struct {
	PruneRefIfHMESADDevBiggerThanTh uint // Percent.
	PruneRefIfMESADDevBiggerThanTh  uint // Percent.
	ProtectClosestRefs              bool
}

// GMConfig configures global-motion detection (spec.md §4.6, §6).
type GMConfig struct {
	Enabled                  bool
	UseDistanceBasedActiveTh bool
}

// IntraOISConfig configures the per-16x16-block Intra OIS search
// (spec.md §4.6). It is a plain field group rather than package me's
// own OISConfig/CostMetric types, since package me already imports
// config and a reverse import would cycle; package me maps this into
// its own OISConfig at the call site.
type IntraOISConfig struct {
	EnablePaeth       bool
	EnableSmoothH     bool
	EnableDirectional bool
	UseSATD           bool
}

// Config is the flat tunable-configuration struct passed to the Picture
// Decision driver and Motion Estimation workers, mirroring revid/config's
// style: exported fields, enum-typed where spec.md enumerates options,
// defaulted and validated by Validate.
type Config struct {
	// Logger is used by every stateful component; must be set.
	Logger logging.Logger

	// LogLevel mirrors revid/config.Config.LogLevel: logging.Debug,
	// logging.Info, logging.Warning, logging.Error, logging.Fatal.
	LogLevel int8

	SceneChangeDetection uint8

	// IntraPeriodLength: -1 = none, 0 = every picture is intra.
	IntraPeriodLength  int32
	IntraRefreshType   uint8

	// HierarchicalLevels is one of {0, 3, 4, 5} (spec.md §3).
	HierarchicalLevels uint8

	EnableHMEFlag   bool
	HMEDecimation   uint8
	HMESearchMethod uint8

	MESRAdjustment MESRAdjustment
	MEHMEPrune     MEHMEPrune

	PruneMECandidatesTh uint // Percent (spec.md §4.6).

	GM GMConfig

	IntraOIS IntraOISConfig

	// MaxFrameWindowToRefISlice configures the BASE_LAYER_REF extension.
	// Accepted but neither checked by Validate nor read by RPS derivation — see
	// DESIGN.md and SPEC_FULL.md §5 (open question, intentionally omitted).
	MaxFrameWindowToRefISlice uint

	// PictureAnalysisRegionsPerWidth/Height size the Scene Transition
	// Detector's region grid (spec.md §4.1).
	PictureAnalysisRegionsPerWidth  int
	PictureAnalysisRegionsPerHeight int

	// OrderHintBits sizes the AV1 order-hint wraparound used by skip-mode
	// derivation (spec.md §4.4). Validate accepts 1..8; 7 is the common default.
	OrderHintBits uint

	// EnableDiagnosticsPlot names the mini-GOP/RPS timeline plot of
	// internal/diagnostics (SPEC_FULL.md §3). No package reads it;
	// cmd/pictdec renders the plot when its -plot flag is set.
	EnableDiagnosticsPlot bool

	// DecisionTracePath names the internal/trace decision trace, one JSON
	// record per emitted picture (SPEC_FULL.md §3). No package reads it;
	// cmd/pictdec writes the trace to the path given by its -trace flag.
	DecisionTracePath string
}

// Default returns a Config with the teacher-style conservative defaults: a
// 4-level hierarchical structure, HME and SCD mode 1 enabled, and pruning
// thresholds taken from the reference encoder's own defaults (spec.md §8
// seed scenario 4: prune_th 60%).
func Default(logger logging.Logger) Config {
	return Config{
		Logger:               logger,
		LogLevel:             logging.Info,
		SceneChangeDetection: SCDMode1,
		IntraPeriodLength:    -1,
		IntraRefreshType:     IntraRefreshCRA,
		HierarchicalLevels:   3,
		EnableHMEFlag:        true,
		HMEDecimation:        HMEDecimationSixteenth,
		HMESearchMethod:      HMESearchFullSAD,
		MESRAdjustment: MESRAdjustment{
			Enable:                      true,
			DistanceBasedHMEResizing:    true,
			ReduceMESRBasedOnMVLengthTh: true,
			StationaryMESRDivisor:       4,
			MESRDivisorForLowHMESAD:     2,
		},
		MEHMEPrune: MEHMEPrune{
			PruneRefIfHMESADDevBiggerThanTh: 60,
			PruneRefIfMESADDevBiggerThanTh:  60,
			ProtectClosestRefs:              true,
		},
		PruneMECandidatesTh:             15,
		GM:                               GMConfig{Enabled: true, UseDistanceBasedActiveTh: true},
		IntraOIS:                         IntraOISConfig{EnablePaeth: true, EnableSmoothH: true},
		PictureAnalysisRegionsPerWidth:   4,
		PictureAnalysisRegionsPerHeight:  4,
		OrderHintBits:                    7,
	}
}

// Validate checks the configuration for internal consistency and returns
// an error describing the first violation found. It neither fills in
// defaults nor logs.
func (c *Config) Validate() error {
	switch c.HierarchicalLevels {
	case 0, 3, 4, 5:
	default:
		return fmt.Errorf("config: invalid hierarchical_levels %d, must be one of {0,3,4,5}", c.HierarchicalLevels)
	}
	if c.PictureAnalysisRegionsPerWidth <= 0 || c.PictureAnalysisRegionsPerHeight <= 0 {
		return fmt.Errorf("config: picture analysis region grid must be positive, got %dx%d",
			c.PictureAnalysisRegionsPerWidth, c.PictureAnalysisRegionsPerHeight)
	}
	if c.OrderHintBits == 0 || c.OrderHintBits > 8 {
		return fmt.Errorf("config: order_hint_bits %d out of range [1,8]", c.OrderHintBits)
	}
	if c.Logger == nil {
		return fmt.Errorf("config: Logger must be set")
	}
	return nil
}
