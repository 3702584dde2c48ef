// Package config handles engine configuration loading: YAML on disk with
// sane defaults, overlaid by environment variables.
package config

import (
	"time"

	"platrace/internal/spatial"
)

// Options holds every configurable item the orchestrator, traversal graph
// and R-tree read at startup.
type Options struct {
	// SegmentWidthMultiplier is the top-face split target length, in
	// multiples of agent width. Valid range [1,10].
	SegmentWidthMultiplier float64 `yaml:"segment_width_multiplier" envconfig:"SEGMENT_WIDTH_MULTIPLIER" default:"5"`
	// GraphUpdateInterval is the minimum wall time between graph
	// maintenance ticks.
	GraphUpdateInterval time.Duration `yaml:"graph_update_interval" envconfig:"GRAPH_UPDATE_INTERVAL" default:"250ms"`
	// FullGraphRebuild forces RebuildAll every tick instead of Refresh.
	FullGraphRebuild bool `yaml:"full_graph_rebuild" envconfig:"FULL_GRAPH_REBUILD" default:"false"`
	// LayerMask and TagFilter restrict scene enumeration.
	LayerMask uint32 `yaml:"layer_mask" envconfig:"LAYER_MASK" default:"4294967295"`
	TagFilter string `yaml:"tag_filter" envconfig:"TAG_FILTER" default:""`

	RtreeMaxEntries int `yaml:"rtree_max_entries" envconfig:"RTREE_MAX_ENTRIES" default:"5"`
	// RtreeMinEntries is derived from RtreeMaxEntries when zero; set
	// explicitly only to override the derived value.
	RtreeMinEntries int `yaml:"rtree_min_entries" envconfig:"RTREE_MIN_ENTRIES" default:"0"`

	ReaderTimeout time.Duration `yaml:"reader_timeout" envconfig:"READER_TIMEOUT" default:"10ms"`
	WriterTimeout time.Duration `yaml:"writer_timeout" envconfig:"WRITER_TIMEOUT" default:"20ms"`

	Logging LoggingOptions `yaml:"logging"`
}

// LoggingOptions mirrors the teacher's LoggingConfig shape.
type LoggingOptions struct {
	Level   string `yaml:"level" envconfig:"LOG_LEVEL" default:"info"`
	LogFile string `yaml:"log_file" envconfig:"LOG_FILE" default:""`
}

// Default returns an Options with the spec's documented defaults.
func Default() *Options {
	return &Options{
		SegmentWidthMultiplier: 5,
		GraphUpdateInterval:    250 * time.Millisecond,
		FullGraphRebuild:       false,
		LayerMask:              0xFFFFFFFF,
		TagFilter:              "",
		RtreeMaxEntries:        5,
		RtreeMinEntries:        0,
		ReaderTimeout:          10 * time.Millisecond,
		WriterTimeout:          20 * time.Millisecond,
		Logging: LoggingOptions{
			Level:   "info",
			LogFile: "",
		},
	}
}

// EffectiveMinEntries returns RtreeMinEntries if explicitly set, otherwise
// the R-tree's own derivation from RtreeMaxEntries (spec.md §4.3).
func (o *Options) EffectiveMinEntries() int {
	if o.RtreeMinEntries > 0 {
		return o.RtreeMinEntries
	}
	return spatial.MinEntriesFor(o.RtreeMaxEntries)
}

// Validate clamps SegmentWidthMultiplier into its documented range and
// reports whether any field required correction.
func (o *Options) Validate() (corrected bool) {
	if o.SegmentWidthMultiplier < 1 {
		o.SegmentWidthMultiplier = 1
		corrected = true
	}
	if o.SegmentWidthMultiplier > 10 {
		o.SegmentWidthMultiplier = 10
		corrected = true
	}
	if o.RtreeMaxEntries < 3 {
		o.RtreeMaxEntries = 3
		corrected = true
	}
	return corrected
}
