// Package pipeline turns a schema model into a positioned diagram.
//
// This package implements the build → layout → anchor pipeline used by the
// CLI, the HTTP server and the relayout orchestrator. Centralizing it keeps
// every entry point on the same defaults and the same fallback size policy.
//
// # Architecture
//
// A run has three stages:
//
//  1. Build: convert the schema into unpositioned nodes and edges
//     ([diagram.Build]), attaching measured sizes from a registry snapshot
//  2. Layout: hand the nodes to a [layout.Engine], using the fallback size
//     for tables that have not been measured yet
//  3. Anchor: assign connection sides from the final positions
//     ([diagram.ResolveAnchors])
//
// The fallback size is only ever passed to the engine. Nodes in the result
// keep a nil Size until a real measurement exists.
//
// # Usage
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	res, err := runner.Execute(ctx, db, reg.Snapshot(), pipeline.Options{})
//	if err != nil {
//	    return err
//	}
//	for _, d := range res.Diagnostics {
//	    fmt.Println(d)
//	}
//
// Rendering a static export:
//
//	artifacts, err := pipeline.Render(ctx, res.Diagram, []string{pipeline.FormatSVG})
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erdflow/pkg/diagram"
	"github.com/matzehuels/erdflow/pkg/errors"
	"github.com/matzehuels/erdflow/pkg/layout"
	"github.com/matzehuels/erdflow/pkg/layout/graphviz"
	"github.com/matzehuels/erdflow/pkg/layout/ordering"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Orchestrator
// =============================================================================

const (
	// DefaultEngine is the pure Go layered engine.
	DefaultEngine = layout.LayeredName

	// DefaultRankDir lays ranks out top to bottom.
	DefaultRankDir = layout.TopToBottom

	// DefaultSettle is how long the orchestrator waits for more triggers
	// before rebuilding.
	DefaultSettle = 16 * time.Millisecond
)

// Engine names.
const (
	EngineLayered  = layout.LayeredName
	EngineGraphviz = graphviz.Name
)

// ValidEngines is the set of supported layout engines.
var ValidEngines = map[string]bool{
	EngineLayered:  true,
	EngineGraphviz: true,
}

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// discard is the logger of options that did not set one.
var discard = log.NewWithOptions(io.Discard, log.Options{})

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON and TOML serialization for API requests and
// config files.
type Options struct {
	// Layout options
	Engine  string         `json:"engine,omitempty" toml:"engine"`
	RankDir layout.RankDir `json:"rank_dir,omitempty" toml:"rank_dir"`
	NodeSep float64        `json:"node_sep,omitempty" toml:"node_sep"`
	RankSep float64        `json:"rank_sep,omitempty" toml:"rank_sep"`
	EdgeSep float64        `json:"edge_sep,omitempty" toml:"edge_sep"`
	Passes  int            `json:"passes,omitempty" toml:"passes"`
	Margin  float64        `json:"margin,omitempty" toml:"margin"`

	// Size used for tables without a measurement
	FallbackWidth  float64 `json:"fallback_width,omitempty" toml:"fallback_width"`
	FallbackHeight float64 `json:"fallback_height,omitempty" toml:"fallback_height"`

	// Orchestrator options
	Settle time.Duration `json:"settle,omitempty" toml:"settle"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Diagram is positioned, with sides resolved. Its Diagnostics field
	// holds the same values as Diagnostics.
	Diagram diagram.Diagram

	// Diagnostics are the non-fatal conditions met during the run.
	Diagnostics []diagram.Diagnostic

	// Engine is the name of the engine that placed the nodes.
	Engine string

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Measured   int // nodes that had a registry size
	Crossings  int
	Reversed   int
	Cached     bool // layout came from the cache
	BuildTime  time.Duration
	LayoutTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateEngine checks that an engine name is valid.
func ValidateEngine(name string) error {
	if !ValidEngines[name] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid engine: %q (must be one of: layered, graphviz)", name)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and validates the result.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.RankDir == "" {
		o.RankDir = DefaultRankDir
	}
	if o.NodeSep == 0 {
		o.NodeSep = layout.DefaultNodeSep
	}
	if o.RankSep == 0 {
		o.RankSep = layout.DefaultRankSep
	}
	if o.EdgeSep == 0 {
		o.EdgeSep = layout.DefaultEdgeSep
	}
	if o.Passes == 0 {
		o.Passes = ordering.DefaultPasses
	}
	if o.FallbackWidth == 0 {
		o.FallbackWidth = diagram.DefaultNodeWidth
	}
	if o.FallbackHeight == 0 {
		o.FallbackHeight = diagram.DefaultNodeHeight
	}
	if o.Settle == 0 {
		o.Settle = DefaultSettle
	}
	if o.Logger == nil {
		o.Logger = discard
	}
}

// Validate checks the engine, the layout config and the fallback size.
// All failures are INVALID_CONFIG errors.
func (o *Options) Validate() error {
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	dir, err := layout.ParseRankDir(string(o.RankDir))
	if err != nil {
		return err
	}
	o.RankDir = dir
	if err := o.LayoutConfig().Validate(); err != nil {
		return err
	}
	if err := errors.ValidateSize(o.FallbackWidth, o.FallbackHeight); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "fallback size")
	}
	if o.Settle < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "settle must not be negative, got %s", o.Settle)
	}
	return nil
}

// LayoutConfig returns the engine configuration.
func (o *Options) LayoutConfig() layout.Config {
	return layout.Config{
		RankDir: o.RankDir,
		NodeSep: o.NodeSep,
		RankSep: o.RankSep,
		EdgeSep: o.EdgeSep,
		Passes:  o.Passes,
		Margin:  o.Margin,
	}
}

// FallbackSize returns the size used for unmeasured tables.
func (o *Options) FallbackSize() diagram.Size {
	return diagram.Size{Width: o.FallbackWidth, Height: o.FallbackHeight}
}

// String summarizes the layout-relevant options for logs.
func (o Options) String() string {
	return fmt.Sprintf("engine=%s rankdir=%s nodesep=%g ranksep=%g", o.Engine, o.RankDir, o.NodeSep, o.RankSep)
}
