// Package pipeline provides the trace → flow graph → artifact pipeline.
//
// This package implements the complete parse → layout → render pipeline used
// by every ruleflow entry point (render, watch, serve). By centralizing this
// logic, all hosts share the same caching, logging and error behavior.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: scan the trace text and build the flow graph (pkg/trace)
//  2. Layout: compute tier columns, the cycle flag and the DOT source
//     (pkg/present, pkg/render/nodelink)
//  3. Render: produce the requested artifacts (svg, dot, json, pdf, png)
//
// Parsing never fails on trace content. Rendering failures are reported as
// RENDER_FAILED errors and leave the parsed state usable, so a host can keep
// showing the summary and retry the render.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, text, pipeline.Options{
//	    Source:  "trace.log",
//	    Formats: []string{"svg", "json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	st, err := runner.Parse(ctx, text, opts)
//	layout, scene, err := runner.GenerateLayout(ctx, st, opts)
//	artifacts, err := runner.Render(ctx, st, opts)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ruleflow/pkg/cache"
	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/flow"
	"github.com/matzehuels/ruleflow/pkg/graph"
	"github.com/matzehuels/ruleflow/pkg/render"
	"github.com/matzehuels/ruleflow/pkg/render/nodelink"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultScale is the PNG scale factor.
	DefaultScale = 2.0

	// DefaultStrategy is the renderer selection used when none is configured.
	DefaultStrategy = render.StrategyAuto

	// DefaultDirection is the default layout direction.
	DefaultDirection = render.DirectionLR
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
	FormatPDF:  true,
	FormatPNG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for HTTP requests.
type Options struct {
	// Parse options
	Source  string   `json:"source,omitempty"` // file path or request ID, for logs and hooks
	Ignore  []string `json:"ignore,omitempty"` // raw rule-name prefixes to drop
	Refresh bool     `json:"refresh,omitempty"`

	// Layout options
	Strategy  string `json:"renderer,omitempty"`
	Direction string `json:"direction,omitempty"`
	Detailed  bool   `json:"detailed,omitempty"` // print tiers in node labels

	// Render options
	Formats []string `json:"formats,omitempty"`
	Scale   float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger         `json:"-"`
	Renderer render.Renderer     `json:"-"` // overrides Strategy when set
	LookPath render.LookPathFunc `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this run in logs and HTTP responses.
	RunID string

	// State is the flow graph built from the trace.
	State *flow.State

	// StateHash is the content hash of the state.
	StateHash string

	// Layout is the serializable presentation of the state.
	Layout graph.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Cyclic     bool
	Renderer   string
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	ParseHit  bool // Whether the flow graph came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, dot, json, pdf, png)", format)
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

// ValidateDirection checks that a layout direction is valid.
func ValidateDirection(dir string) error {
	if !render.ValidDirections[dir] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid direction: %q (must be one of: LR, TB)", dir)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults applies defaults and validates every option except
// the renderer strategy, which is resolved by the Runner once it knows
// whether anything has to be drawn.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetLayoutDefaults()
	o.SetRenderDefaults()
	if err := ValidateDirection(o.Direction); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Scale <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	o.validated = true
	return nil
}

// SetLayoutDefaults sets default values for layout computation.
func (o *Options) SetLayoutDefaults() {
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	o.Formats = dedupe(o.Formats)
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// NodelinkOptions returns the DOT generation options.
func (o *Options) NodelinkOptions() nodelink.Options {
	return nodelink.Options{Detailed: o.Detailed}
}

// GraphKeyOpts returns cache key options for flow graph caching.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{Ignore: o.Ignore}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
// Scale only affects PNG output and is left out of other keys.
func (o *Options) ArtifactKeyOpts(format, renderer string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:    format,
		Renderer:  renderer,
		Direction: o.Direction,
		Detailed:  o.Detailed,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}

// needsSVG reports whether any requested format is drawn by the renderer.
func needsSVG(formats []string) bool {
	return slices.ContainsFunc(formats, func(f string) bool {
		return f == FormatSVG || f == FormatPDF || f == FormatPNG
	})
}
