package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/ruleflow/pkg/cache"
	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/present"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the watcher and the HTTP server all use it.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different inputs.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL overrides the per-stage cache lifetimes when positive.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
//
// Invalid options fail before anything is parsed. The renderer strategy is
// resolved after parsing and only matters when a drawn format (svg, pdf,
// png) is requested. When the strategy cannot be resolved or only rendering
// fails, Execute returns the partially filled result (state, layout, stats)
// together with the INVALID_STRATEGY, UNSUPPORTED or RENDER_FAILED error, so
// callers can still report the summary.
func (r *Runner) Execute(ctx context.Context, text string, opts Options) (*Result, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Artifacts: make(map[string][]byte),
	}
	logger := r.Logger.With("run", result.RunID[:8])
	opts.Logger = logger

	// Stage 1: Parse
	parseStart := time.Now()
	st, parseHit, err := r.ParseWithCacheInfo(ctx, text, opts)
	if err != nil {
		return nil, err
	}
	result.State = st
	result.StateHash = st.Hash()
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = st.NodeCount()
	result.Stats.EdgeCount = st.EdgeCount()
	result.CacheInfo.ParseHit = parseHit

	logger.Info("parsed trace",
		"source", opts.Source,
		"nodes", st.NodeCount(),
		"edges", st.EdgeCount(),
		"duration", result.Stats.ParseTime)

	if err := ctx.Err(); err != nil {
		return result, err
	}

	rendererErr := r.resolveRenderer(&opts)

	// Stage 2: Layout
	layoutStart := time.Now()
	layout, _, err := r.GenerateLayout(ctx, st, opts)
	if err != nil {
		return result, err
	}
	result.Layout = layout
	result.Stats.Cyclic = layout.Cyclic
	result.Stats.Renderer = layout.Renderer
	result.Stats.LayoutTime = time.Since(layoutStart)

	logger.Debug("computed layout",
		"columns", len(layout.Columns),
		"cyclic", layout.Cyclic,
		"duration", result.Stats.LayoutTime)

	if rendererErr != nil {
		logger.Warn("renderer unavailable", "strategy", opts.Strategy, "err", rendererErr)
		return result, rendererErr
	}

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, st, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	if err != nil {
		logger.Warn("render failed", "renderer", layout.Renderer, "err", err)
		return result, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"renderer", layout.Renderer,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// prepare validates opts and applies the runner's logger.
func (r *Runner) prepare(opts *Options) error {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	return opts.ValidateAndSetDefaults()
}

// resolveRenderer sets opts.Renderer from opts.Strategy unless a renderer
// was injected. JSON and DOT output are built without drawing, so a strategy
// that cannot be resolved is only an error when a drawn format is requested.
func (r *Runner) resolveRenderer(opts *Options) error {
	if opts.Renderer != nil {
		return nil
	}
	rnd, err := present.Select(opts.Strategy, opts.LookPath, opts.NodelinkOptions())
	if err != nil {
		if needsSVG(opts.Formats) {
			return err
		}
		opts.Logger.Debug("no renderer, drawing skipped", "strategy", opts.Strategy, "err", err)
		return nil
	}
	opts.Renderer = rnd
	return nil
}

// rendererName is the name recorded in layouts and artifact keys. It is
// empty when no renderer could be resolved.
func rendererName(opts Options) string {
	if opts.Renderer == nil {
		return ""
	}
	return opts.Renderer.Name()
}

func (r *Runner) ttl(stage time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return stage
}

// IsRenderFailure reports whether err came from the render stage only, in
// which case the parsed state in the result is still valid.
func IsRenderFailure(err error) bool {
	return errors.Is(err, errors.ErrCodeRenderFailed)
}
