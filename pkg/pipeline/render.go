package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/ruleflow/pkg/cache"
	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/flow"
	"github.com/matzehuels/ruleflow/pkg/graph"
	"github.com/matzehuels/ruleflow/pkg/observability"
	"github.com/matzehuels/ruleflow/pkg/present"
	"github.com/matzehuels/ruleflow/pkg/render"
	"github.com/matzehuels/ruleflow/pkg/render/nodelink"
)

// =============================================================================
// Layout
// =============================================================================

// GenerateLayout computes the presentation of st: tier columns, cycle flag,
// summary and DOT source, packaged as a serializable layout. Nothing is
// drawn, so an unresolvable strategy only leaves the renderer name empty.
func (r *Runner) GenerateLayout(ctx context.Context, st *flow.State, opts Options) (graph.Layout, render.Scene, error) {
	if err := r.prepare(&opts); err != nil {
		return graph.Layout{}, render.Scene{}, err
	}
	if opts.Renderer == nil {
		if rnd, err := present.Select(opts.Strategy, opts.LookPath, opts.NodelinkOptions()); err == nil {
			opts.Renderer = rnd
		}
	}
	if st == nil {
		st = flow.New()
	}

	name := rendererName(opts)
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, name, st.NodeCount())
	start := time.Now()

	l, scene := buildLayout(st, opts)

	hooks.OnLayoutComplete(ctx, name, time.Since(start), nil)
	return l, scene, nil
}

func buildLayout(st *flow.State, opts Options) (graph.Layout, render.Scene) {
	scene := newPresenter(opts).Layout(st)
	dot := nodelink.ToDOT(scene, opts.NodelinkOptions())
	return graph.NewLayout(st, scene, dot, rendererName(opts)), scene
}

func newPresenter(opts Options) *present.Presenter {
	return present.New(opts.Renderer, present.WithDirection(opts.Direction))
}

// =============================================================================
// Render
// =============================================================================

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
// Artifacts are keyed by the content of st, so any change to the trace that
// changes the graph invalidates them.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, st *flow.State, opts Options) (map[string][]byte, bool, error) {
	if err := r.prepare(&opts); err != nil {
		return nil, false, err
	}
	if err := r.resolveRenderer(&opts); err != nil {
		return nil, false, err
	}
	if st == nil {
		st = flow.New()
	}
	name := rendererName(opts)
	hash := artifactHash(st)

	// Try to get all formats from cache
	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format, name))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	rendered, err := RenderArtifacts(ctx, st, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format, name))
		if err := r.Cache.Set(ctx, key, data, r.ttl(cache.TTLArtifact)); err != nil {
			r.Logger.Debug("cache write failed", "stage", "render", "format", format, "err", err)
			continue
		}
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, st *flow.State, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, st, opts)
	return artifacts, err
}

// RenderArtifacts renders st in every requested format without caching.
// Drawn formats need opts.Renderer; use a Runner to resolve the strategy.
//
// SVG is drawn once and reused for PDF and PNG. Any failure is returned as
// a RENDER_FAILED error; st is never modified.
func RenderArtifacts(ctx context.Context, st *flow.State, opts Options) (map[string][]byte, error) {
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	if opts.Renderer == nil && needsSVG(opts.Formats) {
		return nil, errors.New(errors.ErrCodeInternal, "no renderer configured")
	}

	p := newPresenter(opts)
	var svg []byte
	if needsSVG(opts.Formats) {
		var buf bytes.Buffer
		if err := p.Render(ctx, st, &buf); err != nil {
			return nil, err
		}
		svg = buf.Bytes()
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data = svg
		case FormatDOT:
			data = []byte(nodelink.ToDOT(p.Layout(st), opts.NodelinkOptions()))
		case FormatJSON:
			l, _ := buildLayout(st, opts)
			data, err = graph.MarshalLayout(l)
		case FormatPDF:
			data, err = render.ToPDF(ctx, svg)
		case FormatPNG:
			data, err = render.ToPNG(ctx, svg, opts.Scale)
		default:
			return nil, ValidateFormat(format)
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// artifactHash keys artifacts by graph content plus the last rule, which
// appears in JSON output but not in the state hash.
func artifactHash(st *flow.State) string {
	return cache.Hash(fmt.Appendf(nil, "%s\x00%s", st.Hash(), st.LastRule()))
}
