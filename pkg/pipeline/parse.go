package pipeline

import (
	"bytes"
	"context"
	"time"

	"github.com/matzehuels/ruleflow/pkg/cache"
	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/flow"
	"github.com/matzehuels/ruleflow/pkg/graph"
	"github.com/matzehuels/ruleflow/pkg/observability"
	"github.com/matzehuels/ruleflow/pkg/trace"
)

// Parse builds the flow graph of text. It never fails on trace content.
func Parse(text string, opts Options) *flow.State {
	return trace.NewScheduler(opts.Ignore...).Process(text)
}

// ParseWithCacheInfo builds the flow graph with caching and returns cache hit info.
// The only failure is a trace larger than errors.MaxTraceBytes.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, text string, opts Options) (*flow.State, bool, error) {
	if err := errors.ValidateTraceSize(int64(len(text))); err != nil {
		return nil, false, err
	}

	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, opts.Source, len(text))
	start := time.Now()

	cacheKey := r.Keyer.GraphKey(cache.Hash([]byte(text)), opts.GraphKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if st, err := graph.ReadGraph(bytes.NewReader(data)); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				hooks.OnParseComplete(ctx, opts.Source, st.NodeCount(), st.EdgeCount(), time.Since(start), nil)
				return st, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	st := Parse(text, opts)

	if data, err := graph.MarshalGraph(st); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.ttl(cache.TTLGraph)); err == nil {
			observability.Cache().OnCacheSet(ctx, "graph", len(data))
		} else {
			r.Logger.Debug("cache write failed", "stage", "parse", "err", err)
		}
	}

	hooks.OnParseComplete(ctx, opts.Source, st.NodeCount(), st.EdgeCount(), time.Since(start), nil)
	return st, false, nil
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, text string, opts Options) (*flow.State, error) {
	st, _, err := r.ParseWithCacheInfo(ctx, text, opts)
	return st, err
}
