// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about pipeline execution, cache operations, followed
// traces and served HTTP requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, never by libraries, so the core packages stay
// free of observability frameworks.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnParseStart(ctx, source, len(text))
//	// ... build the flow graph ...
//	observability.Pipeline().OnParseComplete(ctx, source, nodes, edges, duration, nil)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the trace-to-drawing pipeline.
type PipelineHooks interface {
	// Parse events. source is a file path, "-" for stdin, or a request ID.
	OnParseStart(ctx context.Context, source string, size int)
	OnParseComplete(ctx context.Context, source string, nodeCount, edgeCount int, duration time.Duration, err error)

	// Layout events
	OnLayoutStart(ctx context.Context, renderer string, nodeCount int)
	OnLayoutComplete(ctx context.Context, renderer string, duration time.Duration, err error)

	// Render events
	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// Server Hooks
// =============================================================================

// ServerHooks receives events from the HTTP server.
type ServerHooks interface {
	// OnRequest records an incoming HTTP request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the response written for a request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// =============================================================================
// Watch Hooks
// =============================================================================

// WatchHooks receives events from followed trace files.
type WatchHooks interface {
	// OnTraceRead records a read of a followed trace. events is the number
	// of coalesced file events, 0 for the initial read.
	OnTraceRead(ctx context.Context, path string, events, size int, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnParseStart(context.Context, string, int) {}
func (NoopPipelineHooks) OnParseComplete(context.Context, string, int, int, time.Duration, error) {
}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                       {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)   {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                          {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopServerHooks is a no-op implementation of ServerHooks.
type NoopServerHooks struct{}

func (NoopServerHooks) OnRequest(context.Context, string, string)                      {}
func (NoopServerHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// NoopWatchHooks is a no-op implementation of WatchHooks.
type NoopWatchHooks struct{}

func (NoopWatchHooks) OnTraceRead(context.Context, string, int, int, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

// slot holds one registered hook implementation.
type slot[T any] struct {
	mu    sync.RWMutex
	hooks T
	noop  T
}

func newSlot[T any](noop T) *slot[T] {
	return &slot[T]{hooks: noop, noop: noop}
}

// set replaces the hooks. A nil interface value is ignored.
func (s *slot[T]) set(h T) {
	if any(h) == nil {
		return
	}
	s.mu.Lock()
	s.hooks = h
	s.mu.Unlock()
}

func (s *slot[T]) get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hooks
}

var (
	pipelineSlot = newSlot[PipelineHooks](NoopPipelineHooks{})
	cacheSlot    = newSlot[CacheHooks](NoopCacheHooks{})
	serverSlot   = newSlot[ServerHooks](NoopServerHooks{})
	watchSlot    = newSlot[WatchHooks](NoopWatchHooks{})
)

// SetPipelineHooks registers pipeline hooks. Call it at startup, before any
// pipeline runs.
func SetPipelineHooks(h PipelineHooks) { pipelineSlot.set(h) }

// SetCacheHooks registers cache hooks.
func SetCacheHooks(h CacheHooks) { cacheSlot.set(h) }

// SetServerHooks registers HTTP server hooks.
func SetServerHooks(h ServerHooks) { serverSlot.set(h) }

// SetWatchHooks registers hooks for followed traces.
func SetWatchHooks(h WatchHooks) { watchSlot.set(h) }

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.get() }

// Cache returns the registered cache hooks.
func Cache() CacheHooks { return cacheSlot.get() }

// Server returns the registered HTTP server hooks.
func Server() ServerHooks { return serverSlot.get() }

// Watch returns the registered watch hooks.
func Watch() WatchHooks { return watchSlot.get() }

// Reset restores every hook to its no-op default. Tests use it.
func Reset() {
	pipelineSlot.set(pipelineSlot.noop)
	cacheSlot.set(cacheSlot.noop)
	serverSlot.set(serverSlot.noop)
	watchSlot.set(watchSlot.noop)
}
