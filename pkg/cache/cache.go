// Package cache stores rendered artifacts keyed by the content they were
// produced from.
//
// Two backends are provided: [FileCache] for the CLI (one JSON file per
// entry under the user cache directory) and [RedisCache] for sharing
// artifacts between `ruleflow serve` instances. [NullCache] disables caching.
//
// Keys are produced by a [Keyer] from content hashes, never from file paths,
// so editing a trace invalidates its artifacts automatically:
//
//	k := cache.NewDefaultKeyer()
//	key := k.ArtifactKey(state.Hash(), cache.ArtifactKeyOpts{Format: "svg", Renderer: "default"})
//	data, ok, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Default expiry of cached entries.
const (
	TTLGraph    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
//
// Get reports a miss as (nil, false, nil); only backend failures are errors.
// Implementations must be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Keyer derives cache keys from content hashes and options.
type Keyer interface {
	// GraphKey is the key of the serialized flow graph built from a trace.
	GraphKey(traceHash string, opts GraphKeyOpts) string

	// ArtifactKey is the key of one rendered artifact of a flow graph.
	ArtifactKey(stateHash string, opts ArtifactKeyOpts) string
}

// GraphKeyOpts are the options that change the graph built from a trace.
type GraphKeyOpts struct {
	Ignore []string `json:"ignore,omitempty"`
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Renderer  string  `json:"renderer"`
	Direction string  `json:"direction,omitempty"`
	Detailed  bool    `json:"detailed,omitempty"`
	Scale     float64 `json:"scale,omitempty"`
}

// DefaultKeyer produces "graph:v1:<sha256>" and "artifact:v1:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey implements Keyer.
func (DefaultKeyer) GraphKey(traceHash string, opts GraphKeyOpts) string {
	return hashKey("graph", traceHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(stateHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", stateHash, opts)
}
