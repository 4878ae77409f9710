package cache

// ScopedKeyer wraps a Keyer with a prefix so that several deployments can
// share one cache backend without seeing each other's entries.
//
// Example usage:
//
//	// Artifacts produced by the HTTP server
//	serveKeyer := NewScopedKeyer(NewDefaultKeyer(), "serve:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// GraphKey generates a prefixed key for flow graph caching.
func (k *ScopedKeyer) GraphKey(traceHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(traceHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(stateHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(stateHash, opts)
}
