package flow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Hash returns a stable SHA-256 hex digest of the tier mapping and edge set.
// Equal states have equal hashes; the last rule does not contribute.
func (s *State) Hash() string {
	h := sha256.New()
	for _, label := range s.Labels() {
		fmt.Fprintf(h, "n %d %q\n", s.tiers[label], label)
	}
	for _, e := range s.Edges() {
		fmt.Fprintf(h, "e %q %q\n", e.From, e.To)
	}
	_, _ = io.WriteString(h, "end")
	return hex.EncodeToString(h.Sum(nil))
}
