package trace

import (
	"slices"
	"strings"

	"github.com/matzehuels/ruleflow/pkg/flow"
)

// Scheduler builds flow graphs from trace text.
//
// A Scheduler holds configuration only. Every call to Process starts from a
// fresh [flow.State], so the same Scheduler can be reused for any number of
// traces, including from multiple goroutines.
type Scheduler struct {
	// Ignore lists raw rule-name prefixes whose firings are dropped before
	// graph construction. Empty by default.
	Ignore []string
}

// NewScheduler creates a scheduler that ignores firings of rules whose raw
// name starts with any of the given prefixes.
func NewScheduler(ignore ...string) *Scheduler {
	return &Scheduler{Ignore: slices.Clone(ignore)}
}

// Process parses text and returns the flow graph of its firings.
// It never fails: text without firing lines yields an empty state.
func Process(text string) *flow.State {
	return (&Scheduler{}).Process(text)
}

// Process parses text and returns the flow graph of its firings.
func (s *Scheduler) Process(text string) *flow.State {
	return s.Build(Scan(text))
}

// Build constructs the flow graph for an ordered sequence of firings.
//
// The first label gets tier 1 and produces no edge. Each following label L
// gets tier(last)+1 if it has not been seen before; a known label keeps the
// tier of its first occurrence. The edge (last, L) is always recorded, then
// L becomes last. Firings with an empty label are skipped, as Scan does.
func (s *Scheduler) Build(firings []Firing) *flow.State {
	st := flow.New()
	last := ""
	for _, f := range firings {
		if f.Label == "" || s.Ignores(f.Rule) {
			continue
		}
		// Labels are non-empty and last is always a node, so the mutators
		// below cannot fail.
		label := f.Label
		if st.IsEmpty() {
			_ = st.AddNode(label, 1)
			_ = st.SetLastRule(label)
			last = label
			continue
		}
		if _, seen := st.Tier(label); !seen {
			tier, _ := st.Tier(last)
			_ = st.AddNode(label, tier+1)
		}
		_ = st.AddEdge(flow.Edge{From: last, To: label})
		_ = st.SetLastRule(label)
		last = label
	}
	return st
}

// Ignores reports whether firings of rule are dropped.
func (s *Scheduler) Ignores(rule string) bool {
	for _, p := range s.Ignore {
		if p != "" && strings.HasPrefix(rule, p) {
			return true
		}
	}
	return false
}
