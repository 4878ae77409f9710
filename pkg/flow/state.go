package flow

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	// ErrInvalidLabel is returned by [State.AddNode] when the label is empty.
	ErrInvalidLabel = errors.New("rule label must not be empty")

	// ErrInvalidTier is returned by [State.AddNode] when the tier is below 1.
	ErrInvalidTier = errors.New("tier must be >= 1")

	// ErrDuplicateLabel is returned by [State.AddNode] when the label already
	// has a tier. Tiers are assigned once and never change.
	ErrDuplicateLabel = errors.New("label already has a tier")

	// ErrUnknownSourceNode is returned by [State.AddEdge] when the From label
	// has no tier, or by [State.SetLastRule] for an unknown label.
	ErrUnknownSourceNode = errors.New("unknown source rule")

	// ErrUnknownTargetNode is returned by [State.AddEdge] when the To label
	// has no tier.
	ErrUnknownTargetNode = errors.New("unknown target rule")

	// ErrNoRoot is returned by [State.Validate] when a non-empty state has no
	// node at tier 1.
	ErrNoRoot = errors.New("no rule at tier 1")

	// ErrTierGap is returned by [State.Validate] when a node at tier t > 1 has
	// no incoming edge from a node at tier t-1.
	ErrTierGap = errors.New("tier has no predecessor one tier up")
)

// Edge is an observed transition: a firing of From was immediately followed
// by a firing of To. Self-loops (From == To) are valid.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// String returns "from -> to" with line breaks in labels flattened.
func (e Edge) String() string {
	return fmt.Sprintf("%s -> %s", Flatten(e.From), Flatten(e.To))
}

// State is the flow graph built from one pass over a trace: a mapping from
// rule label to tier, a set of edges, and the most recently processed label.
//
// States grow monotonically while they are built (tiers are only added,
// edges are only added) and are treated as immutable afterwards. The zero
// value is not usable - use [New].
//
// State is not safe for concurrent mutation. Read-only methods may be called
// from multiple goroutines once building has finished.
type State struct {
	tiers    map[string]int
	edges    map[Edge]struct{}
	outgoing map[string][]string
	lastRule string
}

// New creates an empty state.
func New() *State {
	return &State{
		tiers:    make(map[string]int),
		edges:    make(map[Edge]struct{}),
		outgoing: make(map[string][]string),
	}
}

// AddNode assigns tier to label. The tier of a label can only be set once:
// a second call for the same label returns ErrDuplicateLabel and leaves the
// existing tier untouched.
func (s *State) AddNode(label string, tier int) error {
	if label == "" {
		return ErrInvalidLabel
	}
	if tier < 1 {
		return ErrInvalidTier
	}
	if _, ok := s.tiers[label]; ok {
		return ErrDuplicateLabel
	}
	s.tiers[label] = tier
	return nil
}

// AddEdge records the transition e. Both endpoints must already have a tier.
// Adding an edge that is already present is a no-op.
func (s *State) AddEdge(e Edge) error {
	if _, ok := s.tiers[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := s.tiers[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if _, ok := s.edges[e]; ok {
		return nil
	}
	s.edges[e] = struct{}{}
	s.outgoing[e.From] = append(s.outgoing[e.From], e.To)
	return nil
}

// SetLastRule records label as the most recently processed firing.
func (s *State) SetLastRule(label string) error {
	if _, ok := s.tiers[label]; !ok {
		return ErrUnknownSourceNode
	}
	s.lastRule = label
	return nil
}

// LastRule returns the label of the most recently processed firing, or ""
// for an empty state.
func (s *State) LastRule() string { return s.lastRule }

// Tier returns the tier of label and whether the label is known.
func (s *State) Tier(label string) (int, bool) {
	t, ok := s.tiers[label]
	return t, ok
}

// Tiers returns a copy of the label → tier mapping.
func (s *State) Tiers() map[string]int { return maps.Clone(s.tiers) }

// HasEdge reports whether the transition from → to was observed.
func (s *State) HasEdge(from, to string) bool {
	_, ok := s.edges[Edge{From: from, To: to}]
	return ok
}

// Edges returns all edges sorted by From, then To.
func (s *State) Edges() []Edge {
	out := slices.Collect(maps.Keys(s.edges))
	slices.SortFunc(out, compareEdges)
	return out
}

// Labels returns all labels ordered by tier, then lexicographically.
func (s *State) Labels() []string {
	out := slices.Collect(maps.Keys(s.tiers))
	slices.SortFunc(out, func(a, b string) int {
		if c := cmp.Compare(s.tiers[a], s.tiers[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return out
}

// Successors returns the labels that fired directly after label, sorted.
// Returns nil if label is unknown or never followed by another firing.
func (s *State) Successors(label string) []string {
	succ := s.outgoing[label]
	if len(succ) == 0 {
		return nil
	}
	out := slices.Clone(succ)
	slices.Sort(out)
	return out
}

// NodeCount returns the number of distinct rules.
func (s *State) NodeCount() int { return len(s.tiers) }

// EdgeCount returns the number of distinct transitions.
func (s *State) EdgeCount() int { return len(s.edges) }

// IsEmpty reports whether no firing was recorded.
func (s *State) IsEmpty() bool { return len(s.tiers) == 0 }

// Summary returns the diagnostic "Rule Nodes: N | Rule Edges: M".
func (s *State) Summary() string {
	return fmt.Sprintf("Rule Nodes: %d | Rule Edges: %d", s.NodeCount(), s.EdgeCount())
}

// Equal reports whether s and o have identical tier mappings and edge sets.
// The last rule is not compared.
func (s *State) Equal(o *State) bool {
	if s == nil || o == nil {
		return s == o
	}
	return maps.Equal(s.tiers, o.tiers) && maps.Equal(s.edges, o.edges)
}

// Validate checks the structural invariants of a finished state:
//
//  1. every edge endpoint has a tier
//  2. a non-empty state has a node at tier 1
//  3. every node at tier t > 1 has an incoming edge from tier t-1
//
// States built by the trace scheduler always satisfy these; Validate exists
// for states reconstructed from serialized layouts.
func (s *State) Validate() error {
	for e := range s.edges {
		if _, ok := s.tiers[e.From]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownSourceNode, e.From)
		}
		if _, ok := s.tiers[e.To]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTargetNode, e.To)
		}
	}
	if s.IsEmpty() {
		return nil
	}

	fed := make(map[string]bool, len(s.tiers))
	hasRoot := false
	for e := range s.edges {
		if s.tiers[e.To] == s.tiers[e.From]+1 {
			fed[e.To] = true
		}
	}
	for label, tier := range s.tiers {
		if tier == 1 {
			hasRoot = true
			continue
		}
		if !fed[label] {
			return fmt.Errorf("%w: %q at tier %d", ErrTierGap, label, tier)
		}
	}
	if !hasRoot {
		return ErrNoRoot
	}
	return nil
}

func compareEdges(a, b Edge) int {
	if c := cmp.Compare(a.From, b.From); c != 0 {
		return c
	}
	return cmp.Compare(a.To, b.To)
}
