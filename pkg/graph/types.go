package graph

import (
	"slices"

	"github.com/matzehuels/ruleflow/pkg/flow"
)

// VizTypeFlow is the discriminator written into every serialized layout.
const VizTypeFlow = "flow"

// =============================================================================
// Graph - Flow Graph Serialization
// =============================================================================

// Graph is the canonical serialization format for a flow state.
//
// The format is designed for round-trip fidelity: FromState followed by
// ToState reproduces an equal state, including the last rule.
type Graph struct {
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
	LastRule string `json:"last_rule,omitempty"`
}

// Node is a rule with its tier.
type Node struct {
	ID   string `json:"id"`             // Normalized rule label (may contain line breaks)
	Tier int    `json:"tier"`           // Column, 1-based
	Name string `json:"name,omitempty"` // Single-line form of ID for display
}

// DisplayLabel returns the single-line name if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// Edge is a directed transition between two rules.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// =============================================================================
// State ↔ Graph Conversion
// =============================================================================

// FromState converts a state to its serialization format. Nodes are ordered
// by tier then label, edges by endpoints, so output is deterministic.
// A nil state converts to an empty graph.
func FromState(st *flow.State) Graph {
	out := Graph{Nodes: []Node{}, Edges: []Edge{}}
	if st == nil {
		return out
	}
	for _, label := range st.Labels() {
		tier, _ := st.Tier(label)
		n := Node{ID: label, Tier: tier}
		if name := flow.Flatten(label); name != label {
			n.Name = name
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, e := range st.Edges() {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	out.LastRule = st.LastRule()
	return out
}

// ToState rebuilds a state from its serialized form and validates it.
// Returns an error for duplicate nodes, dangling edges or a tier layout the
// trace scheduler could not have produced.
func ToState(g Graph) (*flow.State, error) {
	st := flow.New()
	for _, n := range g.Nodes {
		if err := st.AddNode(n.ID, n.Tier); err != nil {
			return nil, wrapNode(n.ID, err)
		}
	}
	for _, e := range g.Edges {
		if err := st.AddEdge(flow.Edge{From: e.From, To: e.To}); err != nil {
			return nil, wrapEdge(e, err)
		}
	}
	if g.LastRule != "" {
		if err := st.SetLastRule(g.LastRule); err != nil {
			return nil, wrapNode(g.LastRule, err)
		}
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

// Columns returns the tier → labels mapping of g with labels sorted.
func (g Graph) Columns() map[int][]string {
	cols := make(map[int][]string)
	for _, n := range g.Nodes {
		cols[n.Tier] = append(cols[n.Tier], n.ID)
	}
	for _, labels := range cols {
		slices.Sort(labels)
	}
	return cols
}
