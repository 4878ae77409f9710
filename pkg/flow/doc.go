// Package flow holds the rule-firing flow graph: which production rule fired
// immediately after which, with every rule assigned a tier.
//
// # Overview
//
// A [State] is built in a single pass over the firing sequence of a trace
// (see the trace package). The first rule observed sits at tier 1. Every
// newly seen rule is placed one tier below the rule that fired just before
// it. A rule keeps the tier of its first occurrence forever; later firings
// only add edges.
//
//	s := flow.New()
//	_ = s.AddNode("A", 1)
//	_ = s.AddNode("B", 2)
//	_ = s.AddEdge(flow.Edge{From: "A", To: "B"})
//
// Edges form a set: recording the same transition twice keeps one edge.
// Self-loops are kept.
//
// # Layout helpers
//
// [State.Columns] groups labels by tier for column placement and
// [State.HasCycle] reports whether any directed cycle exists, which the
// presenter uses to choose curved over straight edges.
//
// # Tiers are first-seen, not shortest-path
//
// Tiers approximate the distance from the start of a run for layout purposes
// only. A rule revisited later through a longer path keeps its original tier.
// Changing this would silently change the layout of every existing trace.
package flow
