// Package graph provides serialization types for flow graphs and layouts.
//
// This package defines the JSON wire format for ruleflow's graph data, used
// for `render -f json` output, HTTP responses and cached artifacts.
//
// # Core Types
//
//   - [Graph]: node-link format of a [flow.State]
//   - [Layout]: a graph together with its presentation (columns, cycle flag,
//     summary, DOT source, renderer name)
//   - [Node], [Edge]: shared structural types
//
// # Graph Serialization
//
//	{
//	  "nodes": [{"id": "A", "tier": 1}, {"id": "B", "tier": 2}],
//	  "edges": [{"from": "A", "to": "B"}],
//	  "last_rule": "B"
//	}
//
// Common operations:
//
//	st, _ := graph.ReadGraphFile("flow.json")   // File → State
//	graph.WriteGraphFile(st, "flow.json")       // State → File
//	data, _ := graph.MarshalGraph(st)           // State → []byte
//
// Round-tripping is lossless: ToState(FromState(st)) is equal to st and
// keeps its last rule. ToState validates the result, so hand-edited files
// with dangling edges or impossible tiers are rejected.
//
// # Concurrency
//
// All functions are safe for concurrent use on distinct values.
package graph
