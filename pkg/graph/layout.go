package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/ruleflow/pkg/flow"
	"github.com/matzehuels/ruleflow/pkg/render"
)

// =============================================================================
// Layout - Rendered Flow Graph
// =============================================================================

// Layout is the serialization format of a presented flow graph: the graph
// itself plus everything the presenter decided about drawing it.
//
// Layouts are what `ruleflow render -f json` writes and what the HTTP
// server returns from /v1/graph. A layout carries enough information to
// rebuild the state ([Layout.State]) and to redraw it without the trace
// (DOT).
type Layout struct {
	// Discriminator
	VizType string `json:"viz_type"`

	// Graph structure
	Nodes    []Node           `json:"nodes"`
	Edges    []Edge           `json:"edges"`
	Columns  map[int][]string `json:"columns"`
	LastRule string           `json:"last_rule,omitempty"`

	// Presentation
	Cyclic    bool   `json:"cyclic"`
	Direction string `json:"direction,omitempty"`
	Summary   string `json:"summary"`
	Renderer  string `json:"renderer,omitempty"`
	DOT       string `json:"dot,omitempty"`
}

// NewLayout combines a state with the scene computed for it, the DOT source
// the scene was rendered from, and the name of the renderer.
func NewLayout(st *flow.State, scene render.Scene, dot, renderer string) Layout {
	g := FromState(st)
	cols := make(map[int][]string, len(scene.Columns))
	for _, c := range scene.Columns {
		cols[c.Tier] = c.Labels
	}
	return Layout{
		VizType:   VizTypeFlow,
		Nodes:     g.Nodes,
		Edges:     g.Edges,
		Columns:   cols,
		LastRule:  g.LastRule,
		Cyclic:    scene.Curved,
		Direction: scene.Direction,
		Summary:   scene.Summary,
		Renderer:  renderer,
		DOT:       dot,
	}
}

// Graph returns the graph part of the layout.
func (l *Layout) Graph() Graph {
	return Graph{Nodes: l.Nodes, Edges: l.Edges, LastRule: l.LastRule}
}

// State rebuilds and validates the flow state described by the layout.
func (l *Layout) State() (*flow.State, error) {
	return ToState(l.Graph())
}

// =============================================================================
// Layout Serialization API
// =============================================================================

// MarshalLayout serializes a Layout to pretty-printed JSON bytes.
func MarshalLayout(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// UnmarshalLayout deserializes JSON bytes into a Layout.
// A missing viz_type is accepted; any other value is rejected.
func UnmarshalLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("unmarshal layout: %w", err)
	}

	if l.VizType == "" {
		l.VizType = VizTypeFlow
	}
	if l.VizType != VizTypeFlow {
		return Layout{}, fmt.Errorf("unsupported viz_type %q", l.VizType)
	}
	if l.Columns == nil {
		l.Columns = l.Graph().Columns()
	}
	return l, nil
}

// WriteLayoutFile writes a Layout to a JSON file.
func WriteLayoutFile(l Layout, path string) error {
	data, err := MarshalLayout(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadLayoutFile reads a Layout from a JSON file.
func ReadLayoutFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalLayout(data)
}
