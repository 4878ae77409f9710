package render

import (
	"context"
	"io"

	"github.com/matzehuels/ruleflow/pkg/flow"
)

// Strategy names accepted by renderer selection.
const (
	StrategyAuto     = "auto"     // external tool when available, else default
	StrategyDefault  = "default"  // in-process layout engine
	StrategyExternal = "external" // host-installed graph layout tool
)

// Layout directions.
const (
	DirectionLR = "LR" // tiers as columns, left to right
	DirectionTB = "TB" // tiers as rows, top to bottom
)

// ValidDirections is the set of supported layout directions.
var ValidDirections = map[string]bool{
	DirectionLR: true,
	DirectionTB: true,
}

// Column is one tier of the flow graph and the labels placed in it.
type Column struct {
	Tier   int      `json:"tier"`
	Labels []string `json:"labels"`
}

// Scene is the renderer-ready view of a flow graph: tier columns in
// ascending order, the edge list, and whether edges should be curved.
// A Scene is derived data; renderers must not assume it aliases the state.
type Scene struct {
	Columns   []Column    `json:"columns"`
	Edges     []flow.Edge `json:"edges"`
	Curved    bool        `json:"curved"`
	Direction string      `json:"direction"`
	Summary   string      `json:"summary"`
}

// IsEmpty reports whether the scene has no nodes.
func (s Scene) IsEmpty() bool { return len(s.Columns) == 0 }

// NodeCount returns the number of labels across all columns.
func (s Scene) NodeCount() int {
	n := 0
	for _, c := range s.Columns {
		n += len(c.Labels)
	}
	return n
}

// Renderer draws a Scene as SVG onto a surface.
//
// Implementations must render an empty scene as a valid, empty drawing and
// must report failures as errors rather than panicking.
type Renderer interface {
	// Name identifies the strategy (e.g. "default", "external").
	Name() string

	// Render writes the SVG drawing of scene to w.
	Render(ctx context.Context, scene Scene, w io.Writer) error
}
