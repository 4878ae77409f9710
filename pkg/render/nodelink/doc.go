// Package nodelink renders rule-firing flow graphs as node-link diagrams.
//
// # Overview
//
// Rules appear as rounded boxes, one column (rank) per tier, connected by
// arrows for every observed transition. Edges are drawn as curved splines
// when the graph has a cycle and as straight lines otherwise.
//
// # Usage
//
// Convert a scene to DOT, then render it with one of the two strategies:
//
//	dot := nodelink.ToDOT(scene, nodelink.Options{})
//
//	// In-process, nothing to install
//	err := nodelink.DefaultLayoutRenderer{}.Render(ctx, scene, w)
//
//	// Host Graphviz installation (dot on PATH)
//	err := nodelink.ExternalToolRenderer{}.Render(ctx, scene, w)
//
// Both implement [render.Renderer]; the presenter picks one at startup.
//
// # DOT Format
//
// The generated DOT uses left-to-right layout (rankdir=LR) unless the scene
// asks for top-to-bottom, so tiers read as columns. The DOT source can be
// saved and processed with any Graphviz tool.
//
// # Dependencies
//
// [DefaultLayoutRenderer] uses [github.com/goccy/go-graphviz] for in-process
// SVG rendering. [ExternalToolRenderer] requires a Graphviz installation.
package nodelink
