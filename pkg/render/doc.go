// Package render defines the contract between the flow-graph presenter and
// the drawing backends.
//
// # Overview
//
// A [Scene] is the renderer-ready form of a flow graph: tier columns in
// ascending order, the edge list and the curved/straight decision. A
// [Renderer] draws a Scene as SVG. Two strategies exist, both in the
// [nodelink] subpackage:
//
//   - "default": in-process Graphviz, always available
//   - "external": the host's Graphviz dot binary
//
// "auto" selects external when the tool is installed and default otherwise.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg):
//
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// [nodelink]: github.com/matzehuels/ruleflow/pkg/render/nodelink
package render
