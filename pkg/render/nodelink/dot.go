package nodelink

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/ruleflow/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the tier number below each rule label.
	// When false, only the label is shown.
	Detailed bool
}

// ToDOT converts a scene to Graphviz DOT format.
//
// Every tier becomes a rank=same subgraph so rules that share a tier line up.
// Edges use curved splines when the scene is cyclic and straight lines
// otherwise. Line breaks in labels are kept as DOT line breaks.
func ToDOT(scene render.Scene, opts Options) string {
	dir := scene.Direction
	if !render.ValidDirections[dir] {
		dir = render.DirectionLR
	}
	splines := "line"
	if scene.Curved {
		splines = "curved"
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	fmt.Fprintf(&buf, "  splines=%s;\n", splines)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [arrowsize=0.8];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.3;\n")

	for _, col := range scene.Columns {
		fmt.Fprintf(&buf, "\n  subgraph tier_%d {\n    rank=same;\n", col.Tier)
		for _, label := range col.Labels {
			fmt.Fprintf(&buf, "    %s [label=%s];\n", quote(label), quote(fmtLabel(label, col.Tier, opts.Detailed)))
		}
		buf.WriteString("  }\n")
	}

	if len(scene.Edges) > 0 {
		buf.WriteString("\n")
	}
	for _, e := range scene.Edges {
		fmt.Fprintf(&buf, "  %s -> %s;\n", quote(e.From), quote(e.To))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(label string, tier int, detailed bool) string {
	if !detailed {
		return label
	}
	return fmt.Sprintf("%s\ntier: %d", label, tier)
}

// quote renders s as a DOT double-quoted string. Newlines become the DOT
// centered line break escape.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
