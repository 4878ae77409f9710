package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/ruleflow/pkg/render"
)

// ExternalTool is the executable used by [ExternalToolRenderer] by default.
const ExternalTool = "dot"

// DefaultLayoutRenderer lays out and draws scenes in-process with the
// embedded Graphviz engine. It needs nothing installed on the host.
type DefaultLayoutRenderer struct {
	Options Options
}

// Name implements render.Renderer.
func (DefaultLayoutRenderer) Name() string { return render.StrategyDefault }

// Render implements render.Renderer.
func (r DefaultLayoutRenderer) Render(ctx context.Context, scene render.Scene, w io.Writer) error {
	svg, err := RenderSVG(ctx, ToDOT(scene, r.Options))
	if err != nil {
		return err
	}
	_, err = w.Write(svg)
	return err
}

// ExternalToolRenderer pipes the DOT source of a scene to a Graphviz binary
// installed on the host (dot by default).
type ExternalToolRenderer struct {
	Tool    string
	Options Options
}

// Name implements render.Renderer.
func (ExternalToolRenderer) Name() string { return render.StrategyExternal }

// Render implements render.Renderer.
func (r ExternalToolRenderer) Render(ctx context.Context, scene render.Scene, w io.Writer) error {
	tool := r.Tool
	if tool == "" {
		tool = ExternalTool
	}
	svg, err := render.Exec(ctx, tool, []byte(ToDOT(scene, r.Options)), "-Tsvg")
	if err != nil {
		return err
	}
	_, err = w.Write(normalizeViewBox(svg))
	return err
}

var (
	_ render.Renderer = DefaultLayoutRenderer{}
	_ render.Renderer = ExternalToolRenderer{}
)

// RenderSVG renders a DOT graph to SVG using the embedded Graphviz engine.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz <svg> header with one whose viewBox
// starts at the origin and whose pixel size matches it, so the drawing scales
// cleanly when embedded.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
