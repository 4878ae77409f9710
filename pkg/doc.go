// Package pkg provides the libraries behind ruleflow, which draws
// rule-firing flow graphs from production-rule simulation traces.
//
// # Overview
//
// A trace is plain text in which every line "*** Fire: <rule>" records one
// rule firing. ruleflow groups the rules into tiers by the order in which
// they first fired and connects consecutive firings with edges. The pkg
// directory is organized into four areas:
//
//  1. Domain logic: [trace] (scan and schedule firings) and [flow] (the
//     graph state)
//  2. Presentation: [present], [render] and [render/nodelink] (scene
//     layout, DOT, SVG)
//  3. Orchestration: [pipeline] (parse → layout → render with caching) and
//     [graph] (JSON layouts)
//  4. Infrastructure: [cache], [config], [source], [watch], [httputil],
//     [observability], [errors] and [buildinfo]
//
// # Architecture
//
// The typical data flow:
//
//	trace text ([source] or [watch])
//	         ↓
//	    [trace] package (firings → flow.State)
//	         ↓
//	    [present] package (flow.State → render.Scene)
//	         ↓
//	    [render/nodelink] package (Scene → DOT → SVG)
//	         ↓
//	    SVG/DOT/JSON/PDF/PNG output
//
// # Quick Start
//
//	st := trace.Process(text)
//	fmt.Println(st.Summary()) // Rule Nodes: 2 | Rule Edges: 2
//
//	p := present.New(nodelink.DefaultLayoutRenderer{})
//	err := p.Render(ctx, st, w)
//
// With caching and several output formats, use a [pipeline.Runner]:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, text, pipeline.Options{
//	    Formats: []string{"svg", "json"},
//	})
//
// Render failures are reported with errors.ErrCodeRenderFailed and leave
// result.State usable; every other error is fatal for the run.
package pkg
