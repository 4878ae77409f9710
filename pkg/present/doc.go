// Package present turns flow graphs into drawings.
//
// A [Presenter] computes a renderer-ready [render.Scene] from a
// [flow.State] (tier columns, edges, curved or straight edges) and delegates
// the drawing to the rendering strategy chosen once at startup with
// [Select]. Render failures are isolated from the graph: they come back as
// RENDER_FAILED errors and the state can be rendered again without
// re-parsing the trace.
//
//	r, err := present.Select("auto", nil, nodelink.Options{})
//	if err != nil {
//	    return err
//	}
//	p := present.New(r)
//	err = p.Render(ctx, trace.Process(text), w)
package present
