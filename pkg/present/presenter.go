package present

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/flow"
	"github.com/matzehuels/ruleflow/pkg/render"
	"github.com/matzehuels/ruleflow/pkg/render/nodelink"
)

// Presenter turns flow states into scenes and hands them to a renderer.
//
// A Presenter is a pure function of the state it is given plus its renderer
// configuration. The only thing it remembers is the last surface it drew on.
// It is safe for concurrent use.
type Presenter struct {
	renderer  render.Renderer
	direction string

	mu          sync.Mutex
	lastSurface io.Writer
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithDirection sets the layout direction (render.DirectionLR or
// render.DirectionTB). Unknown values fall back to left-to-right.
func WithDirection(dir string) Option {
	return func(p *Presenter) {
		if render.ValidDirections[dir] {
			p.direction = dir
		}
	}
}

// New creates a presenter drawing with r. A nil r uses the in-process
// default renderer.
func New(r render.Renderer, opts ...Option) *Presenter {
	if r == nil {
		r = nodelink.DefaultLayoutRenderer{}
	}
	p := &Presenter{renderer: r, direction: render.DirectionLR}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Renderer returns the active rendering strategy.
func (p *Presenter) Renderer() render.Renderer { return p.renderer }

// Layout builds the scene for st: columns in ascending tier order, edges
// sorted by endpoints, and curved edges iff the graph has a cycle.
// A nil or empty state yields an empty scene.
func (p *Presenter) Layout(st *flow.State) render.Scene {
	scene := render.Scene{
		Direction: p.direction,
		Columns:   []render.Column{},
		Edges:     []flow.Edge{},
	}
	if st == nil {
		scene.Summary = flow.New().Summary()
		return scene
	}

	cols := st.Columns()
	for _, tier := range st.TierIDs() {
		scene.Columns = append(scene.Columns, render.Column{Tier: tier, Labels: cols[tier]})
	}
	scene.Edges = st.Edges()
	scene.Curved = st.HasCycle()
	scene.Summary = st.Summary()
	return scene
}

// Render draws st onto surface with the configured renderer.
//
// Render never mutates st. An empty state renders as an empty drawing.
// Renderer failures, including panics inside the renderer, are returned as
// RENDER_FAILED errors; st stays valid, so rendering alone can be retried.
func (p *Presenter) Render(ctx context.Context, st *flow.State, surface io.Writer) (err error) {
	if surface == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no rendering surface")
	}
	p.mu.Lock()
	p.lastSurface = surface
	p.mu.Unlock()

	scene := p.Layout(st)

	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrap(errors.ErrCodeRenderFailed, fmt.Errorf("panic: %v", r), "render with %s", p.renderer.Name())
		}
	}()

	if err := p.renderer.Render(ctx, scene, surface); err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "render with %s", p.renderer.Name())
	}
	return nil
}

// Rerender draws st onto the surface used by the last Render call.
// Returns an error if Render was never called.
func (p *Presenter) Rerender(ctx context.Context, st *flow.State) error {
	surface := p.LastSurface()
	if surface == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no previous rendering surface")
	}
	return p.Render(ctx, st, surface)
}

// LastSurface returns the surface of the most recent Render call, or nil.
func (p *Presenter) LastSurface() io.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSurface
}
