package pipeline

import (
	"context"
	goerrors "errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/ruleflow/pkg/cache"
	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/graph"
	"github.com/matzehuels/ruleflow/pkg/observability"
	"github.com/matzehuels/ruleflow/pkg/render"
)

const sampleTrace = `simulation start
*** Fire: Identify_steeringwheel
  (goal modified)
*** Fire: Attend_visualresponse
*** Fire: Identify_steeringwheel
done
`

// countingRenderer writes a fixed SVG and counts calls.
type countingRenderer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *countingRenderer) Name() string { return "counting" }

func (r *countingRenderer) Render(_ context.Context, scene render.Scene, w io.Writer) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	_, err := io.WriteString(w, "<svg><!-- "+scene.Summary+" --></svg>")
	return err
}

func (r *countingRenderer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func newFileRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestExecute(t *testing.T) {
	rnd := &countingRenderer{}
	r := NewRunner(nil, nil, nil)

	result, err := r.Execute(context.Background(), sampleTrace, Options{
		Source:   "sample.log",
		Formats:  []string{FormatSVG, FormatDOT, FormatJSON},
		Renderer: rnd,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.Stats.NodeCount != 2 || result.Stats.EdgeCount != 2 {
		t.Errorf("Stats = %+v, want 2 nodes, 2 edges", result.Stats)
	}
	if !result.Stats.Cyclic || result.Stats.Renderer != "counting" {
		t.Errorf("Stats = %+v, want cyclic graph rendered by counting", result.Stats)
	}
	if result.StateHash != result.State.Hash() {
		t.Error("StateHash should match the state")
	}
	if !strings.Contains(string(result.Artifacts[FormatSVG]), "Rule Nodes: 2 | Rule Edges: 2") {
		t.Errorf("svg = %s", result.Artifacts[FormatSVG])
	}
	if !strings.Contains(string(result.Artifacts[FormatDOT]), "splines=curved") {
		t.Errorf("dot should use curved splines:\n%s", result.Artifacts[FormatDOT])
	}

	l, err := graph.UnmarshalLayout(result.Artifacts[FormatJSON])
	if err != nil {
		t.Fatalf("json artifact: %v", err)
	}
	if l.Summary != result.State.Summary() || l.Renderer != "counting" || !l.Cyclic {
		t.Errorf("json layout = %+v", l)
	}
	if rnd.count() != 1 {
		t.Errorf("renderer calls = %d, want 1", rnd.count())
	}
}

func TestExecuteEmptyTrace(t *testing.T) {
	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), "no firings here\n", Options{Renderer: &countingRenderer{}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !result.State.IsEmpty() || result.Stats.Cyclic {
		t.Errorf("empty trace produced %+v", result.Stats)
	}
	if len(result.Artifacts[FormatSVG]) == 0 {
		t.Error("empty trace should still render an (empty) drawing")
	}
}

func TestExecuteCaching(t *testing.T) {
	rnd := &countingRenderer{}
	r := newFileRunner(t)
	opts := Options{Formats: []string{FormatSVG, FormatJSON}, Renderer: rnd}

	first, err := r.Execute(context.Background(), sampleTrace, opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.ParseHit || first.CacheInfo.RenderHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}

	second, err := r.Execute(context.Background(), sampleTrace, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.ParseHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run should hit: %+v", second.CacheInfo)
	}
	if rnd.count() != 1 {
		t.Errorf("renderer calls = %d, want 1", rnd.count())
	}
	if !second.State.Equal(first.State) || second.State.LastRule() != first.State.LastRule() {
		t.Error("cached state differs from parsed state")
	}
	if string(second.Artifacts[FormatSVG]) != string(first.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}

	opts.Refresh = true
	third, err := r.Execute(context.Background(), sampleTrace, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.ParseHit || third.CacheInfo.RenderHit || rnd.count() != 2 {
		t.Errorf("refresh should bypass the cache: %+v, calls %d", third.CacheInfo, rnd.count())
	}
}

func TestExecuteCacheInvalidatedByEdit(t *testing.T) {
	rnd := &countingRenderer{}
	r := newFileRunner(t)
	opts := Options{Renderer: rnd}

	if _, err := r.Execute(context.Background(), sampleTrace, opts); err != nil {
		t.Fatal(err)
	}
	result, err := r.Execute(context.Background(), sampleTrace+"*** Fire: Drive\n", opts)
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheInfo.RenderHit || result.Stats.NodeCount != 3 {
		t.Errorf("edited trace should re-render: %+v %+v", result.CacheInfo, result.Stats)
	}
}

func TestExecuteRenderFailure(t *testing.T) {
	cause := goerrors.New("layout engine crashed")
	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), sampleTrace, Options{
		Renderer: &countingRenderer{err: cause},
	})

	if !IsRenderFailure(err) {
		t.Fatalf("Execute() error = %v, want RENDER_FAILED", err)
	}
	if !goerrors.Is(err, cause) {
		t.Error("error should wrap the renderer failure")
	}
	if result == nil || result.State == nil {
		t.Fatal("render failure should still return the parsed state")
	}
	if result.State.Summary() != "Rule Nodes: 2 | Rule Edges: 2" {
		t.Errorf("Summary() = %q", result.State.Summary())
	}
	if len(result.Artifacts) != 0 {
		t.Error("no artifacts should be returned on failure")
	}
}

func TestExecuteUnresolvedStrategy(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	missing := func(string) (string, error) { return "", goerrors.New("not found") }

	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"unknown", Options{Strategy: "neato"}, errors.ErrCodeInvalidStrategy},
		{"tool missing", Options{Strategy: render.StrategyExternal, LookPath: missing}, errors.ErrCodeUnsupported},
		{"pdf", Options{Strategy: "neato", Formats: []string{FormatPDF}}, errors.ErrCodeInvalidStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := r.Execute(context.Background(), sampleTrace, tt.opts)
			if !errors.Is(err, tt.code) {
				t.Fatalf("Execute() error = %v, want %s", err, tt.code)
			}
			if result == nil || result.State == nil {
				t.Fatal("strategy failure should still return the parsed state")
			}
			if result.State.Summary() != "Rule Nodes: 2 | Rule Edges: 2" {
				t.Errorf("Summary() = %q", result.State.Summary())
			}
			if len(result.Layout.Columns) != 2 {
				t.Errorf("Layout.Columns = %v, want 2 tiers", result.Layout.Columns)
			}
			if len(result.Artifacts) != 0 {
				t.Errorf("no artifacts expected, got %d", len(result.Artifacts))
			}
		})
	}
}

func TestExecuteUndrawnFormatsIgnoreStrategy(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	missing := func(string) (string, error) { return "", goerrors.New("not found") }

	tests := []struct {
		name string
		opts Options
	}{
		{"unknown json", Options{Strategy: "neato", Formats: []string{FormatJSON}}},
		{"unknown dot", Options{Strategy: "neato", Formats: []string{FormatDOT}}},
		{"tool missing json+dot", Options{Strategy: render.StrategyExternal, LookPath: missing, Formats: []string{FormatJSON, FormatDOT}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := "*** Fire: A\n*** Fire: B\n*** Fire: A\n"
			result, err := r.Execute(context.Background(), text, tt.opts)
			if err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if !result.Stats.Cyclic || result.State.NodeCount() != 2 {
				t.Errorf("unexpected graph: %s cyclic=%v", result.State.Summary(), result.Stats.Cyclic)
			}
			if result.Stats.Renderer != "" {
				t.Errorf("Renderer = %q, want empty", result.Stats.Renderer)
			}
			for _, f := range result.Artifacts {
				if len(f) == 0 {
					t.Error("empty artifact")
				}
			}
			if len(result.Artifacts) != len(tt.opts.Formats) {
				t.Errorf("got %d artifacts, want %d", len(result.Artifacts), len(tt.opts.Formats))
			}
		})
	}
}

func TestExecuteInvalidOptions(t *testing.T) {
	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), sampleTrace, Options{Formats: []string{"gif"}})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Execute() error = %v, want INVALID_FORMAT", err)
	}
	if result != nil {
		t.Error("invalid options should fail before parsing")
	}
}

func TestExecuteSelectsStrategy(t *testing.T) {
	missing := func(string) (string, error) { return "", goerrors.New("not found") }
	result, err := NewRunner(nil, nil, nil).Execute(context.Background(), sampleTrace, Options{
		Formats:  []string{FormatDOT},
		LookPath: missing,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Stats.Renderer != render.StrategyDefault {
		t.Errorf("auto without dot should pick default, got %s", result.Stats.Renderer)
	}
}

func TestParseIgnore(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	text := "*** Fire: Init_clock\n*** Fire: A\n*** Fire: Init_clock\n*** Fire: B\n"

	st, err := r.Parse(context.Background(), text, Options{Ignore: []string{"Init"}})
	if err != nil {
		t.Fatal(err)
	}
	if st.NodeCount() != 2 || !st.HasEdge("A", "B") {
		t.Errorf("ignored rules should be dropped, got %v", st.Labels())
	}
}

func TestParseTooLarge(t *testing.T) {
	text := strings.Repeat("x", errors.MaxTraceBytes+1)
	_, err := NewRunner(nil, nil, nil).Parse(context.Background(), text, Options{})
	if !errors.Is(err, errors.ErrCodeTraceTooLarge) {
		t.Errorf("Parse() error = %v, want TRACE_TOO_LARGE", err)
	}
}

func TestRenderArtifactsNeedsRenderer(t *testing.T) {
	_, err := RenderArtifacts(context.Background(), Parse(sampleTrace, Options{}), Options{})
	if !errors.Is(err, errors.ErrCodeInternal) {
		t.Errorf("RenderArtifacts() error = %v", err)
	}
}

func TestRunnerConcurrent(t *testing.T) {
	r := newFileRunner(t)
	rnd := &countingRenderer{}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text := sampleTrace + strings.Repeat("*** Fire: Extra\n", i)
			if _, err := r.Execute(context.Background(), text, Options{Renderer: rnd}); err != nil {
				t.Errorf("Execute() error: %v", err)
			}
		}()
	}
	wg.Wait()
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnParseComplete(_ context.Context, _ string, nodes, _ int, _ time.Duration, _ error) {
	h.record("parse")
}

func (h *recordingHooks) OnLayoutComplete(context.Context, string, time.Duration, error) {
	h.record("layout")
}

func (h *recordingHooks) OnRenderComplete(_ context.Context, _ []string, _ time.Duration, err error) {
	if err != nil {
		h.record("render-failed")
		return
	}
	h.record("render")
}

func TestExecuteEmitsHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	if _, err := NewRunner(nil, nil, nil).Execute(context.Background(), sampleTrace, Options{Renderer: &countingRenderer{}}); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(hooks.events, ","); got != "parse,layout,render" {
		t.Errorf("hook events = %s", got)
	}
}
