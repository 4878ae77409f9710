package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/ruleflow/pkg/cache"
	"github.com/matzehuels/ruleflow/pkg/graph"
	"github.com/matzehuels/ruleflow/pkg/httputil"
	"github.com/matzehuels/ruleflow/pkg/pipeline"
)

func newTestServer(t *testing.T, store cache.Cache, maxBody int64) *httptest.Server {
	t.Helper()
	runner := pipeline.NewRunner(store, cache.NewScopedKeyer(cache.NewDefaultKeyer(), serveScope), discardLogger())
	base := pipeline.Options{Strategy: "default", Direction: "LR", Scale: 2}
	srv := httptest.NewServer(newServer(runner, base, maxBody, 10*time.Second))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "text/plain", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeHealth(t *testing.T) {
	srv := newTestServer(t, nil, 1<<20)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestServeGraph(t *testing.T) {
	srv := newTestServer(t, nil, 1<<20)

	resp := post(t, srv.URL+"/v1/graph", sampleTrace)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get(httputil.HeaderRequestID))
	assert.Equal(t, sampleSummary, resp.Header.Get("X-Ruleflow-Summary"))
	assert.Equal(t, "true", resp.Header.Get("X-Ruleflow-Cyclic"))

	var layout graph.Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&layout))
	assert.Equal(t, sampleSummary, layout.Summary)
	assert.Len(t, layout.Nodes, 2)
	assert.Equal(t, []string{"Identify\nsteeringwheel"}, layout.Columns[1])
}

func TestServeRender(t *testing.T) {
	srv := newTestServer(t, nil, 1<<20)

	resp := post(t, srv.URL+"/v1/render?format=dot&direction=tb&ignore=Attend", sampleTrace)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/vnd.graphviz; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Rule Nodes: 1 | Rule Edges: 1", resp.Header.Get("X-Ruleflow-Summary"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "digraph G")
	assert.Contains(t, string(body), "rankdir=TB")
}

func TestServeRenderCached(t *testing.T) {
	store, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)
	srv := newTestServer(t, store, 1<<20)

	first := post(t, srv.URL+"/v1/render?format=svg", sampleTrace)
	require.Equal(t, http.StatusOK, first.StatusCode)
	assert.Equal(t, "miss", first.Header.Get("X-Ruleflow-Cache"))

	second := post(t, srv.URL+"/v1/render?format=svg", sampleTrace)
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "hit", second.Header.Get("X-Ruleflow-Cache"))

	refreshed := post(t, srv.URL+"/v1/render?format=svg&refresh=1", sampleTrace)
	assert.Equal(t, "miss", refreshed.Header.Get("X-Ruleflow-Cache"))
}

func TestServeErrors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		body    string
		maxBody int64
		status  int
		code    string
	}{
		{"bad format", "/v1/render?format=gif", sampleTrace, 1 << 20, http.StatusBadRequest, "INVALID_FORMAT"},
		{"bad renderer", "/v1/render?renderer=neato", sampleTrace, 1 << 20, http.StatusBadRequest, "INVALID_STRATEGY"},
		{"bad direction", "/v1/graph?direction=up", sampleTrace, 1 << 20, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad detailed", "/v1/graph?detailed=maybe", sampleTrace, 1 << 20, http.StatusBadRequest, "INVALID_INPUT"},
		{"too large", "/v1/graph", strings.Repeat("x", 65), 64, http.StatusRequestEntityTooLarge, "TRACE_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil, tt.maxBody)
			resp := post(t, srv.URL+tt.path, tt.body)
			require.Equal(t, tt.status, resp.StatusCode)

			var body httputil.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, resp.Header.Get(httputil.HeaderRequestID), body.RequestID)
		})
	}
}

func TestServeGraphUnknownRenderer(t *testing.T) {
	srv := newTestServer(t, nil, 1<<20)

	resp := post(t, srv.URL+"/v1/graph?renderer=neato", sampleTrace)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, sampleSummary, resp.Header.Get("X-Ruleflow-Summary"))

	var layout graph.Layout
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&layout))
	assert.Len(t, layout.Columns, 2)
	assert.Empty(t, layout.Renderer)
}

func TestServeMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil, 1<<20)

	resp, err := http.Get(srv.URL + "/v1/render")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCacheHeader(t *testing.T) {
	assert.Equal(t, "hit", cacheHeader(pipeline.CacheInfo{ParseHit: true, RenderHit: true}))
	assert.Equal(t, "partial", cacheHeader(pipeline.CacheInfo{ParseHit: true}))
	assert.Equal(t, "miss", cacheHeader(pipeline.CacheInfo{}))
}
