package cli

import (
	"context"
	goerrors "errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleflow/pkg/buildinfo"
	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/httputil"
	"github.com/matzehuels/ruleflow/pkg/observability"
	"github.com/matzehuels/ruleflow/pkg/pipeline"
	"github.com/matzehuels/ruleflow/pkg/source"
)

// serveScope prefixes the server's cache keys so a shared Redis can hold
// CLI and server entries side by side.
const serveScope = "serve:"

const shutdownTimeout = 5 * time.Second

var contentTypes = map[string]string{
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatJSON: "application/json",
	pipeline.FormatPDF:  "application/pdf",
	pipeline.FormatPNG:  "image/png",
}

// serveCommand creates the serve command, which exposes the pipeline over
// HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve flow graphs over HTTP",
		Long: `Serve flow graphs over HTTP.

Endpoints (the request body is the raw trace text):
  POST /v1/graph                     flow graph as JSON (tiers, edges, columns)
  POST /v1/render?format=svg|dot|... rendered flow graph
  GET  /healthz                      liveness and version

Query parameters renderer, direction, detailed, ignore and refresh override
the configured render settings for a single request.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				c.Config.Serve.Addr = addr
			}
			return c.runServe(cmd.Context(), noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, noCache bool) error {
	logger := loggerFromContext(ctx)
	cfg := c.Config.Serve

	runner, err := c.newRunner(ctx, noCache, serveScope)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	observability.SetServerHooks(logHooks{logger: logger})
	defer observability.SetServerHooks(observability.NoopServerHooks{})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newServer(runner, c.baseOptions(), cfg.MaxBodySize, cfg.Timeout.Duration),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "version", buildinfo.Version)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !goerrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

// server holds the handlers' shared state. base carries the configured
// render settings; requests copy and override it.
type server struct {
	runner *pipeline.Runner
	base   pipeline.Options
}

// newServer builds the HTTP handler.
func newServer(runner *pipeline.Runner, base pipeline.Options, maxBody int64, timeout time.Duration) http.Handler {
	s := &server{runner: runner, base: base}

	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(httputil.Observe)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(httputil.LimitBody(maxBody))
		if timeout > 0 {
			r.Use(middleware.Timeout(timeout))
		}
		r.Post("/v1/graph", s.handleGraph)
		r.Post("/v1/render", s.handleRender)
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

// handleGraph returns the JSON layout of the posted trace. Nothing is drawn.
func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	opts.Formats = []string{pipeline.FormatJSON}
	s.run(w, r, opts)
}

// handleRender returns the posted trace drawn in the requested format.
func (s *server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}
	s.run(w, r, opts)
}

func (s *server) run(w http.ResponseWriter, r *http.Request, opts pipeline.Options) {
	text, err := source.Read(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if goerrors.As(err, &tooLarge) {
			err = errors.Wrap(errors.ErrCodeTraceTooLarge, err, "trace exceeds %d bytes", tooLarge.Limit)
		}
		httputil.WriteError(w, r, err)
		return
	}

	opts.Source = httputil.RequestIDFrom(r.Context())
	result, err := s.runner.Execute(r.Context(), text, opts)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	format := opts.Formats[0]
	h := w.Header()
	h.Set("Content-Type", contentTypes[format])
	h.Set("X-Ruleflow-Run", result.RunID)
	h.Set("X-Ruleflow-Summary", result.State.Summary())
	h.Set("X-Ruleflow-Cyclic", strconv.FormatBool(result.Stats.Cyclic))
	h.Set("X-Ruleflow-Cache", cacheHeader(result.CacheInfo))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// options applies the request's query parameters to the base options and
// validates the result. The renderer is resolved by the runner, so an
// unknown one only fails requests that draw.
func (s *server) options(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := s.base
	opts.Formats = nil
	opts.Ignore = append([]string(nil), s.base.Ignore...)

	if v := q.Get("renderer"); v != "" {
		opts.Strategy = v
	}
	if v := q.Get("direction"); v != "" {
		opts.Direction = strings.ToUpper(v)
	}
	if v := q.Get("detailed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "detailed: %q is not a boolean", v)
		}
		opts.Detailed = b
	}
	if v := q.Get("refresh"); v != "" {
		opts.Refresh = v == "1" || v == "true"
	}
	opts.Ignore = append(opts.Ignore, q["ignore"]...)

	if err := pipeline.ValidateDirection(opts.Direction); err != nil {
		return opts, err
	}
	if f := q.Get("format"); f != "" {
		if err := pipeline.ValidateFormat(f); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func cacheHeader(info pipeline.CacheInfo) string {
	switch {
	case info.RenderHit:
		return "hit"
	case info.ParseHit:
		return "partial"
	default:
		return "miss"
	}
}

// =============================================================================
// Request Logging
// =============================================================================

// logHooks logs every response through the CLI logger.
type logHooks struct {
	observability.NoopServerHooks
	logger *log.Logger
}

func (h logHooks) OnResponse(ctx context.Context, method, path string, status int, d time.Duration) {
	kv := []any{"method", method, "path", path, "status", status, "duration", d.Round(time.Microsecond)}
	if id := httputil.RequestIDFrom(ctx); id != "" {
		kv = append(kv, "request", id[:8])
	}
	if status >= 500 {
		h.logger.Warn("request", kv...)
		return
	}
	h.logger.Info("request", kv...)
}
