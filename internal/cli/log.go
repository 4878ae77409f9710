// Package cli implements the ruleflow command-line interface.
//
// The commands are thin hosts around pkg/pipeline: they read a trace, run it
// through a Runner and present the result. The CLI owns the trace text and
// the output surface; the pipeline owns parsing, layout and rendering.
//
// # Commands
//
// The main commands are:
//   - render: Write SVG, DOT, JSON, PDF or PNG flow graphs for a trace
//   - inspect: Print the summary, tiers and firing events of a trace
//   - watch: Follow a trace file and re-render whenever it changes
//   - serve: Serve the pipeline over HTTP
//   - cache: Manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger writing to w at level, with "15:04:05.00"
// timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// discardLogger returns a logger for hosts that own the terminal, such as
// the watch TUI.
func discardLogger() *log.Logger {
	return newLogger(io.Discard, log.WarnLevel)
}

// progress logs the completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered 2 output(s) (12ms)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default() when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
