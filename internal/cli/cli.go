package cli

import (
	"context"
	goerrors "errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ruleflow/pkg/cache"
	"github.com/matzehuels/ruleflow/pkg/config"
	"github.com/matzehuels/ruleflow/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any subcommand runs. Defaults until then.
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the file named by --config, or the default location.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
// scope prefixes every cache key; commands sharing a Redis instance use
// different scopes.
func (c *CLI) newRunner(ctx context.Context, noCache bool, scope string) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if scope != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), scope)
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	runner.TTL = c.Config.Cache.TTL.Duration
	return runner, nil
}

// newCache opens the configured cache backend. An unreachable Redis falls
// back to the file cache with a warning rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}

	switch c.Config.Cache.Backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc := c.Config.Cache.Redis
		store, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      rc.Addr,
			Password:  rc.Password,
			DB:        rc.DB,
			Namespace: rc.Namespace,
		})
		if err == nil {
			return store, nil
		}
		if !goerrors.Is(err, cache.ErrUnavailable) {
			return nil, err
		}
		c.Logger.Warn("redis cache unavailable, using file cache", "addr", rc.Addr, "err", err)
	}

	dir, err := c.Config.CacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions returns pipeline options populated from the configuration.
// Command flags are applied on top.
func (c *CLI) baseOptions() pipeline.Options {
	r := c.Config.Render
	return pipeline.Options{
		Ignore:    append([]string(nil), c.Config.Trace.Ignore...),
		Strategy:  r.Renderer,
		Direction: r.Direction,
		Detailed:  r.Detailed,
		Formats:   append([]string(nil), r.Formats...),
		Scale:     r.Scale,
		Logger:    c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
// An empty string keeps fallback.
func parseFormats(s string, fallback []string) []string {
	if s == "" {
		return fallback
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
