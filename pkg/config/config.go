// Package config loads ruleflow's TOML configuration.
//
// The file lives at $XDG_CONFIG_HOME/ruleflow/config.toml (see [DefaultPath])
// and every section is optional; missing keys keep the values from
// [Default]. Command-line flags override whatever the file sets.
//
//	[render]
//	renderer  = "auto"      # auto | default | external
//	direction = "LR"        # LR | TB
//	formats   = ["svg"]
//	scale     = 2.0
//
//	[trace]
//	ignore = ["Housekeeping"]
//
//	[cache]
//	backend = "file"        # file | redis | none
//	ttl     = "168h"
//
//	[cache.redis]
//	addr = "localhost:6379"
//
//	[watch]
//	debounce = "200ms"
//
//	[serve]
//	addr = ":8080"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ruleflow/pkg/errors"
)

// AppName names the configuration and cache directories.
const AppName = "ruleflow"

// Cache backends.
const (
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendNone  = "none"
)

// Config is the complete ruleflow configuration.
type Config struct {
	Render RenderConfig `toml:"render"`
	Trace  TraceConfig  `toml:"trace"`
	Cache  CacheConfig  `toml:"cache"`
	Watch  WatchConfig  `toml:"watch"`
	Serve  ServeConfig  `toml:"serve"`
}

// RenderConfig controls how flow graphs are drawn.
type RenderConfig struct {
	Renderer  string   `toml:"renderer" validate:"oneof=auto default external"`
	Direction string   `toml:"direction" validate:"oneof=LR TB"`
	Formats   []string `toml:"formats" validate:"min=1,dive,oneof=svg dot json pdf png"`
	Scale     float64  `toml:"scale" validate:"gt=0,lte=10"`
	Detailed  bool     `toml:"detailed"`
}

// TraceConfig controls how traces are parsed.
type TraceConfig struct {
	// Ignore lists raw rule-name prefixes whose firings are dropped.
	Ignore []string `toml:"ignore" validate:"dive,required"`
}

// CacheConfig selects and configures the artifact cache.
type CacheConfig struct {
	Backend string      `toml:"backend" validate:"oneof=file redis none"`
	Dir     string      `toml:"dir"`
	TTL     Duration    `toml:"ttl"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig configures the shared Redis cache.
type RedisConfig struct {
	Addr      string `toml:"addr" validate:"required,hostname_port"`
	Password  string `toml:"password"`
	DB        int    `toml:"db" validate:"gte=0,lte=15"`
	Namespace string `toml:"namespace"`
}

// WatchConfig controls trace following.
type WatchConfig struct {
	// Debounce coalesces bursts of file writes into one refresh.
	Debounce Duration `toml:"debounce"`
}

// ServeConfig configures the HTTP server.
type ServeConfig struct {
	Addr        string   `toml:"addr" validate:"required,hostname_port"`
	MaxBodySize int64    `toml:"max_body_size" validate:"gt=0"`
	Timeout     Duration `toml:"timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Renderer:  "auto",
			Direction: "LR",
			Formats:   []string{"svg"},
			Scale:     2.0,
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			TTL:     Duration{7 * 24 * time.Hour},
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Watch: WatchConfig{
			Debounce: Duration{200 * time.Millisecond},
		},
		Serve: ServeConfig{
			Addr:        ":8080",
			MaxBodySize: errors.MaxTraceBytes,
			Timeout:     Duration{30 * time.Second},
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/ruleflow/config.toml (or the
// platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "config.toml"), nil
}

// Load reads the configuration at path on top of Default and validates it.
//
// An empty path loads DefaultPath, where a missing file is not an error.
// A missing explicit path is FILE_NOT_FOUND. Unknown keys, malformed TOML
// and invalid values are INVALID_CONFIG.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s not found", path)
		}
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// CacheDir returns the configured cache directory, or the user cache
// directory for ruleflow.
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// Duration is a wrapper for time.Duration that supports TOML marshaling.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for Duration.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler for Duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
