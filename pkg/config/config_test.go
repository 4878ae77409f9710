package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/ruleflow/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[render]
renderer = "external"
direction = "TB"
formats = ["svg", "json"]

[trace]
ignore = ["Housekeeping", "Init_"]

[cache]
backend = "redis"
ttl = "1h"

[cache.redis]
addr = "cache.internal:6379"
db = 2

[watch]
debounce = "50ms"

[serve]
addr = "127.0.0.1:9090"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Render.Renderer != "external" || cfg.Render.Direction != "TB" {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if strings.Join(cfg.Render.Formats, ",") != "svg,json" {
		t.Errorf("Formats = %v", cfg.Render.Formats)
	}
	if cfg.Render.Scale != 2.0 {
		t.Errorf("unset Scale should keep default, got %v", cfg.Render.Scale)
	}
	if len(cfg.Trace.Ignore) != 2 {
		t.Errorf("Ignore = %v", cfg.Trace.Ignore)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.TTL.Duration != time.Hour {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.Redis.Addr != "cache.internal:6379" || cfg.Cache.Redis.DB != 2 {
		t.Errorf("Redis = %+v", cfg.Cache.Redis)
	}
	if cfg.Watch.Debounce.Duration != 50*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Serve.Addr != "127.0.0.1:9090" || cfg.Serve.Timeout.Duration != 30*time.Second {
		t.Errorf("Serve = %+v", cfg.Serve)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDefaultPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Render.Renderer != "auto" {
		t.Errorf("missing default file should yield defaults, got %+v", cfg.Render)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantKey string
	}{
		{"syntax", `[render`, "parse"},
		{"unknown key", "[render]\ncolour = \"red\"\n", "render.colour"},
		{"strategy", "[render]\nrenderer = \"neato\"\n", "render.renderer"},
		{"direction", "[render]\ndirection = \"BT\"\n", "render.direction"},
		{"format", "[render]\nformats = [\"svg\", \"gif\"]\n", "render.formats[1]"},
		{"no formats", "[render]\nformats = []\n", "render.formats"},
		{"scale", "[render]\nscale = 0.0\n", "render.scale"},
		{"empty ignore", "[trace]\nignore = [\"\"]\n", "trace.ignore[0]"},
		{"backend", "[cache]\nbackend = \"memcached\"\n", "cache.backend"},
		{"redis addr", "[cache]\nbackend = \"redis\"\n[cache.redis]\naddr = \"nope\"\n", "cache.redis.addr"},
		{"duration", "[watch]\ndebounce = \"soon\"\n", "invalid duration"},
		{"debounce", "[watch]\ndebounce = \"5m\"\n", "watch.debounce"},
		{"serve addr", "[serve]\naddr = \"\"\n", "serve.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Fatalf("Load() error = %v, want INVALID_CONFIG", err)
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.wantKey)
			}
		})
	}
}

func TestRedisIgnoredForOtherBackends(t *testing.T) {
	cfg := Default()
	cfg.Cache.Redis.Addr = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("redis settings should not matter for the file backend: %v", err)
	}
	cfg.Cache.Backend = BackendRedis
	if err := cfg.Validate(); err == nil {
		t.Error("redis backend requires an address")
	}
}

func TestCacheDir(t *testing.T) {
	cfg := Default()
	cfg.Cache.Dir = "/tmp/rf"
	if dir, _ := cfg.CacheDir(); dir != "/tmp/rf" {
		t.Errorf("CacheDir() = %s", dir)
	}

	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	cfg.Cache.Dir = ""
	dir, err := cfg.CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(dir) != AppName {
		t.Errorf("CacheDir() = %s, want .../%s", dir, AppName)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1m30s")); err != nil {
		t.Fatal(err)
	}
	text, _ := d.MarshalText()
	if string(text) != "1m30s" {
		t.Errorf("MarshalText() = %s", text)
	}
}
