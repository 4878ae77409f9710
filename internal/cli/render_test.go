package cli

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/graph"
)

// execute runs the root command with args and a config file written from
// configTOML.
func execute(t *testing.T, c *CLI, configTOML string, args ...string) error {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(cfgPath, []byte(configTOML), 0o644); err != nil {
		t.Fatal(err)
	}
	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", cfgPath}, args...))
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(context.Background())
}

const testConfig = `
[render]
renderer = "default"

[cache]
backend = "none"
`

func TestRenderCommand(t *testing.T) {
	out := captureOutput(t)
	input := writeTrace(t)
	base := filepath.Join(t.TempDir(), "flow")

	c := New(io.Discard, LogInfo)
	if err := execute(t, c, testConfig, "render", input, "-f", "dot,json", "-o", base); err != nil {
		t.Fatalf("render: %v", err)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatalf("read dot: %v", err)
	}
	if !strings.Contains(string(dot), "digraph G") {
		t.Errorf("flow.dot missing digraph:\n%s", dot)
	}

	data, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var layout graph.Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if layout.Summary != sampleSummary || !layout.Cyclic {
		t.Errorf("layout summary = %q cyclic = %v", layout.Summary, layout.Cyclic)
	}

	if !strings.Contains(out.String(), sampleSummary) {
		t.Errorf("stdout missing summary:\n%s", out.String())
	}
}

func TestRenderCommandStdout(t *testing.T) {
	out := captureOutput(t)
	input := writeTrace(t)

	c := New(io.Discard, LogInfo)
	if err := execute(t, c, testConfig, "render", input, "-f", "dot", "-o", "-", "--direction", "tb"); err != nil {
		t.Fatalf("render: %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "digraph G") {
		t.Errorf("stdout should hold only the DOT output, got:\n%s", got)
	}
	if !strings.Contains(got, "rankdir=TB") {
		t.Errorf("--direction tb not applied:\n%s", got)
	}
}

func TestRenderCommandUndrawnIgnoresRenderer(t *testing.T) {
	captureOutput(t)
	input := writeTrace(t)
	output := filepath.Join(t.TempDir(), "flow.json")

	err := execute(t, New(io.Discard, LogInfo), testConfig, "render", input, "-f", "json", "-o", output, "--renderer", "neato")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var layout graph.Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if layout.Summary != sampleSummary {
		t.Errorf("layout summary = %q", layout.Summary)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	captureOutput(t)
	input := writeTrace(t)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing trace", []string{"render", filepath.Join(t.TempDir(), "missing.log")}, errors.ErrCodeFileNotFound},
		{"bad format", []string{"render", input, "-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"bad renderer", []string{"render", input, "--renderer", "neato"}, errors.ErrCodeInvalidStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := execute(t, New(io.Discard, LogInfo), testConfig, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestRenderCommandInvalidConfig(t *testing.T) {
	captureOutput(t)

	err := execute(t, New(io.Discard, LogInfo), "[render]\nrenderer = \"neato\"\n", "render", writeTrace(t))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("error = %v, want INVALID_CONFIG", err)
	}
}

func TestCompletionSkipsConfig(t *testing.T) {
	out := captureOutput(t)

	err := execute(t, New(io.Discard, LogInfo), "not toml at all [", "completion", "bash")
	if err != nil {
		t.Fatalf("completion: %v", err)
	}
	if !strings.Contains(out.String(), "ruleflow") {
		t.Error("completion script should mention the command name")
	}
}
