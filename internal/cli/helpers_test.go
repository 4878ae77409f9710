package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/ruleflow/pkg/config"
)

const sampleTrace = `simulation start
*** Fire: Identify_steeringwheel
  (goal modified)
*** Fire: Attend_visualresponse
*** Fire: Identify_steeringwheel
done
`

const sampleSummary = "Rule Nodes: 2 | Rule Edges: 2"

// captureOutput redirects the package's stdout and stderr writers for the
// duration of the test. The returned buffer collects stdout.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevErr := stdout, stderr
	stdout, stderr = &buf, io.Discard
	t.Cleanup(func() { stdout, stderr = prevOut, prevErr })
	return &buf
}

// writeTrace writes sampleTrace into a temp dir and returns its path.
func writeTrace(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.log")
	if err := os.WriteFile(path, []byte(sampleTrace), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// newTestCLI returns a CLI with a quiet logger, the in-process renderer and
// a file cache under a temp dir.
func newTestCLI(t *testing.T) *CLI {
	t.Helper()
	c := New(io.Discard, LogInfo)
	c.Config.Render.Renderer = "default"
	c.Config.Cache.Backend = config.BackendFile
	c.Config.Cache.Dir = t.TempDir()
	return c
}
