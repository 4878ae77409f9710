package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrToolMissing is returned by [Exec] when the requested tool is not on PATH.
var ErrToolMissing = errors.New("tool not found on PATH")

// LookPathFunc resolves an executable name, like [exec.LookPath].
type LookPathFunc func(file string) (string, error)

// HasTool reports whether name resolves through lookPath.
// A nil lookPath uses [exec.LookPath].
func HasTool(name string, lookPath LookPathFunc) bool {
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	_, err := lookPath(name)
	return err == nil
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	args := append([]string{"-f", format}, extraArgs...)
	out, err := Exec(ctx, "rsvg-convert", svg, args...)
	if errors.Is(err, ErrToolMissing) {
		return nil, fmt.Errorf("%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}
	return out, err
}

// Exec runs tool with args, feeding input on stdin, and returns stdout.
// Stderr output is included in the returned error when the tool fails.
func Exec(ctx context.Context, tool string, input []byte, args ...string) ([]byte, error) {
	path, err := exec.LookPath(tool)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool, ErrToolMissing)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(input)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %v: %s", tool, err, strings.TrimSpace(errBuf.String()))
	}
	return out.Bytes(), nil
}
