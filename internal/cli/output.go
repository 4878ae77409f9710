package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ruleflow/pkg/errors"
	"github.com/matzehuels/ruleflow/pkg/pipeline"
	"github.com/matzehuels/ruleflow/pkg/source"
)

// =============================================================================
// Shared Render Flags
// =============================================================================

// renderFlags are the pipeline flags shared by render, watch and serve.
// Values only override the configuration when the flag was set explicitly.
type renderFlags struct {
	formats   string
	renderer  string
	direction string
	detailed  bool
	scale     float64
	ignore    []string
	noCache   bool
	refresh   bool
}

func (f *renderFlags) register(cmd *cobra.Command, withFormats bool) {
	fl := cmd.Flags()
	if withFormats {
		fl.StringVarP(&f.formats, "format", "f", "", "output format(s): svg, dot, json, pdf, png (comma-separated)")
	}
	fl.StringVar(&f.renderer, "renderer", "", "layout strategy: auto, default (in-process), external (graphviz dot)")
	fl.StringVar(&f.direction, "direction", "", "flow direction: LR, TB")
	fl.BoolVar(&f.detailed, "detailed", false, "show tier numbers in node labels")
	fl.Float64Var(&f.scale, "scale", 0, "PNG scale factor")
	fl.StringSliceVar(&f.ignore, "ignore", nil, "drop firings of rules with this name prefix (repeatable)")
	fl.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	fl.BoolVar(&f.refresh, "refresh", false, "ignore cached results and recompute")
}

func (f *renderFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	fl := cmd.Flags()
	if fl.Changed("format") {
		opts.Formats = parseFormats(f.formats, opts.Formats)
	}
	if fl.Changed("renderer") {
		opts.Strategy = f.renderer
	}
	if fl.Changed("direction") {
		opts.Direction = strings.ToUpper(f.direction)
	}
	if fl.Changed("detailed") {
		opts.Detailed = f.detailed
	}
	if fl.Changed("scale") {
		opts.Scale = f.scale
	}
	if fl.Changed("ignore") {
		opts.Ignore = append(opts.Ignore, f.ignore...)
	}
	opts.Refresh = f.refresh
}

// =============================================================================
// Artifact Output
// =============================================================================

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input. If output carries
// a format extension (.svg, .dot, ...), that extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == source.Stdin {
			return appName
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// derivedSuffix is inserted before the format extension when the path
// derived from the input would be the input itself (run.dot -f dot).
const derivedSuffix = ".flow"

// outputPaths maps each format to the file it is written to. A single format
// with an explicit output path is written exactly there; "-" selects stdout.
// A path derived from the input never replaces the input; an explicit one
// that would is rejected.
func outputPaths(formats []string, input, output string) (map[string]string, error) {
	paths := make(map[string]string, len(formats))
	if output == "-" {
		if len(formats) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "stdout output needs exactly one format, got %d", len(formats))
		}
		paths[formats[0]] = "-"
		return paths, nil
	}
	if len(formats) == 1 && output != "" && filepath.Ext(output) != "" {
		paths[formats[0]] = output
	} else {
		base := basePath(output, input)
		for _, f := range formats {
			path := base + "." + f
			if output == "" && samePath(path, input) {
				path = base + derivedSuffix + "." + f
			}
			paths[f] = path
		}
	}
	for _, path := range paths {
		if samePath(path, input) {
			return nil, errors.New(errors.ErrCodeInvalidPath, "output %s would overwrite the trace", path)
		}
	}
	return paths, nil
}

// samePath reports whether a and b name the same file. Stdin never matches.
func samePath(a, b string) bool {
	if a == source.Stdin || b == source.Stdin || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// writeArtifacts writes every requested format and returns the paths in
// format order.
func writeArtifacts(artifacts map[string][]byte, formats []string, input, output string) ([]string, error) {
	paths, err := outputPaths(formats, input, output)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(formats))
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			return written, errors.New(errors.ErrCodeInternal, "no %s output produced", format)
		}
		path := paths[format]
		if err := writeOutput(path, data); err != nil {
			return written, fmt.Errorf("write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeOutput(path string, data []byte) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// openOutput opens path for writing, creating parent directories.
// "-" returns stdout wrapped so Close leaves it open.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{stdout}, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
