// Package source reads trace text from files and streams.
//
// Every reader enforces [errors.MaxTraceBytes] so a runaway simulation log
// cannot exhaust memory. The returned text is the full trace; the pipeline
// always rebuilds the graph from the whole text.
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/ruleflow/pkg/errors"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// ReadFile reads the trace at path. The path "-" reads standard input.
func ReadFile(path string) (string, error) {
	if path == Stdin {
		return Read(os.Stdin)
	}
	if err := errors.ValidateTracePath(path); err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	text, err := Read(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

// Read reads a whole trace from r.
func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, errors.MaxTraceBytes+1))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read trace")
	}
	if err := errors.ValidateTraceSize(int64(len(data))); err != nil {
		return "", err
	}
	return string(data), nil
}
