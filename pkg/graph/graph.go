package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/ruleflow/pkg/flow"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a state to indented JSON bytes.
func MarshalGraph(st *flow.State) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(st, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a state to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(st *flow.State, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(st, f)
}

// WriteGraph writes a state as JSON to an io.Writer.
func WriteGraph(st *flow.State, w io.Writer) error {
	return writeGraphTo(st, w)
}

// ReadGraphFile reads a JSON file and returns the decoded state.
func ReadGraphFile(path string) (*flow.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader into a state.
func ReadGraph(r io.Reader) (*flow.State, error) {
	return readGraphFrom(r)
}

// UnmarshalGraph deserializes JSON bytes to a Graph without validating it.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(st *flow.State, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromState(st)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*flow.State, error) {
	var data Graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToState(data)
}

func wrapNode(id string, err error) error {
	return fmt.Errorf("node %q: %w", flow.Flatten(id), err)
}

func wrapEdge(e Edge, err error) error {
	return fmt.Errorf("edge %s→%s: %w", flow.Flatten(e.From), flow.Flatten(e.To), err)
}
