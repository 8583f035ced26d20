package onnx

import (
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/ftnfurina/ocrkit/internal/onnx/operators"
)

// Options controls model loading.
type Options struct {
	// StrictMode fails the load when the graph references an operator
	// the registry does not implement. When false the load succeeds
	// and execution fails at the offending node.
	StrictMode bool
}

// Load reads an ONNX file and compiles it for execution.
func Load(path string, opts Options) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return LoadFromBytes(data, opts)
}

// LoadFromBytes compiles an ONNX model from an in-memory protobuf.
func LoadFromBytes(data []byte, opts Options) (*Model, error) {
	proto, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}

	registry := operators.NewRegistry()
	if missing := unsupportedOps(proto, registry); len(missing) > 0 {
		if opts.StrictMode {
			return nil, fmt.Errorf("unsupported operators: %v", missing)
		}
		log.Warn().Strs("ops", missing).Msg("model uses unsupported operators")
	}

	model := &Model{proto: proto, registry: registry}
	if err := model.compile(); err != nil {
		return nil, fmt.Errorf("compile model: %w", err)
	}
	return model, nil
}

// ListSupportedOps returns the names of all implemented operators.
func ListSupportedOps() []string {
	return operators.NewRegistry().SupportedOps()
}

func unsupportedOps(proto *ModelProto, registry *operators.Registry) []string {
	if proto.Graph == nil {
		return nil
	}
	seen := make(map[string]bool)
	for i := range proto.Graph.Nodes {
		op := proto.Graph.Nodes[i].OpType
		if !registry.Supports(op) {
			seen[op] = true
		}
	}
	missing := make([]string, 0, len(seen))
	for op := range seen {
		missing = append(missing, op)
	}
	sort.Strings(missing)
	return missing
}
