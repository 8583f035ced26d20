package operators

import (
	"fmt"
	"sort"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

// Handler executes one ONNX node against its input tensors.
type Handler func(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error)

// Registry maps ONNX op types to handlers.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns a registry with every built-in operator registered.
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	r.registerMath()
	r.registerActivations()
	r.registerNN()
	r.registerShape()
	return r
}

// Register adds or replaces a handler for an op type.
func (r *Registry) Register(opType string, h Handler) {
	r.handlers[opType] = h
}

// Supports reports whether an op type has a handler.
func (r *Registry) Supports(opType string) bool {
	_, ok := r.handlers[opType]
	return ok
}

// Execute runs the handler for a node.
func (r *Registry) Execute(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	h, ok := r.handlers[node.OpType]
	if !ok {
		return nil, fmt.Errorf("unsupported operator: %s", node.OpType)
	}
	return h(node, inputs)
}

// SupportedOps returns all registered op types, sorted.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

func wantInputs(name string, inputs []*tensor.RawTensor, n int) error {
	if len(inputs) != n {
		return fmt.Errorf("%s requires %d inputs, got %d", name, n, len(inputs))
	}
	for i, in := range inputs {
		if in == nil {
			return fmt.Errorf("%s: input %d is nil", name, i)
		}
	}
	return nil
}
