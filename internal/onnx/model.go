package onnx

import (
	"fmt"

	"github.com/ftnfurina/ocrkit/internal/onnx/operators"
	"github.com/ftnfurina/ocrkit/internal/tensor"
)

// Model is a compiled ONNX model ready to execute.
type Model struct {
	proto        *ModelProto
	registry     *operators.Registry
	weights      map[string]*tensor.RawTensor
	inputNames   []string
	outputNames  []string
	nodes        []*operators.Node
	opsetVersion int64
}

// InputNames returns the graph input names, excluding initializers.
func (m *Model) InputNames() []string { return m.inputNames }

// OutputNames returns the graph output names.
func (m *Model) OutputNames() []string { return m.outputNames }

// OpsetVersion returns the default-domain opset version.
func (m *Model) OpsetVersion() int64 { return m.opsetVersion }

// Metadata returns producer information and metadata properties.
func (m *Model) Metadata() map[string]string {
	meta := make(map[string]string, len(m.proto.MetadataProps)+3)
	for _, prop := range m.proto.MetadataProps {
		meta[prop.Key] = prop.Value
	}
	meta["producer_name"] = m.proto.ProducerName
	meta["producer_version"] = m.proto.ProducerVersion
	meta["domain"] = m.proto.Domain
	return meta
}

// Forward executes the graph with a single input and single output.
func (m *Model) Forward(input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if len(m.inputNames) != 1 {
		return nil, fmt.Errorf("model has %d inputs, use ForwardNamed", len(m.inputNames))
	}
	if len(m.outputNames) != 1 {
		return nil, fmt.Errorf("model has %d outputs, use ForwardNamed", len(m.outputNames))
	}
	outputs, err := m.ForwardNamed(map[string]*tensor.RawTensor{m.inputNames[0]: input})
	if err != nil {
		return nil, err
	}
	return outputs[m.outputNames[0]], nil
}

// ForwardNamed executes the graph with named inputs and returns all
// named outputs.
func (m *Model) ForwardNamed(inputs map[string]*tensor.RawTensor) (map[string]*tensor.RawTensor, error) {
	values := make(map[string]*tensor.RawTensor, len(m.weights)+len(inputs))
	for name, t := range m.weights {
		values[name] = t
	}
	for name, t := range inputs {
		values[name] = t
	}
	for _, name := range m.inputNames {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("missing input: %s", name)
		}
	}

	for _, node := range m.nodes {
		nodeInputs := make([]*tensor.RawTensor, len(node.Inputs))
		for j, inputName := range node.Inputs {
			if inputName == "" {
				continue // optional input left unset
			}
			t, ok := values[inputName]
			if !ok {
				return nil, fmt.Errorf("node %s: missing input %s", node.Name, inputName)
			}
			nodeInputs[j] = t
		}

		outputs, err := m.registry.Execute(node, nodeInputs)
		if err != nil {
			return nil, fmt.Errorf("node %s (%s): %w", node.Name, node.OpType, err)
		}
		for j, outputName := range node.Outputs {
			if j < len(outputs) {
				values[outputName] = outputs[j]
			}
		}
	}

	result := make(map[string]*tensor.RawTensor, len(m.outputNames))
	for _, name := range m.outputNames {
		t, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("missing output: %s", name)
		}
		result[name] = t
	}
	return result, nil
}

// compile loads weights, resolves graph inputs/outputs, and orders the
// nodes for execution.
func (m *Model) compile() error {
	graph := m.proto.Graph
	if graph == nil {
		return fmt.Errorf("model has no graph")
	}

	m.weights = make(map[string]*tensor.RawTensor, len(graph.Initializers))
	initNames := make(map[string]bool, len(graph.Initializers))
	for i := range graph.Initializers {
		init := &graph.Initializers[i]
		t, err := tensorFromProto(init)
		if err != nil {
			return fmt.Errorf("load initializer %s: %w", init.Name, err)
		}
		m.weights[init.Name] = t
		initNames[init.Name] = true
	}

	// Graph inputs minus initializers are the real model inputs.
	for i := range graph.Inputs {
		if !initNames[graph.Inputs[i].Name] {
			m.inputNames = append(m.inputNames, graph.Inputs[i].Name)
		}
	}
	for i := range graph.Outputs {
		m.outputNames = append(m.outputNames, graph.Outputs[i].Name)
	}

	sorted := topologicalSort(graph.Nodes)
	m.nodes = make([]*operators.Node, len(sorted))
	for i := range sorted {
		node, err := operatorNode(&sorted[i])
		if err != nil {
			return fmt.Errorf("node %s (%s): %w", sorted[i].Name, sorted[i].OpType, err)
		}
		m.nodes[i] = node
	}

	for _, opset := range m.proto.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			m.opsetVersion = opset.Version
			break
		}
	}
	return nil
}

// tensorFromProto materializes a weight tensor.
func tensorFromProto(proto *TensorProto) (*tensor.RawTensor, error) {
	shape := make(tensor.Shape, len(proto.Dims))
	for i, dim := range proto.Dims {
		shape[i] = int(dim)
	}

	dtype, err := protoTypeToDType(proto.DataType)
	if err != nil {
		return nil, err
	}
	t, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}

	switch {
	case len(proto.RawData) > 0:
		copy(t.Data(), proto.RawData)
	case len(proto.FloatData) > 0:
		copy(t.AsFloat32(), proto.FloatData)
	case len(proto.Int32Data) > 0:
		copy(t.AsInt32(), proto.Int32Data)
	case len(proto.Int64Data) > 0:
		copy(t.AsInt64(), proto.Int64Data)
	}
	return t, nil
}

func protoTypeToDType(onnxType int32) (tensor.DataType, error) {
	switch onnxType {
	case TensorProtoFloat:
		return tensor.Float32, nil
	case TensorProtoDouble:
		return tensor.Float64, nil
	case TensorProtoInt32:
		return tensor.Int32, nil
	case TensorProtoInt64:
		return tensor.Int64, nil
	case TensorProtoUint8:
		return tensor.Uint8, nil
	case TensorProtoBool:
		return tensor.Bool, nil
	default:
		return 0, fmt.Errorf("unsupported data type %d", onnxType)
	}
}

// operatorNode converts a NodeProto into the operators package's node type.
func operatorNode(proto *NodeProto) (*operators.Node, error) {
	attrs := make([]operators.Attribute, len(proto.Attributes))
	for i := range proto.Attributes {
		a := &proto.Attributes[i]
		attrs[i] = operators.Attribute{
			Name:    a.Name,
			Type:    a.Type,
			F:       a.F,
			I:       a.I,
			S:       a.S,
			Floats:  a.Floats,
			Ints:    a.Ints,
			Strings: a.Strings,
		}
		if a.T != nil {
			t, err := tensorFromProto(a.T)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %w", a.Name, err)
			}
			attrs[i].Tensor = t
		}
	}
	return &operators.Node{
		Name:       proto.Name,
		OpType:     proto.OpType,
		Domain:     proto.Domain,
		Inputs:     proto.Inputs,
		Outputs:    proto.Outputs,
		Attributes: attrs,
	}, nil
}

// topologicalSort orders nodes so every input is produced before use.
func topologicalSort(nodes []NodeProto) []NodeProto {
	producers := make(map[string]int, len(nodes))
	for i := range nodes {
		for _, output := range nodes[i].Outputs {
			producers[output] = i
		}
	}

	visited := make([]bool, len(nodes))
	sorted := make([]NodeProto, 0, len(nodes))

	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, input := range nodes[i].Inputs {
			if dep, ok := producers[input]; ok {
				visit(dep)
			}
		}
		sorted = append(sorted, nodes[i])
	}
	for i := range nodes {
		visit(i)
	}
	return sorted
}
