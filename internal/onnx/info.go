package onnx

import (
	"fmt"
	"os"
	"sort"
)

// TensorSpec describes a graph input or output. Dynamic dimensions
// carry their symbolic parameter name and a -1 size.
type TensorSpec struct {
	Name string   `json:"name"`
	Dims []int64  `json:"dims"`
	Syms []string `json:"symbolic_dims,omitempty"`
}

// OpCount is one entry of the operator histogram.
type OpCount struct {
	OpType string `json:"op_type"`
	Count  int    `json:"count"`
}

// ModelInfo is a structural summary of an ONNX file.
type ModelInfo struct {
	IRVersion       int64        `json:"ir_version"`
	OpsetVersion    int64        `json:"opset_version"`
	ProducerName    string       `json:"producer_name"`
	ProducerVersion string       `json:"producer_version"`
	GraphName       string       `json:"graph_name"`
	Inputs          []TensorSpec `json:"inputs"`
	Outputs         []TensorSpec `json:"outputs"`
	NodeCount       int          `json:"node_count"`
	WeightCount     int          `json:"weight_count"`
	Ops             []OpCount    `json:"ops"`
}

// ReadInfo parses an ONNX file and summarizes it without compiling or
// loading weights into tensors.
func ReadInfo(path string) (*ModelInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	proto, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return summarize(proto), nil
}

func summarize(proto *ModelProto) *ModelInfo {
	info := &ModelInfo{
		IRVersion:       proto.IRVersion,
		ProducerName:    proto.ProducerName,
		ProducerVersion: proto.ProducerVersion,
	}
	for _, opset := range proto.OpsetImport {
		if opset.Domain == "" || opset.Domain == "ai.onnx" {
			info.OpsetVersion = opset.Version
			break
		}
	}

	graph := proto.Graph
	if graph == nil {
		return info
	}
	info.GraphName = graph.Name
	info.NodeCount = len(graph.Nodes)
	info.WeightCount = len(graph.Initializers)

	initNames := make(map[string]bool, len(graph.Initializers))
	for i := range graph.Initializers {
		initNames[graph.Initializers[i].Name] = true
	}
	for i := range graph.Inputs {
		if initNames[graph.Inputs[i].Name] {
			continue
		}
		info.Inputs = append(info.Inputs, tensorSpec(&graph.Inputs[i]))
	}
	for i := range graph.Outputs {
		info.Outputs = append(info.Outputs, tensorSpec(&graph.Outputs[i]))
	}

	counts := make(map[string]int)
	for i := range graph.Nodes {
		counts[graph.Nodes[i].OpType]++
	}
	for op, n := range counts {
		info.Ops = append(info.Ops, OpCount{OpType: op, Count: n})
	}
	sort.Slice(info.Ops, func(i, j int) bool {
		if info.Ops[i].Count != info.Ops[j].Count {
			return info.Ops[i].Count > info.Ops[j].Count
		}
		return info.Ops[i].OpType < info.Ops[j].OpType
	})
	return info
}

func tensorSpec(vi *ValueInfoProto) TensorSpec {
	spec := TensorSpec{Name: vi.Name}
	if vi.Type == nil || vi.Type.TensorType == nil || vi.Type.TensorType.Shape == nil {
		return spec
	}
	for _, dim := range vi.Type.TensorType.Shape.Dims {
		if dim.DimParam != "" {
			spec.Dims = append(spec.Dims, -1)
			spec.Syms = append(spec.Syms, dim.DimParam)
		} else {
			spec.Dims = append(spec.Dims, dim.DimValue)
			spec.Syms = append(spec.Syms, "")
		}
	}
	return spec
}
