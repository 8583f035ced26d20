package operators

import (
	"fmt"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

func (r *Registry) registerNN() {
	r.Register("Conv", handleConv)
	r.Register("BatchNormalization", handleBatchNorm)
	r.Register("MaxPool", handleMaxPool)
	r.Register("AveragePool", handleAveragePool)
	r.Register("GlobalAveragePool", handleGlobalAveragePool)
}

func handleConv(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 2 || inputs[0] == nil || inputs[1] == nil {
		return nil, fmt.Errorf("Conv requires input and weight, got %d inputs", len(inputs))
	}
	var bias *tensor.RawTensor
	if len(inputs) >= 3 {
		bias = inputs[2]
	}

	if pad := node.AttrString("auto_pad", "NOTSET"); pad != "NOTSET" && pad != "VALID" {
		return nil, fmt.Errorf("Conv: auto_pad %q is not supported, explicit pads required", pad)
	}

	strides := intsOrDefault(node.AttrInts("strides"), 2, 1)
	dilations := intsOrDefault(node.AttrInts("dilations"), 2, 1)
	pads := intsOrDefault(node.AttrInts("pads"), 4, 0)

	out, err := tensor.Conv2D(inputs[0], inputs[1], bias, tensor.Conv2DParams{
		StrideH: strides[0], StrideW: strides[1],
		PadTop: pads[0], PadLeft: pads[1], PadBottom: pads[2], PadRight: pads[3],
		DilationH: dilations[0], DilationW: dilations[1],
		Groups: int(node.AttrInt("group", 1)),
	})
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleBatchNorm(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("BatchNormalization", inputs, 5); err != nil {
		return nil, err
	}
	out, err := tensor.BatchNorm(
		inputs[0], inputs[1], inputs[2], inputs[3], inputs[4],
		node.AttrFloat("epsilon", 1e-5),
	)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleMaxPool(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("MaxPool", inputs, 1); err != nil {
		return nil, err
	}
	params, err := poolParams(node)
	if err != nil {
		return nil, fmt.Errorf("MaxPool: %w", err)
	}
	out, err := tensor.MaxPool2D(inputs[0], params)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleAveragePool(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("AveragePool", inputs, 1); err != nil {
		return nil, err
	}
	params, err := poolParams(node)
	if err != nil {
		return nil, fmt.Errorf("AveragePool: %w", err)
	}
	out, err := tensor.AvgPool2D(inputs[0], params)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleGlobalAveragePool(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("GlobalAveragePool", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.GlobalAvgPool2D(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func poolParams(node *Node) (tensor.PoolParams, error) {
	kernel := node.AttrInts("kernel_shape")
	if len(kernel) != 2 {
		return tensor.PoolParams{}, fmt.Errorf("kernel_shape must have 2 values, got %d", len(kernel))
	}
	strides := intsOrDefault(node.AttrInts("strides"), 2, 1)
	pads := intsOrDefault(node.AttrInts("pads"), 4, 0)
	return tensor.PoolParams{
		KernelH: int(kernel[0]), KernelW: int(kernel[1]),
		StrideH: strides[0], StrideW: strides[1],
		PadTop: pads[0], PadLeft: pads[1], PadBottom: pads[2], PadRight: pads[3],
		CeilMode: node.AttrInt("ceil_mode", 0) != 0,
	}, nil
}
