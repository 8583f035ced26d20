package operators

import (
	"fmt"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

func (r *Registry) registerActivations() {
	r.Register("Relu", handleRelu)
	r.Register("LeakyRelu", handleLeakyRelu)
	r.Register("Sigmoid", handleSigmoid)
	r.Register("Tanh", handleTanh)
	r.Register("Softmax", handleSoftmax)
	r.Register("HardSigmoid", handleHardSigmoid)
	r.Register("HardSwish", handleHardSwish)
	r.Register("Clip", handleClip)
}

func handleRelu(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Relu", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.ReLU(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleLeakyRelu(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("LeakyRelu", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.LeakyReLU(inputs[0], node.AttrFloat("alpha", 0.01))
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleSigmoid(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Sigmoid", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.Sigmoid(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleTanh(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Tanh", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.Tanh(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleSoftmax(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Softmax", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.Softmax(inputs[0], int(node.AttrInt("axis", -1)))
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleHardSigmoid(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("HardSigmoid", inputs, 1); err != nil {
		return nil, err
	}
	alpha := node.AttrFloat("alpha", 0.2)
	beta := node.AttrFloat("beta", 0.5)
	out, err := tensor.HardSigmoid(inputs[0], alpha, beta)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleHardSwish(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("HardSwish", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.HardSwish(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleClip(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 1 || inputs[0] == nil {
		return nil, fmt.Errorf("Clip requires at least 1 input")
	}

	// Opset 11 moved min/max from attributes to optional inputs.
	minVal := node.AttrFloat("min", -3.4028235e+38)
	maxVal := node.AttrFloat("max", 3.4028235e+38)
	if len(inputs) >= 2 && inputs[1] != nil {
		minVal = inputs[1].AsFloat32()[0]
	}
	if len(inputs) >= 3 && inputs[2] != nil {
		maxVal = inputs[2].AsFloat32()[0]
	}

	out, err := tensor.Clip(inputs[0], minVal, maxVal)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}
