package operators

import (
	"fmt"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

func (r *Registry) registerShape() {
	r.Register("Reshape", handleReshape)
	r.Register("Transpose", handleTranspose)
	r.Register("Squeeze", handleSqueeze)
	r.Register("Unsqueeze", handleUnsqueeze)
	r.Register("Flatten", handleFlatten)
	r.Register("Concat", handleConcat)
	r.Register("Gather", handleGather)
	r.Register("Shape", handleShape)
	r.Register("Cast", handleCast)
	r.Register("Identity", handleIdentity)
	r.Register("Dropout", handleDropout)
	r.Register("Constant", handleConstant)
}

func handleReshape(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Reshape", inputs, 2); err != nil {
		return nil, err
	}
	dims := inputs[1].AsInt64()
	shape := make(tensor.Shape, len(dims))
	for i, v := range dims {
		shape[i] = int(v)
	}
	out, err := tensor.Reshape(inputs[0], shape)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleTranspose(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Transpose", inputs, 1); err != nil {
		return nil, err
	}
	perm := node.AttrInts("perm")
	axes := make([]int, len(perm))
	for i, v := range perm {
		axes[i] = int(v)
	}
	out, err := tensor.Transpose(inputs[0], axes...)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

// axesFromNode reads op axes, preferring the opset-13 input tensor over
// the legacy attribute.
func axesFromNode(node *Node, inputs []*tensor.RawTensor) []int {
	var raw []int64
	if len(inputs) >= 2 && inputs[1] != nil {
		raw = inputs[1].AsInt64()
	} else {
		raw = node.AttrInts("axes")
	}
	axes := make([]int, len(raw))
	for i, v := range raw {
		axes[i] = int(v)
	}
	return axes
}

func handleSqueeze(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 1 || inputs[0] == nil {
		return nil, fmt.Errorf("Squeeze requires at least 1 input")
	}
	out, err := tensor.Squeeze(inputs[0], axesFromNode(node, inputs)...)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleUnsqueeze(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 1 || inputs[0] == nil {
		return nil, fmt.Errorf("Unsqueeze requires at least 1 input")
	}
	out, err := tensor.Unsqueeze(inputs[0], axesFromNode(node, inputs)...)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleFlatten(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Flatten", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.Flatten(inputs[0], int(node.AttrInt("axis", 1)))
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleConcat(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("Concat requires at least 1 input")
	}
	out, err := tensor.Concat(inputs, int(node.AttrInt("axis", 0)))
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleGather(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Gather", inputs, 2); err != nil {
		return nil, err
	}
	out, err := tensor.Gather(inputs[0], inputs[1], int(node.AttrInt("axis", 0)))
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleShape(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Shape", inputs, 1); err != nil {
		return nil, err
	}
	shape := inputs[0].Shape()
	dims := make([]int64, len(shape))
	for i, d := range shape {
		dims[i] = int64(d)
	}
	out, err := tensor.FromInt64(tensor.Shape{len(dims)}, dims)
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleCast(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Cast", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.Cast(inputs[0], onnxTypeToDType(int32(node.AttrInt("to", 1))))
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleIdentity(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Identity", inputs, 1); err != nil {
		return nil, err
	}
	return inputs, nil
}

// Dropout is identity at inference time.
func handleDropout(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 1 || inputs[0] == nil {
		return nil, fmt.Errorf("Dropout requires at least 1 input")
	}
	return []*tensor.RawTensor{inputs[0]}, nil
}

func handleConstant(node *Node, _ []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if t := node.AttrTensor("value"); t != nil {
		return []*tensor.RawTensor{t}, nil
	}
	if a := node.attr("value_float"); a != nil {
		out, err := tensor.FromFloat32(tensor.Shape{1}, []float32{a.F})
		if err != nil {
			return nil, err
		}
		return []*tensor.RawTensor{out}, nil
	}
	if a := node.attr("value_int"); a != nil {
		out, err := tensor.FromInt64(tensor.Shape{1}, []int64{a.I})
		if err != nil {
			return nil, err
		}
		return []*tensor.RawTensor{out}, nil
	}
	if a := node.attr("value_floats"); a != nil {
		out, err := tensor.FromFloat32(tensor.Shape{len(a.Floats)}, a.Floats)
		if err != nil {
			return nil, err
		}
		return []*tensor.RawTensor{out}, nil
	}
	if a := node.attr("value_ints"); a != nil {
		out, err := tensor.FromInt64(tensor.Shape{len(a.Ints)}, a.Ints)
		if err != nil {
			return nil, err
		}
		return []*tensor.RawTensor{out}, nil
	}
	return nil, fmt.Errorf("Constant: no value attribute")
}

// onnxTypeToDType maps TensorProto data types onto tensor dtypes.
// Unknown types fall back to float32.
func onnxTypeToDType(t int32) tensor.DataType {
	switch t {
	case 1:
		return tensor.Float32
	case 11:
		return tensor.Float64
	case 6:
		return tensor.Int32
	case 7:
		return tensor.Int64
	case 2:
		return tensor.Uint8
	case 9:
		return tensor.Bool
	default:
		return tensor.Float32
	}
}
