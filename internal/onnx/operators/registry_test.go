package operators

import (
	"math"
	"testing"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

func mustFloat32(t *testing.T, shape tensor.Shape, vals []float32) *tensor.RawTensor {
	t.Helper()
	out, err := tensor.FromFloat32(shape, vals)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func mustInt64(t *testing.T, shape tensor.Shape, vals []int64) *tensor.RawTensor {
	t.Helper()
	out, err := tensor.FromInt64(shape, vals)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func runOp(t *testing.T, node *Node, inputs ...*tensor.RawTensor) *tensor.RawTensor {
	t.Helper()
	outputs, err := NewRegistry().Execute(node, inputs)
	if err != nil {
		t.Fatalf("%s failed: %v", node.OpType, err)
	}
	if len(outputs) == 0 {
		t.Fatalf("%s produced no outputs", node.OpType)
	}
	return outputs[0]
}

func checkFloats(t *testing.T, got *tensor.RawTensor, want []float32) {
	t.Helper()
	vals := got.AsFloat32()
	if len(vals) != len(want) {
		t.Fatalf("got %d values, want %d", len(vals), len(want))
	}
	for i := range want {
		if math.Abs(float64(vals[i]-want[i])) > 1e-5 {
			t.Errorf("value[%d] = %v, want %v", i, vals[i], want[i])
		}
	}
}

func TestExecuteUnsupportedOp(t *testing.T) {
	node := &Node{OpType: "Imaginary"}
	if _, err := NewRegistry().Execute(node, nil); err == nil {
		t.Error("unknown op should fail")
	}
}

func TestRegisterOverride(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register("Relu", func(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
		called = true
		return inputs, nil
	})
	in := mustFloat32(t, tensor.Shape{1}, []float32{-1})
	if _, err := r.Execute(&Node{OpType: "Relu"}, []*tensor.RawTensor{in}); err != nil {
		t.Fatal(err)
	}
	if !called {
		t.Error("override handler not invoked")
	}
}

func TestReluHandler(t *testing.T) {
	in := mustFloat32(t, tensor.Shape{4}, []float32{-2, -0.5, 0, 3})
	out := runOp(t, &Node{OpType: "Relu"}, in)
	checkFloats(t, out, []float32{0, 0, 0, 3})
}

func TestLeakyReluAlpha(t *testing.T) {
	in := mustFloat32(t, tensor.Shape{2}, []float32{-10, 10})
	node := &Node{OpType: "LeakyRelu", Attributes: []Attribute{
		{Name: "alpha", F: 0.1},
	}}
	out := runOp(t, node, in)
	checkFloats(t, out, []float32{-1, 10})
}

func TestClipInputsOverrideAttrs(t *testing.T) {
	in := mustFloat32(t, tensor.Shape{3}, []float32{-5, 2, 9})
	minT := mustFloat32(t, tensor.Shape{1}, []float32{0})
	maxT := mustFloat32(t, tensor.Shape{1}, []float32{6})
	out := runOp(t, &Node{OpType: "Clip"}, in, minT, maxT)
	checkFloats(t, out, []float32{0, 2, 6})
}

func TestGemmTransB(t *testing.T) {
	a := mustFloat32(t, tensor.Shape{1, 2}, []float32{1, 2})
	b := mustFloat32(t, tensor.Shape{3, 2}, []float32{1, 0, 0, 1, 1, 1})
	c := mustFloat32(t, tensor.Shape{3}, []float32{10, 20, 30})
	node := &Node{OpType: "Gemm", Attributes: []Attribute{
		{Name: "transB", I: 1},
	}}
	out := runOp(t, node, a, b, c)
	checkFloats(t, out, []float32{11, 22, 33})
}

func TestConvHandler(t *testing.T) {
	// 1x1x3x3 input, 1x1x2x2 kernel of ones, stride 1, no padding.
	in := mustFloat32(t, tensor.Shape{1, 1, 3, 3}, []float32{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	w := mustFloat32(t, tensor.Shape{1, 1, 2, 2}, []float32{1, 1, 1, 1})
	node := &Node{OpType: "Conv", Attributes: []Attribute{
		{Name: "kernel_shape", Ints: []int64{2, 2}},
	}}
	out := runOp(t, node, in, w)
	if !out.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
		t.Fatalf("shape = %v, want [1 1 2 2]", out.Shape())
	}
	checkFloats(t, out, []float32{12, 16, 24, 28})
}

func TestMaxPoolHandler(t *testing.T) {
	in := mustFloat32(t, tensor.Shape{1, 1, 2, 4}, []float32{
		1, 3, 2, 8,
		5, 2, 7, 4,
	})
	node := &Node{OpType: "MaxPool", Attributes: []Attribute{
		{Name: "kernel_shape", Ints: []int64{2, 2}},
		{Name: "strides", Ints: []int64{2, 2}},
	}}
	out := runOp(t, node, in)
	checkFloats(t, out, []float32{5, 8})
}

func TestReshapeFromInput(t *testing.T) {
	in := mustFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
	shape := mustInt64(t, tensor.Shape{3}, []int64{1, -1, 2})
	out := runOp(t, &Node{OpType: "Reshape"}, in, shape)
	if !out.Shape().Equal(tensor.Shape{1, 3, 2}) {
		t.Errorf("shape = %v, want [1 3 2]", out.Shape())
	}
}

func TestSqueezeAxesInput(t *testing.T) {
	in := mustFloat32(t, tensor.Shape{1, 2, 1, 3}, make([]float32, 6))
	axes := mustInt64(t, tensor.Shape{1}, []int64{2})
	out := runOp(t, &Node{OpType: "Squeeze"}, in, axes)
	if !out.Shape().Equal(tensor.Shape{1, 2, 3}) {
		t.Errorf("shape = %v, want [1 2 3]", out.Shape())
	}
}

func TestShapeHandler(t *testing.T) {
	in := mustFloat32(t, tensor.Shape{2, 3, 48, 320}, make([]float32, 2*3*48*320))
	out := runOp(t, &Node{OpType: "Shape"}, in)
	vals := out.AsInt64()
	want := []int64{2, 3, 48, 320}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("shape[%d] = %d, want %d", i, vals[i], want[i])
		}
	}
}

func TestConstantValueAttr(t *testing.T) {
	val := mustFloat32(t, tensor.Shape{2}, []float32{6, 7})
	node := &Node{OpType: "Constant", Attributes: []Attribute{
		{Name: "value", Tensor: val},
	}}
	out := runOp(t, node)
	checkFloats(t, out, []float32{6, 7})
}

func TestDropoutIsIdentity(t *testing.T) {
	in := mustFloat32(t, tensor.Shape{3}, []float32{1, 2, 3})
	out := runOp(t, &Node{OpType: "Dropout"}, in)
	checkFloats(t, out, []float32{1, 2, 3})
}
