package tensor

import "fmt"

// Binary element-wise operations with NumPy-style broadcasting.
// Only float32 is supported: recognition model weights and activations
// are float32 throughout.

// Add computes a + b element-wise.
func Add(a, b *RawTensor) (*RawTensor, error) {
	return binaryOp("Add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub computes a - b element-wise.
func Sub(a, b *RawTensor) (*RawTensor, error) {
	return binaryOp("Sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul computes a * b element-wise.
func Mul(a, b *RawTensor) (*RawTensor, error) {
	return binaryOp("Mul", a, b, func(x, y float32) float32 { return x * y })
}

// Div computes a / b element-wise.
func Div(a, b *RawTensor) (*RawTensor, error) {
	return binaryOp("Div", a, b, func(x, y float32) float32 { return x / y })
}

// MulScalar computes x * s element-wise.
func MulScalar(x *RawTensor, s float32) (*RawTensor, error) {
	return unaryOp("MulScalar", x, func(v float32) float32 { return v * s })
}

// AddScalar computes x + s element-wise.
func AddScalar(x *RawTensor, s float32) (*RawTensor, error) {
	return unaryOp("AddScalar", x, func(v float32) float32 { return v + s })
}

func binaryOp(name string, a, b *RawTensor, fn func(x, y float32) float32) (*RawTensor, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%s: input tensor is nil", name)
	}
	if a.dtype != Float32 || b.dtype != Float32 {
		return nil, fmt.Errorf("%s: unsupported dtypes %s, %s", name, a.dtype, b.dtype)
	}

	outShape, err := Broadcast(a.shape, b.shape)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	result, err := NewRaw(outShape, Float32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	aData, bData, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()

	// Fast path: identical shapes need no index translation.
	if a.shape.Equal(b.shape) {
		for i := range out {
			out[i] = fn(aData[i], bData[i])
		}
		return result, nil
	}

	aStrides := broadcastStrides(a.shape, outShape)
	bStrides := broadcastStrides(b.shape, outShape)
	outStrides := outShape.Strides()

	for i := range out {
		aIdx, bIdx := 0, 0
		rem := i
		for d := 0; d < len(outShape); d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			aIdx += coord * aStrides[d]
			bIdx += coord * bStrides[d]
		}
		out[i] = fn(aData[aIdx], bData[bIdx])
	}
	return result, nil
}

func unaryOp(name string, x *RawTensor, fn func(v float32) float32) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("%s: input tensor is nil", name)
	}
	if x.dtype != Float32 {
		return nil, fmt.Errorf("%s: unsupported dtype %s", name, x.dtype)
	}
	result, err := NewRaw(x.shape, Float32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	in, out := x.AsFloat32(), result.AsFloat32()
	for i := range in {
		out[i] = fn(in[i])
	}
	return result, nil
}

// broadcastStrides maps an input shape onto the broadcast output shape,
// zeroing the stride for every dimension the input repeats along.
func broadcastStrides(in, out Shape) []int {
	inStrides := in.Strides()
	strides := make([]int, len(out))
	offset := len(out) - len(in)
	for d := range out {
		src := d - offset
		if src < 0 || in[src] == 1 && out[d] != 1 {
			continue // stays zero, value is repeated
		}
		strides[d] = inStrides[src]
	}
	return strides
}
