package tensor

import (
	"fmt"
	"unsafe"
)

// RawTensor is a dense, contiguous CPU tensor. The element buffer is held
// as bytes and reinterpreted through the typed accessors, which keeps weight
// loading a plain copy from the model file.
type RawTensor struct {
	data  []byte
	shape Shape
	dtype DataType
}

// NewRaw allocates a zero-filled tensor with the given shape and type.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return &RawTensor{
		data:  make([]byte, shape.NumElements()*dtype.Size()),
		shape: shape.Clone(),
		dtype: dtype,
	}, nil
}

// FromFloat32 builds a float32 tensor around the given values.
// The slice is copied.
func FromFloat32(shape Shape, values []float32) (*RawTensor, error) {
	t, err := NewRaw(shape, Float32)
	if err != nil {
		return nil, err
	}
	if len(values) != t.NumElements() {
		return nil, fmt.Errorf("shape %v needs %d values, got %d", shape, t.NumElements(), len(values))
	}
	copy(t.AsFloat32(), values)
	return t, nil
}

// FromInt64 builds an int64 tensor around the given values.
// The slice is copied.
func FromInt64(shape Shape, values []int64) (*RawTensor, error) {
	t, err := NewRaw(shape, Int64)
	if err != nil {
		return nil, err
	}
	if len(values) != t.NumElements() {
		return nil, fmt.Errorf("shape %v needs %d values, got %d", shape, t.NumElements(), len(values))
	}
	copy(t.AsInt64(), values)
	return t, nil
}

// Shape returns the tensor's dimensions.
func (r *RawTensor) Shape() Shape { return r.shape }

// DType returns the tensor's element type.
func (r *RawTensor) DType() DataType { return r.dtype }

// NumElements returns the total element count.
func (r *RawTensor) NumElements() int { return r.shape.NumElements() }

// Data returns the raw byte buffer. Writes through this slice mutate
// the tensor.
func (r *RawTensor) Data() []byte { return r.data }

// AsFloat32 reinterprets the buffer as []float32.
// Panics if the dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	r.assertDType(Float32)
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 reinterprets the buffer as []float64.
// Panics if the dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	r.assertDType(Float64)
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt32 reinterprets the buffer as []int32.
// Panics if the dtype is not Int32.
func (r *RawTensor) AsInt32() []int32 {
	r.assertDType(Int32)
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt64 reinterprets the buffer as []int64.
// Panics if the dtype is not Int64.
func (r *RawTensor) AsInt64() []int64 {
	r.assertDType(Int64)
	return unsafe.Slice((*int64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsUint8 reinterprets the buffer as []uint8.
// Panics if the dtype is not Uint8.
func (r *RawTensor) AsUint8() []uint8 {
	r.assertDType(Uint8)
	return r.data
}

// AsBool reinterprets the buffer as []bool.
// Panics if the dtype is not Bool.
func (r *RawTensor) AsBool() []bool {
	r.assertDType(Bool)
	return unsafe.Slice((*bool)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Clone returns a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{data: data, shape: r.shape.Clone(), dtype: r.dtype}
}

// WithShape returns a view over the same buffer with a new shape.
// The element count must match.
func (r *RawTensor) WithShape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("cannot view %v tensor as %v: element counts differ", r.shape, shape)
	}
	return &RawTensor{data: r.data, shape: shape.Clone(), dtype: r.dtype}, nil
}

func (r *RawTensor) assertDType(want DataType) {
	if r.dtype != want {
		panic(fmt.Sprintf("tensor dtype is %s, not %s", r.dtype, want))
	}
}
