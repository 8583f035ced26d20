package tensor

import "fmt"

// Reshape returns a view with a new shape. One dimension may be -1 and is
// inferred from the element count; 0 copies the corresponding input
// dimension, following ONNX Reshape rules.
func Reshape(x *RawTensor, newShape Shape) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Reshape: input tensor is nil")
	}

	resolved := newShape.Clone()
	inferAt := -1
	known := 1
	for i, dim := range resolved {
		switch {
		case dim == -1:
			if inferAt >= 0 {
				return nil, fmt.Errorf("Reshape: more than one -1 in shape %v", newShape)
			}
			inferAt = i
		case dim == 0:
			if i >= len(x.shape) {
				return nil, fmt.Errorf("Reshape: dimension %d copies input dim that does not exist", i)
			}
			resolved[i] = x.shape[i]
			known *= resolved[i]
		case dim > 0:
			known *= dim
		default:
			return nil, fmt.Errorf("Reshape: invalid dimension %d", dim)
		}
	}
	if inferAt >= 0 {
		if known == 0 || x.NumElements()%known != 0 {
			return nil, fmt.Errorf("Reshape: cannot infer dimension for %v from %v", newShape, x.shape)
		}
		resolved[inferAt] = x.NumElements() / known
	}

	return x.WithShape(resolved)
}

// Transpose permutes dimensions. Without axes the order is reversed.
func Transpose(x *RawTensor, axes ...int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Transpose: input tensor is nil")
	}
	rank := len(x.shape)
	if len(axes) == 0 {
		axes = make([]int, rank)
		for i := range axes {
			axes[i] = rank - 1 - i
		}
	}
	if len(axes) != rank {
		return nil, fmt.Errorf("Transpose: got %d axes for rank %d tensor", len(axes), rank)
	}
	seen := make([]bool, rank)
	outShape := make(Shape, rank)
	for i, a := range axes {
		if a < 0 || a >= rank || seen[a] {
			return nil, fmt.Errorf("Transpose: invalid axes %v", axes)
		}
		seen[a] = true
		outShape[i] = x.shape[a]
	}

	result, err := NewRaw(outShape, x.dtype)
	if err != nil {
		return nil, fmt.Errorf("Transpose: %w", err)
	}

	inStrides := x.shape.Strides()
	outStrides := outShape.Strides()
	elemSize := x.dtype.Size()
	total := x.NumElements()

	for i := 0; i < total; i++ {
		srcIdx := 0
		rem := i
		for d := 0; d < rank; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			srcIdx += coord * inStrides[axes[d]]
		}
		copy(result.data[i*elemSize:(i+1)*elemSize], x.data[srcIdx*elemSize:(srcIdx+1)*elemSize])
	}
	return result, nil
}

// Squeeze removes size-1 dimensions. With axes only those dimensions are
// removed; each must actually be 1.
func Squeeze(x *RawTensor, axes ...int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Squeeze: input tensor is nil")
	}
	rank := len(x.shape)
	drop := make(map[int]bool, len(axes))
	if len(axes) == 0 {
		for i, dim := range x.shape {
			if dim == 1 {
				drop[i] = true
			}
		}
	} else {
		for _, a := range axes {
			if a < 0 {
				a += rank
			}
			if a < 0 || a >= rank {
				return nil, fmt.Errorf("Squeeze: axis %d out of range for rank %d", a, rank)
			}
			if x.shape[a] != 1 {
				return nil, fmt.Errorf("Squeeze: dimension %d is %d, not 1", a, x.shape[a])
			}
			drop[a] = true
		}
	}

	outShape := make(Shape, 0, rank-len(drop))
	for i, dim := range x.shape {
		if !drop[i] {
			outShape = append(outShape, dim)
		}
	}
	return x.WithShape(outShape)
}

// Unsqueeze inserts size-1 dimensions at the given positions in the
// output shape.
func Unsqueeze(x *RawTensor, axes ...int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Unsqueeze: input tensor is nil")
	}
	outRank := len(x.shape) + len(axes)
	insert := make(map[int]bool, len(axes))
	for _, a := range axes {
		if a < 0 {
			a += outRank
		}
		if a < 0 || a >= outRank || insert[a] {
			return nil, fmt.Errorf("Unsqueeze: invalid axes %v for rank %d input", axes, len(x.shape))
		}
		insert[a] = true
	}

	outShape := make(Shape, 0, outRank)
	src := 0
	for i := 0; i < outRank; i++ {
		if insert[i] {
			outShape = append(outShape, 1)
			continue
		}
		outShape = append(outShape, x.shape[src])
		src++
	}
	return x.WithShape(outShape)
}

// Flatten collapses a tensor into 2D around the given axis:
// dimensions before axis become rows, the rest become columns.
func Flatten(x *RawTensor, axis int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Flatten: input tensor is nil")
	}
	rank := len(x.shape)
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis > rank {
		return nil, fmt.Errorf("Flatten: axis %d out of range for rank %d", axis, rank)
	}
	rows := x.shape[:axis].NumElements()
	cols := x.shape[axis:].NumElements()
	return x.WithShape(Shape{rows, cols})
}

// Concat joins tensors along the given axis. All inputs must share dtype
// and every dimension except the concat axis.
func Concat(tensors []*RawTensor, axis int) (*RawTensor, error) {
	if len(tensors) == 0 {
		return nil, fmt.Errorf("Concat: no input tensors")
	}
	first := tensors[0]
	rank := len(first.shape)
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return nil, fmt.Errorf("Concat: axis %d out of range for rank %d", axis, rank)
	}

	outShape := first.shape.Clone()
	outShape[axis] = 0
	for _, t := range tensors {
		if t.dtype != first.dtype {
			return nil, fmt.Errorf("Concat: mixed dtypes %s and %s", first.dtype, t.dtype)
		}
		if len(t.shape) != rank {
			return nil, fmt.Errorf("Concat: mixed ranks %d and %d", rank, len(t.shape))
		}
		for d, dim := range t.shape {
			if d != axis && dim != first.shape[d] {
				return nil, fmt.Errorf("Concat: shapes %v and %v differ outside axis %d", first.shape, t.shape, axis)
			}
		}
		outShape[axis] += t.shape[axis]
	}

	result, err := NewRaw(outShape, first.dtype)
	if err != nil {
		return nil, fmt.Errorf("Concat: %w", err)
	}

	// Copy block-wise: each input contributes a contiguous run per outer index.
	elemSize := first.dtype.Size()
	outer := outShape[:axis].NumElements()
	innerBytes := outShape[axis+1:].NumElements() * elemSize
	outRowBytes := outShape[axis] * innerBytes

	offset := 0
	for _, t := range tensors {
		rowBytes := t.shape[axis] * innerBytes
		for o := 0; o < outer; o++ {
			src := t.data[o*rowBytes : (o+1)*rowBytes]
			dst := result.data[o*outRowBytes+offset:]
			copy(dst, src)
		}
		offset += rowBytes
	}
	return result, nil
}

// Gather selects slices along an axis using an index tensor, following
// ONNX Gather semantics. Negative indices count from the end of the axis.
func Gather(x, indices *RawTensor, axis int) (*RawTensor, error) {
	if x == nil || indices == nil {
		return nil, fmt.Errorf("Gather: input tensor is nil")
	}
	rank := len(x.shape)
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		return nil, fmt.Errorf("Gather: axis %d out of range for rank %d", axis, rank)
	}
	var idx []int64
	switch indices.dtype {
	case Int64:
		idx = indices.AsInt64()
	case Int32:
		idx32 := indices.AsInt32()
		idx = make([]int64, len(idx32))
		for i, v := range idx32 {
			idx[i] = int64(v)
		}
	default:
		return nil, fmt.Errorf("Gather: indices must be int32 or int64, got %s", indices.dtype)
	}
	axisSize := x.shape[axis]

	outShape := make(Shape, 0, rank-1+len(indices.shape))
	outShape = append(outShape, x.shape[:axis]...)
	outShape = append(outShape, indices.shape...)
	outShape = append(outShape, x.shape[axis+1:]...)

	result, err := NewRaw(outShape, x.dtype)
	if err != nil {
		return nil, fmt.Errorf("Gather: %w", err)
	}

	elemSize := x.dtype.Size()
	outer := x.shape[:axis].NumElements()
	innerBytes := x.shape[axis+1:].NumElements() * elemSize
	srcRowBytes := axisSize * innerBytes
	dstRowBytes := len(idx) * innerBytes

	for o := 0; o < outer; o++ {
		for i, rawIdx := range idx {
			j := int(rawIdx)
			if j < 0 {
				j += axisSize
			}
			if j < 0 || j >= axisSize {
				return nil, fmt.Errorf("Gather: index %d out of range for axis size %d", rawIdx, axisSize)
			}
			src := x.data[o*srcRowBytes+j*innerBytes:]
			dst := result.data[o*dstRowBytes+i*innerBytes:]
			copy(dst[:innerBytes], src[:innerBytes])
		}
	}
	return result, nil
}

// Cast converts a tensor to another element type.
func Cast(x *RawTensor, dtype DataType) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Cast: input tensor is nil")
	}
	if x.dtype == dtype {
		return x.Clone(), nil
	}

	result, err := NewRaw(x.shape, dtype)
	if err != nil {
		return nil, fmt.Errorf("Cast: %w", err)
	}

	read, err := readAsFloat64(x)
	if err != nil {
		return nil, fmt.Errorf("Cast: %w", err)
	}
	for i := 0; i < x.NumElements(); i++ {
		v := read(i)
		switch dtype {
		case Float32:
			result.AsFloat32()[i] = float32(v)
		case Float64:
			result.AsFloat64()[i] = v
		case Int32:
			result.AsInt32()[i] = int32(v)
		case Int64:
			result.AsInt64()[i] = int64(v)
		case Uint8:
			result.AsUint8()[i] = uint8(v)
		case Bool:
			result.AsBool()[i] = v != 0
		default:
			return nil, fmt.Errorf("Cast: unsupported target dtype %s", dtype)
		}
	}
	return result, nil
}

func readAsFloat64(x *RawTensor) (func(i int) float64, error) {
	switch x.dtype {
	case Float32:
		data := x.AsFloat32()
		return func(i int) float64 { return float64(data[i]) }, nil
	case Float64:
		data := x.AsFloat64()
		return func(i int) float64 { return data[i] }, nil
	case Int32:
		data := x.AsInt32()
		return func(i int) float64 { return float64(data[i]) }, nil
	case Int64:
		data := x.AsInt64()
		return func(i int) float64 { return float64(data[i]) }, nil
	case Uint8:
		data := x.AsUint8()
		return func(i int) float64 { return float64(data[i]) }, nil
	case Bool:
		data := x.AsBool()
		return func(i int) float64 {
			if data[i] {
				return 1
			}
			return 0
		}, nil
	default:
		return nil, fmt.Errorf("unsupported source dtype %s", x.dtype)
	}
}
