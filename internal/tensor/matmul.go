package tensor

import "fmt"

// MatMul multiplies two tensors following ONNX MatMul semantics.
//
// 2D inputs multiply as plain matrices. Higher-rank inputs are treated as
// stacks of matrices over the leading dimensions, which must match or be
// broadcastable from one side being absent. A 1D right-hand side is not
// supported; recognition graphs never produce one.
func MatMul(a, b *RawTensor) (*RawTensor, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("MatMul: input tensor is nil")
	}
	if a.dtype != Float32 || b.dtype != Float32 {
		return nil, fmt.Errorf("MatMul: unsupported dtypes %s, %s", a.dtype, b.dtype)
	}
	if len(a.shape) < 2 || len(b.shape) < 2 {
		return nil, fmt.Errorf("MatMul: inputs must have at least 2 dimensions, got %v and %v", a.shape, b.shape)
	}

	m := a.shape[len(a.shape)-2]
	k := a.shape[len(a.shape)-1]
	kb := b.shape[len(b.shape)-2]
	n := b.shape[len(b.shape)-1]
	if k != kb {
		return nil, fmt.Errorf("MatMul: inner dimensions differ: %v @ %v", a.shape, b.shape)
	}

	aBatch := a.shape[:len(a.shape)-2].NumElements()
	bBatch := b.shape[:len(b.shape)-2].NumElements()

	// The smaller batch side may be a single matrix reused across the stack.
	batch := aBatch
	var outBatchShape Shape
	switch {
	case aBatch == bBatch:
		outBatchShape = a.shape[:len(a.shape)-2]
	case bBatch == 1:
		outBatchShape = a.shape[:len(a.shape)-2]
	case aBatch == 1:
		batch = bBatch
		outBatchShape = b.shape[:len(b.shape)-2]
	default:
		return nil, fmt.Errorf("MatMul: batch dimensions differ: %v @ %v", a.shape, b.shape)
	}

	outShape := append(outBatchShape.Clone(), m, n)
	result, err := NewRaw(outShape, Float32)
	if err != nil {
		return nil, fmt.Errorf("MatMul: %w", err)
	}

	aData, bData, out := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
	for batchIdx := 0; batchIdx < batch; batchIdx++ {
		aOff := batchIdx % aBatch * m * k
		bOff := batchIdx % bBatch * k * n
		oOff := batchIdx * m * n
		matmul2D(out[oOff:oOff+m*n], aData[aOff:aOff+m*k], bData[bOff:bOff+k*n], m, k, n)
	}
	return result, nil
}

// matmul2D computes out = a @ b for row-major matrices.
// The k-inner loop is ordered for sequential access on both operands.
func matmul2D(out, a, b []float32, m, k, n int) {
	for i := 0; i < m; i++ {
		row := out[i*n : (i+1)*n]
		for j := range row {
			row[j] = 0
		}
		for kk := 0; kk < k; kk++ {
			av := a[i*k+kk]
			if av == 0 {
				continue
			}
			bRow := b[kk*n : (kk+1)*n]
			for j, bv := range bRow {
				row[j] += av * bv
			}
		}
	}
}
