package operators

import (
	"fmt"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

func (r *Registry) registerMath() {
	r.Register("Add", binaryHandler("Add", tensor.Add))
	r.Register("Sub", binaryHandler("Sub", tensor.Sub))
	r.Register("Mul", binaryHandler("Mul", tensor.Mul))
	r.Register("Div", binaryHandler("Div", tensor.Div))
	r.Register("MatMul", binaryHandler("MatMul", tensor.MatMul))
	r.Register("Gemm", handleGemm)
	r.Register("Sqrt", handleSqrt)
	r.Register("Exp", handleExp)
}

func binaryHandler(name string, fn func(a, b *tensor.RawTensor) (*tensor.RawTensor, error)) Handler {
	return func(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
		if err := wantInputs(name, inputs, 2); err != nil {
			return nil, err
		}
		out, err := fn(inputs[0], inputs[1])
		if err != nil {
			return nil, err
		}
		return []*tensor.RawTensor{out}, nil
	}
}

// handleGemm computes Y = alpha*op(A)*op(B) + beta*C.
func handleGemm(node *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if len(inputs) < 2 || inputs[0] == nil || inputs[1] == nil {
		return nil, fmt.Errorf("Gemm requires at least 2 inputs, got %d", len(inputs))
	}

	alpha := node.AttrFloat("alpha", 1)
	beta := node.AttrFloat("beta", 1)

	a, b := inputs[0], inputs[1]
	var err error
	if node.AttrInt("transA", 0) != 0 {
		if a, err = tensor.Transpose(a); err != nil {
			return nil, fmt.Errorf("Gemm: %w", err)
		}
	}
	if node.AttrInt("transB", 0) != 0 {
		if b, err = tensor.Transpose(b); err != nil {
			return nil, fmt.Errorf("Gemm: %w", err)
		}
	}

	out, err := tensor.MatMul(a, b)
	if err != nil {
		return nil, fmt.Errorf("Gemm: %w", err)
	}
	if alpha != 1 {
		if out, err = tensor.MulScalar(out, alpha); err != nil {
			return nil, fmt.Errorf("Gemm: %w", err)
		}
	}
	if len(inputs) >= 3 && inputs[2] != nil && beta != 0 {
		c := inputs[2]
		if beta != 1 {
			if c, err = tensor.MulScalar(c, beta); err != nil {
				return nil, fmt.Errorf("Gemm: %w", err)
			}
		}
		if out, err = tensor.Add(out, c); err != nil {
			return nil, fmt.Errorf("Gemm: %w", err)
		}
	}
	return []*tensor.RawTensor{out}, nil
}

func handleSqrt(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Sqrt", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.Sqrt(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}

func handleExp(_ *Node, inputs []*tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if err := wantInputs("Exp", inputs, 1); err != nil {
		return nil, err
	}
	out, err := tensor.Exp(inputs[0])
	if err != nil {
		return nil, err
	}
	return []*tensor.RawTensor{out}, nil
}
