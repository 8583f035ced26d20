package tensor

import (
	"fmt"
	"math"
)

// ReLU computes max(0, x) element-wise.
func ReLU(x *RawTensor) (*RawTensor, error) {
	return unaryOp("ReLU", x, func(v float32) float32 {
		if v < 0 {
			return 0
		}
		return v
	})
}

// LeakyReLU computes x for x >= 0 and alpha*x otherwise.
func LeakyReLU(x *RawTensor, alpha float32) (*RawTensor, error) {
	return unaryOp("LeakyReLU", x, func(v float32) float32 {
		if v < 0 {
			return alpha * v
		}
		return v
	})
}

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func Sigmoid(x *RawTensor) (*RawTensor, error) {
	return unaryOp("Sigmoid", x, sigmoid)
}

// Tanh computes the hyperbolic tangent element-wise.
func Tanh(x *RawTensor) (*RawTensor, error) {
	return unaryOp("Tanh", x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// HardSigmoid computes max(0, min(1, alpha*x + beta)) element-wise.
func HardSigmoid(x *RawTensor, alpha, beta float32) (*RawTensor, error) {
	return unaryOp("HardSigmoid", x, func(v float32) float32 {
		return clampUnit(alpha*v + beta)
	})
}

// HardSwish computes x * max(0, min(1, x/6 + 0.5)) element-wise.
// The mobile recognition backbones lean on this activation heavily.
func HardSwish(x *RawTensor) (*RawTensor, error) {
	return unaryOp("HardSwish", x, func(v float32) float32 {
		return v * clampUnit(v/6+0.5)
	})
}

// Swish computes x * sigmoid(x) element-wise.
func Swish(x *RawTensor) (*RawTensor, error) {
	return unaryOp("Swish", x, func(v float32) float32 {
		return v * sigmoid(v)
	})
}

// Clip limits values to the [minVal, maxVal] range element-wise.
func Clip(x *RawTensor, minVal, maxVal float32) (*RawTensor, error) {
	if minVal > maxVal {
		return nil, fmt.Errorf("Clip: min %v > max %v", minVal, maxVal)
	}
	return unaryOp("Clip", x, func(v float32) float32 {
		if v < minVal {
			return minVal
		}
		if v > maxVal {
			return maxVal
		}
		return v
	})
}

// Exp computes e^x element-wise.
func Exp(x *RawTensor) (*RawTensor, error) {
	return unaryOp("Exp", x, func(v float32) float32 {
		return float32(math.Exp(float64(v)))
	})
}

// Sqrt computes the square root element-wise.
func Sqrt(x *RawTensor) (*RawTensor, error) {
	return unaryOp("Sqrt", x, func(v float32) float32 {
		return float32(math.Sqrt(float64(v)))
	})
}

// Softmax normalizes values to probabilities along the given axis.
// A negative axis counts from the end.
func Softmax(x *RawTensor, axis int) (*RawTensor, error) {
	if x == nil {
		return nil, fmt.Errorf("Softmax: input tensor is nil")
	}
	if x.dtype != Float32 {
		return nil, fmt.Errorf("Softmax: unsupported dtype %s", x.dtype)
	}
	if axis < 0 {
		axis += len(x.shape)
	}
	if axis < 0 || axis >= len(x.shape) {
		return nil, fmt.Errorf("Softmax: axis %d out of range for %d dimensions", axis, len(x.shape))
	}

	result, err := NewRaw(x.shape, Float32)
	if err != nil {
		return nil, fmt.Errorf("Softmax: %w", err)
	}

	in, out := x.AsFloat32(), result.AsFloat32()
	outer := 1
	for i := 0; i < axis; i++ {
		outer *= x.shape[i]
	}
	axisSize := x.shape[axis]
	inner := 1
	for i := axis + 1; i < len(x.shape); i++ {
		inner *= x.shape[i]
	}

	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*axisSize*inner + i

			// Subtract the max before exponentiating for stability.
			maxVal := in[base]
			for a := 1; a < axisSize; a++ {
				if v := in[base+a*inner]; v > maxVal {
					maxVal = v
				}
			}
			var sum float32
			for a := 0; a < axisSize; a++ {
				idx := base + a*inner
				out[idx] = float32(math.Exp(float64(in[idx] - maxVal)))
				sum += out[idx]
			}
			for a := 0; a < axisSize; a++ {
				out[base+a*inner] /= sum
			}
		}
	}
	return result, nil
}

func sigmoid(v float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(v))))
}

func clampUnit(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
