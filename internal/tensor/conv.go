package tensor

import (
	"fmt"
	"math"
)

// Conv2DParams describes an ONNX Conv node in NCHW layout.
// Pads follow the ONNX order [top, left, bottom, right].
type Conv2DParams struct {
	StrideH, StrideW     int
	PadTop, PadLeft      int
	PadBottom, PadRight  int
	DilationH, DilationW int
	Groups               int
}

// Conv2D performs 2D convolution.
//
// Input:  [N, C_in, H, W]
// Kernel: [C_out, C_in/groups, K_h, K_w]
// Bias:   [C_out] or nil
// Output: [N, C_out, H_out, W_out]
//
// Grouped convolution covers the depthwise layers of mobile recognition
// backbones (groups == C_in, one kernel channel per group).
func Conv2D(input, kernel, bias *RawTensor, p Conv2DParams) (*RawTensor, error) {
	if input == nil || kernel == nil {
		return nil, fmt.Errorf("Conv2D: input tensor is nil")
	}
	if len(input.shape) != 4 || len(kernel.shape) != 4 {
		return nil, fmt.Errorf("Conv2D: expected 4D input and kernel, got %v and %v", input.shape, kernel.shape)
	}
	if p.Groups < 1 {
		p.Groups = 1
	}

	n, cIn, h, w := input.shape[0], input.shape[1], input.shape[2], input.shape[3]
	cOut, kc, kh, kw := kernel.shape[0], kernel.shape[1], kernel.shape[2], kernel.shape[3]

	if cIn%p.Groups != 0 || cOut%p.Groups != 0 {
		return nil, fmt.Errorf("Conv2D: channels (in=%d, out=%d) not divisible by groups %d", cIn, cOut, p.Groups)
	}
	if kc != cIn/p.Groups {
		return nil, fmt.Errorf("Conv2D: kernel expects %d input channels per group, input has %d", kc, cIn/p.Groups)
	}
	if bias != nil && bias.NumElements() != cOut {
		return nil, fmt.Errorf("Conv2D: bias has %d elements, want %d", bias.NumElements(), cOut)
	}

	effKH := (kh-1)*p.DilationH + 1
	effKW := (kw-1)*p.DilationW + 1
	hOut := (h+p.PadTop+p.PadBottom-effKH)/p.StrideH + 1
	wOut := (w+p.PadLeft+p.PadRight-effKW)/p.StrideW + 1
	if hOut <= 0 || wOut <= 0 {
		return nil, fmt.Errorf("Conv2D: output size %dx%d is not positive", hOut, wOut)
	}

	result, err := NewRaw(Shape{n, cOut, hOut, wOut}, Float32)
	if err != nil {
		return nil, fmt.Errorf("Conv2D: %w", err)
	}

	in := input.AsFloat32()
	kern := kernel.AsFloat32()
	out := result.AsFloat32()
	var biasData []float32
	if bias != nil {
		biasData = bias.AsFloat32()
	}

	cInPerGroup := cIn / p.Groups
	cOutPerGroup := cOut / p.Groups

	for batch := 0; batch < n; batch++ {
		for oc := 0; oc < cOut; oc++ {
			group := oc / cOutPerGroup
			icBase := group * cInPerGroup
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					var sum float32
					if biasData != nil {
						sum = biasData[oc]
					}
					hStart := oh*p.StrideH - p.PadTop
					wStart := ow*p.StrideW - p.PadLeft
					for ic := 0; ic < cInPerGroup; ic++ {
						inChan := in[(batch*cIn+icBase+ic)*h*w:]
						kChan := kern[(oc*cInPerGroup+ic)*kh*kw:]
						for y := 0; y < kh; y++ {
							ih := hStart + y*p.DilationH
							if ih < 0 || ih >= h {
								continue
							}
							for x := 0; x < kw; x++ {
								iw := wStart + x*p.DilationW
								if iw < 0 || iw >= w {
									continue
								}
								sum += inChan[ih*w+iw] * kChan[y*kw+x]
							}
						}
					}
					out[((batch*cOut+oc)*hOut+oh)*wOut+ow] = sum
				}
			}
		}
	}
	return result, nil
}

// PoolParams describes an ONNX pooling node in NCHW layout.
type PoolParams struct {
	KernelH, KernelW    int
	StrideH, StrideW    int
	PadTop, PadLeft     int
	PadBottom, PadRight int
	CeilMode            bool
}

// MaxPool2D performs 2D max pooling over [N, C, H, W] input.
func MaxPool2D(input *RawTensor, p PoolParams) (*RawTensor, error) {
	return pool2D("MaxPool2D", input, p, true)
}

// AvgPool2D performs 2D average pooling over [N, C, H, W] input.
// Padded positions are excluded from the average.
func AvgPool2D(input *RawTensor, p PoolParams) (*RawTensor, error) {
	return pool2D("AvgPool2D", input, p, false)
}

func pool2D(name string, input *RawTensor, p PoolParams, isMax bool) (*RawTensor, error) {
	if input == nil {
		return nil, fmt.Errorf("%s: input tensor is nil", name)
	}
	if len(input.shape) != 4 {
		return nil, fmt.Errorf("%s: expected 4D input, got %v", name, input.shape)
	}

	n, c, h, w := input.shape[0], input.shape[1], input.shape[2], input.shape[3]
	hOut := poolOutSize(h, p.KernelH, p.StrideH, p.PadTop+p.PadBottom, p.CeilMode)
	wOut := poolOutSize(w, p.KernelW, p.StrideW, p.PadLeft+p.PadRight, p.CeilMode)
	if hOut <= 0 || wOut <= 0 {
		return nil, fmt.Errorf("%s: output size %dx%d is not positive", name, hOut, wOut)
	}

	result, err := NewRaw(Shape{n, c, hOut, wOut}, Float32)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	in, out := input.AsFloat32(), result.AsFloat32()
	for batch := 0; batch < n; batch++ {
		for ch := 0; ch < c; ch++ {
			plane := in[(batch*c+ch)*h*w:]
			for oh := 0; oh < hOut; oh++ {
				for ow := 0; ow < wOut; ow++ {
					hStart := oh*p.StrideH - p.PadTop
					wStart := ow*p.StrideW - p.PadLeft
					var acc float32
					count := 0
					for y := 0; y < p.KernelH; y++ {
						ih := hStart + y
						if ih < 0 || ih >= h {
							continue
						}
						for x := 0; x < p.KernelW; x++ {
							iw := wStart + x
							if iw < 0 || iw >= w {
								continue
							}
							v := plane[ih*w+iw]
							if isMax {
								if count == 0 || v > acc {
									acc = v
								}
							} else {
								acc += v
							}
							count++
						}
					}
					if !isMax && count > 0 {
						acc /= float32(count)
					}
					out[((batch*c+ch)*hOut+oh)*wOut+ow] = acc
				}
			}
		}
	}
	return result, nil
}

func poolOutSize(in, kernel, stride, pad int, ceilMode bool) int {
	num := in + pad - kernel
	if ceilMode {
		return (num+stride-1)/stride + 1
	}
	return num/stride + 1
}

// GlobalAvgPool2D averages [N, C, H, W] input over its spatial dimensions,
// producing [N, C, 1, 1].
func GlobalAvgPool2D(input *RawTensor) (*RawTensor, error) {
	if input == nil {
		return nil, fmt.Errorf("GlobalAvgPool2D: input tensor is nil")
	}
	if len(input.shape) != 4 {
		return nil, fmt.Errorf("GlobalAvgPool2D: expected 4D input, got %v", input.shape)
	}
	n, c, h, w := input.shape[0], input.shape[1], input.shape[2], input.shape[3]

	result, err := NewRaw(Shape{n, c, 1, 1}, Float32)
	if err != nil {
		return nil, fmt.Errorf("GlobalAvgPool2D: %w", err)
	}
	in, out := input.AsFloat32(), result.AsFloat32()
	area := h * w
	for i := 0; i < n*c; i++ {
		var sum float32
		for _, v := range in[i*area : (i+1)*area] {
			sum += v
		}
		out[i] = sum / float32(area)
	}
	return result, nil
}

// BatchNorm applies inference-mode batch normalization over [N, C, ...]:
// y = (x - mean) / sqrt(variance + epsilon) * scale + shift, per channel.
func BatchNorm(input, scale, shift, mean, variance *RawTensor, epsilon float32) (*RawTensor, error) {
	if input == nil {
		return nil, fmt.Errorf("BatchNorm: input tensor is nil")
	}
	if len(input.shape) < 2 {
		return nil, fmt.Errorf("BatchNorm: expected at least 2D input, got %v", input.shape)
	}
	c := input.shape[1]
	for _, t := range []*RawTensor{scale, shift, mean, variance} {
		if t == nil || t.NumElements() != c {
			return nil, fmt.Errorf("BatchNorm: parameter tensors must have %d elements", c)
		}
	}

	result, err := NewRaw(input.shape, Float32)
	if err != nil {
		return nil, fmt.Errorf("BatchNorm: %w", err)
	}

	in, out := input.AsFloat32(), result.AsFloat32()
	s, b, m, v := scale.AsFloat32(), shift.AsFloat32(), mean.AsFloat32(), variance.AsFloat32()

	// Fold the per-channel parameters into a single multiply-add.
	mulC := make([]float32, c)
	addC := make([]float32, c)
	for i := 0; i < c; i++ {
		std := float32(math.Sqrt(float64(v[i] + epsilon)))
		mulC[i] = s[i] / std
		addC[i] = b[i] - m[i]*mulC[i]
	}

	n := input.shape[0]
	inner := input.shape[2:].NumElements()
	for batch := 0; batch < n; batch++ {
		for ch := 0; ch < c; ch++ {
			base := (batch*c + ch) * inner
			for i := 0; i < inner; i++ {
				out[base+i] = in[base+i]*mulC[ch] + addC[ch]
			}
		}
	}
	return result, nil
}
