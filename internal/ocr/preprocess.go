package ocr

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

// LineHeight is the fixed input height of the recognition model.
const LineHeight = 48

// PrepareLine resizes a line image to the model height, keeping the
// aspect ratio, and lays it out as a [1, 3, H, W] float tensor with
// channel values scaled to [0, 1].
func PrepareLine(img image.Image) (*tensor.RawTensor, error) {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("empty image %dx%d", srcW, srcH)
	}

	dstW := int(float32(srcW) / float32(srcH) * LineHeight)
	if dstW < 1 {
		dstW = 1
	}

	resized := image.NewRGBA(image.Rect(0, 0, dstW, LineHeight))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)

	out, err := tensor.NewRaw(tensor.Shape{1, 3, LineHeight, dstW}, tensor.Float32)
	if err != nil {
		return nil, err
	}
	data := out.AsFloat32()
	plane := LineHeight * dstW
	for y := 0; y < LineHeight; y++ {
		row := resized.Pix[y*resized.Stride:]
		for x := 0; x < dstW; x++ {
			pos := y*dstW + x
			data[pos] = float32(row[x*4]) / 255.0
			data[plane+pos] = float32(row[x*4+1]) / 255.0
			data[2*plane+pos] = float32(row[x*4+2]) / 255.0
		}
	}
	return out, nil
}
