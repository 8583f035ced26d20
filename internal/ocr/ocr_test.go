package ocr

import (
	"image"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

func testCharset(t *testing.T, chars string) *Charset {
	t.Helper()
	cs, err := ReadCharset(strings.NewReader(chars))
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

// logitsFor builds a [T, C] tensor where step t puts probability p on
// class classes[t] and spreads the rest evenly.
func logitsFor(t *testing.T, numClasses int, classes []int, p float32) *tensor.RawTensor {
	t.Helper()
	rest := (1 - p) / float32(numClasses-1)
	vals := make([]float32, len(classes)*numClasses)
	for step, class := range classes {
		for c := 0; c < numClasses; c++ {
			if c == class {
				vals[step*numClasses+c] = p
			} else {
				vals[step*numClasses+c] = rest
			}
		}
	}
	out, err := tensor.FromFloat32(tensor.Shape{len(classes), numClasses}, vals)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func TestCharsetMapping(t *testing.T) {
	cs := testCharset(t, "a\nb\nc\n")
	if cs.Len() != 3 {
		t.Errorf("Len = %d, want 3", cs.Len())
	}
	if cs.NumClasses() != 4 {
		t.Errorf("NumClasses = %d, want 4", cs.NumClasses())
	}
	if ch, err := cs.Char(1); err != nil || ch != "a" {
		t.Errorf("Char(1) = %q, %v, want a", ch, err)
	}
	if ch, err := cs.Char(3); err != nil || ch != "c" {
		t.Errorf("Char(3) = %q, %v, want c", ch, err)
	}
	if _, err := cs.Char(0); err == nil {
		t.Error("Char(0) is blank, should fail")
	}
	if _, err := cs.Char(4); err == nil {
		t.Error("Char(4) out of range, should fail")
	}
}

func TestCharsetEmpty(t *testing.T) {
	if _, err := ReadCharset(strings.NewReader("")); err == nil {
		t.Error("empty charset should fail")
	}
}

func TestDecodeGreedyMergesRepeats(t *testing.T) {
	cs := testCharset(t, "a\nb\nc\n")
	// a a blank a b -> "aab": the repeat collapses, the blank resets it.
	logits := logitsFor(t, 4, []int{1, 1, 0, 1, 2}, 0.9)

	result, err := DecodeGreedy(logits, cs)
	if err != nil {
		t.Fatalf("DecodeGreedy failed: %v", err)
	}
	if result.Text != "aab" {
		t.Errorf("Text = %q, want aab", result.Text)
	}
	if math.Abs(float64(result.Confidence-0.9)) > 1e-5 {
		t.Errorf("Confidence = %v, want 0.9", result.Confidence)
	}
}

func TestDecodeGreedyAllBlank(t *testing.T) {
	cs := testCharset(t, "a\nb\n")
	logits := logitsFor(t, 3, []int{0, 0, 0}, 0.99)

	result, err := DecodeGreedy(logits, cs)
	if err != nil {
		t.Fatalf("DecodeGreedy failed: %v", err)
	}
	if result.Text != "" || result.Confidence != 0 {
		t.Errorf("result = %+v, want empty text and zero confidence", result)
	}
}

func TestDecodeGreedyBatchDim(t *testing.T) {
	cs := testCharset(t, "x\ny\n")
	logits := logitsFor(t, 3, []int{1, 0, 2}, 0.8)
	batched, err := tensor.Reshape(logits, tensor.Shape{1, 3, 3})
	if err != nil {
		t.Fatal(err)
	}

	result, err := DecodeGreedy(batched, cs)
	if err != nil {
		t.Fatalf("DecodeGreedy failed: %v", err)
	}
	if result.Text != "xy" {
		t.Errorf("Text = %q, want xy", result.Text)
	}
}

func TestDecodeGreedyClassMismatch(t *testing.T) {
	cs := testCharset(t, "a\nb\nc\nd\n")
	logits := logitsFor(t, 2, []int{1, 2}, 0.9)
	if _, err := DecodeGreedy(logits, cs); err == nil {
		t.Error("charset/class count mismatch should fail")
	}
}

func TestDecodeGreedyTrimsSpaces(t *testing.T) {
	cs := testCharset(t, " \na\n")
	// space a space -> trims to "a"
	logits := logitsFor(t, 3, []int{1, 2, 1}, 0.9)
	result, err := DecodeGreedy(logits, cs)
	if err != nil {
		t.Fatalf("DecodeGreedy failed: %v", err)
	}
	if result.Text != "a" {
		t.Errorf("Text = %q, want a", result.Text)
	}
}

func TestPrepareLineShape(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	got, err := PrepareLine(img)
	if err != nil {
		t.Fatalf("PrepareLine failed: %v", err)
	}
	// 200x100 at height 48 keeps the 2:1 aspect ratio.
	want := tensor.Shape{1, 3, 48, 96}
	if !got.Shape().Equal(want) {
		t.Errorf("shape = %v, want %v", got.Shape(), want)
	}
}

func TestPrepareLineValues(t *testing.T) {
	// Solid color image: every output position holds the scaled channel.
	img := image.NewRGBA(image.Rect(0, 0, 96, 48))
	c := color.RGBA{R: 255, G: 128, B: 0, A: 255}
	for y := 0; y < 48; y++ {
		for x := 0; x < 96; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	got, err := PrepareLine(img)
	if err != nil {
		t.Fatalf("PrepareLine failed: %v", err)
	}
	data := got.AsFloat32()
	plane := 48 * 96
	if math.Abs(float64(data[0]-1.0)) > 1e-3 {
		t.Errorf("R = %v, want 1.0", data[0])
	}
	if math.Abs(float64(data[plane]-128.0/255)) > 1e-2 {
		t.Errorf("G = %v, want %v", data[plane], 128.0/255)
	}
	if math.Abs(float64(data[2*plane])) > 1e-3 {
		t.Errorf("B = %v, want 0", data[2*plane])
	}
}

func TestPrepareLineNarrowImage(t *testing.T) {
	// Degenerate aspect ratio still yields at least one column.
	img := image.NewRGBA(image.Rect(0, 0, 1, 100))
	got, err := PrepareLine(img)
	if err != nil {
		t.Fatalf("PrepareLine failed: %v", err)
	}
	if got.Shape()[3] < 1 {
		t.Errorf("width = %d, want >= 1", got.Shape()[3])
	}
}
