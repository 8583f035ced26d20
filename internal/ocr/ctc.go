package ocr

import (
	"fmt"
	"strings"

	"github.com/ftnfurina/ocrkit/internal/tensor"
)

// blankClass is the CTC blank token.
const blankClass = 0

// Result is one recognized line.
type Result struct {
	Text       string  `json:"text"`
	Confidence float32 `json:"confidence"`
}

// DecodeGreedy turns model output of shape [1, T, C] or [T, C] into
// text. Per step it takes the argmax class, then drops blanks and
// repeats of the previous step's class. Confidence is the mean
// probability of the kept steps; an all-blank sequence decodes to the
// empty string with zero confidence.
func DecodeGreedy(logits *tensor.RawTensor, charset *Charset) (Result, error) {
	shape := logits.Shape()
	switch {
	case len(shape) == 3 && shape[0] == 1:
		shape = shape[1:]
	case len(shape) == 2:
	default:
		return Result{}, fmt.Errorf("unexpected output shape %v", logits.Shape())
	}
	steps, classes := shape[0], shape[1]
	if classes != charset.NumClasses() {
		return Result{}, fmt.Errorf("model emits %d classes, charset has %d", classes, charset.NumClasses())
	}

	data := logits.AsFloat32()
	var sb strings.Builder
	var probSum float32
	var kept int
	prev := -1

	for t := 0; t < steps; t++ {
		row := data[t*classes : (t+1)*classes]
		best := 0
		for c := 1; c < classes; c++ {
			if row[c] > row[best] {
				best = c
			}
		}

		repeat := best == prev
		prev = best
		if best == blankClass || repeat {
			continue
		}

		ch, err := charset.Char(best)
		if err != nil {
			return Result{}, err
		}
		sb.WriteString(ch)
		probSum += row[best]
		kept++
	}

	if kept == 0 {
		return Result{}, nil
	}
	return Result{
		Text:       strings.TrimSpace(sb.String()),
		Confidence: probSum / float32(kept),
	}, nil
}
