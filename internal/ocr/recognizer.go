package ocr

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ftnfurina/ocrkit/internal/onnx"
)

// Recognizer runs line recognition with a loaded model and charset.
type Recognizer struct {
	model   *onnx.Model
	charset *Charset
}

// NewRecognizer loads the ONNX model and character dictionary. The
// load is strict: a model using unimplemented operators is rejected
// up front instead of failing mid-inference.
func NewRecognizer(modelPath, dictPath string) (*Recognizer, error) {
	return newRecognizer(modelPath, dictPath, onnx.Options{StrictMode: true})
}

// NewRecognizerLenient loads without operator validation; execution
// fails at the first unsupported node instead.
func NewRecognizerLenient(modelPath, dictPath string) (*Recognizer, error) {
	return newRecognizer(modelPath, dictPath, onnx.Options{})
}

func newRecognizer(modelPath, dictPath string, opts onnx.Options) (*Recognizer, error) {
	model, err := onnx.Load(modelPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	charset, err := LoadCharset(dictPath)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("model", modelPath).
		Int("chars", charset.Len()).
		Msg("recognizer ready")
	return &Recognizer{model: model, charset: charset}, nil
}

// NewRecognizerWithModel wires an already loaded model, for tests and
// embedding.
func NewRecognizerWithModel(model *onnx.Model, charset *Charset) *Recognizer {
	return &Recognizer{model: model, charset: charset}
}

// Recognize preprocesses a line image, runs the model, and decodes
// the text.
func (r *Recognizer) Recognize(img image.Image) (Result, error) {
	input, err := PrepareLine(img)
	if err != nil {
		return Result{}, err
	}
	logits, err := r.model.Forward(input)
	if err != nil {
		return Result{}, fmt.Errorf("inference: %w", err)
	}
	result, err := DecodeGreedy(logits, r.charset)
	if err != nil {
		return Result{}, err
	}
	log.Debug().
		Str("text", result.Text).
		Float32("confidence", result.Confidence).
		Msg("recognized line")
	return result, nil
}

// RecognizeFile reads and decodes an image file, then recognizes it.
func (r *Recognizer) RecognizeFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}
	return r.Recognize(img)
}
