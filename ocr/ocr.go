// Copyright 2026 The ocrkit Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ocr provides the public API for text line recognition with
// a converted PP-OCRv4 recognition model.
//
// Example:
//
//	rec, err := ocr.NewRecognizer("onnx/PP-OCRv4_mobile_rec_infer.onnx", "rec/character_dict.txt")
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := rec.RecognizeFile("line.png")
package ocr

import (
	"github.com/ftnfurina/ocrkit/internal/ocr"
)

// Recognizer runs line recognition with a loaded model and charset.
type Recognizer = ocr.Recognizer

// Result is one recognized line.
type Result = ocr.Result

// Charset maps CTC class indices to characters.
type Charset = ocr.Charset

// LineHeight is the fixed input height of the recognition model.
const LineHeight = ocr.LineHeight

// NewRecognizer loads the ONNX model and character dictionary.
func NewRecognizer(modelPath, dictPath string) (*Recognizer, error) {
	return ocr.NewRecognizer(modelPath, dictPath)
}

// NewRecognizerLenient loads without operator validation.
func NewRecognizerLenient(modelPath, dictPath string) (*Recognizer, error) {
	return ocr.NewRecognizerLenient(modelPath, dictPath)
}

// LoadCharset reads a character dictionary file, one character per line.
func LoadCharset(path string) (*Charset, error) {
	return ocr.LoadCharset(path)
}
