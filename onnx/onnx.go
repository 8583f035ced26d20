// Copyright 2026 The ocrkit Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package onnx provides the public API for loading and executing
// ONNX models produced by the ocrkit conversion pipeline.
//
// Example:
//
//	model, err := onnx.Load("onnx/PP-OCRv4_mobile_rec_infer.onnx", onnx.Options{StrictMode: true})
//	if err != nil {
//		log.Fatal(err)
//	}
//	output, err := model.Forward(input)
package onnx

import (
	"github.com/ftnfurina/ocrkit/internal/onnx"
)

// Model is a compiled ONNX model ready to execute.
type Model = onnx.Model

// Options controls model loading.
type Options = onnx.Options

// ModelInfo is a structural summary of an ONNX file.
type ModelInfo = onnx.ModelInfo

// TensorSpec describes a graph input or output.
type TensorSpec = onnx.TensorSpec

// OpCount is one entry of the operator histogram.
type OpCount = onnx.OpCount

// Load reads an ONNX file and compiles it for execution.
func Load(path string, opts Options) (*Model, error) {
	return onnx.Load(path, opts)
}

// LoadFromBytes compiles an ONNX model from an in-memory protobuf.
func LoadFromBytes(data []byte, opts Options) (*Model, error) {
	return onnx.LoadFromBytes(data, opts)
}

// ReadInfo parses an ONNX file and summarizes its structure.
func ReadInfo(path string) (*ModelInfo, error) {
	return onnx.ReadInfo(path)
}

// ListSupportedOps returns the names of all implemented operators.
func ListSupportedOps() []string {
	return onnx.ListSupportedOps()
}
