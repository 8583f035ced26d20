// Copyright 2026 The ocrkit Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package convert provides the public API for exporting Paddle
// recognition models to ONNX.
//
// Example:
//
//	err := convert.Run(ctx, convert.NewPaddle2ONNX(), convert.DefaultJob())
package convert

import (
	"context"

	"github.com/ftnfurina/ocrkit/internal/convert"
)

// Job names the three files of one export.
type Job = convert.Job

// Exporter converts one Paddle model to ONNX.
type Exporter = convert.Exporter

// Paddle2ONNX runs the paddle2onnx CLI as a subprocess.
type Paddle2ONNX = convert.Paddle2ONNX

// Watcher re-runs an export whenever the job's input files change.
type Watcher = convert.Watcher

// Default paths for the PP-OCRv4 mobile recognition model.
const (
	DefaultModelFilename  = convert.DefaultModelFilename
	DefaultParamsFilename = convert.DefaultParamsFilename
	DefaultSaveFile       = convert.DefaultSaveFile
)

// DefaultJob returns the recognition-model job.
func DefaultJob() Job {
	return convert.DefaultJob()
}

// NewPaddle2ONNX returns an exporter using the paddle2onnx binary
// from PATH.
func NewPaddle2ONNX() *Paddle2ONNX {
	return convert.NewPaddle2ONNX()
}

// NewWatcher returns a watcher for one export job.
func NewWatcher(exporter Exporter, job Job, verify bool) *Watcher {
	return convert.NewWatcher(exporter, job, verify)
}

// Run performs a single export.
func Run(ctx context.Context, exporter Exporter, job Job) error {
	return convert.Run(ctx, exporter, job)
}

// RunVerified performs the export and then parses the produced ONNX
// file to confirm it decodes.
func RunVerified(ctx context.Context, exporter Exporter, job Job) error {
	return convert.RunVerified(ctx, exporter, job)
}
