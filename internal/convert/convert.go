// Package convert drives Paddle-to-ONNX model export.
package convert

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ftnfurina/ocrkit/internal/onnx"
)

// Default paths for the PP-OCRv4 mobile recognition model.
const (
	DefaultModelFilename  = "rec/inference.json"
	DefaultParamsFilename = "rec/inference.pdiparams"
	DefaultSaveFile       = "onnx/PP-OCRv4_mobile_rec_infer.onnx"
)

// Job names the three files of one export: the Paddle model topology,
// its weights, and the ONNX destination. Paths are handed to the
// exporter verbatim; relative ones resolve against the working
// directory of the exporter process.
type Job struct {
	ModelFilename  string
	ParamsFilename string
	SaveFile       string
}

// DefaultJob returns the recognition-model job.
func DefaultJob() Job {
	return Job{
		ModelFilename:  DefaultModelFilename,
		ParamsFilename: DefaultParamsFilename,
		SaveFile:       DefaultSaveFile,
	}
}

// Exporter converts one Paddle model to ONNX.
type Exporter interface {
	Export(ctx context.Context, job Job) error
}

// Run performs a single export. The exporter is invoked exactly once
// per call, with the job untouched; any failure is returned to the
// caller as is, wrapped with the destination for context.
func Run(ctx context.Context, exporter Exporter, job Job) error {
	log.Info().
		Str("model", job.ModelFilename).
		Str("params", job.ParamsFilename).
		Str("save_file", job.SaveFile).
		Msg("exporting model")

	if err := exporter.Export(ctx, job); err != nil {
		return fmt.Errorf("export %s: %w", job.SaveFile, err)
	}

	log.Info().Str("save_file", job.SaveFile).Msg("export complete")
	return nil
}

// RunVerified performs the export and then parses the produced ONNX
// file to confirm it decodes.
func RunVerified(ctx context.Context, exporter Exporter, job Job) error {
	if err := Run(ctx, exporter, job); err != nil {
		return err
	}
	info, err := onnx.ReadInfo(job.SaveFile)
	if err != nil {
		return fmt.Errorf("verify %s: %w", job.SaveFile, err)
	}
	log.Info().
		Str("save_file", job.SaveFile).
		Int64("opset", info.OpsetVersion).
		Int("nodes", info.NodeCount).
		Msg("verified exported model")
	return nil
}
