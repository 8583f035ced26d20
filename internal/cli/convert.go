package cli

import (
	"github.com/spf13/cobra"

	"github.com/ftnfurina/ocrkit/internal/convert"
)

var (
	convertModel  string
	convertParams string
	convertSave   string
	convertVerify bool
	convertWatch  bool
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Export a Paddle recognition model to ONNX",
	Long: `Export a PaddleOCR inference model to ONNX with paddle2onnx.

The model, params, and save paths default to the PP-OCRv4 mobile
recognition layout and can be overridden by flags or the config file.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVar(&convertModel, "model-filename", "", "Paddle model topology file")
	convertCmd.Flags().StringVar(&convertParams, "params-filename", "", "Paddle weights file")
	convertCmd.Flags().StringVar(&convertSave, "save-file", "", "ONNX output file")
	convertCmd.Flags().BoolVar(&convertVerify, "verify", false, "Parse the exported model after conversion")
	convertCmd.Flags().BoolVar(&convertWatch, "watch", false, "Re-export when the input files change")
}

func runConvert(cmd *cobra.Command, args []string) error {
	job := convert.Job{
		ModelFilename:  cfg.Convert.ModelFilename,
		ParamsFilename: cfg.Convert.ParamsFilename,
		SaveFile:       cfg.Convert.SaveFile,
	}
	if convertModel != "" {
		job.ModelFilename = convertModel
	}
	if convertParams != "" {
		job.ParamsFilename = convertParams
	}
	if convertSave != "" {
		job.SaveFile = convertSave
	}

	exporter := &convert.Paddle2ONNX{
		Binary:       cfg.Convert.Binary,
		OpsetVersion: cfg.Convert.OpsetVersion,
	}

	ctx := cmd.Context()
	if convertWatch {
		return convert.NewWatcher(exporter, job, convertVerify).Watch(ctx)
	}
	if convertVerify {
		return convert.RunVerified(ctx, exporter, job)
	}
	return convert.Run(ctx, exporter, job)
}
