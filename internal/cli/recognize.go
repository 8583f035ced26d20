package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftnfurina/ocrkit/internal/ocr"
)

var (
	recognizeModel  string
	recognizeDict   string
	recognizeJSON   bool
	recognizeStrict bool
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>...",
	Short: "Recognize text lines in images",
	Long: `Recognize runs each image through the converted recognition model
and prints the decoded text with its confidence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRecognize,
}

func init() {
	recognizeCmd.Flags().StringVar(&recognizeModel, "model", "", "ONNX model path")
	recognizeCmd.Flags().StringVar(&recognizeDict, "dict", "", "Character dictionary path")
	recognizeCmd.Flags().BoolVar(&recognizeJSON, "json", false, "Output in JSON format")
	recognizeCmd.Flags().BoolVar(&recognizeStrict, "strict", true, "Reject models with unsupported operators at load time")
}

type recognizeOutput struct {
	File string `json:"file"`
	ocr.Result
	Error string `json:"error,omitempty"`
}

func runRecognize(cmd *cobra.Command, args []string) error {
	modelPath := cfg.Recognize.ModelPath
	if recognizeModel != "" {
		modelPath = recognizeModel
	}
	dictPath := cfg.Recognize.DictPath
	if recognizeDict != "" {
		dictPath = recognizeDict
	}

	newRec := ocr.NewRecognizer
	if !recognizeStrict {
		newRec = ocr.NewRecognizerLenient
	}
	recognizer, err := newRec(modelPath, dictPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var failed bool
	var results []recognizeOutput

	for _, path := range args {
		result, err := recognizer.RecognizeFile(path)
		entry := recognizeOutput{File: path, Result: result}
		if err != nil {
			entry.Error = err.Error()
			failed = true
		}
		if recognizeJSON {
			results = append(results, entry)
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "%s: error: %v\n", path, err)
		} else {
			fmt.Fprintf(out, "%s: %s (%.3f)\n", path, result.Text, result.Confidence)
		}
	}

	if recognizeJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	}
	if failed {
		return fmt.Errorf("recognition failed for one or more images")
	}
	return nil
}
