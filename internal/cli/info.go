package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ftnfurina/ocrkit/internal/onnx"
)

var infoCmd = &cobra.Command{
	Use:   "info <model.onnx>",
	Short: "Summarize an ONNX model file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

func runInfo(cmd *cobra.Command, args []string) error {
	info, err := onnx.ReadInfo(args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "graph:    %s\n", info.GraphName)
	fmt.Fprintf(out, "producer: %s %s\n", info.ProducerName, info.ProducerVersion)
	fmt.Fprintf(out, "ir:       %d  opset: %d\n", info.IRVersion, info.OpsetVersion)
	fmt.Fprintf(out, "nodes:    %d  weights: %d\n", info.NodeCount, info.WeightCount)

	fmt.Fprintln(out, "inputs:")
	for _, spec := range info.Inputs {
		fmt.Fprintf(out, "  %s %s\n", spec.Name, dimString(spec))
	}
	fmt.Fprintln(out, "outputs:")
	for _, spec := range info.Outputs {
		fmt.Fprintf(out, "  %s %s\n", spec.Name, dimString(spec))
	}

	fmt.Fprintln(out, "operators:")
	for _, op := range info.Ops {
		fmt.Fprintf(out, "  %-24s %d\n", op.OpType, op.Count)
	}
	return nil
}

func dimString(spec onnx.TensorSpec) string {
	parts := make([]string, len(spec.Dims))
	for i, dim := range spec.Dims {
		if dim < 0 && i < len(spec.Syms) && spec.Syms[i] != "" {
			parts[i] = spec.Syms[i]
		} else {
			parts[i] = fmt.Sprintf("%d", dim)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
