package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ftnfurina/ocrkit/internal/onnx"
)

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List the ONNX operators the runtime implements",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, op := range onnx.ListSupportedOps() {
			fmt.Fprintln(cmd.OutOrStdout(), op)
		}
		return nil
	},
}
