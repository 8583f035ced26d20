// Package cli wires the ocrkit commands.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ftnfurina/ocrkit/internal/config"
)

// Version is injected at compile time via ldflags.
var Version = "dev"

var (
	configPath string
	logLevel   string
	jsonOutput bool

	cfg config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:     "ocrkit",
	Short:   "Convert and run PP-OCR recognition models",
	Version: Version,
	Long: `ocrkit converts PaddleOCR recognition models to ONNX and runs
text line recognition against the converted model.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		return setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("OCRKIT_CONFIG"), "Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(opsCmd)
	rootCmd.AddCommand(recognizeCmd)
}

func setupLogging() error {
	level := cfg.LogLevel
	if cfg.DebugMode {
		level = "debug"
	}
	if logLevel != "" {
		level = logLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.Logger = log.Logger.Level(parsed)
	if cfg.PrettyLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}
