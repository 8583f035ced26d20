// Package config loads tool configuration from an embedded default
// document overlaid with an optional user file.
package config

// AppConfig is the root configuration.
type AppConfig struct {
	DebugMode  bool   `key:"debugMode"`
	PrettyLogs bool   `key:"prettyLogs"`
	LogLevel   string `key:"logLevel"`

	Convert   ConvertConfig   `key:"convert"`
	Recognize RecognizeConfig `key:"recognize"`
}

// ConvertConfig names the files of a Paddle-to-ONNX export and the
// exporter binary that performs it.
type ConvertConfig struct {
	ModelFilename  string `key:"modelFilename"`
	ParamsFilename string `key:"paramsFilename"`
	SaveFile       string `key:"saveFile"`
	Binary         string `key:"binary"`
	OpsetVersion   int    `key:"opsetVersion"`
}

// RecognizeConfig points at the recognition model and its character
// dictionary.
type RecognizeConfig struct {
	ModelPath string `key:"modelPath"`
	DictPath  string `key:"dictPath"`
}
