package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// defaultConfig is parsed first; a user file overlays it.
var defaultConfig = []byte(`
debugMode: false
prettyLogs: true
logLevel: info
convert:
  modelFilename: rec/inference.json
  paramsFilename: rec/inference.pdiparams
  saveFile: onnx/PP-OCRv4_mobile_rec_infer.onnx
  binary: paddle2onnx
  opsetVersion: 0
recognize:
  modelPath: onnx/PP-OCRv4_mobile_rec_infer.onnx
  dictPath: rec/character_dict.txt
`)

// envPath overrides the config file location.
const envPath = "OCRKIT_CONFIG"

// ConfigManager loads and holds a typed configuration.
type ConfigManager[T any] struct {
	k *koanf.Koanf
}

// NewConfigManager loads defaults, then the file named by the
// OCRKIT_CONFIG environment variable when set.
func NewConfigManager[T any]() (*ConfigManager[T], error) {
	return newConfigManager[T](os.Getenv(envPath))
}

// NewConfigManagerFromFile loads defaults overlaid with a specific file.
func NewConfigManagerFromFile[T any](path string) (*ConfigManager[T], error) {
	return newConfigManager[T](path)
}

func newConfigManager[T any](path string) (*ConfigManager[T], error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load default config: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	return &ConfigManager[T]{k: k}, nil
}

// GetConfig unmarshals the merged configuration.
func (cm *ConfigManager[T]) GetConfig() (T, error) {
	var cfg T
	if err := cm.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "key"}); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Load is the one-call path: defaults, optional file, typed result.
func Load(path string) (AppConfig, error) {
	cm, err := newConfigManager[AppConfig](path)
	if err != nil {
		return AppConfig{}, err
	}
	return cm.GetConfig()
}
