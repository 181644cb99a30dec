package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// cliConfig is the content of a --config file. Flags given on the command
// line take precedence over it.
type cliConfig struct {
	Ext     []string          `yaml:"ext" json:"ext"`
	Wasm    string            `yaml:"wasm" json:"wasm"`
	Debug   bool              `yaml:"debug" json:"debug"`
	Timeout string            `yaml:"timeout" json:"timeout"`
	Vars    map[string]string `yaml:"vars" json:"vars"`
}

// decodeFile reads path into v, choosing YAML or JSON by extension.
// Supported extensions: .yaml, .yml, .json
func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse yaml %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parse json %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported file extension: %s", ext)
	}
	return nil
}

// loadConfig reads a CLI config file.
func loadConfig(path string) (cliConfig, error) {
	var cfg cliConfig
	if err := decodeFile(path, &cfg); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}

// loadRoot reads the root context from a YAML or JSON file.
func loadRoot(path string) (any, error) {
	var root any
	if err := decodeFile(path, &root); err != nil {
		return nil, err
	}
	return root, nil
}
