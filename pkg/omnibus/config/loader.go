package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a supported file encoding.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatOf picks the format from path's extension, ignoring case.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	default:
		return "", fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromFile reads path and decodes it in the format its extension names.
func FromFile(path string) (Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data, format)
}

// Parse decodes data as format. Empty input is an empty Config.
func Parse(data []byte, format Format) (Config, error) {
	var (
		m   map[string]any
		err error
	)
	switch format {
	case YAML:
		err = yaml.Unmarshal(data, &m)
	case JSON:
		if len(strings.TrimSpace(string(data))) == 0 {
			return New(nil), nil
		}
		err = json.Unmarshal(data, &m)
	default:
		return Config{}, fmt.Errorf("unsupported config format: %q", format)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", format, err)
	}
	return New(m), nil
}

// FromYAML decodes a YAML document.
func FromYAML(data []byte) (Config, error) { return Parse(data, YAML) }

// FromJSON decodes a JSON object.
func FromJSON(data []byte) (Config, error) { return Parse(data, JSON) }
