// Package loader decodes curator inputs (track lists, rules, intents, player state and
// plans) from JSON, YAML or TOML files, picking the format from the file extension.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is an input encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	TOML Format = "toml"
)

// Stdin is the path that reads JSON from standard input.
const Stdin = "-"

// ErrUnsupportedFormat is returned for an unknown file extension.
var ErrUnsupportedFormat = errors.New("unsupported input format")

// FormatOf picks the format from the extension of path. Standard input is JSON.
func FormatOf(path string) (Format, error) {
	if path == Stdin {
		return JSON, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	}
	return "", fmt.Errorf("%w: %q (expected .json, .yaml, .yml or .toml)", ErrUnsupportedFormat, path)
}

// Decode reads all of r and decodes it into v.
func Decode(r io.Reader, format Format, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return Unmarshal(data, format, v)
}

// Unmarshal decodes data into v.
func Unmarshal(data []byte, format Format, v any) error {
	var err error
	switch format {
	case JSON:
		err = json.Unmarshal(data, v)
	case YAML:
		err = yaml.Unmarshal(data, v)
	case TOML:
		err = toml.Unmarshal(data, v)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("failed to parse %s input: %w", format, err)
	}
	return nil
}

// LoadFile decodes the file at path into v. The path "-" reads standard input.
func LoadFile(path string, v any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	if path == Stdin {
		return Decode(os.Stdin, format, v)
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	return Unmarshal(data, format, v)
}

// Load decodes the file at path into a new T.
func Load[T any](path string) (T, error) {
	var v T
	if err := LoadFile(path, &v); err != nil {
		return v, err
	}
	return v, nil
}
