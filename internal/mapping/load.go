package mapping

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

// OverrideFile is the default name of the user's mapping override file.
const OverrideFile = "accounts_mapping_specific.yaml"

// LoadError wraps any failure to read or validate a mapping file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading mapping %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load reads a mapping file. Files ending in .json are decoded as JSON,
// everything else as YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	f, err := Decode(data, isJSON(path))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if err := f.Validate(filepath.Base(path)); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return f, nil
}

// Decode parses mapping file contents.
func Decode(data []byte, asJSON bool) (*File, error) {
	var f File
	if asJSON {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing JSON: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if f.AccountTypes == nil {
		f.AccountTypes = make(map[string]Entry)
	}
	return &f, nil
}

// Encode writes f as YAML, or as indented JSON.
func Encode(w io.Writer, f *File, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(f); err != nil {
			return fmt.Errorf("marshaling mapping: %w", err)
		}
		return nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("marshaling mapping: %w", err)
	}
	return enc.Close()
}

// Save writes f to path, replacing any existing file atomically.
func Save(path string, f *File) error {
	var buf bytes.Buffer
	if err := Encode(&buf, f, isJSON(path)); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("writing mapping: %w", err)
	}
	return nil
}

// LoadTable merges the baseline with the override files that exist and
// returns the lookup table. Empty paths are skipped.
func LoadTable(overridePaths ...string) (*Table, error) {
	var overrides []*File
	for _, p := range overridePaths {
		if p == "" {
			continue
		}
		f, err := Load(p)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, f)
	}
	return Merge(Baseline(), overrides...).Table()
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
