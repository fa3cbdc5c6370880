package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the project directory.
const FileName = "qbd2gnc.yaml"

// Config represents the top-level qbd2gnc.yaml configuration.
type Config struct {
	Conversion ConversionConfig `yaml:"conversion"`
	Mapping    MappingConfig    `yaml:"mapping"`
	Export     ExportConfig     `yaml:"export"`
	Validation ValidationConfig `yaml:"validation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ConversionConfig controls how accounts are converted.
type ConversionConfig struct {
	OutputDir     string `yaml:"output_dir"`
	StrictMapping bool   `yaml:"strict_mapping"`
	SkipInvalid   bool   `yaml:"skip_invalid"`
}

// MappingConfig locates the user's mapping files.
type MappingConfig struct {
	OverridePath  string `yaml:"override_path,omitempty"`
	QuestionsPath string `yaml:"questions_path,omitempty"` // defaults to the output dir
}

// ExportConfig controls the GnuCash CSV.
type ExportConfig struct {
	FileName  string `yaml:"file_name"`
	Commodity string `yaml:"commodity,omitempty"` // defaults to the mapping's default_commodity
	Namespace string `yaml:"namespace"`
}

// ValidationConfig lists the violation kinds that fail a conversion.
// Other kinds are reported as warnings.
type ValidationConfig struct {
	Fatal []string `yaml:"fatal"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // zerolog level name
	Format string `yaml:"format"` // "console" or "json"
}

// Load reads a qbd2gnc.yaml file from disk. Fields missing from the file
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default() *Config {
	return &Config{
		Conversion: ConversionConfig{
			OutputDir: "output",
		},
		Export: ExportConfig{
			FileName:  "accounts.csv",
			Namespace: "CURRENCY",
		},
		Validation: ValidationConfig{
			Fatal: []string{"ar_singleton", "ap_singleton", "placeholder_mismatch", "path_mismatch", "duplicate_path", "cycle", "category_structure"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
