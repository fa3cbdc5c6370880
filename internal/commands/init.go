package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/qbd2gnc/internal/config"
	"github.com/cleared-dev/qbd2gnc/internal/mapping"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a conversion project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.OutOrStdout(), absDir)
		},
	}
	return cmd
}

func runInit(out io.Writer, dir string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}

	cfg := config.Default()
	cfg.Mapping.OverridePath = mapping.OverrideFile

	// Create directory structure.
	if err := os.MkdirAll(filepath.Join(dir, cfg.Conversion.OutputDir), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	// Write qbd2gnc.yaml.
	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write an empty mapping override, unless the user already has one.
	overridePath := filepath.Join(dir, mapping.OverrideFile)
	if _, err := os.Stat(overridePath); os.IsNotExist(err) {
		empty := &mapping.File{AccountTypes: map[string]mapping.Entry{}}
		if err := mapping.Save(overridePath, empty); err != nil {
			return fmt.Errorf("writing mapping override: %w", err)
		}
	}

	// Write .gitignore.
	gitignore := cfg.Conversion.OutputDir + "/\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	fmt.Fprintf(out, "Initialized qbd2gnc project at %s\n", dir)
	return nil
}
