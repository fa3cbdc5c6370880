package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/cleared-dev/qbd2gnc/internal/mapping"
)

func newMappingCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapping",
		Short: "Inspect account type mappings",
	}
	cmd.AddCommand(newMappingShowCommand(flags))
	cmd.AddCommand(newMappingCheckCommand())
	return cmd
}

func newMappingShowCommand(flags *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the baseline mapping merged with the configured override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			merged := mapping.Baseline()
			if p := cfg.Mapping.OverridePath; p != "" {
				if _, err := os.Stat(p); err == nil {
					override, err := mapping.Load(p)
					if err != nil {
						return err
					}
					merged = mapping.Merge(merged, override)
				}
			}
			return mapping.Encode(cmd.OutOrStdout(), merged, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of YAML")

	return cmd
}

func newMappingCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check <mapping-file>...",
		Short: "Validate mapping override files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs error
			for _, path := range args {
				f, err := mapping.Load(path)
				if err != nil {
					errs = multierr.Append(errs, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d account types)\n", path, len(f.AccountTypes))
			}
			return errs
		},
	}
}
