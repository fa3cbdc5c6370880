package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/cleared-dev/qbd2gnc/internal/convert"
	"github.com/cleared-dev/qbd2gnc/internal/gnucash"
	"github.com/cleared-dev/qbd2gnc/internal/hierarchy"
)

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <accounts.csv>...",
		Short: "Check a GnuCash account CSV before importing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs error
			for _, path := range args {
				if err := runVerify(cmd.OutOrStdout(), path); err != nil {
					if !isValidation(err) {
						return err
					}
					errs = multierr.Append(errs, err)
				}
			}
			return errs
		},
	}
}

func runVerify(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening accounts CSV: %w", err)
	}
	defer f.Close()

	records, err := gnucash.ReadAccounts(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	tree, err := hierarchy.Restore(records)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	vs := hierarchy.Validate(tree)
	if len(vs) == 0 {
		green.Fprintf(out, "✓ %s: %d accounts\n", path, len(records))
		return nil
	}
	red.Fprintf(out, "✗ %s\n", path)
	for _, v := range vs {
		red.Fprintf(out, "  %v\n", v)
	}
	return fmt.Errorf("%s: %w", path, &convert.ValidationError{Violations: vs})
}
