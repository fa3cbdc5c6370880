package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/qbd2gnc/internal/runlog"
)

func newLogCommand(flags *rootFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show past conversions from the run log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runLog(cmd.OutOrStdout(), cfg.Conversion.OutputDir, limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of most recent conversions to show (0 for all)")

	return cmd
}

func runLog(out io.Writer, dir string, limit int) error {
	entries, err := runlog.Read(dir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No conversions logged yet.")
		return nil
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	for _, e := range entries {
		c := green
		switch e.Status {
		case runlog.StatusValidationFailed:
			c = yellow
		case runlog.StatusError:
			c = red
		}
		c.Fprintf(out, "%s  %-17s %s\n", e.Timestamp.Local().Format(time.DateTime), e.Status, e.Input)
		fmt.Fprintf(out, "  accounts=%d unmapped=%d collapsed=%d violations=%d\n",
			e.Accounts, e.Unmapped, e.Collapsed, e.Violations)
		if e.Output != "" {
			fmt.Fprintf(out, "  %s\n", e.Output)
		}
	}
	return nil
}
