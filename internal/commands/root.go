package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/qbd2gnc/internal/buildinfo"
	"github.com/cleared-dev/qbd2gnc/internal/config"
	"github.com/cleared-dev/qbd2gnc/internal/convert"
	"github.com/cleared-dev/qbd2gnc/internal/hierarchy"
	"github.com/cleared-dev/qbd2gnc/internal/logging"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitCritical   = 1 // unreadable input, bad mapping, output failure
	ExitValidation = 2 // accounts that cannot be placed or fatal violations
)

// rootFlags are the persistent flags shared by all subcommands.
type rootFlags struct {
	configPath string
	verbose    bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:     "qbd2gnc",
		Short:   "Convert QuickBooks Desktop accounts to a GnuCash account import",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ./"+config.FileName+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log debug output")

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newConvertCommand(&flags))
	rootCmd.AddCommand(newMappingCommand(&flags))
	rootCmd.AddCommand(newVerifyCommand())
	rootCmd.AddCommand(newLogCommand(&flags))

	return rootCmd
}

// ExitCode maps an error returned by a command to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	if isValidation(err) {
		return ExitValidation
	}
	return ExitCritical
}

func isValidation(err error) bool {
	var verr *convert.ValidationError
	var terr *hierarchy.TreeConstructionError
	return errors.As(err, &verr) || errors.As(err, &terr)
}

// loadConfig reads the --config file, or ./qbd2gnc.yaml when present, or
// falls back to defaults.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	if flags.configPath != "" {
		return config.Load(flags.configPath)
	}
	cfg, err := config.Load(config.FileName)
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func newLogger(cfg *config.Config, flags *rootFlags, w io.Writer) (zerolog.Logger, error) {
	lc := cfg.Logging
	if flags.verbose {
		lc.Level = zerolog.LevelDebugValue
	}
	return logging.New(lc, w)
}
