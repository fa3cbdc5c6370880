package commands

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"

	"github.com/cleared-dev/qbd2gnc/internal/config"
	"github.com/cleared-dev/qbd2gnc/internal/convert"
	"github.com/cleared-dev/qbd2gnc/internal/gnucash"
	"github.com/cleared-dev/qbd2gnc/internal/hierarchy"
	"github.com/cleared-dev/qbd2gnc/internal/iif"
	"github.com/cleared-dev/qbd2gnc/internal/mapping"
	"github.com/cleared-dev/qbd2gnc/internal/model"
	"github.com/cleared-dev/qbd2gnc/internal/runlog"
)

// convertOptions are flags that override qbd2gnc.yaml for one run.
type convertOptions struct {
	outputDir   string
	mappingPath string
	strict      bool
	skipInvalid bool
	commodity   string
}

func (o *convertOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.outputDir, "output-dir", "o", "", "directory for the account CSV and run log")
	fs.StringVarP(&o.mappingPath, "mapping", "m", "", "mapping override file (YAML or JSON)")
	fs.BoolVar(&o.strict, "strict", false, "fail on unmapped QuickBooks account types")
	fs.BoolVar(&o.skipInvalid, "skip-invalid", false, "skip accounts that cannot be placed instead of failing")
	fs.StringVar(&o.commodity, "commodity", "", "commodity symbol written for every account")
}

// apply copies the flags the user set onto cfg.
func (o *convertOptions) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("output-dir") {
		cfg.Conversion.OutputDir = o.outputDir
	}
	if fs.Changed("mapping") {
		cfg.Mapping.OverridePath = o.mappingPath
	}
	if fs.Changed("strict") {
		cfg.Conversion.StrictMapping = o.strict
	}
	if fs.Changed("skip-invalid") {
		cfg.Conversion.SkipInvalid = o.skipInvalid
	}
	if fs.Changed("commodity") {
		cfg.Export.Commodity = o.commodity
	}
}

func newConvertCommand(flags *rootFlags) *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert <file.iif|directory>...",
		Short: "Convert QuickBooks IIF accounts to a GnuCash account CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			opts.apply(cmd.Flags(), cfg)

			log, err := newLogger(cfg, flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return runConvert(cmd.OutOrStdout(), cfg, log, args)
		},
	}
	opts.register(cmd.Flags())

	return cmd
}

type converter struct {
	out       io.Writer
	cfg       *config.Config
	log       zerolog.Logger
	svc       *convert.Service
	writer    gnucash.Writer
	questions string // questions file path
	multi     bool   // more than one input file

	// unmapped type codes and the records using them, across all inputs
	unmapped map[string]struct{}
	records  []model.SourceAccountRecord
}

func runConvert(out io.Writer, cfg *config.Config, log zerolog.Logger, inputs []string) error {
	files, err := expandInputs(inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .iif files found in %s", strings.Join(inputs, ", "))
	}

	fatal, err := hierarchy.ParseViolationKinds(cfg.Validation.Fatal)
	if err != nil {
		return fmt.Errorf("config validation.fatal: %w", err)
	}

	questionsDir := cfg.Mapping.QuestionsPath
	if questionsDir == "" {
		questionsDir = cfg.Conversion.OutputDir
	}
	questionsPath := filepath.Join(questionsDir, mapping.QuestionsFile)
	if err := applyAnswers(cfg, questionsPath, log); err != nil {
		return err
	}

	var overrides []string
	if p := cfg.Mapping.OverridePath; p != "" {
		if _, err := os.Stat(p); err == nil {
			overrides = append(overrides, p)
		} else {
			log.Debug().Str("path", p).Msg("mapping override not found, using baseline only")
		}
	}
	table, err := mapping.LoadTable(overrides...)
	if err != nil {
		return err
	}

	commodity := cfg.Export.Commodity
	if commodity == "" {
		commodity = table.Commodity
	}

	if err := os.MkdirAll(cfg.Conversion.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	c := &converter{
		out: out,
		cfg: cfg,
		log: log,
		svc: convert.NewService(table, convert.Options{
			Strict:      cfg.Conversion.StrictMapping,
			SkipInvalid: cfg.Conversion.SkipInvalid,
			Fatal:       fatal,
		}, log),
		writer:    gnucash.Writer{Commodity: commodity, Namespace: cfg.Export.Namespace},
		questions: questionsPath,
		multi:     len(files) > 1,
		unmapped:  make(map[string]struct{}),
	}

	// Validation failures do not stop the remaining files; anything else does.
	var failed error
	for _, path := range files {
		if err := c.convertFile(path); err != nil {
			if !isValidation(err) {
				return err
			}
			failed = multierr.Append(failed, err)
		}
	}
	if err := c.writeQuestions(); err != nil {
		return err
	}
	return failed
}

func (c *converter) convertFile(path string) error {
	entry := runlog.Entry{Timestamp: time.Now().UTC(), Input: path}

	res, err := c.svc.ConvertFile(path)
	if err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		entry.Status = runlog.StatusError
		entry.Output = err.Error()
		if isValidation(err) {
			entry.Status = runlog.StatusValidationFailed
		}
		return multierr.Append(err, c.appendLog(entry))
	}

	entry.Unmapped = len(res.Unmapped)
	entry.Collapsed = res.Summary.Collapsed
	entry.Violations = len(res.Violations)

	for _, code := range res.Unmapped {
		c.unmapped[code] = struct{}{}
	}
	if len(res.Unmapped) > 0 {
		c.records = append(c.records, res.Records...)
	}

	if verr := res.Err(); verr != nil {
		entry.Status = runlog.StatusValidationFailed
		entry.Output = verr.Error()
		printSummary(c.out, path, res, "", c.questions)
		return multierr.Append(fmt.Errorf("%s: %w", path, verr), c.appendLog(entry))
	}

	output := filepath.Join(c.cfg.Conversion.OutputDir, c.outputName(path))
	if err := c.writer.WriteFile(output, res.Accounts); err != nil {
		return err
	}
	c.log.Info().Str("file", output).Int("accounts", len(res.Accounts)).Msg("wrote GnuCash accounts")

	entry.Status = runlog.StatusOK
	entry.Accounts = len(res.Accounts)
	entry.Output = output
	printSummary(c.out, path, res, output, c.questions)
	return c.appendLog(entry)
}

// outputName is the configured file name, prefixed with the input's
// name when several files are converted in one run.
func (c *converter) outputName(input string) string {
	if !c.multi {
		return c.cfg.Export.FileName
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return stem + "_" + c.cfg.Export.FileName
}

// writeQuestions writes one questions file covering the unmapped types
// of every converted input.
func (c *converter) writeQuestions() error {
	if len(c.unmapped) == 0 {
		return nil
	}
	codes := make([]string, 0, len(c.unmapped))
	for code := range c.unmapped {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	if err := os.MkdirAll(filepath.Dir(c.questions), 0o755); err != nil {
		return fmt.Errorf("creating questions directory: %w", err)
	}
	var buf bytes.Buffer
	if err := mapping.WriteQuestions(&buf, codes, c.records); err != nil {
		return fmt.Errorf("writing questions: %w", err)
	}
	if err := atomic.WriteFile(c.questions, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", c.questions, err)
	}
	c.log.Info().Str("file", c.questions).Strs("qb_types", codes).Msg("wrote mapping questions")
	return nil
}

func (c *converter) appendLog(e runlog.Entry) error {
	if err := runlog.Append(c.cfg.Conversion.OutputDir, []runlog.Entry{e}); err != nil {
		return fmt.Errorf("appending run log: %w", err)
	}
	return nil
}

// applyAnswers folds an answered questions file into the mapping override
// and archives it. Unanswered files are left alone; a file that cannot be
// parsed is archived with an "error" suffix.
func applyAnswers(cfg *config.Config, questionsPath string, log zerolog.Logger) error {
	fh, err := os.Open(questionsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("opening questions: %w", err)
	}
	answers, err := mapping.ParseQuestions(fh)
	fh.Close()

	dir := filepath.Dir(questionsPath)
	switch {
	case errors.Is(err, mapping.ErrUnanswered):
		log.Info().Str("file", questionsPath).Msg("mapping questions are still unanswered")
		return nil
	case err != nil:
		_, aerr := archive(questionsPath, dir, "error")
		return multierr.Append(fmt.Errorf("%s: %w", questionsPath, err), aerr)
	}

	if cfg.Mapping.OverridePath == "" {
		cfg.Mapping.OverridePath = mapping.OverrideFile
	}
	override := &mapping.File{AccountTypes: map[string]mapping.Entry{}}
	if _, err := os.Stat(cfg.Mapping.OverridePath); err == nil {
		if override, err = mapping.Load(cfg.Mapping.OverridePath); err != nil {
			return err
		}
	}
	merged := mapping.Merge(override, answers)
	if err := mapping.Save(cfg.Mapping.OverridePath, merged); err != nil {
		return err
	}

	archived, err := archive(questionsPath, dir, "")
	if err != nil {
		return err
	}
	log.Info().
		Str("override", cfg.Mapping.OverridePath).
		Int("answers", len(answers.AccountTypes)).
		Str("archived", archived).
		Msg("applied mapping answers")
	return nil
}

func archive(path, dir, suffix string) (string, error) {
	name, err := mapping.ArchiveName(dir, suffix)
	if err != nil {
		return "", err
	}
	if err := os.Rename(path, name); err != nil {
		return "", fmt.Errorf("archiving %s: %w", path, err)
	}
	return name, nil
}

// expandInputs replaces directories with the .iif files they contain.
func expandInputs(inputs []string) ([]string, error) {
	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}
		found, err := iif.Scan(in)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			files = append(files, f.Path)
		}
	}
	return files, nil
}
