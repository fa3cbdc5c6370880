package convert

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/qbd2gnc/internal/hierarchy"
	"github.com/cleared-dev/qbd2gnc/internal/iif"
	"github.com/cleared-dev/qbd2gnc/internal/mapping"
	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// Options controls a conversion.
type Options struct {
	Strict      bool                      // fail on unmapped account types
	SkipInvalid bool                      // skip records that cannot be placed
	Fatal       []hierarchy.ViolationKind // violation kinds that fail the conversion
}

// Service converts QuickBooks accounts into a GnuCash account list.
type Service struct {
	table *mapping.Table
	opts  Options
	log   zerolog.Logger
}

// NewService creates a Service using the merged mapping table.
func NewService(table *mapping.Table, opts Options, log zerolog.Logger) *Service {
	return &Service{table: table, opts: opts, log: log}
}

// Summary holds the counts shown after a conversion.
type Summary struct {
	Sources         int // records read
	Skipped         int
	Accounts        int // rows exported
	Placeholders    int
	Collapsed       int
	Conflicts       int
	OpeningBalances map[model.Category]decimal.Decimal
}

// Result is everything one conversion produced.
type Result struct {
	Records     []model.SourceAccountRecord
	Tree        *hierarchy.Tree
	Accounts    []model.FlattenedAccountRecord
	Unmapped    []string
	Receivables []string
	Payables    []string
	Skipped     []*hierarchy.TreeConstructionError
	Report      *hierarchy.Report
	Violations  hierarchy.Violations
	Fatal       hierarchy.Violations
	Summary     Summary
}

// ValidationError is returned by Result.Err when fatal violations remain.
type ValidationError struct {
	Violations hierarchy.Violations
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%d fatal violation(s): %v", len(e.Violations), e.Violations.Err())
}

// Err returns a *ValidationError if the result has fatal violations.
func (r *Result) Err() error {
	if len(r.Fatal) == 0 {
		return nil
	}
	return &ValidationError{Violations: r.Fatal}
}

// ConvertFile reads the ACCNT section of an IIF file and converts it.
func (s *Service) ConvertFile(path string) (*Result, error) {
	records, err := iif.ReadAccounts(path)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("file", path).Int("accounts", len(records)).Msg("read IIF accounts")
	return s.Convert(records)
}

// Convert builds, normalizes, validates and flattens the hierarchy.
// Violations never produce an error here; see Result.Err.
func (s *Service) Convert(records []model.SourceAccountRecord) (*Result, error) {
	opts := []hierarchy.Option{hierarchy.WithLogger(s.log)}
	if s.opts.SkipInvalid {
		opts = append(opts, hierarchy.WithSkipInvalid())
	}
	resolver := mapping.NewResolver(s.table, s.opts.Strict)
	built, err := hierarchy.NewBuilder(resolver, opts...).Build(records)
	if err != nil {
		return nil, fmt.Errorf("building account tree: %w", err)
	}

	res := &Result{
		Records:     records,
		Tree:        built.Tree,
		Unmapped:    built.Unmapped,
		Receivables: built.Receivables,
		Payables:    built.Payables,
		Skipped:     built.Skipped,
	}
	res.Report = hierarchy.Normalize(built.Tree)
	for _, p := range res.Report.Collapsed {
		s.log.Debug().Str("path", p).Msg("collapsed same-name child")
	}
	for _, c := range res.Report.Conflicts {
		s.log.Warn().
			Str("path", c.Path).
			Str("parent_type", string(c.ParentType)).
			Str("child_type", string(c.ChildType)).
			Msg("same-name child kept: types are incompatible")
	}

	res.Violations = hierarchy.Validate(built.Tree)
	res.Fatal = res.Violations.Filter(s.opts.Fatal...)
	for _, v := range res.Violations {
		s.log.Warn().Str("kind", string(v.Kind)).Str("path", v.Path).Msg(v.Description)
	}
	for _, code := range res.Unmapped {
		s.log.Warn().Str("qb_type", code).Str("destination", s.table.Default.Destination).Msg("unmapped account type")
	}

	res.Accounts = hierarchy.Flatten(built.Tree)
	res.Summary.OpeningBalances = openingBalances(built.Tree)
	res.Summary.Sources = len(records)
	res.Summary.Skipped = len(built.Skipped)
	res.Summary.Accounts = len(res.Accounts)
	res.Summary.Collapsed = len(res.Report.Collapsed)
	res.Summary.Conflicts = len(res.Report.Conflicts)
	for _, a := range res.Accounts {
		if a.Placeholder {
			res.Summary.Placeholders++
		}
	}
	return res, nil
}

// openingBalances totals the opening balances below each category.
func openingBalances(tree *hierarchy.Tree) map[model.Category]decimal.Decimal {
	totals := make(map[model.Category]decimal.Decimal, len(model.Categories))
	for _, c := range model.Categories {
		total := decimal.Zero
		tree.Walk(func(n *hierarchy.Node) bool {
			if n.IsCategory() {
				return n.Name == string(c)
			}
			total = total.Add(n.Balance)
			return true
		})
		totals[c] = total
	}
	return totals
}
