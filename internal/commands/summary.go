package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/cleared-dev/qbd2gnc/internal/convert"
	"github.com/cleared-dev/qbd2gnc/internal/model"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

// printSummary reports one converted file. output is empty when no CSV
// was written.
func printSummary(w io.Writer, input string, res *convert.Result, output, questions string) {
	s := res.Summary
	if output != "" {
		green.Fprintf(w, "✓ %s\n", input)
	} else {
		red.Fprintf(w, "✗ %s\n", input)
	}

	fmt.Fprintf(w, "  source accounts:  %d\n", s.Sources)
	fmt.Fprintf(w, "  gnucash accounts: %d (%d placeholders)\n", s.Accounts, s.Placeholders)
	fmt.Fprintf(w, "  collapsed:        %d\n", s.Collapsed)
	if s.Skipped > 0 {
		yellow.Fprintf(w, "  skipped:          %d\n", s.Skipped)
		for _, e := range res.Skipped {
			yellow.Fprintf(w, "    %v\n", e)
		}
	}
	if s.Conflicts > 0 {
		yellow.Fprintf(w, "  type conflicts:   %d\n", s.Conflicts)
	}

	for _, c := range model.Categories {
		if bal := s.OpeningBalances[c]; !bal.IsZero() {
			fmt.Fprintf(w, "  opening %-10s %s\n", string(c)+":", bal.StringFixed(2))
		}
	}

	if len(res.Unmapped) > 0 {
		yellow.Fprintf(w, "  unmapped types:   %v\n", res.Unmapped)
		yellow.Fprintf(w, "  answer %s and run convert again\n", questions)
	}
	for _, v := range res.Violations {
		c := yellow
		for _, f := range res.Fatal {
			if f == v {
				c = red
				break
			}
		}
		c.Fprintf(w, "  %v\n", v)
	}

	if output != "" {
		fmt.Fprintf(w, "  wrote %s\n", output)
	}
}
