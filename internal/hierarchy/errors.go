package hierarchy

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// TreeConstructionError reports a source record that cannot be placed in
// the tree.
type TreeConstructionError struct {
	Record model.SourceAccountRecord
	Field  string // required field that is missing, if any
	Reason string
}

func (e *TreeConstructionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "account %q (type %q", e.Record.Name, e.Record.Type)
	if e.Record.Line > 0 {
		fmt.Fprintf(&b, ", line %d", e.Record.Line)
	}
	b.WriteString("): ")
	if e.Field != "" {
		fmt.Fprintf(&b, "missing required field %s", e.Field)
	} else {
		b.WriteString(e.Reason)
	}
	return b.String()
}
