package mapping

import (
	"fmt"
	"sort"
)

// MappingError reports an unmapped account type in strict mode.
type MappingError struct {
	Code string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("account type %q is not mapped", e.Code)
}

// Resolver looks up QuickBooks account types in a merged table and
// remembers which codes fell through to the default rule.
type Resolver struct {
	table    *Table
	strict   bool
	unmapped map[string]struct{}
}

// NewResolver creates a Resolver. In strict mode unmapped codes fail with
// *MappingError instead of using the default rule.
func NewResolver(table *Table, strict bool) *Resolver {
	return &Resolver{table: table, strict: strict, unmapped: make(map[string]struct{})}
}

// Resolve returns the entry for code. Unmapped codes are recorded in
// both modes.
func (r *Resolver) Resolve(code string) (Entry, error) {
	key := normalizeCode(code)
	if e, ok := r.table.Entries[key]; ok {
		return e, nil
	}
	r.unmapped[key] = struct{}{}
	if r.strict {
		return Entry{}, &MappingError{Code: key}
	}
	return r.table.Default, nil
}

// IsMapped reports whether code has an explicit entry.
func (r *Resolver) IsMapped(code string) bool {
	_, ok := r.table.Entries[normalizeCode(code)]
	return ok
}

// Unmapped returns the codes resolved through the default rule so far, sorted.
func (r *Resolver) Unmapped() []string {
	codes := make([]string, 0, len(r.unmapped))
	for c := range r.unmapped {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
