package mapping

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// Entry maps one QuickBooks account type to a GnuCash type and destination.
type Entry struct {
	Type        model.AccountType `yaml:"gnucash_type" json:"gnucash_type"`
	Destination string            `yaml:"destination_hierarchy" json:"destination_hierarchy"`
	Placeholder bool              `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// Category returns the fundamental category the destination is rooted at.
func (e Entry) Category() (model.Category, bool) {
	head, _, _ := strings.Cut(e.Destination, ":")
	return model.ParseCategory(head)
}

// DefaultRules holds the fallback applied to unmapped account types.
type DefaultRules struct {
	Unmapped *Entry `yaml:"unmapped_accounts,omitempty" json:"unmapped_accounts,omitempty"`
}

// File is the on-disk shape of a baseline or override mapping file.
type File struct {
	AccountTypes     map[string]Entry `yaml:"account_types" json:"account_types"`
	DefaultRules     DefaultRules     `yaml:"default_rules" json:"default_rules"`
	DefaultCommodity string           `yaml:"default_commodity,omitempty" json:"default_commodity,omitempty"`
}

// Table is the merged lookup table consumed by the Resolver.
type Table struct {
	Entries   map[string]Entry
	Default   Entry
	Commodity string
}

// Codes returns the mapped type codes, sorted.
func (t *Table) Codes() []string {
	codes := make([]string, 0, len(t.Entries))
	for c := range t.Entries {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Merge overlays overrides onto base. Later files win on key collision.
// None of the inputs are modified.
func Merge(base *File, overrides ...*File) *File {
	merged := &File{
		AccountTypes:     make(map[string]Entry, len(base.AccountTypes)),
		DefaultRules:     base.DefaultRules,
		DefaultCommodity: base.DefaultCommodity,
	}
	for _, f := range append([]*File{base}, overrides...) {
		if f == nil {
			continue
		}
		for code, e := range f.AccountTypes {
			merged.AccountTypes[normalizeCode(code)] = e
		}
		if f.DefaultRules.Unmapped != nil {
			merged.DefaultRules.Unmapped = f.DefaultRules.Unmapped
		}
		if f.DefaultCommodity != "" {
			merged.DefaultCommodity = f.DefaultCommodity
		}
	}
	return merged
}

// Table converts a validated file into a lookup table.
func (f *File) Table() (*Table, error) {
	if f.DefaultRules.Unmapped == nil {
		return nil, fmt.Errorf("mapping has no default rule for unmapped accounts")
	}
	if err := f.Validate("mapping"); err != nil {
		return nil, err
	}
	t := &Table{
		Entries:   make(map[string]Entry, len(f.AccountTypes)),
		Default:   normalizeEntry(*f.DefaultRules.Unmapped),
		Commodity: f.DefaultCommodity,
	}
	for code, e := range f.AccountTypes {
		t.Entries[normalizeCode(code)] = normalizeEntry(e)
	}
	if t.Commodity == "" {
		t.Commodity = DefaultCommodity
	}
	return t, nil
}

// Validate checks every entry of f. All problems are reported together.
func (f *File) Validate(source string) error {
	var errs error
	for _, code := range sortedKeys(f.AccountTypes) {
		for _, err := range validateEntry(f.AccountTypes[code]) {
			errs = multierr.Append(errs, fmt.Errorf("%s: account type %q: %w", source, code, err))
		}
	}
	if f.DefaultRules.Unmapped != nil {
		for _, err := range validateEntry(*f.DefaultRules.Unmapped) {
			errs = multierr.Append(errs, fmt.Errorf("%s: default rule: %w", source, err))
		}
	}
	return errs
}

const invalidPathChars = `/\<>|"*?`

func validateEntry(e Entry) []error {
	var errs []error
	if e.Type == "" {
		errs = append(errs, fmt.Errorf("missing gnucash_type"))
	} else if _, ok := model.ParseAccountType(string(e.Type)); !ok {
		errs = append(errs, fmt.Errorf("invalid gnucash_type %q", e.Type))
	}
	dest := strings.TrimSpace(e.Destination)
	if dest == "" {
		return append(errs, fmt.Errorf("missing destination_hierarchy"))
	}
	if i := strings.IndexAny(dest, invalidPathChars); i >= 0 {
		errs = append(errs, fmt.Errorf("destination %q contains invalid character %q", dest, dest[i]))
	}
	if strings.Contains(dest, "::") {
		errs = append(errs, fmt.Errorf("destination %q contains an empty segment", dest))
	}
	if strings.HasPrefix(dest, ":") || strings.HasSuffix(dest, ":") {
		errs = append(errs, fmt.Errorf("destination %q cannot start or end with ':'", dest))
	}
	if _, ok := e.Category(); !ok {
		errs = append(errs, fmt.Errorf("destination %q must start with one of %v", dest, model.Categories))
	}
	return errs
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeEntry(e Entry) Entry {
	if t, ok := model.ParseAccountType(string(e.Type)); ok {
		e.Type = t
	}
	e.Destination = strings.TrimSpace(e.Destination)
	return e
}

func sortedKeys(m map[string]Entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
