package hierarchy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"github.com/cleared-dev/qbd2gnc/internal/mapping"
	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for per-account decisions.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Builder) { b.log = l }
}

// WithSkipInvalid makes Build skip records that cannot be placed and
// report them in BuildResult.Skipped instead of failing.
func WithSkipInvalid() Option {
	return func(b *Builder) { b.skipInvalid = true }
}

// Builder turns source records into a Tree.
type Builder struct {
	resolver    *mapping.Resolver
	log         zerolog.Logger
	skipInvalid bool
}

// NewBuilder creates a Builder resolving types through resolver.
func NewBuilder(resolver *mapping.Resolver, opts ...Option) *Builder {
	b := &Builder{resolver: resolver, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildResult is the output of Build.
type BuildResult struct {
	Tree        *Tree
	Unmapped    []string // QuickBooks type codes that used the default rule
	Receivables []string // source names mapped to RECEIVABLE
	Payables    []string // source names mapped to PAYABLE
	Skipped     []*TreeConstructionError
}

// plan is a record with its resolved mapping and final path.
type plan struct {
	record   model.SourceAccountRecord
	entry    mapping.Entry
	category model.Category
	segments []string // sub-account segments of the source name
	path     []string // nil until placed
}

func (p *plan) fullPath() string { return strings.Join(p.path, Separator) }

// Build places every record in a fresh tree. Sub-accounts are nested
// under the record whose name is their longest prefix, in the same
// category, regardless of input order. Missing intermediate levels
// become placeholders; a level that is itself a record becomes that
// record's account.
func (b *Builder) Build(records []model.SourceAccountRecord) (*BuildResult, error) {
	res := &BuildResult{}

	// Unmapped codes in strict mode are collected so all of them are
	// reported at once, one error per code.
	var unmapped error
	seen := make(map[string]bool)

	plans := make([]*plan, 0, len(records))
	for _, r := range records {
		p, err := b.resolve(r)
		if err != nil {
			var merr *mapping.MappingError
			if errors.As(err, &merr) {
				if !seen[merr.Code] {
					seen[merr.Code] = true
					unmapped = multierr.Append(unmapped, err)
				}
				continue
			}
			if b.skip(res, err) {
				continue
			}
			return nil, err
		}
		plans = append(plans, p)
	}
	if unmapped != nil {
		return nil, unmapped
	}

	byName := make(map[string]*plan, len(plans))
	for _, p := range plans {
		key := strings.Join(p.segments, Separator)
		if _, ok := byName[key]; !ok {
			byName[key] = p
		}
	}
	for _, p := range plans {
		place(p, byName)
	}

	occupied := make(map[string]*plan, len(plans))
	placed := make([]*plan, 0, len(plans))
	for _, p := range plans {
		key := p.fullPath()
		if other, ok := occupied[key]; ok {
			err := &TreeConstructionError{
				Record: p.record,
				Reason: fmt.Sprintf("full path %q is also produced by account %q", key, other.record.Name),
			}
			if b.skip(res, err) {
				continue
			}
			return nil, err
		}
		occupied[key] = p
		placed = append(placed, p)
	}

	tree := New()
	for _, p := range placed {
		b.ensurePath(tree, p.path, occupied)
		switch p.entry.Type {
		case model.AccountTypeReceivable:
			res.Receivables = append(res.Receivables, p.record.Name)
		case model.AccountTypePayable:
			res.Payables = append(res.Payables, p.record.Name)
		}
	}
	for _, p := range placed {
		if !p.entry.Placeholder {
			continue
		}
		if n := tree.Find(p.fullPath()); n != nil && n.IsLeaf() {
			b.log.Warn().
				Str("account", p.record.Name).
				Str("path", n.FullPath()).
				Msg("mapping asks for a placeholder but the account has no sub-accounts; keeping it postable")
		}
	}

	res.Tree = tree
	res.Unmapped = b.resolver.Unmapped()
	return res, nil
}

func (b *Builder) skip(res *BuildResult, err error) bool {
	var terr *TreeConstructionError
	if !b.skipInvalid || !errors.As(err, &terr) {
		return false
	}
	b.log.Warn().Err(err).Msg("skipping account")
	res.Skipped = append(res.Skipped, terr)
	return true
}

func (b *Builder) resolve(r model.SourceAccountRecord) (*plan, error) {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return nil, &TreeConstructionError{Record: r, Field: "name"}
	case strings.TrimSpace(r.Type) == "":
		return nil, &TreeConstructionError{Record: r, Field: "type"}
	}
	segments := r.Segments()
	for i, s := range segments {
		segments[i] = strings.TrimSpace(s)
		if segments[i] == "" {
			return nil, &TreeConstructionError{Record: r, Reason: "name has an empty sub-account segment"}
		}
	}

	entry, err := b.resolver.Resolve(r.Type)
	if err != nil {
		return nil, fmt.Errorf("account %q: %w", r.Name, err)
	}
	category, ok := entry.Category()
	if !ok {
		return nil, &TreeConstructionError{
			Record: r,
			Reason: fmt.Sprintf("destination %q is not rooted at a fundamental category", entry.Destination),
		}
	}

	b.log.Debug().
		Str("account", r.Name).
		Str("qb_type", r.Type).
		Str("gnucash_type", string(entry.Type)).
		Str("destination", entry.Destination).
		Bool("default_rule", !b.resolver.IsMapped(r.Type)).
		Msg("resolved mapping")

	return &plan{record: r, entry: entry, category: category, segments: segments}, nil
}

// place computes p.path, placing parents first.
func place(p *plan, byName map[string]*plan) {
	if p.path != nil {
		return
	}
	for k := len(p.segments) - 1; k >= 1; k-- {
		parent, ok := byName[strings.Join(p.segments[:k], Separator)]
		if !ok || parent.category != p.category {
			continue
		}
		place(parent, byName)
		p.path = append(append([]string{}, parent.path...), p.segments[k:]...)
		return
	}
	var path []string
	for _, s := range strings.Split(p.entry.Destination, Separator) {
		path = append(path, strings.TrimSpace(s))
	}
	p.path = append(path, p.segments...)
}
