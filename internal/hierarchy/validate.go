package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// ViolationKind names a tree invariant.
type ViolationKind string

const (
	ViolationARSingleton   ViolationKind = "ar_singleton"
	ViolationAPSingleton   ViolationKind = "ap_singleton"
	ViolationPlaceholder   ViolationKind = "placeholder_mismatch"
	ViolationPath          ViolationKind = "path_mismatch"
	ViolationDuplicatePath ViolationKind = "duplicate_path"
	ViolationCycle         ViolationKind = "cycle"
	ViolationStructure     ViolationKind = "category_structure"
)

// ViolationKinds lists every kind Validate reports.
var ViolationKinds = []ViolationKind{
	ViolationARSingleton,
	ViolationAPSingleton,
	ViolationPlaceholder,
	ViolationPath,
	ViolationDuplicatePath,
	ViolationCycle,
	ViolationStructure,
}

// ParseViolationKinds converts kind names, as used in configuration files.
func ParseViolationKinds(names []string) ([]ViolationKind, error) {
	kinds := make([]ViolationKind, 0, len(names))
	for _, name := range names {
		k := ViolationKind(strings.ToLower(strings.TrimSpace(name)))
		known := false
		for _, v := range ViolationKinds {
			if k == v {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown violation kind %q", name)
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

// ViolationError describes a single invariant violation.
type ViolationError struct {
	Kind        ViolationKind
	Path        string
	Description string
}

func (e ViolationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Path, e.Description)
}

// Violations is the result of Validate.
type Violations []ViolationError

// Filter returns the violations of the given kinds.
func (vs Violations) Filter(kinds ...ViolationKind) Violations {
	var res Violations
	for _, v := range vs {
		for _, k := range kinds {
			if v.Kind == k {
				res = append(res, v)
				break
			}
		}
	}
	return res
}

// Err combines the violations into one error, or nil if there are none.
func (vs Violations) Err() error {
	var err error
	for _, v := range vs {
		err = multierr.Append(err, v)
	}
	return err
}

// Validate checks t against the GnuCash import invariants. It does not
// modify the tree and terminates even if parent links form a cycle.
func Validate(t *Tree) Violations {
	var errs Violations

	// Root holds exactly the five categories, all placeholders.
	if len(t.root.children) != len(model.Categories) {
		errs = append(errs, ViolationError{
			Kind:        ViolationStructure,
			Path:        RootName,
			Description: fmt.Sprintf("root has %d children, want %d categories", len(t.root.children), len(model.Categories)),
		})
	}
	for _, c := range model.Categories {
		n := t.Category(c)
		switch {
		case n == nil:
			errs = append(errs, ViolationError{Kind: ViolationStructure, Path: string(c), Description: "category is missing"})
		case !n.Placeholder:
			errs = append(errs, ViolationError{Kind: ViolationStructure, Path: string(c), Description: "category must be a placeholder"})
		}
	}

	seen := map[*Node]bool{t.root: true}
	paths := make(map[string]int)
	var receivables, payables []string

	stack := []*Node{t.root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for i := len(n.children) - 1; i >= 0; i-- {
			c := n.children[i]
			if seen[c] {
				errs = append(errs, ViolationError{
					Kind:        ViolationCycle,
					Path:        c.path,
					Description: fmt.Sprintf("node is reachable more than once (again under %q)", n.path),
				})
				continue
			}
			seen[c] = true
			stack = append(stack, c)
		}
		if n == t.root {
			continue
		}

		paths[n.path]++
		switch n.Type {
		case model.AccountTypeReceivable:
			receivables = append(receivables, n.path)
		case model.AccountTypePayable:
			payables = append(payables, n.path)
		}

		if v, ok := checkAncestry(n, len(seen)); !ok {
			errs = append(errs, v)
			continue
		}
		if want := expectedPath(n); n.path != want {
			errs = append(errs, ViolationError{
				Kind:        ViolationPath,
				Path:        n.path,
				Description: fmt.Sprintf("full path does not match ancestry %q", want),
			})
		}
		if !n.IsCategory() && n.Placeholder != (len(n.children) > 0) {
			errs = append(errs, ViolationError{
				Kind:        ViolationPlaceholder,
				Path:        n.path,
				Description: fmt.Sprintf("placeholder=%t with %d children", n.Placeholder, len(n.children)),
			})
		}
	}

	var dups []string
	for p, count := range paths {
		if count > 1 {
			dups = append(dups, p)
		}
	}
	sort.Strings(dups)
	for _, p := range dups {
		errs = append(errs, ViolationError{
			Kind:        ViolationDuplicatePath,
			Path:        p,
			Description: fmt.Sprintf("%d accounts share this full path", paths[p]),
		})
	}

	if len(receivables) > 1 {
		errs = append(errs, ViolationError{
			Kind:        ViolationARSingleton,
			Path:        receivables[1],
			Description: fmt.Sprintf("GnuCash allows one RECEIVABLE account, found %d: %s", len(receivables), strings.Join(receivables, ", ")),
		})
	}
	if len(payables) > 1 {
		errs = append(errs, ViolationError{
			Kind:        ViolationAPSingleton,
			Path:        payables[1],
			Description: fmt.Sprintf("GnuCash allows one PAYABLE account, found %d: %s", len(payables), strings.Join(payables, ", ")),
		})
	}
	return errs
}

// checkAncestry follows parent links to the root, giving up after limit
// steps. Every ancestor of n has been visited before n, so the number of
// visited nodes bounds its depth.
func checkAncestry(n *Node, limit int) (ViolationError, bool) {
	cur := n
	for steps := 0; steps < limit; steps++ {
		cur = cur.parent
		if cur == nil {
			break
		}
		if cur.IsRoot() {
			return ViolationError{}, true
		}
		if cur == n {
			return ViolationError{Kind: ViolationCycle, Path: n.path, Description: "parent chain loops back to the node"}, false
		}
	}
	return ViolationError{Kind: ViolationCycle, Path: n.path, Description: "parent chain does not reach the root"}, false
}

func expectedPath(n *Node) string {
	names := []string{n.Name}
	for p := n.parent; p != nil && !p.IsRoot(); p = p.parent {
		names = append(names, p.Name)
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, Separator)
}
