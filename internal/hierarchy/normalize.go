package hierarchy

import "github.com/cleared-dev/qbd2gnc/internal/model"

// TypeConflict is a parent/child pair that would have been collapsed but
// whose types belong to different families.
type TypeConflict struct {
	Path       string
	ParentType model.AccountType
	ChildType  model.AccountType
}

// Report lists what Normalize changed.
type Report struct {
	Collapsed []string // paths of nodes that absorbed their only child
	Conflicts []TypeConflict
}

// Normalize collapses every node whose only child has the same name into
// that child, so "Expenses:Rent:Rent" becomes "Expenses:Rent". Nodes are
// processed bottom-up and re-checked after each collapse, so chains of
// any length reduce in one call and a second call changes nothing.
// Category nodes are never collapsed.
func Normalize(t *Tree) *Report {
	r := &Report{}
	for _, c := range t.root.children {
		for _, n := range c.Children() {
			normalize(n, r)
		}
	}
	return r
}

func normalize(n *Node, r *Report) {
	for _, c := range n.Children() {
		normalize(c, r)
	}
	for collapse(n, r) {
	}
}

func collapse(n *Node, r *Report) bool {
	if len(n.children) != 1 {
		return false
	}
	child := n.children[0]
	if child.Name != n.Name {
		return false
	}
	if !model.Compatible(n.Type, child.Type) {
		r.Conflicts = append(r.Conflicts, TypeConflict{Path: child.FullPath(), ParentType: n.Type, ChildType: child.Type})
		return false
	}

	n.detach(child)
	n.Type = child.Type
	if n.Code == "" {
		n.Code = child.Code
	}
	if n.Source == "" {
		n.Source = child.Source
	}
	n.Meta.Absorb(child.Meta)
	n.Balance = n.Balance.Add(child.Balance)
	for _, gc := range child.Children() {
		child.detach(gc)
		_ = n.attach(gc)
	}
	n.Placeholder = len(n.children) > 0
	r.Collapsed = append(r.Collapsed, n.FullPath())
	return true
}
