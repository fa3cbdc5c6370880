package hierarchy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// Node is one account in the hierarchy. A node owns its children; the
// parent pointer is only used to walk upwards.
type Node struct {
	Name        string
	Type        model.AccountType
	Code        string
	Placeholder bool
	Meta        model.Metadata
	Source      string          // QuickBooks name the node was built from; empty for synthesized nodes
	Balance     decimal.Decimal // QuickBooks opening balance, informational only

	path     string
	parent   *Node
	children []*Node
	byName   map[string]*Node
}

func newNode(name string, t model.AccountType) *Node {
	return &Node{Name: name, Type: t, path: name, byName: make(map[string]*Node)}
}

// FullPath returns the colon-joined names from the category down to n.
func (n *Node) FullPath() string { return n.path }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the children in insertion order.
func (n *Node) Children() []*Node {
	res := make([]*Node, len(n.children))
	copy(res, n.children)
	return res
}

// Child returns the child called name, or nil.
func (n *Node) Child(name string) *Node { return n.byName[name] }

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

// IsRoot reports whether n is the synthetic root.
func (n *Node) IsRoot() bool { return n.parent == nil && n.Type == model.AccountTypeRoot }

// IsCategory reports whether n is one of the five fundamental category nodes.
func (n *Node) IsCategory() bool { return n.parent != nil && n.parent.IsRoot() }

// Synthesized reports whether n was created as path scaffolding rather
// than from a source record.
func (n *Node) Synthesized() bool { return n.Source == "" }

func (n *Node) attach(child *Node) error {
	if _, ok := n.byName[child.Name]; ok {
		return fmt.Errorf("%q already has a child named %q", n.path, child.Name)
	}
	child.parent = n
	n.children = append(n.children, child)
	n.byName[child.Name] = child
	n.Placeholder = true
	child.repath()
	return nil
}

func (n *Node) detach(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	delete(n.byName, child.Name)
	child.parent = nil
}

func (n *Node) repath() {
	if n.parent == nil || n.parent.IsRoot() {
		n.path = n.Name
	} else {
		n.path = n.parent.path + Separator + n.Name
	}
	for _, c := range n.children {
		c.repath()
	}
}

func (n *Node) record() model.FlattenedAccountRecord {
	return model.FlattenedAccountRecord{
		Type:        n.Type,
		FullName:    n.path,
		Name:        n.Name,
		Code:        n.Code,
		Description: n.Meta.Description,
		Color:       n.Meta.Color,
		Notes:       n.Meta.Notes,
		Hidden:      n.Meta.Hidden,
		TaxInfo:     n.Meta.TaxInfo,
		Placeholder: n.Placeholder,
	}
}
