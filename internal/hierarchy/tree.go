package hierarchy

import (
	"strings"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

const (
	// RootName is the name of the synthetic root, which is never exported.
	RootName = "Root"
	// Separator joins account path segments.
	Separator = ":"
)

// Tree is a GnuCash account hierarchy: a synthetic root owning the five
// category nodes.
type Tree struct {
	root *Node
}

// New returns a tree holding only the root and the five category placeholders.
func New() *Tree {
	root := newNode(RootName, model.AccountTypeRoot)
	root.Placeholder = true
	for _, c := range model.Categories {
		n := newNode(string(c), c.BaseType())
		n.Placeholder = true
		_ = root.attach(n)
	}
	return &Tree{root: root}
}

// Root returns the synthetic root.
func (t *Tree) Root() *Node { return t.root }

// Category returns the node of a fundamental category.
func (t *Tree) Category(c model.Category) *Node { return t.root.Child(string(c)) }

// Find returns the node at path, or nil.
func (t *Tree) Find(path string) *Node {
	n := t.root
	for _, seg := range strings.Split(path, Separator) {
		if n = n.Child(seg); n == nil {
			return nil
		}
	}
	return n
}

// Walk calls fn for every non-root node in pre-order. Returning false
// from fn skips the node's descendants.
func (t *Tree) Walk(fn func(*Node) bool) {
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range n.children {
			if fn(c) {
				walk(c)
			}
		}
	}
	walk(t.root)
}

// Len returns the number of non-root nodes.
func (t *Tree) Len() int {
	var count int
	t.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}
