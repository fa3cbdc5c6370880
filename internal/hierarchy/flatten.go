package hierarchy

import "github.com/cleared-dev/qbd2gnc/internal/model"

// Flatten lists the tree in pre-order, parents before children and
// siblings in insertion order. The root is omitted, as are categories
// with nothing under them.
func Flatten(t *Tree) []model.FlattenedAccountRecord {
	var out []model.FlattenedAccountRecord
	for _, c := range t.root.children {
		if c.IsLeaf() {
			continue
		}
		out = append(out, c.record())
		walk(c, func(n *Node) {
			out = append(out, n.record())
		})
	}
	return out
}

func walk(n *Node, fn func(*Node)) {
	for _, c := range n.children {
		fn(c)
		walk(c, fn)
	}
}
