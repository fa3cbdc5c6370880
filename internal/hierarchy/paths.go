package hierarchy

import (
	"strings"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// ensurePath walks segments from the root, creating missing levels. A
// level whose path belongs to a planned record becomes that record's
// account; any other missing level becomes a placeholder.
func (b *Builder) ensurePath(tree *Tree, segments []string, occupied map[string]*plan) *Node {
	cur := tree.Root()
	for i, seg := range segments {
		next := cur.Child(seg)
		if next == nil {
			if owner, ok := occupied[strings.Join(segments[:i+1], Separator)]; ok {
				next = accountNode(owner, seg)
			} else {
				next = newNode(seg, placeholderType(cur))
				b.log.Debug().
					Str("path", cur.FullPath()+Separator+seg).
					Str("type", string(next.Type)).
					Msg("created placeholder")
			}
			// cur has no child named seg, so attach cannot fail.
			_ = cur.attach(next)
		}
		cur = next
	}
	return cur
}

func accountNode(p *plan, name string) *Node {
	n := newNode(name, p.entry.Type)
	n.Code = p.record.Code
	n.Meta = p.record.Metadata()
	n.Source = p.record.Name
	n.Balance = p.record.OpeningBalance
	return n
}

// placeholderType is the type given to a synthesized level: the type of
// the nearest typed ancestor, with the singleton types RECEIVABLE and
// PAYABLE replaced by their plain family type.
func placeholderType(parent *Node) model.AccountType {
	for n := parent; n != nil; n = n.parent {
		switch n.Type {
		case "", model.AccountTypeRoot:
			continue
		case model.AccountTypeReceivable:
			return model.AccountTypeAsset
		case model.AccountTypePayable:
			return model.AccountTypeLiability
		default:
			return n.Type
		}
	}
	return model.AccountTypeAsset
}
