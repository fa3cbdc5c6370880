package hierarchy

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/qbd2gnc/internal/model"
)

// Restore rebuilds a tree from flattened records, such as a previously
// exported account CSV. Every record must follow its parent. Placeholder
// flags are kept as recorded so Validate can report rows that disagree
// with their children.
func Restore(records []model.FlattenedAccountRecord) (*Tree, error) {
	t := New()
	flags := make(map[*Node]bool, len(records))

	for i, r := range records {
		segments := strings.Split(r.FullName, Separator)
		name := segments[len(segments)-1]
		if name != r.Name {
			return nil, fmt.Errorf("record %d: account name %q does not match full name %q", i+1, r.Name, r.FullName)
		}

		if len(segments) == 1 {
			c := t.root.Child(name)
			if c == nil {
				return nil, fmt.Errorf("record %d: %q is not a fundamental category", i+1, r.FullName)
			}
			if _, seen := flags[c]; seen {
				return nil, fmt.Errorf("record %d: %q is listed twice", i+1, r.FullName)
			}
			c.Type = r.Type
			flags[c] = r.Placeholder
			continue
		}

		parent := t.Find(strings.Join(segments[:len(segments)-1], Separator))
		if parent == nil {
			return nil, fmt.Errorf("record %d: %q is listed before its parent", i+1, r.FullName)
		}
		n := newNode(name, r.Type)
		n.Code = r.Code
		n.Source = r.FullName
		n.Meta = model.Metadata{
			Description: r.Description,
			Notes:       r.Notes,
			Color:       r.Color,
			TaxInfo:     r.TaxInfo,
			Hidden:      r.Hidden,
		}
		if err := parent.attach(n); err != nil {
			return nil, fmt.Errorf("record %d: %q is listed twice", i+1, r.FullName)
		}
		flags[n] = r.Placeholder
	}

	for n, p := range flags {
		if !n.IsCategory() {
			n.Placeholder = p
		}
	}
	return t, nil
}
