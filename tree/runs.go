package tree

import (
	"hdoc/attrs"
	"hdoc/tags"
)

// Run is a content range carrying the tag.
type Run struct {
	Attrs attrs.Set
	Start int
	End   int
}

// Runs returns content ranges of the tag in document order. Character tags
// are found in leaf attributes, adjacent leaves with equal tag attributes
// form a single run. Leaves named by the tag form runs of their own.
func (d *Document) Runs(t *tags.Tag) []Run {
	d.mu.RLock()
	defer d.mu.RUnlock()

	key := attrs.TagKey(t)
	var out []Run
	for _, id := range d.leaves(d.root, nil) {
		n := &d.nodes[id]
		if n.attrs.Name() == t {
			out = append(out, Run{Attrs: n.attrs, Start: n.start, End: n.end})
			continue
		}
		sub, ok := n.attrs.Sub(key)
		if !ok {
			continue
		}
		if last := len(out) - 1; last >= 0 && out[last].End == n.start && out[last].Attrs.Equal(sub) {
			out[last].End = n.end
			continue
		}
		out = append(out, Run{Attrs: sub, Start: n.start, End: n.end})
	}
	return out
}
