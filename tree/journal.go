package tree

import (
	"slices"
)

// journal records elements before their first modification, it is used to
// roll back failed updates and to report element edits. Content is not
// journaled, edits changing content are validated before they start.
type journal struct {
	d     *Document
	mark  int
	saved map[NodeID]node
	order []NodeID
}

func (d *Document) begin() *journal {
	return &journal{
		d:     d,
		mark:  len(d.nodes),
		saved: make(map[NodeID]node),
	}
}

func (j *journal) touch(id NodeID) {
	if j == nil || int(id) >= j.mark {
		return
	}
	if _, ok := j.saved[id]; ok {
		return
	}
	n := j.d.nodes[id]
	n.children = slices.Clone(n.children)
	j.saved[id] = n
	j.order = append(j.order, id)
}

func (j *journal) created(id NodeID) bool {
	return int(id) >= j.mark
}

func (j *journal) rollback() {
	d := j.d
	d.nodes = d.nodes[:j.mark]
	for id, n := range j.saved {
		d.nodes[id] = n
	}
}

// edits compares child lists of modified elements with their saved state.
func (j *journal) edits() []ElementEdit {
	d := j.d
	var out []ElementEdit
	for _, id := range j.order {
		if d.nodes[id].dead || d.nodes[id].leaf {
			continue
		}
		before, after := j.saved[id].children, d.nodes[id].children
		if slices.Equal(before, after) {
			continue
		}
		prefix := 0
		for prefix < len(before) && prefix < len(after) && before[prefix] == after[prefix] {
			prefix++
		}
		suffix := 0
		for suffix < len(before)-prefix && suffix < len(after)-prefix &&
			before[len(before)-1-suffix] == after[len(after)-1-suffix] {
			suffix++
		}
		out = append(out, ElementEdit{
			Parent:  id,
			Index:   prefix,
			Removed: slices.Clone(before[prefix : len(before)-suffix]),
			Added:   slices.Clone(after[prefix : len(after)-suffix]),
		})
	}
	return out
}

// normalize removes branches left without children by the edit.
func (j *journal) normalize() {
	d := j.d
	queue := slices.Clone(j.order)
	for id := j.mark; id < len(d.nodes); id++ {
		queue = append(queue, NodeID(id))
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := &d.nodes[id]
		if n.dead || n.leaf || len(n.children) > 0 || id == d.root {
			continue
		}
		n.dead = true
		parent := n.parent
		if parent == NoNode || d.nodes[parent].dead {
			continue
		}
		j.touch(parent)
		kids := d.nodes[parent].children
		if i := slices.Index(kids, id); i >= 0 {
			d.nodes[parent].children = slices.Delete(kids, i, i+1)
		}
		queue = append(queue, parent)
	}
}
