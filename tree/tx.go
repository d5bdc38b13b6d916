package tree

import (
	"slices"

	"go.uber.org/zap"

	"hdoc/attrs"
)

// Tx gives structural access to the document inside Update. It must not be
// used after the update function returns.
type Tx struct {
	d *Document
	j *journal
}

// Update runs fn with the document locked. Structural edits made by fn are
// reported as a single change. When fn returns error all its edits are
// discarded.
func (d *Document) Update(fn func(tx *Tx) error) error {
	d.mu.Lock()
	j := d.begin()
	if err := fn(&Tx{d: d, j: j}); err != nil {
		j.rollback()
		d.mu.Unlock()
		return err
	}
	j.normalize()
	edits := j.edits()
	offset, length := d.span(edits)
	d.mu.Unlock()

	if len(edits) == 0 {
		return nil
	}
	d.log.Debug("Updated", zap.Int("offset", offset), zap.Int("length", length), zap.Int("edits", len(edits)))
	d.notify(Change{Type: ChangeStructure, Offset: offset, Length: length, Edits: edits})
	return nil
}

// span returns content range covered by added elements, or by removed ones
// when nothing was added.
func (d *Document) span(edits []ElementEdit) (int, int) {
	lo, hi := -1, -1
	cover := func(ids []NodeID) {
		for _, id := range ids {
			s, e := d.startOf(id), d.endOf(id)
			if s < 0 {
				continue
			}
			if lo < 0 || s < lo {
				lo = s
			}
			if e > hi {
				hi = e
			}
		}
	}
	for _, e := range edits {
		cover(e.Added)
	}
	if lo < 0 {
		for _, e := range edits {
			cover(e.Removed)
		}
	}
	if lo < 0 {
		return 0, 0
	}
	return lo, hi - lo
}

// Len returns number of content characters.
func (tx *Tx) Len() int { return tx.d.length() }

// Text returns content range.
func (tx *Tx) Text(offset, length int) (string, error) { return tx.d.text(offset, length) }

// Root returns root element.
func (tx *Tx) Root() NodeID { return tx.d.root }

// Attrs returns element attributes.
func (tx *Tx) Attrs(id NodeID) attrs.Set {
	if !tx.d.valid(id) {
		return attrs.Empty
	}
	return tx.d.nodes[id].attrs
}

// IsLeaf reports whether element is a leaf.
func (tx *Tx) IsLeaf(id NodeID) bool { return tx.d.valid(id) && tx.d.nodes[id].leaf }

// ChildCount returns number of children.
func (tx *Tx) ChildCount(id NodeID) int {
	if !tx.d.valid(id) {
		return 0
	}
	return len(tx.d.nodes[id].children)
}

// Child returns child with index or NoNode.
func (tx *Tx) Child(id NodeID, index int) NodeID { return tx.d.child(id, index) }

// StartOffset returns element start.
func (tx *Tx) StartOffset(id NodeID) int { return tx.d.startOf(id) }

// EndOffset returns element end.
func (tx *Tx) EndOffset(id NodeID) int { return tx.d.endOf(id) }

// ElementIndex returns index of child containing offset.
func (tx *Tx) ElementIndex(id NodeID, offset int) int { return tx.d.elementIndex(id, offset) }

// PathTo returns branches from root to parent of the leaf at offset.
func (tx *Tx) PathTo(offset int) []NodeID { return tx.d.pathTo(offset) }

// NewBranch creates detached branch. It must get children and be attached
// with Replace before update ends, empty branches are dropped.
func (tx *Tx) NewBranch(a attrs.Set) NodeID {
	return tx.d.alloc(node{parent: NoNode, attrs: a})
}

// NewLeaf creates detached leaf covering content range [start, end). Range
// may include end of document.
func (tx *Tx) NewLeaf(a attrs.Set, start, end int) (NodeID, error) {
	if start < 0 || end <= start || end > len(tx.d.content) {
		return NoNode, structural("new leaf", start, "invalid range [%d,%d)", start, end)
	}
	return tx.d.alloc(node{parent: NoNode, attrs: a, leaf: true, start: start, end: end}), nil
}

// Replace removes count children of parent starting at index and puts
// added elements in their place. Added elements must be detached, removed
// ones are discarded together with their descendants.
func (tx *Tx) Replace(parent NodeID, index, count int, added ...NodeID) error {
	d := tx.d
	if !d.valid(parent) || d.nodes[parent].leaf {
		return structural("replace", index, "element %d is not a branch", parent)
	}
	kids := d.nodes[parent].children
	if index < 0 || count < 0 || index+count > len(kids) {
		return structural("replace", index, "%d children out of %d", count, len(kids))
	}
	for _, id := range added {
		if !d.valid(id) || d.nodes[id].parent != NoNode || id == d.root {
			return structural("replace", index, "element %d is not detached", id)
		}
	}
	tx.j.touch(parent)
	for _, id := range kids[index : index+count] {
		tx.kill(id)
	}
	for _, id := range added {
		tx.j.touch(id)
		d.nodes[id].parent = parent
	}
	d.nodes[parent].children = slices.Concat(kids[:index], added, kids[index+count:])
	return nil
}

// Append adds detached elements to the end of parent children.
func (tx *Tx) Append(parent NodeID, added ...NodeID) error {
	if !tx.d.valid(parent) {
		return structural("append", 0, "element %d does not exist", parent)
	}
	return tx.Replace(parent, len(tx.d.nodes[parent].children), 0, added...)
}

func (tx *Tx) kill(id NodeID) {
	tx.j.touch(id)
	tx.d.nodes[id].dead = true
	for _, c := range tx.d.nodes[id].children {
		tx.kill(c)
	}
}
