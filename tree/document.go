// Package tree implements the structured document: a character content
// store with a tree of branch and leaf elements on top of it.
//
// Leaves cover the content without gaps or overlaps. Content always ends
// with an implicit end of document character covered by the last leaf, so
// an empty document has length 0 but still has one leaf of width 1.
//
// The tree is changed only by Insert, Create and Update. Every call is
// applied as a whole or not at all and produces exactly one change
// notification.
package tree

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"fortio.org/safecast"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hdoc/attrs"
	"hdoc/tags"
)

// NodeID addresses element of the document. Identifiers of removed elements
// are never reused.
type NodeID uint32

// NoNode is returned when there is no element to report.
const NoNode NodeID = math.MaxUint32

// EndOfDocument is the content character implicitly terminating every
// document.
const EndOfDocument = '\n'

type node struct {
	parent   NodeID
	attrs    attrs.Set
	children []NodeID
	start    int
	end      int
	leaf     bool
	dead     bool
}

// Document is safe for concurrent use. Readers never observe partially
// applied edits.
type Document struct {
	mu      sync.RWMutex
	id      uuid.UUID
	nodes   []node
	root    NodeID
	content []rune

	lmu       sync.Mutex
	listeners []listener
	nextSub   int

	pmu   sync.Mutex
	props properties

	log *zap.Logger
}

// New returns empty document in canonical shape: html, body, p and a single
// content leaf covering end of document.
func New(log *zap.Logger) *Document {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	d := &Document{
		id:      id,
		content: []rune{EndOfDocument},
		props:   newProperties(),
		log:     log.Named("tree"),
	}
	d.root = d.alloc(node{parent: NoNode, attrs: attrs.Named(tags.HTML)})
	d.appendChildren(nil, d.root, d.defaultBody())
	return d
}

func (d *Document) defaultBody() NodeID {
	body := d.alloc(node{parent: NoNode, attrs: attrs.Named(tags.Body)})
	p := d.alloc(node{parent: NoNode, attrs: attrs.Named(tags.P)})
	leaf := d.alloc(node{parent: NoNode, attrs: attrs.Named(tags.Content), leaf: true, start: 0, end: 1})
	d.appendChildren(nil, p, leaf)
	d.appendChildren(nil, body, p)
	return body
}

func (d *Document) alloc(n node) NodeID {
	slot, err := safecast.Conv[uint32](len(d.nodes))
	if err != nil {
		panic(fmt.Errorf("node arena overflow: %w", err))
	}
	d.nodes = append(d.nodes, n)
	return NodeID(slot)
}

// ID returns unique identifier assigned to the document when created.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Len returns number of content characters, not counting end of document.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.length()
}

// Text returns length characters of content starting at offset.
func (d *Document) Text(offset, length int) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text(offset, length)
}

// Root returns root element.
func (d *Document) Root() NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// Parent returns parent element or NoNode for root.
func (d *Document) Parent(id NodeID) NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.valid(id) {
		return NoNode
	}
	return d.nodes[id].parent
}

// Children returns copy of child list.
func (d *Document) Children(id NodeID) []NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.valid(id) {
		return nil
	}
	return slices.Clone(d.nodes[id].children)
}

// ChildCount returns number of children.
func (d *Document) ChildCount(id NodeID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.valid(id) {
		return 0
	}
	return len(d.nodes[id].children)
}

// Child returns child with index or NoNode.
func (d *Document) Child(id NodeID, index int) NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.child(id, index)
}

// Attrs returns attributes of element.
func (d *Document) Attrs(id NodeID) attrs.Set {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.valid(id) {
		return attrs.Empty
	}
	return d.nodes[id].attrs
}

// Name returns tag of element.
func (d *Document) Name(id NodeID) *tags.Tag {
	return d.Attrs(id).Name()
}

// IsLeaf reports whether element is a leaf.
func (d *Document) IsLeaf(id NodeID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.valid(id) && d.nodes[id].leaf
}

// StartOffset returns offset of first content character of element.
func (d *Document) StartOffset(id NodeID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.startOf(id)
}

// EndOffset returns offset just past last content character of element.
func (d *Document) EndOffset(id NodeID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.endOf(id)
}

// ElementIndex returns index of the child of element containing offset.
// Offsets before the first child map to 0, offsets after the last child map
// to the last index. Leaves and invalid elements report -1.
func (d *Document) ElementIndex(id NodeID, offset int) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.elementIndex(id, offset)
}

// CharacterElement returns leaf containing offset.
func (d *Document) CharacterElement(offset int) NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.leafAt(offset)
}

// ParagraphElement returns parent of the leaf containing offset.
func (d *Document) ParagraphElement(offset int) NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.nodes[d.leafAt(offset)].parent
}

// PathTo returns branch elements from root down to the parent of the leaf
// containing offset.
func (d *Document) PathTo(offset int) []NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.pathTo(offset)
}

// Leaves returns all leaves in document order.
func (d *Document) Leaves() []NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.leaves(d.root, nil)
}

// Walk visits elements depth first in document order until fn returns false.
func (d *Document) Walk(fn func(id NodeID, depth int) bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.walk(d.root, 0, fn)
}

func (d *Document) valid(id NodeID) bool {
	return int(id) < len(d.nodes) && !d.nodes[id].dead
}

func (d *Document) length() int {
	return len(d.content) - 1
}

func (d *Document) text(offset, length int) (string, error) {
	if offset < 0 || length < 0 || offset+length > len(d.content) {
		return "", structural("text", offset, "range of %d characters outside of document [0, %d]", length, d.length())
	}
	return string(d.content[offset : offset+length]), nil
}

func (d *Document) child(id NodeID, index int) NodeID {
	if !d.valid(id) || index < 0 || index >= len(d.nodes[id].children) {
		return NoNode
	}
	return d.nodes[id].children[index]
}

func (d *Document) startOf(id NodeID) int {
	for int(id) < len(d.nodes) {
		n := &d.nodes[id]
		if n.leaf {
			return n.start
		}
		if len(n.children) == 0 {
			return -1
		}
		id = n.children[0]
	}
	return -1
}

func (d *Document) endOf(id NodeID) int {
	for int(id) < len(d.nodes) {
		n := &d.nodes[id]
		if n.leaf {
			return n.end
		}
		if len(n.children) == 0 {
			return -1
		}
		id = n.children[len(n.children)-1]
	}
	return -1
}

func (d *Document) elementIndex(id NodeID, offset int) int {
	if !d.valid(id) || d.nodes[id].leaf || len(d.nodes[id].children) == 0 {
		return -1
	}
	kids := d.nodes[id].children
	i, _ := slices.BinarySearchFunc(kids, offset, func(c NodeID, off int) int {
		if d.endOf(c) <= off {
			return -1
		}
		return 1
	})
	return min(i, len(kids)-1)
}

func (d *Document) leafAt(offset int) NodeID {
	id := d.root
	for !d.nodes[id].leaf {
		i := d.elementIndex(id, offset)
		if i < 0 {
			return id
		}
		id = d.nodes[id].children[i]
	}
	return id
}

func (d *Document) pathTo(offset int) []NodeID {
	var path []NodeID
	id := d.root
	for !d.nodes[id].leaf {
		path = append(path, id)
		i := d.elementIndex(id, offset)
		if i < 0 {
			break
		}
		id = d.nodes[id].children[i]
	}
	return path
}

func (d *Document) leaves(id NodeID, out []NodeID) []NodeID {
	n := &d.nodes[id]
	if n.leaf {
		return append(out, id)
	}
	for _, c := range n.children {
		out = d.leaves(c, out)
	}
	return out
}

func (d *Document) walk(id NodeID, depth int, fn func(NodeID, int) bool) bool {
	if !fn(id, depth) {
		return false
	}
	for _, c := range d.nodes[id].children {
		if !d.walk(c, depth+1, fn) {
			return false
		}
	}
	return true
}

func (d *Document) appendChildren(j *journal, parent NodeID, kids ...NodeID) {
	if len(kids) == 0 {
		return
	}
	j.touch(parent)
	for _, k := range kids {
		d.nodes[k].parent = parent
	}
	d.nodes[parent].children = append(d.nodes[parent].children, kids...)
}

func (d *Document) detach(j *journal, parent NodeID, from int) []NodeID {
	kids := d.nodes[parent].children
	if from >= len(kids) {
		return nil
	}
	j.touch(parent)
	right := slices.Clone(kids[from:])
	d.nodes[parent].children = kids[:from:from]
	return right
}

func (d *Document) kill(id NodeID) {
	n := &d.nodes[id]
	n.dead = true
	for _, c := range n.children {
		d.kill(c)
	}
}

// Check verifies structural invariants: parent links are consistent, no
// branch is empty and leaves cover content contiguously up to and including
// end of document.
func (d *Document) Check() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	next := 0
	var err error
	d.walk(d.root, 0, func(id NodeID, _ int) bool {
		n := &d.nodes[id]
		switch {
		case n.dead:
			err = fmt.Errorf("element %d is removed but still reachable", id)
		case n.leaf && n.start != next:
			err = fmt.Errorf("leaf %d starts at %d, expected %d", id, n.start, next)
		case n.leaf && n.end <= n.start:
			err = fmt.Errorf("leaf %d has empty range [%d,%d)", id, n.start, n.end)
		case !n.leaf && len(n.children) == 0:
			err = fmt.Errorf("branch %d (%s) has no children", id, n.attrs.Name())
		}
		if err != nil {
			return false
		}
		for _, c := range n.children {
			if d.nodes[c].parent != id {
				err = fmt.Errorf("element %d has parent %d, expected %d", c, d.nodes[c].parent, id)
				return false
			}
		}
		if n.leaf {
			next = n.end
		}
		return true
	})
	if err != nil {
		return err
	}
	if next != len(d.content) {
		return fmt.Errorf("leaves cover %d characters, document has %d", next, len(d.content))
	}
	return nil
}
