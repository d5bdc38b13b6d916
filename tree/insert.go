package tree

import (
	"slices"

	"go.uber.org/zap"

	"hdoc/common"
)

// frame is an open branch during insertion. Children following the insertion
// point are detached into right and put back when the frame is closed or
// when insertion ends.
type frame struct {
	id    NodeID
	right []NodeID
}

// Insert applies instructions at offset. New content is inserted before
// the character currently at offset. Instructions start inside the parent
// of the leaf ending at offset (leaf at offset 0 when inserting at the
// beginning) and may close that branch and its ancestors, but never the root.
//
// Inserting into an empty document with instructions starting with an
// originating open is the same as Create.
//
// Returns number of content characters inserted.
func (d *Document) Insert(offset int, instrs []Instruction) (int, error) {
	if len(instrs) == 0 {
		return 0, nil
	}
	d.mu.Lock()
	j := d.begin()
	var err error
	if d.length() == 0 && offset == 0 && instrs[0].Kind == KindOpen && instrs[0].Direction == common.DirectionOriginate {
		d.create(j, instrs)
	} else {
		err = d.insert(j, offset, instrs)
	}
	if err != nil {
		d.mu.Unlock()
		return 0, err
	}
	j.normalize()
	n := TotalLen(instrs)
	ch := Change{Type: ChangeInsert, Offset: offset, Length: n, Edits: j.edits()}
	d.mu.Unlock()

	d.log.Debug("Inserted", zap.Int("offset", offset), zap.Int("length", n), zap.Int("instructions", len(instrs)))
	d.notify(ch)
	return n, nil
}

// Create replaces whole document content with instructions. When the first
// instruction opens a branch with the same tag as the root, its attributes
// become root attributes and the matching close is ignored. Other branches
// are built under the root. Canonical trailing body holding end of
// document is kept after the new content.
func (d *Document) Create(instrs []Instruction) error {
	d.mu.Lock()
	j := d.begin()
	d.create(j, instrs)
	j.normalize()
	n := TotalLen(instrs)
	ch := Change{Type: ChangeInsert, Offset: 0, Length: n, Edits: j.edits()}
	d.mu.Unlock()

	d.log.Debug("Created", zap.Int("length", n), zap.Int("instructions", len(instrs)))
	d.notify(ch)
	return nil
}

func (d *Document) create(j *journal, instrs []Instruction) {
	root := d.root
	for _, c := range d.detach(j, root, 0) {
		d.kill(c)
	}
	d.content = []rune{EndOfDocument}
	d.appendChildren(j, root, d.defaultBody())
	if len(instrs) > 0 && instrs[0].Kind == KindOpen && instrs[0].Attrs.Name() == d.nodes[root].attrs.Name() {
		j.touch(root)
		d.nodes[root].attrs = instrs[0].Attrs
		instrs = instrs[1:]
	}
	d.shift(0, instrs)
	frames := []frame{{id: root, right: d.detach(j, root, 0)}}
	d.build(j, frames, instrs, 0, true)
}

func (d *Document) insert(j *journal, offset int, instrs []Instruction) error {
	if offset < 0 || offset > d.length() {
		return structural("insert", offset, "offset outside of document [0, %d]", d.length())
	}
	at := max(0, offset-1)
	path := d.pathTo(at)
	if err := checkBalance(offset, len(path), instrs); err != nil {
		return err
	}

	anchor := d.leafAt(at)
	parent := d.nodes[anchor].parent
	idx := slices.Index(d.nodes[parent].children, anchor)
	split := idx
	if offset > 0 {
		a := d.nodes[anchor]
		if a.end > offset {
			right := d.alloc(node{parent: parent, attrs: a.attrs, leaf: true, start: offset, end: a.end})
			j.touch(anchor)
			d.nodes[anchor].end = offset
			j.touch(parent)
			d.nodes[parent].children = slices.Insert(d.nodes[parent].children, idx+1, right)
		}
		split = idx + 1
	}
	d.shift(offset, instrs)

	frames := make([]frame, len(path))
	for i, id := range path {
		from := split
		if i < len(path)-1 {
			from = slices.Index(d.nodes[id].children, path[i+1]) + 1
		}
		frames[i] = frame{id: id, right: d.detach(j, id, from)}
	}
	d.build(j, frames, instrs, offset, false)
	return nil
}

// checkBalance makes sure instructions never close the root, so insertion
// cannot fail half way.
func checkBalance(offset, depth int, instrs []Instruction) error {
	for i, in := range instrs {
		switch in.Kind {
		case KindOpen:
			depth++
		case KindClose:
			depth--
			if depth < 1 {
				return structural("insert", offset, "instruction %d closes root element", i)
			}
		case KindContent:
		default:
			return structural("insert", offset, "instruction %d has unknown kind %s", i, in.Kind)
		}
	}
	return nil
}

// shift moves leaves at or after offset to make room for inserted content
// and puts the content in.
func (d *Document) shift(offset int, instrs []Instruction) {
	n := TotalLen(instrs)
	if n == 0 {
		return
	}
	for i := range d.nodes {
		if nd := &d.nodes[i]; nd.leaf && !nd.dead && nd.start >= offset {
			nd.start += n
			nd.end += n
		}
	}
	text := make([]rune, 0, n)
	for _, in := range instrs {
		if in.Kind == KindContent {
			text = append(text, []rune(in.Text)...)
		}
	}
	d.content = slices.Insert(d.content, offset, text...)
}

func (d *Document) build(j *journal, frames []frame, instrs []Instruction, pos int, lenient bool) {
	for _, in := range instrs {
		top := len(frames) - 1
		switch in.Kind {
		case KindContent:
			l := in.Len()
			if l == 0 {
				continue
			}
			d.addContent(j, &frames[top], in, pos, l)
			pos += l
		case KindOpen:
			frames = append(frames, d.open(j, &frames[top], in))
		case KindClose:
			if top == 0 {
				if !lenient {
					panic("tree: unbalanced instructions passed validation")
				}
				continue
			}
			f := frames[top]
			frames = frames[:top]
			if len(f.right) > 0 {
				fracture := d.alloc(node{parent: NoNode, attrs: d.nodes[f.id].attrs})
				d.appendChildren(j, fracture, f.right...)
				frames[top-1].right = slices.Insert(frames[top-1].right, 0, fracture)
			}
		}
	}
	for i := len(frames) - 1; i >= 0; i-- {
		d.appendChildren(j, frames[i].id, frames[i].right...)
	}
}

func (d *Document) addContent(j *journal, f *frame, in Instruction, pos, l int) {
	switch in.Direction {
	case common.DirectionJoinPrevious:
		if kids := d.nodes[f.id].children; len(kids) > 0 {
			last := kids[len(kids)-1]
			if n := &d.nodes[last]; n.leaf && n.end == pos {
				j.touch(last)
				n.end = pos + l
				return
			}
		}
	case common.DirectionJoinNext:
		if len(f.right) > 0 {
			first := f.right[0]
			if n := &d.nodes[first]; n.leaf && n.start == pos+l {
				j.touch(first)
				n.start = pos
				return
			}
		}
	}
	leaf := d.alloc(node{parent: NoNode, attrs: in.Attrs, leaf: true, start: pos, end: pos + l})
	d.appendChildren(j, f.id, leaf)
}

func (d *Document) open(j *journal, f *frame, in Instruction) frame {
	switch in.Direction {
	case common.DirectionJoinNext:
		if len(f.right) > 0 && !d.nodes[f.right[0]].leaf {
			next := f.right[0]
			f.right = f.right[1:]
			d.appendChildren(j, f.id, next)
			return frame{id: next, right: d.detach(j, next, 0)}
		}
	case common.DirectionJoinPrevious:
		if kids := d.nodes[f.id].children; len(kids) > 0 && !d.nodes[kids[len(kids)-1]].leaf {
			return frame{id: kids[len(kids)-1]}
		}
	}
	branch := d.alloc(node{parent: NoNode, attrs: in.Attrs})
	d.appendChildren(j, f.id, branch)
	return frame{id: branch}
}
