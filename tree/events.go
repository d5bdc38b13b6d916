package tree

import (
	"slices"
)

// ChangeType tells what kind of edit produced a change notification.
type ChangeType uint8

const (
	// ChangeInsert is produced by Insert and Create.
	ChangeInsert ChangeType = iota + 1
	// ChangeStructure is produced by Update, content is not changed.
	ChangeStructure
)

func (t ChangeType) String() string {
	switch t {
	case ChangeInsert:
		return "insert"
	case ChangeStructure:
		return "structure"
	default:
		return "unknown"
	}
}

// ElementEdit describes replacement of Removed children of Parent starting
// at Index with Added ones.
type ElementEdit struct {
	Parent  NodeID
	Index   int
	Removed []NodeID
	Added   []NodeID
}

// Change is delivered to listeners once per applied edit.
type Change struct {
	Type   ChangeType
	Offset int
	Length int
	Edits  []ElementEdit
}

type listener struct {
	id int
	fn func(Change)
}

// Subscribe registers function called after every applied edit. Listener is
// called outside of the document lock and may read the document. Returned
// function removes listener.
func (d *Document) Subscribe(fn func(Change)) (cancel func()) {
	d.lmu.Lock()
	defer d.lmu.Unlock()

	d.nextSub++
	id := d.nextSub
	d.listeners = append(d.listeners, listener{id: id, fn: fn})
	return func() {
		d.lmu.Lock()
		defer d.lmu.Unlock()
		d.listeners = slices.DeleteFunc(d.listeners, func(l listener) bool { return l.id == id })
	}
}

func (d *Document) notify(ch Change) {
	d.lmu.Lock()
	ls := slices.Clone(d.listeners)
	d.lmu.Unlock()

	for _, l := range ls {
		l.fn(ch)
	}
}
