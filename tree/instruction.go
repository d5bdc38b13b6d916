package tree

import (
	"fmt"
	"unicode/utf8"

	"hdoc/attrs"
	"hdoc/common"
)

// Kind of edit instruction.
type Kind uint8

const (
	KindOpen Kind = iota + 1
	KindClose
	KindContent
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindClose:
		return "close"
	case KindContent:
		return "content"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Instruction is a single step of structural edit. A sequence of
// instructions describes a tree fragment in document order: KindOpen starts a
// branch element, KindClose ends the innermost open one and KindContent adds
// a leaf holding text.
type Instruction struct {
	Kind      Kind
	Attrs     attrs.Set
	Text      string
	Direction common.Direction
}

// Open returns instruction starting new branch element.
func Open(a attrs.Set) Instruction {
	return Instruction{Kind: KindOpen, Attrs: a}
}

// OpenJoinNext returns instruction re-entering the branch element that
// follows the insertion point instead of creating a new one.
func OpenJoinNext() Instruction {
	return Instruction{Kind: KindOpen, Direction: common.DirectionJoinNext}
}

// Close returns instruction ending innermost branch element.
func Close() Instruction {
	return Instruction{Kind: KindClose}
}

// Content returns instruction adding a leaf with the text.
func Content(a attrs.Set, text string) Instruction {
	return Instruction{Kind: KindContent, Attrs: a, Text: text}
}

// Len returns number of content units instruction adds to the document.
func (i Instruction) Len() int {
	if i.Kind != KindContent {
		return 0
	}
	return utf8.RuneCountInString(i.Text)
}

func (i Instruction) String() string {
	var dir string
	if i.Direction != common.DirectionOriginate {
		dir = " " + i.Direction.String()
	}
	switch i.Kind {
	case KindOpen:
		return fmt.Sprintf("open %s%s", i.Attrs.Name(), dir)
	case KindClose:
		return "close"
	case KindContent:
		return fmt.Sprintf("content %s %q%s", i.Attrs.Name(), i.Text, dir)
	default:
		return i.Kind.String()
	}
}

// TotalLen returns number of content units added by all instructions.
func TotalLen(instrs []Instruction) int {
	n := 0
	for _, in := range instrs {
		n += in.Len()
	}
	return n
}
