package builder

import (
	"hdoc/tree"
)

// EditBuffer accumulates instructions not yet applied to the document.
type EditBuffer struct {
	instrs    []tree.Instruction
	threshold int
}

// NewEditBuffer returns buffer asking for flush once it holds more than
// threshold instructions. Zero threshold never asks.
func NewEditBuffer(threshold int) *EditBuffer {
	return &EditBuffer{threshold: threshold}
}

// Append adds instructions to the end of the buffer.
func (b *EditBuffer) Append(in ...tree.Instruction) {
	b.instrs = append(b.instrs, in...)
}

// Len returns number of buffered instructions.
func (b *EditBuffer) Len() int {
	return len(b.instrs)
}

// ShouldFlush reports whether buffer grew past its threshold.
func (b *EditBuffer) ShouldFlush() bool {
	return b.threshold > 0 && len(b.instrs) > b.threshold
}

// Last returns pointer to the last buffered instruction or nil when buffer
// is empty. It stays valid until the next Append.
func (b *EditBuffer) Last() *tree.Instruction {
	if len(b.instrs) == 0 {
		return nil
	}
	return &b.instrs[len(b.instrs)-1]
}

// At returns pointer to i-th buffered instruction. It stays valid until the
// next Append.
func (b *EditBuffer) At(i int) *tree.Instruction {
	return &b.instrs[i]
}

// LastIsOpen reports whether the last buffered instruction starts a branch.
func (b *EditBuffer) LastIsOpen() bool {
	last := b.Last()
	return last != nil && last.Kind == tree.KindOpen
}

// Instructions returns copy of buffered instructions.
func (b *EditBuffer) Instructions() []tree.Instruction {
	return append([]tree.Instruction(nil), b.instrs...)
}

// Discard drops buffered instructions.
func (b *EditBuffer) Discard() {
	b.instrs = nil
}

// Flush applies buffered instructions to doc as a single edit at offset,
// replacing whole document content when create is set. Buffer is emptied
// whatever the outcome. Returns number of content characters added.
func (b *EditBuffer) Flush(doc *tree.Document, offset int, create bool) (int, error) {
	if len(b.instrs) == 0 {
		return 0, nil
	}
	instrs := b.instrs
	b.instrs = nil
	if create {
		if err := doc.Create(instrs); err != nil {
			return 0, err
		}
		return tree.TotalLen(instrs), nil
	}
	return doc.Insert(offset, instrs)
}
