package builder

import (
	"fmt"

	"hdoc/attrs"
	"hdoc/common"
	"hdoc/tags"
	"hdoc/tree"
)

// Position tells how content inserted in the middle of a document reaches
// the level of the anchor element.
type Position struct {
	// PopDepth is number of branches to close, starting with the parent of
	// the leaf before the insertion point, to get directly under the anchor.
	// The count includes the paragraph holding that leaf, so inserting into
	// body > p has PopDepth 1 and body > div > p has PopDepth 2. The anchor
	// itself is never closed.
	PopDepth int
	// PushDepth is number of following branches to re-enter after closing.
	PushDepth int
	// JoinNext is set when the anchor is only reachable from the leaf after
	// the insertion point, first pushed branch is the existing one.
	JoinNext bool
	// Newline is set when content before insertion point has to be ended
	// with a line break.
	Newline bool
}

// Locate computes position of content inserted at offset under the nearest
// element named anchor. Anchor that encloses neither the character before
// nor the one at offset is a structural error.
func Locate(doc *tree.Document, offset int, anchor *tags.Tag) (Position, error) {
	if offset < 0 || offset > doc.Len() {
		return Position{}, &tree.StructuralError{Op: "locate", Offset: offset,
			Reason: fmt.Sprintf("offset outside of document [0, %d]", doc.Len())}
	}

	var pos Position
	count := heightTo(doc, anchor, max(0, offset-1))
	if count < 0 && offset > 0 && heightTo(doc, anchor, offset) >= 0 {
		count = len(doc.PathTo(offset-1)) - 1
		pos.JoinNext = true
		pos.PushDepth = 1
	}
	if count < 0 {
		return Position{}, &tree.StructuralError{Op: "locate", Offset: offset,
			Reason: fmt.Sprintf("no enclosing %s element", anchor)}
	}
	pos.PopDepth = count

	if !pos.JoinNext && offset > 0 {
		prev, err := doc.Text(offset-1, 1)
		if err != nil {
			return Position{}, err
		}
		pos.Newline = prev != "\n"
	}
	return pos, nil
}

// heightTo counts branches from the parent of the leaf at offset up to, not
// including, element named anchor. Returns -1 when there is no such element.
func heightTo(doc *tree.Document, anchor *tags.Tag, offset int) int {
	count := 0
	for e := doc.ParagraphElement(offset); e != tree.NoNode; e = doc.Parent(e) {
		if doc.Name(e) == anchor {
			return count
		}
		count++
	}
	return -1
}

// Instructions returns instructions moving insertion from the leaf before
// the insertion point to the anchor level.
func (p Position) Instructions() []tree.Instruction {
	var out []tree.Instruction
	if p.Newline {
		out = append(out, tree.Content(attrs.Named(tags.Content), "\n"))
	}
	for range p.PopDepth {
		out = append(out, tree.Close())
	}
	for range p.PushDepth {
		out = append(out, tree.OpenJoinNext())
	}
	return out
}

// seed returns instructions ending existing content and positioning the
// insertion when the insert tag is found in the stream. Newline joins the
// previous run unless it is an atomic element which must not be extended.
func seed(doc *tree.Document, offset, popDepth, pushDepth int) ([]tree.Instruction, error) {
	if popDepth == 0 && pushDepth == 0 {
		return nil, nil
	}
	var out []tree.Instruction
	newline := offset == 0
	join := true
	if offset > 0 {
		prev, err := doc.Text(offset-1, 1)
		if err != nil {
			return nil, err
		}
		newline = prev != "\n"
		switch t := doc.Name(doc.CharacterElement(offset - 1)); {
		case t == tags.Img, t == tags.Hr, t == tags.Comment, !t.IsKnown():
			join = false
		}
	}
	if newline {
		in := tree.Content(attrs.Named(tags.Content), "\n")
		if join {
			in.Direction = common.DirectionJoinPrevious
		}
		out = append(out, in)
	}
	for range popDepth {
		out = append(out, tree.Close())
	}
	for range pushDepth {
		out = append(out, tree.OpenJoinNext())
	}
	return out, nil
}
