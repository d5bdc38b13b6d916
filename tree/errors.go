package tree

import (
	"errors"
	"fmt"
)

// ErrStructure is matched by every StructuralError with errors.Is.
var ErrStructure = errors.New("structural error")

// StructuralError reports an edit that cannot be applied to the tree: offset
// outside of the document, closing past the root element or an insertion
// point outside of any valid structural region. The tree is left unchanged.
type StructuralError struct {
	Op     string
	Offset int
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Op, e.Offset, e.Reason)
}

// Is makes errors.Is(err, ErrStructure) work.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructure
}

func structural(op string, offset int, format string, args ...any) error {
	return &StructuralError{Op: op, Offset: offset, Reason: fmt.Sprintf(format, args...)}
}
