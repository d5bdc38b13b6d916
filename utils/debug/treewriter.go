// Package debug formats readable dumps of hierarchical structures.
package debug

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TreeWriter collects one line per tree node, every level of depth is
// indented with two spaces.
type TreeWriter struct {
	b strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{}
}

func (tw *TreeWriter) String() string {
	return tw.b.String()
}

// WriteTo implements io.WriterTo.
func (tw *TreeWriter) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, tw.b.String())
	return int64(n), err
}

func (tw *TreeWriter) indent(depth int) {
	for range depth {
		tw.b.WriteString("  ")
	}
}

func (tw *TreeWriter) tail(extra []string) {
	for _, s := range extra {
		if s == "" {
			continue
		}
		tw.b.WriteByte(' ')
		tw.b.WriteString(s)
	}
	tw.b.WriteByte('\n')
}

// Node writes branch line: name followed by non empty extras.
func (tw *TreeWriter) Node(depth int, name string, extra ...string) {
	tw.indent(depth)
	tw.b.WriteString(name)
	tw.tail(extra)
}

// Leaf writes line for a node covering [start, end) range of text.
func (tw *TreeWriter) Leaf(depth int, name string, start, end int, text string, extra ...string) {
	tw.indent(depth)
	fmt.Fprintf(&tw.b, "%s [%d,%d) %s", name, start, end, strconv.Quote(text))
	tw.tail(extra)
}

// Line writes formatted line at depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(&tw.b, format, args...)
	tw.b.WriteByte('\n')
}
