package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hdoc/attrs"
	"hdoc/css"
	"hdoc/tags"
	"hdoc/tree"
)

func TestStyleStack(t *testing.T) {
	var s StyleStack
	require.True(t, s.Current().Equal(attrs.Empty))
	require.Nil(t, s.Top())

	s.Push(tags.Cite, attrs.Of(tags.Cite, map[string]string{"class": "note"}), attrs.Empty.With(css.Color, "red"))
	base := s.Current()
	require.Equal(t, "red", base.Value(css.Color))
	cite, ok := base.Sub(attrs.TagKey(tags.Cite))
	require.True(t, ok)
	require.Equal(t, "note", cite.Value(attrs.HTML("class")))

	s.Push(tags.B, attrs.Named(tags.B), attrs.Empty)
	s.Push(tags.U, attrs.Named(tags.U), attrs.Empty)
	s.Push(tags.Strike, attrs.Named(tags.Strike), attrs.Empty)
	require.Equal(t, 4, s.Depth())
	require.Equal(t, tags.Strike, s.Top())
	cur := s.Current()
	require.Equal(t, "bold", cur.Value(css.FontWeight))
	require.Equal(t, "red", cur.Value(css.Color))
	require.Contains(t, cur.Value(css.TextDecoration), "underline")
	require.Contains(t, cur.Value(css.TextDecoration), "line-through")

	s.Pop()
	s.Pop()
	s.Pop()
	require.True(t, s.Current().Equal(base), "got %s, want %s", s.Current(), base)

	s.Pop()
	s.Pop()
	require.Equal(t, 0, s.Depth())
	require.True(t, s.Current().Equal(attrs.Empty))
}

func TestEditBuffer(t *testing.T) {
	b := NewEditBuffer(2)
	require.Nil(t, b.Last())
	require.False(t, b.LastIsOpen())

	b.Append(tree.Open(attrs.Named(tags.P)))
	require.True(t, b.LastIsOpen())
	b.Append(tree.Content(attrs.Named(tags.Content), "ab"))
	require.False(t, b.ShouldFlush())
	b.Append(tree.Content(attrs.Named(tags.Content), "\n"), tree.Close())
	require.True(t, b.ShouldFlush())

	got := b.Instructions()
	got[0] = tree.Close()
	require.Equal(t, tree.KindOpen, b.Instructions()[0].Kind)

	doc := tree.New(testLogger(t))
	n, err := b.Flush(doc, 0, true)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 0, b.Len())
	require.Equal(t, 3, doc.Len())

	n, err = b.Flush(doc, 3, false)
	require.NoError(t, err)
	require.Zero(t, n)

	// failed flush still empties the buffer
	b.Append(tree.Close(), tree.Close(), tree.Close())
	_, err = b.Flush(doc, 3, false)
	require.ErrorIs(t, err, tree.ErrStructure)
	require.Equal(t, 0, b.Len())

	require.False(t, NewEditBuffer(0).ShouldFlush())
}
