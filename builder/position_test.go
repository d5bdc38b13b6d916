package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hdoc/attrs"
	"hdoc/common"
	"hdoc/source"
	"hdoc/tags"
	"hdoc/tree"
)

func TestLocate(t *testing.T) {
	nested := load(t, Options{},
		source.Start(tags.Body, nil),
		source.Start(tags.Div, nil),
		source.Start(tags.P, nil),
		source.Text("abcd"),
		source.End(tags.P),
		source.End(tags.Div),
		source.End(tags.Body),
	)

	tests := []struct {
		name   string
		doc    *tree.Document
		offset int
		want   Position
	}{
		{name: "middle of paragraph", doc: paragraph(t), offset: 2, want: Position{PopDepth: 1, Newline: true}},
		{name: "after line end", doc: paragraph(t), offset: 5, want: Position{PopDepth: 1}},
		{name: "start of document", doc: paragraph(t), offset: 0, want: Position{PopDepth: 1}},
		{name: "nested", doc: nested, offset: 2, want: Position{PopDepth: 2, Newline: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, err := Locate(tt.doc, tt.offset, tags.Body)
			require.NoError(t, err)
			require.Equal(t, tt.want, pos)
		})
	}
}

func TestLocateErrors(t *testing.T) {
	doc := paragraph(t)

	for _, offset := range []int{-1, doc.Len() + 1} {
		_, err := Locate(doc, offset, tags.Body)
		require.ErrorIs(t, err, tree.ErrStructure, "offset %d", offset)
	}

	_, err := Locate(doc, 2, tags.Table)
	require.ErrorIs(t, err, tree.ErrStructure)
}

func TestPositionInstructions(t *testing.T) {
	pos := Position{PopDepth: 2, PushDepth: 1, Newline: true}
	got := pos.Instructions()
	require.Len(t, got, 4)
	require.Equal(t, tree.KindContent, got[0].Kind)
	require.Equal(t, "\n", got[0].Text)
	require.Equal(t, tree.KindClose, got[1].Kind)
	require.Equal(t, tree.KindClose, got[2].Kind)
	require.Equal(t, tree.KindOpen, got[3].Kind)
	require.Equal(t, common.DirectionJoinNext, got[3].Direction)

	require.Empty(t, Position{}.Instructions())
}

func TestSeed(t *testing.T) {
	doc := paragraph(t)

	got, err := seed(doc, 2, 0, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	got, err = seed(doc, 2, 1, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "\n", got[0].Text)
	require.Equal(t, common.DirectionJoinPrevious, got[0].Direction)
	require.Equal(t, tree.KindClose, got[1].Kind)
	require.Equal(t, tree.KindOpen, got[2].Kind)

	// line already ended
	got, err = seed(doc, 5, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, tree.KindClose, got[0].Kind)

	// image is never extended
	img := load(t, Options{},
		source.Start(tags.Body, nil),
		source.Start(tags.P, nil),
		source.Simple(tags.Img, map[string]string{"src": "a.png"}),
		source.End(tags.P),
		source.End(tags.Body),
	)
	require.Equal(t, tags.Img, img.Name(img.CharacterElement(0)))
	got, err = seed(img, 1, 1, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, common.DirectionOriginate, got[0].Direction)
	require.True(t, got[0].Attrs.Equal(attrs.Named(tags.Content)))
}
