package tree

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"hdoc/attrs"
	"hdoc/common"
	"hdoc/tags"
)

func newTestDocument(t *testing.T) *Document {
	t.Helper()
	return New(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
}

func text(s string) Instruction {
	return Content(attrs.Named(tags.Content), s)
}

// paragraphDocument is html > body > p > "ab\n" followed by trailing body.
func paragraphDocument() []Instruction {
	return []Instruction{
		Open(attrs.Named(tags.HTML)),
		Open(attrs.Named(tags.Body)),
		Open(attrs.Named(tags.P)),
		text("ab\n"),
		Close(),
		Close(),
		Close(),
	}
}

func TestNewDocument(t *testing.T) {
	d := newTestDocument(t)

	require.Equal(t, 0, d.Len())
	require.NoError(t, d.Check())
	require.Equal(t, "html\n  body\n    p\n      content [0,1) \"\\n\"\n", d.String())
	require.Len(t, d.Leaves(), 1)
	require.NotEqual(t, NoNode, d.CharacterElement(0))
}

func TestCreate(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))
	require.NoError(t, d.Check())

	want := `html
  body
    p
      content [0,3) "ab\n"
  body
    p
      content [3,4) "\n"
`
	require.Equal(t, want, d.String())
	require.Equal(t, 3, d.Len())

	txt, err := d.Text(0, 3)
	require.NoError(t, err)
	require.Equal(t, "ab\n", txt)
}

func TestCreateReplacesContent(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))
	require.NoError(t, d.Create([]Instruction{
		Open(attrs.Named(tags.HTML)),
		Open(attrs.Named(tags.Body)),
		Open(attrs.Named(tags.H1)),
		text("x\n"),
		Close(),
		Close(),
	}))
	require.NoError(t, d.Check())
	require.Equal(t, 2, d.Len())
	require.Equal(t, tags.H1, d.Name(d.ParagraphElement(0)))
}

func TestInsertIntoEmptyIsCreate(t *testing.T) {
	created := newTestDocument(t)
	require.NoError(t, created.Create(paragraphDocument()))

	inserted := newTestDocument(t)
	n, err := inserted.Insert(0, paragraphDocument())
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.Equal(t, created.String(), inserted.String())
}

func TestInsertSplitsLeaf(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))

	n, err := d.Insert(1, []Instruction{text("X")})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, d.Check())

	want := `html
  body
    p
      content [0,1) "a"
      content [1,2) "X"
      content [2,4) "b\n"
  body
    p
      content [4,5) "\n"
`
	require.Equal(t, want, d.String())
}

func TestInsertFracturesBranch(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))
	body := d.Child(d.Root(), 0)

	var changes []Change
	cancel := d.Subscribe(func(ch Change) { changes = append(changes, ch) })
	defer cancel()

	_, err := d.Insert(1, []Instruction{
		Close(),
		Open(attrs.Named(tags.H1)),
		text("X"),
		Close(),
	})
	require.NoError(t, err)
	require.NoError(t, d.Check())

	want := `html
  body
    p
      content [0,1) "a"
    h1
      content [1,2) "X"
    p
      content [2,4) "b\n"
  body
    p
      content [4,5) "\n"
`
	require.Equal(t, want, d.String())

	require.Len(t, changes, 1)
	ch := changes[0]
	require.Equal(t, ChangeInsert, ch.Type)
	require.Equal(t, 1, ch.Offset)
	require.Equal(t, 1, ch.Length)
	require.Len(t, ch.Edits, 1)
	require.Equal(t, body, ch.Edits[0].Parent)
	require.Equal(t, 1, ch.Edits[0].Index)
	require.Empty(t, ch.Edits[0].Removed)
	require.Len(t, ch.Edits[0].Added, 2)
}

func TestInsertJoinNext(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))

	_, err := d.Insert(3, []Instruction{
		Close(),
		Close(),
		OpenJoinNext(),
		Open(attrs.Named(tags.P)),
		text("Z\n"),
		Close(),
	})
	require.NoError(t, err)
	require.NoError(t, d.Check())

	want := `html
  body
    p
      content [0,3) "ab\n"
  body
    p
      content [3,5) "Z\n"
    p
      content [5,6) "\n"
`
	require.Equal(t, want, d.String())
	require.Equal(t, 2, d.ChildCount(d.Root()))
}

func TestInsertJoinPreviousContent(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))

	in := text("c")
	in.Direction = common.DirectionJoinPrevious
	_, err := d.Insert(2, []Instruction{in})
	require.NoError(t, err)
	require.NoError(t, d.Check())
	require.Len(t, d.Leaves(), 3)

	txt, err := d.Text(0, 4)
	require.NoError(t, err)
	require.Equal(t, "abc\n", txt)
}

func TestInsertStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		instrs []Instruction
	}{
		{"negative offset", -1, []Instruction{text("x")}},
		{"past end", 4, []Instruction{text("x")}},
		{"close root", 1, []Instruction{Close(), Close(), Close()}},
		{"unknown kind", 1, []Instruction{{Kind: 42}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDocument(t)
			require.NoError(t, d.Create(paragraphDocument()))
			before := d.String()

			notified := false
			d.Subscribe(func(Change) { notified = true })

			_, err := d.Insert(tt.offset, tt.instrs)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrStructure))

			var se *StructuralError
			require.True(t, errors.As(err, &se))
			require.Equal(t, "insert", se.Op)

			require.Equal(t, before, d.String())
			require.False(t, notified)
		})
	}
}

func TestUpdate(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))

	var changes []Change
	d.Subscribe(func(ch Change) { changes = append(changes, ch) })

	err := d.Update(func(tx *Tx) error {
		root := tx.Root()
		body := tx.Child(root, 0)
		p := tx.NewBranch(attrs.Named(tags.P))
		leaf, err := tx.NewLeaf(attrs.Named(tags.Content), tx.Len(), tx.Len()+1)
		if err != nil {
			return err
		}
		if err := tx.Append(p, leaf); err != nil {
			return err
		}
		if err := tx.Replace(root, 1, 1); err != nil {
			return err
		}
		return tx.Append(body, p)
	})
	require.NoError(t, err)
	require.NoError(t, d.Check())

	want := `html
  body
    p
      content [0,3) "ab\n"
    p
      content [3,4) "\n"
`
	require.Equal(t, want, d.String())
	require.Len(t, changes, 1)
	require.Equal(t, ChangeStructure, changes[0].Type)
	require.Equal(t, 3, changes[0].Offset)
	require.Equal(t, 1, changes[0].Length)
	require.Len(t, changes[0].Edits, 2)
}

func TestUpdateRollback(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))
	before := d.String()

	failure := errors.New("stop")
	err := d.Update(func(tx *Tx) error {
		if err := tx.Replace(tx.Root(), 0, 1); err != nil {
			return err
		}
		tx.NewBranch(attrs.Named(tags.Div))
		return failure
	})
	require.ErrorIs(t, err, failure)
	require.Equal(t, before, d.String())
	require.NoError(t, d.Check())
}

func TestReplaceValidation(t *testing.T) {
	d := newTestDocument(t)
	err := d.Update(func(tx *Tx) error {
		return tx.Replace(tx.Root(), 0, 5)
	})
	require.ErrorIs(t, err, ErrStructure)

	err = d.Update(func(tx *Tx) error {
		return tx.Replace(tx.Root(), 0, 0, tx.Child(tx.Root(), 0))
	})
	require.ErrorIs(t, err, ErrStructure)
}

func TestNavigation(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create(paragraphDocument()))

	root := d.Root()
	require.Equal(t, NoNode, d.Parent(root))
	require.Equal(t, 0, d.ElementIndex(root, 0))
	require.Equal(t, 0, d.ElementIndex(root, 2))
	require.Equal(t, 1, d.ElementIndex(root, 3))
	require.Equal(t, 1, d.ElementIndex(root, 100))

	path := d.PathTo(1)
	require.Len(t, path, 3)
	require.Equal(t, tags.HTML, d.Name(path[0]))
	require.Equal(t, tags.Body, d.Name(path[1]))
	require.Equal(t, tags.P, d.Name(path[2]))

	leaf := d.CharacterElement(1)
	require.True(t, d.IsLeaf(leaf))
	require.Equal(t, 0, d.StartOffset(leaf))
	require.Equal(t, 3, d.EndOffset(leaf))
	require.Equal(t, path[2], d.Parent(leaf))
	require.Equal(t, 0, d.StartOffset(path[1]))
	require.Equal(t, 4, d.EndOffset(root))

	_, err := d.Text(2, 10)
	require.ErrorIs(t, err, ErrStructure)
}

func TestRuns(t *testing.T) {
	d := newTestDocument(t)
	bold := attrs.Named(tags.B)
	run := func(s string, char attrs.Set) Instruction {
		a := attrs.Named(tags.Content)
		if char.Len() > 0 {
			a = a.With(attrs.TagKey(tags.B), char)
		}
		return Content(a, s)
	}
	require.NoError(t, d.Create([]Instruction{
		Open(attrs.Named(tags.HTML)),
		Open(attrs.Named(tags.Body)),
		Open(attrs.Named(tags.P)),
		run("a", attrs.Empty),
		run("bb", bold),
		run("c", bold),
		run("d", attrs.Empty),
		run("e", bold.With(attrs.HTML("class"), "x")),
		run("\n", attrs.Empty),
		Close(),
		Close(),
	}))

	runs := d.Runs(tags.B)
	require.Len(t, runs, 2)
	require.Equal(t, 1, runs[0].Start)
	require.Equal(t, 4, runs[0].End)
	require.Equal(t, 5, runs[1].Start)
	require.Equal(t, 6, runs[1].End)
	require.Equal(t, "x", runs[1].Attrs.Value(attrs.HTML("class")))

	require.Len(t, d.Runs(tags.Content), 7)
}

func TestProperties(t *testing.T) {
	d := newTestDocument(t)

	require.Equal(t, DefaultStyleType, d.DefaultStyleType())
	require.Equal(t, "und", d.Language().String())

	d.SetLanguage("ru-RU")
	require.Equal(t, "ru-RU", d.Language().String())
	d.SetLanguage("not a language tag")
	require.Equal(t, "ru-RU", d.Language().String())

	require.NoError(t, d.SetBase("http://example.com/docs/"))
	require.NoError(t, d.SetBase("sub/"))
	u, err := d.Resolve("page.html")
	require.NoError(t, err)
	require.Equal(t, "http://example.com/docs/sub/page.html", u.String())

	d.AddMap(&ImageMap{Name: "nav"})
	m, ok := d.Map("#nav")
	require.True(t, ok)
	require.Equal(t, "nav", m.Name)
	require.Equal(t, []string{"nav"}, d.MapNames())

	d.AddComment("one")
	comments := d.Comments()
	comments[0] = "changed"
	require.Equal(t, []string{"one"}, d.Comments())
}

func TestRestoreProperties(t *testing.T) {
	d := newTestDocument(t)
	d.SetTitle("first")
	d.AddComment("one")
	require.NoError(t, d.SetBase("http://example.com/"))
	saved := d.SaveProperties()

	d.SetTitle("second")
	d.AddComment("two")
	d.AddLinkedStyleSheet("main.css")
	d.AddMap(&ImageMap{Name: "nav"})
	require.NoError(t, d.SetBase("sub/"))
	d.SetDefaultStyleType("text/plain")

	for range 2 {
		d.RestoreProperties(saved)
		require.Equal(t, "first", d.Title())
		require.Equal(t, []string{"one"}, d.Comments())
		require.Empty(t, d.LinkedStyleSheets())
		require.Empty(t, d.MapNames())
		require.Equal(t, "http://example.com/", d.Base().String())
		require.Equal(t, DefaultStyleType, d.DefaultStyleType())
		d.AddComment("again")
	}

	d.RestoreProperties(Properties{})
	require.Equal(t, []string{"one", "again"}, d.Comments())
}

func TestWriteXML(t *testing.T) {
	d := newTestDocument(t)
	require.NoError(t, d.Create([]Instruction{
		Open(attrs.Named(tags.HTML)),
		Open(attrs.Named(tags.Body)),
		Open(attrs.Named(tags.P).With(attrs.HTML("align"), "center").With(attrs.CSS("color"), "red")),
		text("hi\n"),
		Close(),
		Close(),
	}))
	d.SetTitle("Greeting")

	var buf bytes.Buffer
	require.NoError(t, d.WriteXML(&buf))
	out := buf.String()

	require.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	require.Contains(t, out, `title="Greeting"`)
	require.Contains(t, out, `<p align="center" style="color: red">`)
	require.Contains(t, out, "hi")
	require.Contains(t, out, d.ID().String())
}
