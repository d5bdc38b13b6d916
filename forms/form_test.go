package forms

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"hdoc/attrs"
	"hdoc/tags"
	"hdoc/tree"
)

type formDocument struct {
	doc    *tree.Document
	query  *TextModel
	agree  *ToggleModel
	choice *ComboModel
}

func newFormDocument(t *testing.T) formDocument {
	t.Helper()

	form := attrs.Of(tags.Form, map[string]string{"action": "/search"})
	other := attrs.Of(tags.Form, map[string]string{"action": "/other"})
	inForm := func(a attrs.Set) attrs.Set { return a.With(attrs.TagKey(tags.Form), form) }
	control := func(t *tags.Tag, html map[string]string, m Model) tree.Instruction {
		a := attrs.Of(t, html)
		if m != nil {
			a = a.With(attrs.ModelKey, m)
		}
		return tree.Content(inForm(a), " ")
	}

	fd := formDocument{
		query:  NewTextModel("go"),
		agree:  NewToggleModel(false, false),
		choice: NewComboModel(),
	}
	fd.choice.AddOption(option("Small", false, "s"))
	fd.choice.AddOption(option("Large", true, "l"))

	fd.doc = tree.New(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
	err := fd.doc.Create([]tree.Instruction{
		tree.Open(attrs.Named(tags.HTML)),
		tree.Open(attrs.Named(tags.Body)),
		tree.Open(attrs.Named(tags.P)),
		tree.Content(inForm(attrs.Named(tags.Content)), "Query"),
		control(tags.Input, map[string]string{"name": "q", "value": "go"}, fd.query),
		control(tags.Input, map[string]string{"name": "agree", "type": "checkbox"}, fd.agree),
		control(tags.Input, map[string]string{"name": "token", "type": "hidden", "value": "t 1"}, nil),
		control(tags.Select, map[string]string{"name": "size"}, fd.choice),
		control(tags.Input, map[string]string{"name": "go", "type": "submit", "value": "Search"}, &ButtonModel{Kind: "submit"}),
		control(tags.Input, map[string]string{"name": "alt", "type": "submit", "value": "Alt"}, &ButtonModel{Kind: "submit"}),
		control(tags.Input, map[string]string{"type": "text"}, NewTextModel("anonymous")),
		tree.Content(attrs.Named(tags.Content), "\n"),
		tree.Content(attrs.Of(tags.Input, map[string]string{"name": "q"}).With(attrs.TagKey(tags.Form), other), " "),
		tree.Close(),
		tree.Close(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return fd
}

func TestControls(t *testing.T) {
	fd := newFormDocument(t)
	first := fd.doc.Leaves()[0]

	controls := Controls(fd.doc, first)
	if len(controls) != 7 {
		t.Fatalf("expected 7 controls, got %d", len(controls))
	}
	if controls[0].Model != fd.query || controls[0].Name() != "q" {
		t.Fatalf("unexpected first control %+v", controls[0])
	}
	if controls[2].Model != nil {
		t.Fatalf("hidden input must have no model")
	}

	trailing := fd.doc.CharacterElement(fd.doc.Len() - 1)
	if got := len(Controls(fd.doc, trailing)); got != 1 {
		t.Fatalf("other form must have single control, got %d", got)
	}
}

func TestData(t *testing.T) {
	fd := newFormDocument(t)
	controls := Controls(fd.doc, fd.doc.Leaves()[0])
	submit := controls[4].ID

	fd.query.SetText("go lang")
	fd.agree.SetSelected(true)

	got := Encode(Data(fd.doc, submit))
	want := "q=go+lang&agree=on&token=t+1&size=l&go=Search"
	if got != want {
		t.Fatalf("unexpected form data\nwant: %s\n got: %s", want, got)
	}

	alt := controls[5].ID
	got = Encode(Data(fd.doc, alt))
	want = "q=go+lang&agree=on&token=t+1&size=l&alt=Alt"
	if got != want {
		t.Fatalf("unexpected form data for second submit\nwant: %s\n got: %s", want, got)
	}
}

func TestReset(t *testing.T) {
	fd := newFormDocument(t)
	fd.query.SetText("changed")
	fd.agree.SetSelected(true)
	fd.choice.Select(0)

	if err := Reset(fd.doc, fd.doc.Leaves()[0]); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if fd.query.Text() != "go" || fd.agree.Selected() || fd.choice.SelectedIndex() != 1 {
		t.Fatalf("controls were not reset: %q %v %d", fd.query.Text(), fd.agree.Selected(), fd.choice.SelectedIndex())
	}
}

func TestEncodeEmpty(t *testing.T) {
	if got := Encode(nil); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}
