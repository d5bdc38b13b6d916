package forms

import (
	"errors"
	"testing"

	"hdoc/attrs"
	"hdoc/tags"
)

func TestDefaultFactory(t *testing.T) {
	tests := []struct {
		name  string
		tag   *tags.Tag
		attrs map[string]string
		check func(Model) bool
		fail  bool
	}{
		{"default input", tags.Input, nil, func(m Model) bool { tm, ok := m.(*TextModel); return ok && !tm.Password }, false},
		{"password", tags.Input, map[string]string{"type": "Password"}, func(m Model) bool { tm, ok := m.(*TextModel); return ok && tm.Password }, false},
		{"checkbox", tags.Input, map[string]string{"type": "checkbox", "checked": ""}, func(m Model) bool { tm, ok := m.(*ToggleModel); return ok && tm.Selected() && !tm.Radio }, false},
		{"radio", tags.Input, map[string]string{"type": "radio"}, func(m Model) bool { tm, ok := m.(*ToggleModel); return ok && tm.Radio }, false},
		{"submit", tags.Input, map[string]string{"type": "submit", "value": "Go"}, func(m Model) bool { bm, ok := m.(*ButtonModel); return ok && bm.Value == "Go" }, false},
		{"image", tags.Input, map[string]string{"type": "image"}, func(m Model) bool { _, ok := m.(*ButtonModel); return ok }, false},
		{"hidden", tags.Input, map[string]string{"type": "hidden"}, nil, true},
		{"file", tags.Input, map[string]string{"type": "file"}, nil, true},
		{"textarea", tags.Textarea, nil, func(m Model) bool { tm, ok := m.(*TextModel); return ok && tm.Multi }, false},
		{"combo", tags.Select, nil, func(m Model) bool { _, ok := m.(*ComboModel); return ok }, false},
		{"size one", tags.Select, map[string]string{"size": "1"}, func(m Model) bool { _, ok := m.(*ComboModel); return ok }, false},
		{"list by size", tags.Select, map[string]string{"size": "4"}, func(m Model) bool { lm, ok := m.(*ListModel); return ok && !lm.Multiple && lm.Size == 4 }, false},
		{"multiple", tags.Select, map[string]string{"multiple": ""}, func(m Model) bool { lm, ok := m.(*ListModel); return ok && lm.Multiple }, false},
		{"not a control", tags.P, nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DefaultFactory{}.NewModel(tt.tag, attrs.Of(tt.tag, tt.attrs))
			if tt.fail {
				if !errors.Is(err, ErrUnsupportedControl) {
					t.Fatalf("expected ErrUnsupportedControl, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(m) {
				t.Fatalf("unexpected model %#v", m)
			}
		})
	}
}

func TestTextModel(t *testing.T) {
	m := NewTextModel("init")
	m.SetText("changed")
	if err := m.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if got := m.Text(); got != "init" {
		t.Fatalf("expected initial text, got %q", got)
	}

	area := NewTextModel("")
	area.Append("line 1\n")
	area.Append("line 2")
	area.StoreInitial()
	area.SetText("")
	_ = area.Reset()
	if got := area.Text(); got != "line 1\nline 2" {
		t.Fatalf("unexpected text area content %q", got)
	}
}

func TestToggleGroup(t *testing.T) {
	g := NewToggleGroup("color")
	red := NewToggleModel(true, true)
	green := NewToggleModel(true, true)
	blue := NewToggleModel(false, true)
	for _, m := range []*ToggleModel{red, green, blue} {
		g.Add(m)
	}

	if !red.Selected() || green.Selected() || blue.Selected() {
		t.Fatalf("first selected radio must win: red=%v green=%v blue=%v", red.Selected(), green.Selected(), blue.Selected())
	}
	if g.Selected() != red {
		t.Fatalf("group selection is not red")
	}

	blue.SetSelected(true)
	if red.Selected() || !blue.Selected() || g.Selected() != blue {
		t.Fatalf("selecting blue must deselect red")
	}

	for _, m := range g.Members() {
		_ = m.Reset()
	}
	if !red.Selected() || blue.Selected() || green.Selected() {
		t.Fatalf("reset must restore initial selection")
	}
	if g.Selected() != red {
		t.Fatalf("group selection after reset is not red")
	}
}

func option(label string, selected bool, value string) *Option {
	a := attrs.Named(tags.Option)
	if selected {
		a = a.With(attrs.HTML("selected"), "")
	}
	if value != "" {
		a = a.With(attrs.HTML("value"), value)
	}
	o := NewOption(a)
	o.AppendLabel(label)
	return o
}

func TestComboModel(t *testing.T) {
	m := NewComboModel()
	if len(m.SelectedOptions()) != 0 {
		t.Fatalf("empty combo must have no selection")
	}
	m.AddOption(option("one", false, ""))
	m.AddOption(option("two", true, "2"))
	m.AddOption(option("three", false, ""))

	if m.SelectedIndex() != 1 {
		t.Fatalf("expected option marked selected, got %d", m.SelectedIndex())
	}
	m.Select(2)
	_ = m.Reset()
	if m.SelectedIndex() != 1 {
		t.Fatalf("reset must restore initial selection, got %d", m.SelectedIndex())
	}
	if v := m.SelectedOptions()[0].Value(); v != "2" {
		t.Fatalf("unexpected value %q", v)
	}

	first := NewComboModel()
	first.AddOption(option("only", false, ""))
	if first.SelectedIndex() != 0 {
		t.Fatalf("first option must be selected by default")
	}
	if v := first.SelectedOptions()[0].Value(); v != "only" {
		t.Fatalf("value must fall back to label, got %q", v)
	}
}

func TestListModel(t *testing.T) {
	single := NewListModel(false, 3)
	single.AddOption(option("a", true, ""))
	single.AddOption(option("b", true, ""))
	if single.IsSelected(0) || !single.IsSelected(1) {
		t.Fatalf("single choice list keeps last selected option only")
	}

	multi := NewListModel(true, 0)
	multi.AddOption(option("a", true, ""))
	multi.AddOption(option("b", false, ""))
	multi.AddOption(option("c", true, ""))
	multi.SetSelected(1, true)
	multi.SetSelected(0, false)
	if got := len(multi.SelectedOptions()); got != 2 {
		t.Fatalf("expected 2 selected options, got %d", got)
	}
	_ = multi.Reset()
	if !multi.IsSelected(0) || multi.IsSelected(1) || !multi.IsSelected(2) {
		t.Fatalf("reset must restore initial selection")
	}
}
