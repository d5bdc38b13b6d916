package forms

import (
	"net/url"
	"strings"

	"go.uber.org/multierr"

	"hdoc/attrs"
	"hdoc/common"
	"hdoc/tags"
	"hdoc/tree"
)

// Control is form control element found in document.
type Control struct {
	ID    tree.NodeID
	Attrs attrs.Set
	Model Model
}

// Name returns control name.
func (c Control) Name() string {
	return c.Attrs.Value(attrs.HTML("name"))
}

// Field is a single name and value pair of form data.
type Field struct {
	Name  string
	Value string
}

// Controls returns controls belonging to the same form as element, in
// document order. Form ends at the first leaf outside of it.
func Controls(doc *tree.Document, element tree.NodeID) []Control {
	formKey := attrs.TagKey(tags.Form)
	form, ok := doc.Attrs(element).Sub(formKey)
	if !ok {
		return nil
	}
	var (
		out     []Control
		started bool
	)
	for _, id := range doc.Leaves() {
		a := doc.Attrs(id)
		f, ok := a.Sub(formKey)
		if !ok || !f.Equal(form) {
			if started {
				break
			}
			continue
		}
		started = true
		if a.Name().Role() != common.RoleForm {
			continue
		}
		m, _ := a.Get(attrs.ModelKey)
		model, _ := m.(Model)
		out = append(out, Control{ID: id, Attrs: a, Model: model})
	}
	return out
}

// Reset restores initial state of every control of the form element belongs
// to.
func Reset(doc *tree.Document, element tree.NodeID) error {
	var err error
	for _, c := range Controls(doc, element) {
		if c.Model != nil {
			err = multierr.Append(err, c.Model.Reset())
		}
	}
	return err
}

// Data collects submission data of the form trigger belongs to. Only
// submit button that triggered submission contributes, image buttons never
// do.
func Data(doc *tree.Document, trigger tree.NodeID) []Field {
	var out []Field
	for _, c := range Controls(doc, trigger) {
		name := c.Name()
		if name == "" {
			continue
		}
		switch c.Attrs.Name() {
		case tags.Input:
			if v, ok := inputValue(c, trigger); ok {
				out = append(out, Field{Name: name, Value: v})
			}
		case tags.Textarea:
			if m, ok := c.Model.(*TextModel); ok {
				out = append(out, Field{Name: name, Value: m.Text()})
			}
		case tags.Select:
			if m, ok := c.Model.(Selection); ok {
				for _, o := range m.SelectedOptions() {
					out = append(out, Field{Name: name, Value: o.Value()})
				}
			}
		}
	}
	return out
}

func inputValue(c Control, trigger tree.NodeID) (string, bool) {
	switch InputType(c.Attrs) {
	case "text", "password":
		if m, ok := c.Model.(*TextModel); ok {
			return m.Text(), true
		}
	case "submit":
		if c.ID == trigger {
			return c.Attrs.Value(attrs.HTML("value")), true
		}
	case "hidden":
		return c.Attrs.Value(attrs.HTML("value")), true
	case "checkbox", "radio":
		if m, ok := c.Model.(*ToggleModel); ok && m.Selected() {
			if v, ok := c.Attrs.Lookup(attrs.HTML("value")); ok {
				return v, true
			}
			return "on", true
		}
	}
	return "", false
}

// Encode returns fields in application/x-www-form-urlencoded form keeping
// their order.
func Encode(fields []Field) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(f.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(f.Value))
	}
	return b.String()
}
