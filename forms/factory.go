package forms

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"hdoc/attrs"
	"hdoc/tags"
)

// ErrUnsupportedControl is returned by factories for controls they have no
// model for. Such controls are kept in the document without a model.
var ErrUnsupportedControl = errors.New("unsupported form control")

// Factory creates models for form controls.
type Factory interface {
	NewModel(t *tags.Tag, a attrs.Set) (Model, error)
}

// DefaultFactory creates models from this package.
type DefaultFactory struct{}

func (DefaultFactory) NewModel(t *tags.Tag, a attrs.Set) (Model, error) {
	switch t {
	case tags.Input:
		switch typ := InputType(a); typ {
		case "submit", "reset", "image", "button":
			return &ButtonModel{Kind: typ, Value: a.Value(attrs.HTML("value"))}, nil
		case "text", "password":
			m := NewTextModel(a.Value(attrs.HTML("value")))
			m.Password = typ == "password"
			return m, nil
		case "checkbox", "radio":
			return NewToggleModel(a.Has(attrs.HTML("checked")), typ == "radio"), nil
		default:
			return nil, fmt.Errorf("%w: input of type %q", ErrUnsupportedControl, typ)
		}
	case tags.Textarea:
		m := NewTextModel("")
		m.Multi = true
		return m, nil
	case tags.Select:
		size, _ := strconv.Atoi(strings.TrimSpace(a.Value(attrs.HTML("size"))))
		multiple := a.Has(attrs.HTML("multiple"))
		if multiple || size > 1 {
			return NewListModel(multiple, size), nil
		}
		return NewComboModel(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedControl, t)
}

// InputType returns lower case type of input control, "text" when not set.
func InputType(a attrs.Set) string {
	typ := strings.ToLower(strings.TrimSpace(a.Value(attrs.HTML("type"))))
	if typ == "" {
		return "text"
	}
	return typ
}
