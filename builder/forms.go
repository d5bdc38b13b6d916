package builder

import (
	"go.uber.org/zap"

	"hdoc/attrs"
	"hdoc/forms"
	"hdoc/tags"
)

// controls binds form control elements to their models.
type controls struct {
	factory forms.Factory
	log     *zap.Logger

	// radio groups by name, per form and for controls outside of forms
	formGroups map[string]*forms.ToggleGroup
	docGroups  map[string]*forms.ToggleGroup

	selection forms.Selection
	option    *forms.Option
	textarea  *forms.TextModel
}

func newControls(factory forms.Factory, log *zap.Logger) controls {
	return controls{factory: factory, log: log.Named("forms")}
}

func (c *controls) startForm() {
	c.formGroups = make(map[string]*forms.ToggleGroup)
}

func (c *controls) endForm() {
	c.formGroups = nil
}

func (c *controls) group(name string) *forms.ToggleGroup {
	groups := c.formGroups
	if groups == nil {
		if c.docGroups == nil {
			c.docGroups = make(map[string]*forms.ToggleGroup)
		}
		groups = c.docGroups
	}
	g, ok := groups[name]
	if !ok {
		g = forms.NewToggleGroup(name)
		groups[name] = g
	}
	return g
}

func (b *Builder) startControl(t *tags.Tag, a attrs.Set) {
	switch t {
	case tags.Option:
		if b.selection == nil {
			b.log.Debug("Ignoring option outside of select")
			return
		}
		b.option = forms.NewOption(a.Without(attrs.NameKey))
		b.selection.AddOption(b.option)
		return
	case tags.Input:
		if !a.Has(attrs.HTML("type")) {
			a = a.With(attrs.HTML("type"), "text")
		}
		if forms.InputType(a) == "hidden" {
			b.addHidden(t, a)
			return
		}
	}

	m, err := b.factory.NewModel(t, a)
	if err != nil {
		b.controls.log.Warn("Unable to create form control model, control is kept hidden",
			zap.Stringer("tag", t), zap.Error(err))
		b.addHidden(t, a)
		return
	}
	switch m := m.(type) {
	case *forms.ToggleModel:
		if name := a.Value(attrs.HTML("name")); m.Radio && name != "" {
			b.group(name).Add(m)
		}
	case *forms.TextModel:
		if t == tags.Textarea {
			b.textarea = m
		}
	case forms.Selection:
		if t == tags.Select {
			b.selection = m
		}
	}
	b.addSpecial(t, a.With(attrs.ModelKey, m))
}

func (b *Builder) endControl(t *tags.Tag) {
	switch t {
	case tags.Option:
		b.option = nil
	case tags.Select:
		b.option, b.selection = nil, nil
	case tags.Textarea:
		if b.textarea != nil {
			b.textarea.StoreInitial()
			b.textarea = nil
		}
	}
}

// finishControls completes controls left open by truncated stream.
func (b *Builder) finishControls() {
	b.endControl(tags.Textarea)
	b.endControl(tags.Select)
	b.endForm()
}
