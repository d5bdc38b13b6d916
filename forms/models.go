// Package forms holds models backing interactive form controls. Models are
// attached to document elements as opaque handles, they keep current and
// initial values of the controls and outlive the builder that created them.
package forms

import (
	"slices"
	"strings"
	"sync"

	"hdoc/attrs"
)

// Model is implemented by every control model.
type Model interface {
	// Reset restores value control had when document was loaded.
	Reset() error
}

// TextModel backs text and password inputs and text areas.
type TextModel struct {
	mu       sync.Mutex
	text     string
	initial  string
	Password bool
	Multi    bool
}

// NewTextModel returns model holding the text as both current and initial
// value.
func NewTextModel(text string) *TextModel {
	return &TextModel{text: text, initial: text}
}

// Text returns current text.
func (m *TextModel) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// SetText replaces current text.
func (m *TextModel) SetText(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = s
}

// Append adds text to the end of current text.
func (m *TextModel) Append(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text += s
}

// StoreInitial remembers current text as initial one.
func (m *TextModel) StoreInitial() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initial = m.text
}

func (m *TextModel) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = m.initial
	return nil
}

// ToggleModel backs checkboxes and radio buttons.
type ToggleModel struct {
	mu       sync.Mutex
	selected bool
	initial  bool
	group    *ToggleGroup
	Radio    bool
}

// NewToggleModel returns model initially selected when checked is set.
func NewToggleModel(checked, radio bool) *ToggleModel {
	return &ToggleModel{selected: checked, initial: checked, Radio: radio}
}

// Selected reports current state.
func (m *ToggleModel) Selected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

// SetSelected changes state. Selecting grouped toggle deselects the rest of
// the group.
func (m *ToggleModel) SetSelected(on bool) {
	m.mu.Lock()
	g := m.group
	m.mu.Unlock()
	switch {
	case g != nil && on:
		g.Select(m)
	case g != nil:
		g.deselect(m)
	default:
		m.set(on)
	}
}

func (m *ToggleModel) set(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = on
}

// Group returns mutual exclusion group toggle belongs to or nil.
func (m *ToggleModel) Group() *ToggleGroup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.group
}

func (m *ToggleModel) Reset() error {
	m.mu.Lock()
	initial := m.initial
	m.mu.Unlock()
	m.SetSelected(initial)
	return nil
}

// ToggleGroup makes sure at most one of its toggles is selected.
type ToggleGroup struct {
	mu       sync.Mutex
	name     string
	members  []*ToggleModel
	selected *ToggleModel
}

// NewToggleGroup returns empty group.
func NewToggleGroup(name string) *ToggleGroup {
	return &ToggleGroup{name: name}
}

// Name returns group name.
func (g *ToggleGroup) Name() string {
	return g.name
}

// Add puts toggle into the group. When the group already has selected
// toggle, newly added selected one is deselected and the first one wins.
func (g *ToggleGroup) Add(m *ToggleModel) {
	g.mu.Lock()
	defer g.mu.Unlock()

	m.mu.Lock()
	m.group = g
	if m.selected {
		if g.selected == nil {
			g.selected = m
		} else {
			m.selected = false
			m.initial = false
		}
	}
	m.mu.Unlock()
	g.members = append(g.members, m)
}

// Select makes toggle the only selected one in the group.
func (g *ToggleGroup) Select(m *ToggleModel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, o := range g.members {
		o.set(o == m)
	}
	g.selected = m
}

func (g *ToggleGroup) deselect(m *ToggleModel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m.set(false)
	if g.selected == m {
		g.selected = nil
	}
}

// Selected returns currently selected toggle or nil.
func (g *ToggleGroup) Selected() *ToggleModel {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.selected
}

// Members returns toggles in order they were added.
func (g *ToggleGroup) Members() []*ToggleModel {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.members)
}

// ButtonModel backs submit, reset, image and plain buttons.
type ButtonModel struct {
	Kind  string
	Value string
}

func (m *ButtonModel) Reset() error { return nil }

// Option is a single choice of select control.
type Option struct {
	mu       sync.Mutex
	label    strings.Builder
	Attrs    attrs.Set
	Selected bool
}

// NewOption returns option described by markup attributes.
func NewOption(a attrs.Set) *Option {
	return &Option{Attrs: a, Selected: a.Has(attrs.HTML("selected"))}
}

// AppendLabel adds text to option label.
func (o *Option) AppendLabel(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.label.WriteString(s)
}

// Label returns option label.
func (o *Option) Label() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.label.String()
}

// Value returns value submitted for option: its value attribute or its
// label when there is none.
func (o *Option) Value() string {
	if v, ok := o.Attrs.Lookup(attrs.HTML("value")); ok {
		return v
	}
	return o.Label()
}

// Selection is implemented by select control models.
type Selection interface {
	Model
	AddOption(o *Option)
	Options() []*Option
	SelectedOptions() []*Option
}

// ComboModel backs single choice select controls shown as drop down. First
// option is selected unless some other is marked selected.
type ComboModel struct {
	mu       sync.Mutex
	options  []*Option
	selected int
	initial  int
}

// NewComboModel returns empty model.
func NewComboModel() *ComboModel {
	return &ComboModel{selected: -1, initial: -1}
}

func (m *ComboModel) AddOption(o *Option) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = append(m.options, o)
	idx := len(m.options) - 1
	switch {
	case o.Selected:
		m.selected, m.initial = idx, idx
	case m.selected < 0:
		m.selected = idx
	}
}

func (m *ComboModel) Options() []*Option {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.options)
}

func (m *ComboModel) SelectedOptions() []*Option {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.selected < 0 {
		return nil
	}
	return []*Option{m.options[m.selected]}
}

// Select changes selected option, out of range index clears selection.
func (m *ComboModel) Select(index int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.options) {
		index = -1
	}
	m.selected = index
}

// SelectedIndex returns index of selected option or -1.
func (m *ComboModel) SelectedIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected
}

func (m *ComboModel) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initial >= 0 {
		m.selected = m.initial
	} else if len(m.options) > 0 {
		m.selected = 0
	}
	return nil
}

// ListModel backs select controls shown as list, single or multiple choice.
type ListModel struct {
	mu       sync.Mutex
	options  []*Option
	selected []bool
	initial  []bool
	Multiple bool
	Size     int
}

// NewListModel returns empty model.
func NewListModel(multiple bool, size int) *ListModel {
	return &ListModel{Multiple: multiple, Size: size}
}

func (m *ListModel) AddOption(o *Option) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.options = append(m.options, o)
	m.selected = append(m.selected, false)
	m.initial = append(m.initial, false)
	if o.Selected {
		m.selectLocked(len(m.options)-1, true)
		copy(m.initial, m.selected)
	}
}

func (m *ListModel) selectLocked(index int, on bool) {
	if on && !m.Multiple {
		clear(m.selected)
	}
	m.selected[index] = on
}

// SetSelected changes selection of the option, single choice list drops
// previous selection.
func (m *ListModel) SetSelected(index int, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.options) {
		return
	}
	m.selectLocked(index, on)
}

// IsSelected reports whether option with index is selected.
func (m *ListModel) IsSelected(index int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return index >= 0 && index < len(m.selected) && m.selected[index]
}

func (m *ListModel) Options() []*Option {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.options)
}

func (m *ListModel) SelectedOptions() []*Option {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Option
	for i, on := range m.selected {
		if on {
			out = append(out, m.options[i])
		}
	}
	return out
}

func (m *ListModel) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy(m.selected, m.initial)
	return nil
}
