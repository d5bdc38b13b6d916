package tree

import (
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"hdoc/attrs"
	"hdoc/css"
)

// DefaultStyleType is used for style elements when document does not declare
// its own default.
const DefaultStyleType = "text/css"

// ImageMap collects area elements of a map.
type ImageMap struct {
	Name  string
	Areas []attrs.Set
}

type properties struct {
	title     string
	base      *url.URL
	lang      language.Tag
	comments  []string
	styles    *css.Stylesheet
	linked    []string
	meta      []attrs.Set
	eol       string
	styleType string
	maps      map[string]*ImageMap
}

func newProperties() properties {
	return properties{
		lang:      language.Und,
		styles:    &css.Stylesheet{},
		styleType: DefaultStyleType,
		maps:      make(map[string]*ImageMap),
	}
}

func (p properties) clone() properties {
	c := p
	if p.base != nil {
		u := *p.base
		c.base = &u
	}
	c.comments = slices.Clone(p.comments)
	c.styles = &css.Stylesheet{}
	c.styles.Append(p.styles)
	c.linked = slices.Clone(p.linked)
	c.meta = slices.Clone(p.meta)
	c.maps = maps.Clone(p.maps)
	return c
}

// Properties is a saved copy of document properties.
type Properties struct {
	p properties
}

// SaveProperties returns copy of current document properties.
func (d *Document) SaveProperties() Properties {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return Properties{p: d.props.clone()}
}

// RestoreProperties brings document properties back to saved state. Saved
// copy stays usable.
func (d *Document) RestoreProperties(saved Properties) {
	if saved.p.maps == nil {
		return
	}
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props = saved.p.clone()
}

// Title returns document title.
func (d *Document) Title() string {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return d.props.title
}

// SetTitle sets document title.
func (d *Document) SetTitle(title string) {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.title = title
}

// Base returns base location of the document, nil when not known.
func (d *Document) Base() *url.URL {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	if d.props.base == nil {
		return nil
	}
	u := *d.props.base
	return &u
}

// SetBase sets base location. Relative reference is resolved against
// current base.
func (d *Document) SetBase(href string) error {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return fmt.Errorf("unable to parse base location: %w", err)
	}
	d.pmu.Lock()
	defer d.pmu.Unlock()
	if d.props.base != nil {
		u = d.props.base.ResolveReference(u)
	}
	d.props.base = u
	return nil
}

// Resolve returns reference resolved against document base.
func (d *Document) Resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, fmt.Errorf("unable to parse reference: %w", err)
	}
	if base := d.Base(); base != nil {
		return base.ResolveReference(u), nil
	}
	return u, nil
}

// Language returns document language, language.Und when not declared.
func (d *Document) Language() language.Tag {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return d.props.lang
}

// SetLanguage parses and sets document language. Malformed values are
// ignored.
func (d *Document) SetLanguage(lang string) {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil {
		d.log.Warn("Unable to parse document language, ignoring", zap.String("lang", lang), zap.Error(err))
		return
	}
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.lang = tag
}

// Comments returns comments found outside of document body.
func (d *Document) Comments() []string {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return slices.Clone(d.props.comments)
}

// AddComment keeps comment which has no place in the element tree.
func (d *Document) AddComment(text string) {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.comments = append(d.props.comments, text)
}

// StyleSheet returns copy of collected document rules.
func (d *Document) StyleSheet() *css.Stylesheet {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	ss := &css.Stylesheet{}
	ss.Append(d.props.styles)
	return ss
}

// AddStyleSheet appends rules of embedded style element.
func (d *Document) AddStyleSheet(ss *css.Stylesheet) {
	if ss == nil {
		return
	}
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.styles.Append(ss)
}

// LinkedStyleSheets returns locations of linked style sheets in document
// order.
func (d *Document) LinkedStyleSheets() []string {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return slices.Clone(d.props.linked)
}

// AddLinkedStyleSheet records location of linked style sheet.
func (d *Document) AddLinkedStyleSheet(href string) {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.linked = append(d.props.linked, href)
}

// Meta returns attributes of meta elements.
func (d *Document) Meta() []attrs.Set {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return slices.Clone(d.props.meta)
}

// AddMeta records meta element.
func (d *Document) AddMeta(a attrs.Set) {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.meta = append(d.props.meta, a)
}

// EndOfLine returns end of line string of the source, empty if unknown.
func (d *Document) EndOfLine() string {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return d.props.eol
}

// SetEndOfLine records end of line string of the source.
func (d *Document) SetEndOfLine(eol string) {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.eol = eol
}

// DefaultStyleType returns style language assumed for style elements.
func (d *Document) DefaultStyleType() string {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return d.props.styleType
}

// SetDefaultStyleType changes style language assumed for style elements.
func (d *Document) SetDefaultStyleType(t string) {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.styleType = strings.ToLower(strings.TrimSpace(t))
}

// AddMap registers image map, map with the same name is replaced.
func (d *Document) AddMap(m *ImageMap) {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	d.props.maps[m.Name] = m
}

// Map returns image map by name, leading '#' is ignored.
func (d *Document) Map(name string) (*ImageMap, bool) {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	m, ok := d.props.maps[strings.TrimPrefix(name, "#")]
	return m, ok
}

// MapNames returns sorted names of registered image maps.
func (d *Document) MapNames() []string {
	d.pmu.Lock()
	defer d.pmu.Unlock()
	return slices.Sorted(maps.Keys(d.props.maps))
}
