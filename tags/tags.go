// Package tags holds the fixed registry of known markup tags and maps every
// tag to the structural role the document builder uses for it.
//
// The registry is built once during package initialization and is never
// modified afterwards, so it is safe to share between goroutines.
package tags

import (
	"slices"
	"strings"

	"golang.org/x/net/html/atom"

	"hdoc/common"
)

// Tag is an immutable tag identity. Tags are compared by pointer, every known
// tag exists exactly once.
type Tag struct {
	name      string
	atom      atom.Atom
	role      common.Role
	empty     bool
	synthetic bool
	known     bool
}

// Name returns lower case tag name.
func (t *Tag) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Atom returns html atom for the tag or 0 for synthetic and unknown tags
// that have no atom.
func (t *Tag) Atom() atom.Atom {
	if t == nil {
		return 0
	}
	return t.atom
}

// Role returns registered structural role. Unknown tags report RoleHidden.
func (t *Tag) Role() common.Role {
	if t == nil {
		return common.RoleNone
	}
	return t.role
}

// IsEmpty reports whether element for this tag never has content of its own,
// so no end marker has to be kept for it.
func (t *Tag) IsEmpty() bool {
	return t != nil && t.empty
}

// IsSynthetic reports tags the builder creates itself (implied paragraph,
// content runs, comments), they never come from markup.
func (t *Tag) IsSynthetic() bool {
	return t != nil && t.synthetic
}

// IsKnown reports whether tag is part of the registry.
func (t *Tag) IsKnown() bool {
	return t != nil && t.known
}

func (t *Tag) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.name
}

var registry = make(map[string]*Tag, 96)

func register(name string, role common.Role, empty bool) *Tag {
	t := &Tag{
		name:  name,
		atom:  atom.Lookup([]byte(name)),
		role:  role,
		empty: empty,
		known: true,
	}
	registry[name] = t
	return t
}

func synthetic(name string, role common.Role) *Tag {
	t := &Tag{name: name, role: role, empty: true, synthetic: true, known: true}
	registry[name] = t
	return t
}

const (
	block     = common.RoleBlock
	paragraph = common.RoleParagraph
	character = common.RoleCharacter
	special   = common.RoleSpecial
	form      = common.RoleForm
	hidden    = common.RoleHidden
)

// Known tags.
var (
	A          = register("a", character, false)
	Address    = register("address", character, false)
	Applet     = register("applet", hidden, false)
	Area       = register("area", hidden, true)
	B          = register("b", character, false)
	Base       = register("base", hidden, true)
	Basefont   = register("basefont", character, true)
	Big        = register("big", character, false)
	Blockquote = register("blockquote", block, false)
	Body       = register("body", block, false)
	Br         = register("br", special, true)
	Caption    = register("caption", block, false)
	Center     = register("center", block, false)
	Cite       = register("cite", character, false)
	Code       = register("code", character, false)
	Dd         = register("dd", block, false)
	Dfn        = register("dfn", character, false)
	Dir        = register("dir", block, false)
	Div        = register("div", block, false)
	Dl         = register("dl", block, false)
	Dt         = register("dt", paragraph, false)
	Em         = register("em", character, false)
	Font       = register("font", character, false)
	Form       = register("form", character, false)
	Frame      = register("frame", special, true)
	Frameset   = register("frameset", block, false)
	H1         = register("h1", paragraph, false)
	H2         = register("h2", paragraph, false)
	H3         = register("h3", paragraph, false)
	H4         = register("h4", paragraph, false)
	H5         = register("h5", paragraph, false)
	H6         = register("h6", paragraph, false)
	Head       = register("head", hidden, false)
	Hr         = register("hr", special, true)
	HTML       = register("html", block, false)
	I          = register("i", character, false)
	Img        = register("img", special, true)
	Input      = register("input", form, true)
	Isindex    = register("isindex", special, true)
	Kbd        = register("kbd", character, false)
	Li         = register("li", block, false)
	Link       = register("link", hidden, true)
	Map        = register("map", hidden, false)
	Menu       = register("menu", block, false)
	Meta       = register("meta", hidden, true)
	Noframes   = register("noframes", block, false)
	Object     = register("object", special, false)
	Ol         = register("ol", block, false)
	Option     = register("option", form, false)
	P          = register("p", paragraph, false)
	Param      = register("param", special, true)
	Pre        = register("pre", block, false)
	Samp       = register("samp", character, false)
	Script     = register("script", hidden, false)
	Select     = register("select", form, false)
	Small      = register("small", character, false)
	Strike     = register("strike", character, false)
	S          = register("s", character, false)
	Strong     = register("strong", character, false)
	Style      = register("style", hidden, false)
	Sub        = register("sub", character, false)
	Sup        = register("sup", character, false)
	Table      = register("table", block, false)
	Td         = register("td", block, false)
	Textarea   = register("textarea", form, false)
	Th         = register("th", block, false)
	Title      = register("title", hidden, false)
	Tr         = register("tr", block, false)
	Tt         = register("tt", character, false)
	U          = register("u", character, false)
	Ul         = register("ul", block, false)
	Var        = register("var", character, false)

	// Implied marks paragraphs the builder synthesizes around bare inline
	// content.
	Implied = synthetic("p-implied", paragraph)
	// Content names leaf runs of text.
	Content = synthetic("content", common.RoleNone)
	// Comment names atomic elements that keep markup comments.
	Comment = synthetic("comment", special)
	// EndOfLine carries end of line string of the loaded source.
	EndOfLine = synthetic("__EndOfLineTag__", common.RoleNone)
)

// Lookup finds registered tag by name, case insensitive.
func Lookup(name string) (*Tag, bool) {
	t, ok := registry[strings.ToLower(name)]
	return t, ok
}

// Unknown returns new tag identity for a name missing from the registry. It
// is not added to the registry; the role is always hidden.
func Unknown(name string) *Tag {
	if t, ok := Lookup(name); ok {
		return t
	}
	name = strings.ToLower(name)
	return &Tag{name: name, atom: atom.Lookup([]byte(name)), role: hidden}
}

// Resolve returns registered tag for a name or an unknown tag identity.
func Resolve(name string) *Tag {
	if t, ok := Lookup(name); ok {
		return t
	}
	return Unknown(name)
}

// Classify maps a tag to its structural role. Unknown tags are either
// preserved as hidden or dropped, in which case ok is false.
func Classify(t *Tag, policy common.UnknownTags) (role common.Role, ok bool) {
	if t == nil {
		return common.RoleNone, false
	}
	if t.known {
		return t.role, true
	}
	if policy == common.UnknownTagsDrop {
		return common.RoleNone, false
	}
	return common.RoleHidden, true
}

// Names returns sorted names of registered non synthetic tags.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name, t := range registry {
		if !t.synthetic {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}
