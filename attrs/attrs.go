// Package attrs implements immutable attribute sets attached to tree
// elements, builder style frames and edit instructions.
//
// Set is a value type with copy-on-write semantics: every modification
// returns a new set and never touches sets already handed out, so snapshots
// can be shared freely.
package attrs

import (
	"fmt"
	"slices"
	"strings"

	"github.com/maruel/natural"

	"hdoc/tags"
)

type keyKind uint8

const (
	kindSpecial keyKind = iota
	kindTag
	kindHTML
	kindCSS
)

// Key identifies attribute in a set.
type Key struct {
	kind keyKind
	name string
}

// Distinguished keys.
var (
	// NameKey always holds the *tags.Tag owning the set.
	NameKey = Key{kindSpecial, "name"}
	// ModelKey holds opaque form control model handle.
	ModelKey = Key{kindSpecial, "model"}
	// CommentKey holds text of preserved comment.
	CommentKey = Key{kindSpecial, "comment"}
	// EndTagKey marks element standing for the end tag of hidden element.
	EndTagKey = Key{kindSpecial, "endtag"}
	// InvisibleKey marks elements that are not shown when document is read-only.
	InvisibleKey = Key{kindSpecial, "invisible"}
	// EndOfLineKey holds end of line string of the source.
	EndOfLineKey = Key{kindSpecial, "eol"}
)

// TagKey returns key under which attributes of an enclosing character tag
// are kept in run attributes.
func TagKey(t *tags.Tag) Key {
	return Key{kindTag, t.Name()}
}

// HTML returns key for markup attribute.
func HTML(name string) Key {
	return Key{kindHTML, strings.ToLower(name)}
}

// CSS returns key for style property.
func CSS(property string) Key {
	return Key{kindCSS, strings.ToLower(property)}
}

// Name returns key name without kind.
func (k Key) Name() string {
	return k.name
}

// IsCSS reports whether key is a style property.
func (k Key) IsCSS() bool {
	return k.kind == kindCSS
}

// IsHTML reports whether key is a markup attribute.
func (k Key) IsHTML() bool {
	return k.kind == kindHTML
}

// IsTag reports whether key holds attributes of enclosing tag.
func (k Key) IsTag() bool {
	return k.kind == kindTag
}

func (k Key) String() string {
	switch k.kind {
	case kindTag:
		return "tag:" + k.name
	case kindHTML:
		return "html:" + k.name
	case kindCSS:
		return "css:" + k.name
	default:
		return k.name
	}
}

// Set is an immutable attribute set. Zero value is an empty set. Values must
// be comparable with == or be Sets themselves.
type Set struct {
	m map[Key]any
}

// Empty is the empty set.
var Empty = Set{}

// Of builds set for the tag with the given markup attributes.
func Of(t *tags.Tag, html map[string]string) Set {
	m := make(map[Key]any, len(html)+1)
	for k, v := range html {
		m[HTML(k)] = v
	}
	if t != nil {
		m[NameKey] = t
	}
	return Set{m: m}
}

// Named returns set with the single NameKey attribute.
func Named(t *tags.Tag) Set {
	return Set{m: map[Key]any{NameKey: t}}
}

func (s Set) clone(extra int) map[Key]any {
	m := make(map[Key]any, len(s.m)+extra)
	for k, v := range s.m {
		m[k] = v
	}
	return m
}

// With returns a copy of the set with key set to value.
func (s Set) With(k Key, v any) Set {
	m := s.clone(1)
	m[k] = v
	return Set{m: m}
}

// WithName returns a copy of the set owned by the tag.
func (s Set) WithName(t *tags.Tag) Set {
	return s.With(NameKey, t)
}

// WithAll returns a copy of the set with all attributes of other layered on
// top of it.
func (s Set) WithAll(other Set) Set {
	if other.Len() == 0 {
		return s
	}
	if s.Len() == 0 {
		return other
	}
	m := s.clone(len(other.m))
	for k, v := range other.m {
		m[k] = v
	}
	return Set{m: m}
}

// Without returns a copy of the set with key removed.
func (s Set) Without(k Key) Set {
	if _, ok := s.m[k]; !ok {
		return s
	}
	m := s.clone(0)
	delete(m, k)
	return Set{m: m}
}

// Get returns value stored under the key.
func (s Set) Get(k Key) (any, bool) {
	v, ok := s.m[k]
	return v, ok
}

// Has reports whether key is present.
func (s Set) Has(k Key) bool {
	_, ok := s.m[k]
	return ok
}

// Value returns string value for the key or empty string.
func (s Set) Value(k Key) string {
	if v, ok := s.m[k].(string); ok {
		return v
	}
	return ""
}

// Lookup returns string value for the key and whether it is defined.
func (s Set) Lookup(k Key) (string, bool) {
	v, ok := s.m[k].(string)
	return v, ok
}

// Sub returns nested set stored under the key.
func (s Set) Sub(k Key) (Set, bool) {
	v, ok := s.m[k].(Set)
	return v, ok
}

// Name returns owning tag or nil.
func (s Set) Name() *tags.Tag {
	t, _ := s.m[NameKey].(*tags.Tag)
	return t
}

// Len returns number of attributes.
func (s Set) Len() int {
	return len(s.m)
}

// Keys returns keys in stable order: special keys first, then tag, markup
// and style keys, names within kind in natural order.
func (s Set) Keys() []Key {
	keys := make([]Key, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b Key) int {
		if a.kind != b.kind {
			return int(a.kind) - int(b.kind)
		}
		switch {
		case a.name == b.name:
			return 0
		case natural.Less(a.name, b.name):
			return -1
		default:
			return 1
		}
	})
	return keys
}

// Equal reports whether both sets hold the same attributes.
func (s Set) Equal(other Set) bool {
	if len(s.m) != len(other.m) {
		return false
	}
	for k, v := range s.m {
		ov, ok := other.m[k]
		if !ok || !equalValue(v, ov) {
			return false
		}
	}
	return true
}

func equalValue(a, b any) bool {
	as, aok := a.(Set)
	bs, bok := b.(Set)
	if aok || bok {
		return aok && bok && as.Equal(bs)
	}
	return a == b
}

func (s Set) String() string {
	return s.Dump()
}

// Dump returns readable representation of the set, used in dumps and logs.
func (s Set) Dump() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k.String())
		b.WriteByte('=')
		switch v := s.m[k].(type) {
		case Set:
			b.WriteString(v.Dump())
		case *tags.Tag:
			b.WriteString(v.Name())
		case string:
			fmt.Fprintf(&b, "%q", v)
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	b.WriteByte('}')
	return b.String()
}
