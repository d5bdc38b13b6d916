package css

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"hdoc/attrs"
	"hdoc/tags"
)

// Style properties produced by conversions.
var (
	FontWeight     = attrs.CSS("font-weight")
	FontStyle      = attrs.CSS("font-style")
	FontFamily     = attrs.CSS("font-family")
	FontSize       = attrs.CSS("font-size")
	Color          = attrs.CSS("color")
	TextDecoration = attrs.CSS("text-decoration")
	VerticalAlign  = attrs.CSS("vertical-align")
	WhiteSpace     = attrs.CSS("white-space")
)

// Resolver computes declared properties for inline style strings.
type Resolver struct {
	parser *Parser
	log    *zap.Logger
}

// NewResolver creates resolver for inline style attributes.
func NewResolver(log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{parser: NewParser(log), log: log.Named("css-resolver")}
}

// Resolve returns style properties declared by the string, later
// declarations win.
func (r *Resolver) Resolve(decl string) attrs.Set {
	decls := r.parser.Declaration(decl)
	if len(decls) == 0 {
		return attrs.Empty
	}
	set := attrs.Empty
	for _, d := range decls {
		set = set.With(attrs.CSS(d.Property), d.Value.Raw)
	}
	r.log.Debug("Resolved inline style", zap.String("style", decl), zap.Int("properties", set.Len()))
	return set
}

// IsPresentational reports tags whose meaning is expressed with style
// properties rather than kept as tag attributes.
func IsPresentational(t *tags.Tag) bool {
	switch t {
	case tags.B, tags.I, tags.U, tags.Strike, tags.S, tags.Sup, tags.Sub, tags.Font:
		return true
	}
	return false
}

// Convert layers style properties equivalent to presentational tag t (with
// markup attributes a) on top of current character attributes.
// Decorations accumulate with inherited values instead of replacing them.
func Convert(t *tags.Tag, a attrs.Set, current attrs.Set) attrs.Set {
	switch t {
	case tags.B:
		return current.With(FontWeight, "bold")
	case tags.I:
		return current.With(FontStyle, "italic")
	case tags.U:
		return current.With(TextDecoration, accumulate(current, TextDecoration, "underline"))
	case tags.Strike, tags.S:
		return current.With(TextDecoration, accumulate(current, TextDecoration, "line-through"))
	case tags.Sup:
		return current.With(VerticalAlign, accumulate(current, VerticalAlign, "sup"))
	case tags.Sub:
		return current.With(VerticalAlign, accumulate(current, VerticalAlign, "sub"))
	case tags.Font:
		if v, ok := a.Lookup(attrs.HTML("color")); ok {
			current = current.With(Color, v)
		}
		if v, ok := a.Lookup(attrs.HTML("face")); ok {
			current = current.With(FontFamily, v)
		}
		if v, ok := a.Lookup(attrs.HTML("size")); ok {
			if size, ok := fontSize(v); ok {
				current = current.With(FontSize, size)
			}
		}
		return current
	}
	return current
}

func accumulate(current attrs.Set, k attrs.Key, value string) string {
	if prev := current.Value(k); prev != "" {
		return value + "," + prev
	}
	return value
}

// sizes of html font size steps 1..7 in points
var fontSizes = [...]int{8, 10, 12, 14, 18, 24, 36}

const baseFontSize = 3

// fontSize converts absolute (1..7) or relative (+n, -n) html font size.
func fontSize(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	relative := v[0] == '+' || v[0] == '-'
	n, err := strconv.Atoi(v)
	if err != nil {
		return "", false
	}
	if relative {
		n += baseFontSize
	}
	n = min(max(n, 1), len(fontSizes))
	return strconv.Itoa(fontSizes[n-1]) + "pt", true
}
