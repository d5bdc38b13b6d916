package css

import (
	"fmt"
	"strings"
)

// Value represents a parsed CSS property value.
type Value struct {
	Raw     string  // Original CSS value string (e.g., "1.2em", "bold", "#ff0000")
	Value   float64 // Numeric value if applicable
	Unit    string  // Unit if applicable: "em", "px", "%", "pt", etc.
	Keyword string  // Keyword if applicable: "bold", "italic", "center", etc.
}

// IsNumeric returns true if the value has a numeric component.
func (v Value) IsNumeric() bool {
	return v.Unit != "" || (v.Value != 0 && v.Keyword == "")
}

// Declaration is a single property: value pair in declaration order.
type Declaration struct {
	Property string
	Value    Value
}

// Selector is a simple selector: element, .class, element.class or #id,
// optionally with a single descendant ancestor.
type Selector struct {
	Raw      string
	Element  string
	Class    string
	ID       string
	Ancestor *Selector
}

// IsSimple reports whether selector could be understood.
func (s Selector) IsSimple() bool {
	return s.Element != "" || s.Class != "" || s.ID != ""
}

// Matches checks selector against single element, ancestors are not
// considered.
func (s Selector) Matches(element, class, id string) bool {
	if !s.IsSimple() {
		return false
	}
	if s.Element != "" && !strings.EqualFold(s.Element, element) {
		return false
	}
	if s.Class != "" && !hasClass(class, s.Class) {
		return false
	}
	if s.ID != "" && s.ID != id {
		return false
	}
	return true
}

func hasClass(list, class string) bool {
	for c := range strings.FieldsSeq(list) {
		if c == class {
			return true
		}
	}
	return false
}

// Rule is a selector with its declarations.
type Rule struct {
	Selector     Selector
	Declarations []Declaration
}

// Stylesheet is an ordered collection of rules collected from document
// style elements.
type Stylesheet struct {
	Rules    []Rule
	Imports  []string
	Warnings []string
}

// Append adds rules of other sheet after rules of this one.
func (s *Stylesheet) Append(other *Stylesheet) {
	if other == nil {
		return
	}
	s.Rules = append(s.Rules, other.Rules...)
	s.Imports = append(s.Imports, other.Imports...)
	s.Warnings = append(s.Warnings, other.Warnings...)
}

// Len returns number of rules.
func (s *Stylesheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rules)
}

// String returns stylesheet in CSS syntax.
func (s *Stylesheet) String() string {
	if s == nil {
		return ""
	}
	var b strings.Builder
	for _, imp := range s.Imports {
		fmt.Fprintf(&b, "@import %q;\n", imp)
	}
	for _, r := range s.Rules {
		b.WriteString(r.Selector.Raw)
		b.WriteString(" {")
		for i, d := range r.Declarations {
			if i > 0 {
				b.WriteByte(';')
			}
			fmt.Fprintf(&b, " %s: %s", d.Property, d.Value.Raw)
		}
		b.WriteString(" }\n")
	}
	return b.String()
}
