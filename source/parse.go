package source

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"hdoc/attrs"
	"hdoc/tags"
)

// elements without end tag, markup parser never gives them children
var void = map[atom.Atom]bool{
	atom.Area: true, atom.Base: true, atom.Br: true, atom.Col: true,
	atom.Embed: true, atom.Hr: true, atom.Img: true, atom.Input: true,
	atom.Keygen: true, atom.Link: true, atom.Meta: true, atom.Param: true,
	atom.Source: true, atom.Track: true, atom.Wbr: true,
}

// Parse reads markup from r, decoding it according to contentType (may be
// empty, then encoding is sniffed), and records the resulting events. The
// stream ends with the end of line tag carrying line terminator used by
// the source.
func Parse(r io.Reader, contentType string) (Events, error) {
	cr, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("unable to detect encoding: %w", err)
	}
	data, err := io.ReadAll(cr)
	if err != nil {
		return nil, fmt.Errorf("unable to read markup: %w", err)
	}
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unable to parse markup: %w", err)
	}

	w := &walker{}
	w.walk(root)
	w.add(Event{
		Kind:  KindSimpleTag,
		Tag:   tags.EndOfLine,
		Attrs: attrs.Named(tags.EndOfLine).With(attrs.EndOfLineKey, lineTerminator(data)),
	})
	return w.events, nil
}

func lineTerminator(data []byte) string {
	switch {
	case bytes.Contains(data, []byte("\r\n")):
		return "\r\n"
	case bytes.IndexByte(data, '\r') >= 0:
		return "\r"
	default:
		return "\n"
	}
}

type walker struct {
	events []Event
	pos    int
	// depth of elements where white space is significant
	verbatim int
}

func (w *walker) add(e Event) {
	e.Pos = w.pos
	w.events = append(w.events, e)
	w.pos += utf8.RuneCountInString(e.Data)
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.DocumentNode:
		w.children(n)
	case html.ElementNode:
		w.element(n)
	case html.TextNode:
		w.text(n)
	case html.CommentNode:
		w.add(Event{Kind: KindComment, Data: n.Data})
	}
}

func (w *walker) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *walker) element(n *html.Node) {
	t := tags.Resolve(n.Data)
	if t.IsSynthetic() {
		// names reserved for elements builder creates itself
		w.children(n)
		return
	}
	m := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		m[a.Key] = a.Val
	}
	a := attrs.Of(t, m)

	if !t.IsKnown() {
		// unknown tags are reported as simple tags with an end marker,
		// builder decides whether to keep them
		w.add(Event{Kind: KindSimpleTag, Tag: t, Attrs: a})
		w.children(n)
		if !void[n.DataAtom] {
			w.add(Event{Kind: KindSimpleTag, Tag: t, Attrs: attrs.Named(t).With(attrs.EndTagKey, true)})
		}
		return
	}
	if t.IsEmpty() || void[n.DataAtom] {
		w.add(Event{Kind: KindSimpleTag, Tag: t, Attrs: a})
		return
	}

	verbatim := t == tags.Pre || t == tags.Textarea
	if verbatim {
		w.verbatim++
	}
	w.add(Event{Kind: KindStartTag, Tag: t, Attrs: a})
	w.children(n)
	w.add(Event{Kind: KindEndTag, Tag: t})
	if verbatim {
		w.verbatim--
	}
}

func (w *walker) text(n *html.Node) {
	data := n.Data
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		switch p.DataAtom {
		case atom.Script:
			w.add(Event{Kind: KindComment, Data: data})
			return
		case atom.Style, atom.Title:
			w.add(Event{Kind: KindText, Data: data})
			return
		}
	}
	if w.verbatim == 0 {
		if blank := strings.TrimSpace(data) == ""; blank && (!inline(n.PrevSibling) || !inline(n.NextSibling)) {
			return
		}
		data = collapse(data)
	}
	if data == "" {
		return
	}
	w.add(Event{Kind: KindText, Data: data})
}

// inline reports whether white space next to n is significant: n is text or
// a character level element.
func inline(n *html.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type {
	case html.TextNode:
		return true
	case html.ElementNode:
		t, ok := tags.Lookup(n.Data)
		if !ok {
			return false
		}
		return !t.Role().IsBlock() && t != tags.Head
	}
	return false
}

// collapse replaces runs of white space with a single space.
func collapse(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}
