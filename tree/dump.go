package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"

	"hdoc/attrs"
	"hdoc/utils/debug"
)

// String returns readable dump of element tree.
func (d *Document) String() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	tw := debug.NewTreeWriter()
	d.walk(d.root, 0, func(id NodeID, depth int) bool {
		n := &d.nodes[id]
		var extra string
		if rest := n.attrs.Without(attrs.NameKey); rest.Len() > 0 {
			extra = rest.Dump()
		}
		if n.leaf {
			tw.Leaf(depth, elementName(n.attrs), n.start, n.end, string(d.content[n.start:n.end]), extra)
		} else {
			tw.Node(depth, elementName(n.attrs), extra)
		}
		return true
	})
	return tw.String()
}

func elementName(a attrs.Set) string {
	if t := a.Name(); t != nil {
		return t.Name()
	}
	return "element"
}

// WriteXML writes element tree as XML, leaves become elements holding their
// text.
func (d *Document) WriteXML(w io.Writer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	d.mu.RLock()
	root := doc.CreateElement(elementName(d.nodes[d.root].attrs))
	root.CreateAttr("id", d.id.String())
	d.xml(root, d.root)
	d.mu.RUnlock()

	if t := d.Title(); t != "" {
		root.CreateAttr("title", t)
	}
	if lang := d.Language(); lang.String() != "und" {
		root.CreateAttr("lang", lang.String())
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write document: %w", err)
	}
	return nil
}

func (d *Document) xml(el *etree.Element, id NodeID) {
	n := &d.nodes[id]
	var style []string
	for _, k := range n.attrs.Keys() {
		switch {
		case k.IsHTML():
			if v, ok := n.attrs.Lookup(k); ok {
				el.CreateAttr(k.Name(), v)
			}
		case k.IsCSS():
			style = append(style, k.Name()+": "+n.attrs.Value(k))
		case k.IsTag():
			el.CreateAttr("in-"+k.Name(), "")
		case k == attrs.EndTagKey:
			el.CreateAttr("endtag", "true")
		case k == attrs.CommentKey:
			el.CreateComment(n.attrs.Value(k))
		}
	}
	if len(style) > 0 {
		el.CreateAttr("style", strings.Join(style, "; "))
	}
	if n.leaf {
		el.CreateText(string(d.content[n.start:n.end]))
		return
	}
	for _, c := range n.children {
		d.xml(el.CreateElement(elementName(d.nodes[c].attrs)), c)
	}
}
