package builder

import (
	"strings"

	"go.uber.org/zap"

	"hdoc/attrs"
	"hdoc/tags"
	"hdoc/tree"
)

// pendingStyle is a style element or a stylesheet link waiting for the end
// of head, where meta elements may change how it is interpreted.
type pendingStyle struct {
	link  attrs.Set
	typ   string
	rules strings.Builder
}

func (b *Builder) startHidden(t *tags.Tag, a attrs.Set) {
	switch t {
	case tags.Head:
		b.inHead = true
		if b.opts.InsertTag == nil || b.opts.InsertTag == tags.Head {
			b.addHidden(t, a)
		}
	case tags.Title:
		b.inTitle = true
		b.title.Reset()
		b.addHidden(t, a)
	case tags.Meta:
		b.meta(a)
		b.addHidden(t, a)
	case tags.Link:
		switch strings.ToLower(a.Value(attrs.HTML("rel"))) {
		case "stylesheet", "alternate stylesheet":
			b.pending = append(b.pending, &pendingStyle{link: a})
		}
		b.addHidden(t, a)
	case tags.Style:
		b.pending = append(b.pending, &pendingStyle{typ: a.Value(attrs.HTML("type"))})
		b.inStyle = true
	case tags.Base:
		if href, ok := a.Lookup(attrs.HTML("href")); ok {
			if err := b.doc.SetBase(href); err != nil {
				b.log.Warn("Ignoring bad base reference", zap.String("href", href), zap.Error(err))
			}
		}
	case tags.Map:
		b.lastMap = &tree.ImageMap{Name: a.Value(attrs.HTML("name"))}
	case tags.Area:
		if b.lastMap != nil {
			b.lastMap.Areas = append(b.lastMap.Areas, a)
		}
	default:
		b.addHidden(t, a)
	}
}

func (b *Builder) endHidden(t *tags.Tag) {
	switch t {
	case tags.Head:
		b.inHead, b.inStyle = false, false
		b.applyStyles()
		if b.opts.InsertTag == nil || b.opts.InsertTag == tags.Head {
			b.endMarker(t)
		}
	case tags.Title:
		b.inTitle = false
		b.doc.SetTitle(strings.TrimSpace(b.title.String()))
		b.endMarker(t)
	case tags.Style:
		b.inStyle = false
		if !b.inHead {
			b.applyStyles()
		}
	case tags.Map:
		b.endMap()
	case tags.Meta, tags.Link, tags.Base, tags.Area:
	default:
		if !t.IsEmpty() {
			b.endMarker(t)
		}
	}
}

func (b *Builder) meta(a attrs.Set) {
	b.doc.AddMeta(a.Without(attrs.NameKey))
	content := a.Value(attrs.HTML("content"))
	switch strings.ToLower(a.Value(attrs.HTML("http-equiv"))) {
	case "content-style-type":
		b.doc.SetDefaultStyleType(content)
		b.styleCSS = b.doc.DefaultStyleType() == tree.DefaultStyleType
	case "default-style":
		b.defaultStyle = content
	}
}

func (b *Builder) styleText(data string) {
	if n := len(b.pending); n > 0 && b.pending[n-1].link.Len() == 0 {
		b.pending[n-1].rules.WriteString(data)
	}
}

// applyStyles adds collected style rules to the document stylesheet and
// records linked stylesheets.
func (b *Builder) applyStyles() {
	for _, p := range b.pending {
		if p.link.Len() > 0 {
			b.link(p.link)
			continue
		}
		isCSS := b.styleCSS
		if p.typ != "" {
			isCSS = strings.EqualFold(p.typ, tree.DefaultStyleType)
		}
		if !isCSS || p.rules.Len() == 0 {
			continue
		}
		ss := b.parser.Parse([]byte(p.rules.String()))
		b.log.Debug("Adding style rules", zap.Int("rules", ss.Len()))
		b.doc.AddStyleSheet(ss)
	}
	b.pending = nil
}

// link records stylesheet link applicable to screen media. Alternate
// stylesheets are used only when selected as default style.
func (b *Builder) link(a attrs.Set) {
	typ := a.Value(attrs.HTML("type"))
	if typ == "" {
		typ = b.doc.DefaultStyleType()
	}
	if !strings.EqualFold(typ, tree.DefaultStyleType) {
		return
	}
	media := strings.ToLower(a.Value(attrs.HTML("media")))
	if media == "" {
		media = "all"
	}
	if !strings.Contains(media, "all") && !strings.Contains(media, "screen") {
		return
	}
	switch strings.ToLower(a.Value(attrs.HTML("rel"))) {
	case "stylesheet":
	case "alternate stylesheet":
		if a.Value(attrs.HTML("title")) != b.defaultStyle {
			return
		}
	default:
		return
	}
	href := a.Value(attrs.HTML("href"))
	if u, err := b.doc.Resolve(href); err == nil {
		href = u.String()
	}
	b.doc.AddLinkedStyleSheet(href)
}

func (b *Builder) endMap() {
	if b.lastMap == nil {
		return
	}
	b.doc.AddMap(b.lastMap)
	b.lastMap = nil
}

// finishHead completes head level state left open by truncated stream.
func (b *Builder) finishHead() {
	if b.inTitle {
		b.inTitle = false
		b.doc.SetTitle(strings.TrimSpace(b.title.String()))
	}
	b.inHead, b.inStyle = false, false
	b.applyStyles()
	b.endMap()
}
