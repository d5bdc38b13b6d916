package builder

import (
	"strings"

	"go.uber.org/zap"

	"hdoc/attrs"
	"hdoc/common"
	"hdoc/css"
	"hdoc/tags"
	"hdoc/tree"
)

type entryKind uint8

const (
	entryBlock   entryKind = iota
	entryImplied           // paragraph synthesized around bare content
	entryLine              // line of preformatted text
)

// entry is a block opened by this builder and not closed yet.
type entry struct {
	tag  *tags.Tag
	kind entryKind
	// closing emits nothing: block was never emitted, it is the document
	// root or it already exists in the document
	quiet bool
}

func (b *Builder) top() *entry {
	if len(b.blocks) == 0 {
		return nil
	}
	return &b.blocks[len(b.blocks)-1]
}

func (b *Builder) inParagraph() bool {
	e := b.top()
	return e != nil && e.tag.Role() == common.RoleParagraph
}

func (b *Builder) inPre() bool {
	for _, e := range b.blocks {
		if e.tag == tags.Pre {
			return true
		}
	}
	return false
}

func (b *Builder) isInsertTag(t *tags.Tag) bool {
	return t == b.opts.InsertTag || t == tags.Implied && b.opts.InsertTag == tags.P
}

// admit reports whether element for t goes to the document. Until insert
// tag is seen nothing does, when it is the insertion gets positioned.
func (b *Builder) admit(t *tags.Tag) bool {
	if b.found {
		return true
	}
	if !b.isInsertTag(t) {
		return false
	}
	b.found = true
	seeding, err := seed(b.doc, b.offset, b.opts.PopDepth, b.opts.PushDepth)
	if err != nil {
		b.fail(err)
		return false
	}
	b.buf.Append(seeding...)
	return !b.opts.SkipInsertTag
}

func (b *Builder) blockOpen(t *tags.Tag, a attrs.Set) {
	b.open(t, a, entryBlock)
}

func (b *Builder) openImplied() {
	b.open(tags.Implied, attrs.Empty, entryImplied)
}

func (b *Builder) open(t *tags.Tag, a attrs.Set, kind entryKind) {
	if e := b.top(); e != nil && e.kind == entryImplied {
		b.closeTop()
	}
	e := entry{tag: t, kind: kind}
	if !b.admit(t) {
		e.quiet = true
		b.blocks = append(b.blocks, e)
		return
	}
	if t == tags.HTML && b.fresh && b.flushes == 0 && b.buf.Len() == 0 {
		// becomes the root, never closed
		e.quiet = true
	}
	b.lastWasNewline = false
	b.emit(tree.Open(a.WithName(t)))
	b.blocks = append(b.blocks, e)
}

// blockClose closes the innermost open block t with everything opened
// inside of it. Returns false when there is no such block.
func (b *Builder) blockClose(t *tags.Tag) bool {
	i := len(b.blocks) - 1
	for ; i >= 0; i-- {
		if e := b.blocks[i]; e.tag == t && e.kind == entryBlock {
			break
		}
	}
	if i < 0 {
		return false
	}
	for len(b.blocks) > i {
		b.closeTop()
	}
	return true
}

// closeTop closes innermost block. Content of every closed block ends with
// a newline so caret can be placed at block end.
func (b *Builder) closeTop() {
	e := *b.top()
	if e.quiet {
		b.blocks = b.blocks[:len(b.blocks)-1]
		return
	}
	if !b.lastWasNewline {
		if b.opts.InsertTag != nil && e.tag.Role() != common.RoleParagraph && !b.inPre() {
			// inserted fragments keep paragraph structure
			b.emit(tree.Open(attrs.Named(tags.Implied)))
			b.emit(tree.Content(b.styles.Current().WithName(tags.Content), "\n"))
			b.emit(tree.Close())
		} else {
			b.addContent("\n", false)
		}
		b.lastWasNewline = true
	}
	b.blocks = b.blocks[:len(b.blocks)-1]
	if b.buf.LastIsOpen() {
		// empty branch would be dropped by the document
		b.addContent(" ", false)
	}
	b.emit(tree.Close())
}

// addContent adds text with current character attributes, opening implied
// paragraph when content is not inside of one.
func (b *Builder) addContent(text string, implied bool) {
	if !b.found {
		return
	}
	if implied && !b.inParagraph() && !b.inPre() {
		b.openImplied()
	}
	b.emptyAnchor = false
	b.emit(tree.Content(b.styles.Current().WithName(tags.Content), text))
	if text != "" {
		b.lastWasNewline = strings.HasSuffix(text, "\n")
	}
}

// addSpecial adds atomic element occupying single content character.
func (b *Builder) addSpecial(t *tags.Tag, a attrs.Set) {
	if t != tags.Frame && !b.inParagraph() && !b.inPre() {
		b.openImplied()
	}
	if !b.admit(t) {
		return
	}
	b.emptyAnchor = false
	b.emit(tree.Content(a.WithAll(b.styles.Current()).WithName(t), " "))
	if t == tags.Frame {
		// frames have no content and need no line end
		b.lastWasNewline = true
	}
}

func (b *Builder) addHidden(t *tags.Tag, a attrs.Set) {
	b.addSpecial(t, a.With(attrs.InvisibleKey, true))
}

// endMarker adds element standing for the end tag of hidden element.
func (b *Builder) endMarker(t *tags.Tag) {
	b.addHidden(t, attrs.Named(t).With(attrs.EndTagKey, true))
}

func (b *Builder) startPre(a attrs.Set) {
	b.blockOpen(tags.Pre, a)
	b.open(tags.Implied, a.With(css.WhiteSpace, "pre"), entryLine)
}

// preContent splits preformatted text into lines, each line is a block.
func (b *Builder) preContent(data string) {
	last := 0
	for i := 0; i < len(data); i++ {
		if data[i] != '\n' {
			continue
		}
		b.addContent(data[last:i+1], true)
		if e := b.top(); e != nil && e.kind == entryLine {
			b.closeTop()
			b.open(tags.Implied, attrs.Empty.With(css.WhiteSpace, "pre"), entryLine)
		}
		last = i + 1
	}
	if last < len(data) {
		b.addContent(data[last:], true)
	}
}

func (b *Builder) isindex(a attrs.Set) {
	b.open(tags.Implied, attrs.Empty, entryBlock)
	n := len(b.blocks)
	b.addSpecial(tags.Isindex, a)
	for len(b.blocks) >= n {
		b.closeTop()
	}
}

// startObject adds object unit and remembers where it is buffered.
func (b *Builder) startObject(a attrs.Set) {
	b.objects = append(b.objects, -1)
	n := b.buf.Len()
	b.addSpecial(tags.Object, a)
	if b.buf.Len() > n {
		b.objects[len(b.objects)-1] = b.buf.Len() - 1
	}
}

// addParameter attaches object parameter to the innermost open object.
func (b *Builder) addParameter(a attrs.Set) {
	name, ok := a.Lookup(attrs.HTML("name"))
	if !ok {
		return
	}
	value, ok := a.Lookup(attrs.HTML("value"))
	if !ok {
		return
	}
	if len(b.objects) == 0 || b.objects[len(b.objects)-1] < 0 {
		b.log.Debug("Dropping parameter outside of object", zap.String("name", name))
		return
	}
	in := b.buf.At(b.objects[len(b.objects)-1])
	in.Attrs = in.Attrs.With(attrs.HTML(name), value)
}
