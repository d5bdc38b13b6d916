// Package builder converts stream of markup parse events into structural
// edits of a tree.Document.
//
// Builder is used either to load an empty document or to insert a fragment
// into an existing one. Edits are collected in a buffer and applied to the
// document in batches: when the buffer grows past configured threshold and
// at the end of the stream. Every batch is a single transactional edit, so
// document readers never see half built structure. Builder itself is not
// safe for concurrent use and two builders must never target the same
// document at the same time.
package builder

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hdoc/attrs"
	"hdoc/common"
	"hdoc/css"
	"hdoc/forms"
	"hdoc/tags"
	"hdoc/tree"
)

var (
	// ErrCanceled is returned by Run when context is done before the
	// stream ends.
	ErrCanceled = errors.New("build canceled")
	// ErrFlushed is returned for events delivered after Flush.
	ErrFlushed = errors.New("stream already flushed")
)

// Builder receives parse events and builds document structure from them.
// It implements source.Handler.
type Builder struct {
	doc      *tree.Document
	opts     Options
	log      *zap.Logger
	resolver StyleResolver
	parser   *css.Parser

	buf    *EditBuffer
	styles StyleStack
	blocks []entry
	offset int

	fresh     bool // document was empty
	midInsert bool // inserting under body of existing document
	found     bool // insert tag was seen, always set without one

	inBody         bool
	inHead         bool
	inTitle        bool
	lastWasNewline bool
	emptyAnchor    bool

	styleCSS     bool
	defaultStyle string
	inStyle      bool
	pending      []*pendingStyle
	title        strings.Builder
	lastMap      *tree.ImageMap
	objects      []int // buffer index of each open object, -1 if not buffered
	saved        tree.Properties

	controls

	flushes int
	done    bool
	err     error
}

// New creates builder for doc. In the middle of non empty document without
// insert tag the insertion is positioned under the enclosing body right
// away, offset that is not inside body is a structural error.
func New(doc *tree.Document, opts Options, log *zap.Logger) (*Builder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("builder")

	b := &Builder{
		doc:      doc,
		opts:     opts,
		log:      log,
		resolver: opts.Styles,
		parser:   css.NewParser(log),
		buf:      NewEditBuffer(opts.Threshold),
		offset:   opts.Offset,
		fresh:    doc.Len() == 0,
		found:    opts.InsertTag == nil,
		styleCSS: doc.DefaultStyleType() == tree.DefaultStyleType,
		saved:    doc.SaveProperties(),
	}
	if b.resolver == nil {
		b.resolver = css.NewResolver(log)
	}
	factory := opts.Forms
	if factory == nil {
		factory = forms.DefaultFactory{}
	}
	b.controls = newControls(factory, log)

	if b.fresh {
		b.offset = 0
	}
	b.midInsert = !b.fresh && opts.InsertTag == nil
	if b.midInsert {
		pos, err := Locate(doc, opts.Offset, tags.Body)
		if err != nil {
			return nil, err
		}
		b.buf.Append(pos.Instructions()...)
		log.Debug("Positioned insertion",
			zap.Int("offset", opts.Offset),
			zap.Int("pop", pos.PopDepth),
			zap.Int("push", pos.PushDepth),
			zap.Bool("join next", pos.JoinNext))
	}
	return b, nil
}

// Offset returns document offset where the next flush inserts content.
func (b *Builder) Offset() int {
	return b.offset
}

func (b *Builder) check() error {
	if b.err != nil {
		return b.err
	}
	if b.done {
		return ErrFlushed
	}
	return nil
}

// fail records the first error. Document properties changed since the last
// successful flush are rolled back.
func (b *Builder) fail(err error) {
	if b.err == nil {
		b.err = err
		b.doc.RestoreProperties(b.saved)
	}
}

// StartTag handles start of element.
func (b *Builder) StartTag(t *tags.Tag, a attrs.Set, pos int) error {
	if err := b.check(); err != nil {
		return err
	}
	if b.midInsert && !b.inBody {
		if t == tags.Body {
			// body of the document being inserted into is already open
			b.inBody = true
			b.blocks = append(b.blocks, entry{tag: t, quiet: true})
		}
		return nil
	}
	if t == tags.Body {
		b.inBody = true
	}
	a, style := b.resolveStyle(a)
	b.start(t, a, style)
	return b.err
}

// EndTag handles end of element.
func (b *Builder) EndTag(t *tags.Tag, pos int) error {
	if err := b.check(); err != nil {
		return err
	}
	if b.midInsert && !b.inBody {
		return nil
	}
	if t == tags.Body {
		b.inBody = false
	}
	b.end(t, pos)
	return b.err
}

// SimpleTag handles element without end tag. Unknown tags and their end
// markers come here too.
func (b *Builder) SimpleTag(t *tags.Tag, a attrs.Set, pos int) error {
	if err := b.check(); err != nil {
		return err
	}
	if b.midInsert && !b.inBody {
		return nil
	}
	if t == tags.EndOfLine {
		if b.fresh {
			b.doc.SetEndOfLine(a.Value(attrs.EndOfLineKey))
		}
		return nil
	}
	a, style := b.resolveStyle(a)
	if !t.IsKnown() {
		if _, ok := tags.Classify(t, b.opts.Unknown); !ok {
			b.log.Warn("Dropping unknown tag", zap.Stringer("tag", t), zap.Int("pos", pos))
			return nil
		}
		b.addSpecial(t, a.With(attrs.InvisibleKey, true))
		return b.err
	}
	b.start(t, a, style)
	b.end(t, pos)
	return b.err
}

// Text handles character data.
func (b *Builder) Text(data string, pos int) error {
	if err := b.check(); err != nil {
		return err
	}
	if b.midInsert && !b.inBody {
		return nil
	}
	switch {
	case b.textarea != nil:
		b.textarea.Append(data)
	case b.inPre():
		b.preContent(data)
	case b.inTitle:
		b.title.WriteString(data)
	case b.option != nil:
		b.option.AppendLabel(data)
	case b.selection != nil:
		// white space between options
	case b.inStyle:
		b.styleText(data)
	case b.inHead:
		// not shown
	case data != "":
		b.addContent(data, true)
	}
	return b.err
}

// Comment handles markup comment. Comments are kept only when unknown tags
// are preserved, comments outside of any block go to document properties.
func (b *Builder) Comment(data string, pos int) error {
	if err := b.check(); err != nil {
		return err
	}
	switch {
	case b.inStyle:
		b.styleText(data)
	case !b.opts.preserve():
	case len(b.blocks) == 0:
		b.doc.AddComment(data)
	default:
		b.addSpecial(tags.Comment, attrs.Named(tags.Comment).With(attrs.CommentKey, data))
	}
	return b.err
}

// Flush ends the stream. Blocks still open are closed, buffered edits are
// applied and document loaded from scratch gets its trailing element
// repaired.
func (b *Builder) Flush() error {
	if err := b.check(); err != nil {
		return err
	}
	for len(b.blocks) > 0 {
		b.closeTop()
	}
	b.finishHead()
	b.finishControls()
	b.flush()
	b.objects = nil
	b.done = true
	if b.err == nil && b.fresh {
		if err := Repair(b.doc, b.log); err != nil {
			b.fail(fmt.Errorf("repair: %w", err))
		}
	}
	return b.err
}

func (b *Builder) flush() {
	if b.err != nil || b.buf.Len() == 0 {
		return
	}
	create := b.fresh && b.opts.InsertTag == nil && b.flushes == 0
	count := b.buf.Len()
	n, err := b.buf.Flush(b.doc, b.offset, create)
	if err != nil {
		b.fail(fmt.Errorf("flush at offset %d: %w", b.offset, err))
		return
	}
	b.log.Debug("Flushed",
		zap.Int("instructions", count),
		zap.Int("length", n),
		zap.Int("offset", b.offset),
		zap.Bool("create", create))
	b.offset += n
	b.flushes++
	b.saved = b.doc.SaveProperties()
}

// emit buffers instruction, flushing when the buffer is full. Flushes only
// happen after content so the insertion point stays inside the innermost
// open block, and never while an object is open so its parameters still
// have a buffered unit to land on.
func (b *Builder) emit(in tree.Instruction) {
	b.buf.Append(in)
	if in.Kind == tree.KindContent && len(b.objects) == 0 && b.buf.ShouldFlush() {
		b.flush()
	}
}

func (b *Builder) resolveStyle(a attrs.Set) (attrs.Set, attrs.Set) {
	decl, ok := a.Lookup(attrs.HTML("style"))
	if !ok || !b.styleCSS {
		return a, attrs.Empty
	}
	style := b.resolver.Resolve(decl)
	return a.Without(attrs.HTML("style")).WithAll(style), style
}

func (b *Builder) start(t *tags.Tag, a, style attrs.Set) {
	role, ok := tags.Classify(t, b.opts.Unknown)
	if !ok {
		return
	}
	switch role {
	case common.RoleBlock, common.RoleParagraph:
		switch t {
		case tags.Pre:
			b.startPre(a)
		case tags.HTML:
			if lang, ok := a.Lookup(attrs.HTML("lang")); ok && b.fresh {
				b.doc.SetLanguage(lang)
			}
			b.blockOpen(t, a)
		default:
			b.blockOpen(t, a)
		}
	case common.RoleCharacter:
		switch t {
		case tags.A:
			b.emptyAnchor = true
		case tags.Form:
			b.startForm()
		}
		b.styles.Push(t, a, style)
	case common.RoleSpecial:
		switch t {
		case tags.Object:
			b.startObject(a)
		case tags.Param:
			b.addParameter(a)
		case tags.Isindex:
			b.isindex(a)
		default:
			b.addSpecial(t, a)
		}
	case common.RoleForm:
		b.startControl(t, a)
	case common.RoleHidden:
		b.startHidden(t, a)
	}
}

func (b *Builder) end(t *tags.Tag, pos int) {
	role, ok := tags.Classify(t, b.opts.Unknown)
	if !ok {
		return
	}
	switch role {
	case common.RoleBlock, common.RoleParagraph:
		if !b.blockClose(t) {
			b.log.Debug("Ignoring unmatched end tag", zap.Stringer("tag", t), zap.Int("pos", pos))
		}
	case common.RoleCharacter:
		if t == tags.A && b.emptyAnchor {
			// keep named anchor
			b.addContent(" ", true)
		}
		b.emptyAnchor = false
		if t == tags.Form {
			b.endForm()
		}
		b.styles.Pop()
	case common.RoleSpecial:
		if t == tags.Object && len(b.objects) > 0 {
			b.objects = b.objects[:len(b.objects)-1]
		}
	case common.RoleForm:
		b.endControl(t)
	case common.RoleHidden:
		b.endHidden(t)
	}
}
