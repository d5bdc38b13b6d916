package builder

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"hdoc/attrs"
	"hdoc/source"
	"hdoc/tags"
	"hdoc/tree"
)

// Run feeds events of src to the builder until the stream ends. When ctx is
// done first instructions not yet applied are discarded, document keeps
// state of the last flush and returned error wraps ErrCanceled. Any other
// failure of src leaves document the same way and makes the builder fail
// with that error.
//
// Document properties such as title, comments, language, base, meta, style
// sheets, image maps and end of line are visible to readers as soon as their
// events arrive, before the flush carrying the surrounding content. A failed
// or canceled build rolls them back to their state at the last successful
// flush.
func (b *Builder) Run(ctx context.Context, src source.Source) error {
	err := src.Walk(ctx, &guard{ctx: ctx, b: b})
	if ctx.Err() != nil && !b.done {
		b.buf.Discard()
		b.log.Debug("Build canceled", zap.Int("offset", b.offset), zap.Int("flushes", b.flushes))
		b.fail(fmt.Errorf("%w: %w", ErrCanceled, context.Cause(ctx)))
		return b.err
	}
	if err != nil && b.err == nil && !b.done {
		b.buf.Discard()
		b.log.Debug("Source failed", zap.Int("offset", b.offset), zap.Error(err))
		b.fail(err)
	}
	return err
}

// Build runs new builder for doc over src.
func Build(ctx context.Context, doc *tree.Document, src source.Source, opts Options, log *zap.Logger) error {
	b, err := New(doc, opts, log)
	if err != nil {
		return err
	}
	return b.Run(ctx, src)
}

// guard stops delivery of events once context is done.
type guard struct {
	ctx context.Context
	b   *Builder
}

func (g *guard) StartTag(t *tags.Tag, a attrs.Set, pos int) error {
	if err := g.ctx.Err(); err != nil {
		return err
	}
	return g.b.StartTag(t, a, pos)
}

func (g *guard) EndTag(t *tags.Tag, pos int) error {
	if err := g.ctx.Err(); err != nil {
		return err
	}
	return g.b.EndTag(t, pos)
}

func (g *guard) SimpleTag(t *tags.Tag, a attrs.Set, pos int) error {
	if err := g.ctx.Err(); err != nil {
		return err
	}
	return g.b.SimpleTag(t, a, pos)
}

func (g *guard) Text(data string, pos int) error {
	if err := g.ctx.Err(); err != nil {
		return err
	}
	return g.b.Text(data, pos)
}

func (g *guard) Comment(data string, pos int) error {
	if err := g.ctx.Err(); err != nil {
		return err
	}
	return g.b.Comment(data, pos)
}

func (g *guard) Flush() error {
	if err := g.ctx.Err(); err != nil {
		return err
	}
	return g.b.Flush()
}
