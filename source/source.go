// Package source turns markup into the stream of parse events consumed by
// the document builder.
package source

import (
	"context"
	"fmt"

	"hdoc/attrs"
	"hdoc/tags"
)

// Handler receives parse events in document order. Positions are character
// offsets of the event in the text stream. Flush is always the last call.
type Handler interface {
	StartTag(t *tags.Tag, a attrs.Set, pos int) error
	EndTag(t *tags.Tag, pos int) error
	SimpleTag(t *tags.Tag, a attrs.Set, pos int) error
	Text(data string, pos int) error
	Comment(data string, pos int) error
	Flush() error
}

// Source delivers events to handler. Walking stops on the first error
// returned by handler.
type Source interface {
	Walk(ctx context.Context, h Handler) error
}

// Kind of recorded event.
type Kind uint8

const (
	KindStartTag Kind = iota + 1
	KindEndTag
	KindSimpleTag
	KindText
	KindComment
)

func (k Kind) String() string {
	switch k {
	case KindStartTag:
		return "start"
	case KindEndTag:
		return "end"
	case KindSimpleTag:
		return "simple"
	case KindText:
		return "text"
	case KindComment:
		return "comment"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Event is a single recorded parse event.
type Event struct {
	Kind  Kind
	Tag   *tags.Tag
	Attrs attrs.Set
	Data  string
	Pos   int
}

func (e Event) String() string {
	switch e.Kind {
	case KindStartTag, KindSimpleTag:
		if e.Attrs.Len() > 1 {
			return fmt.Sprintf("%s %s %s", e.Kind, e.Tag, e.Attrs.Without(attrs.NameKey))
		}
		return fmt.Sprintf("%s %s", e.Kind, e.Tag)
	case KindEndTag:
		return fmt.Sprintf("%s %s", e.Kind, e.Tag)
	default:
		return fmt.Sprintf("%s %q", e.Kind, e.Data)
	}
}

// Events is a recorded event stream, it can be replayed any number of
// times.
type Events []Event

// Walk replays events into handler and finishes with Flush. Context is
// checked between events.
func (ev Events) Walk(ctx context.Context, h Handler) error {
	for i, e := range ev {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		switch e.Kind {
		case KindStartTag:
			err = h.StartTag(e.Tag, e.Attrs, e.Pos)
		case KindEndTag:
			err = h.EndTag(e.Tag, e.Pos)
		case KindSimpleTag:
			err = h.SimpleTag(e.Tag, e.Attrs, e.Pos)
		case KindText:
			err = h.Text(e.Data, e.Pos)
		case KindComment:
			err = h.Comment(e.Data, e.Pos)
		default:
			err = fmt.Errorf("event %d has unknown kind %s", i, e.Kind)
		}
		if err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.Flush()
}

// Builder helpers for hand written streams.

// Start returns start tag event.
func Start(t *tags.Tag, html map[string]string) Event {
	return Event{Kind: KindStartTag, Tag: t, Attrs: attrs.Of(t, html)}
}

// End returns end tag event.
func End(t *tags.Tag) Event {
	return Event{Kind: KindEndTag, Tag: t}
}

// Simple returns simple tag event.
func Simple(t *tags.Tag, html map[string]string) Event {
	return Event{Kind: KindSimpleTag, Tag: t, Attrs: attrs.Of(t, html)}
}

// Text returns text event.
func Text(data string) Event {
	return Event{Kind: KindText, Data: data}
}

// Comment returns comment event.
func Comment(data string) Event {
	return Event{Kind: KindComment, Data: data}
}
