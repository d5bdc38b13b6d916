package builder

import (
	"hdoc/attrs"
	"hdoc/css"
	"hdoc/tags"
)

type styleFrame struct {
	tag   *tags.Tag
	attrs attrs.Set
}

// StyleStack keeps character attributes active at the current point of the
// stream. Every frame is a complete snapshot, pushing layers new attributes
// over a copy of the top and popping restores previous snapshot untouched.
type StyleStack struct {
	frames []styleFrame
}

// Push enters character tag t with markup attributes a and resolved inline
// style. Presentational tags are converted to equivalent style properties,
// others keep their markup attributes under the tag key.
func (s *StyleStack) Push(t *tags.Tag, a, style attrs.Set) {
	next := s.Current().WithAll(style)
	if css.IsPresentational(t) {
		next = css.Convert(t, a, next)
	} else {
		next = next.With(attrs.TagKey(t), a.Without(attrs.NameKey))
	}
	s.frames = append(s.frames, styleFrame{tag: t, attrs: next})
}

// Pop leaves innermost character tag, popping empty stack does nothing.
func (s *StyleStack) Pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Current returns attributes for content at this point.
func (s *StyleStack) Current() attrs.Set {
	if len(s.frames) == 0 {
		return attrs.Empty
	}
	return s.frames[len(s.frames)-1].attrs
}

// Top returns tag of the innermost frame or nil.
func (s *StyleStack) Top() *tags.Tag {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1].tag
}

// Depth returns number of frames.
func (s *StyleStack) Depth() int {
	return len(s.frames)
}
