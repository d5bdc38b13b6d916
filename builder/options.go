package builder

import (
	"hdoc/attrs"
	"hdoc/common"
	"hdoc/forms"
	"hdoc/tags"
)

// StyleResolver computes style properties declared by inline style string.
type StyleResolver interface {
	Resolve(decl string) attrs.Set
}

// Options control single builder invocation.
type Options struct {
	// Offset to insert at. Ignored when document is empty.
	Offset int
	// InsertTag when set makes builder skip the stream until this tag is
	// seen and position the insertion with PopDepth closes and PushDepth
	// re-opens. When not set and document is not empty content is inserted
	// under the body enclosing Offset.
	InsertTag *tags.Tag
	// PopDepth counts like Position.PopDepth, the paragraph holding the
	// leaf before Offset is included.
	PopDepth  int
	PushDepth int
	// SkipInsertTag keeps the insert tag itself out of the document, only
	// its content is inserted.
	SkipInsertTag bool
	// Threshold is number of buffered instructions which triggers
	// intermediate flush, zero means single flush at the end of stream.
	Threshold int
	// Unknown decides what happens to unknown tags and comments.
	Unknown common.UnknownTags
	// Styles resolves inline style attributes, css resolver is used when
	// not set.
	Styles StyleResolver
	// Forms creates form control models, forms.DefaultFactory when not set.
	Forms forms.Factory
}

func (o Options) preserve() bool {
	return o.Unknown == common.UnknownTagsHidden
}
