package state

import (
	"time"

	"go.uber.org/zap"

	"hdoc/builder"
	"hdoc/tree"
)

func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start: time.Now(),
		Log:   zap.NewNop(),
	}
}

// NewDocument returns empty document prepared according to configuration.
func (e *LocalEnv) NewDocument() *tree.Document {
	doc := tree.New(e.Log)
	if e.Cfg != nil {
		doc.SetDefaultStyleType(e.Cfg.Builder.DefaultStyleType)
	}
	return doc
}

// BuilderOptions returns builder options derived from configuration. Insert
// position is left for the caller.
func (e *LocalEnv) BuilderOptions() builder.Options {
	if e.Cfg == nil {
		return builder.Options{}
	}
	conf := e.Cfg.Builder
	return builder.Options{
		Threshold:     conf.TokenThreshold,
		Unknown:       conf.UnknownTags,
		InsertTag:     conf.Tag(),
		SkipInsertTag: conf.SkipInsertTag,
	}
}
