package builder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hdoc/attrs"
	"hdoc/css"
	"hdoc/tags"
	"hdoc/tree"
)

func TestRepair(t *testing.T) {
	content := func(s string) tree.Instruction {
		return tree.Content(attrs.Named(tags.Content), s)
	}
	bold := tree.Content(attrs.Named(tags.Content).With(css.FontWeight, "bold"), "ab")

	tests := []struct {
		name   string
		instrs []tree.Instruction
		want   string
	}{
		{
			name: "extended run",
			instrs: []tree.Instruction{
				tree.Open(attrs.Named(tags.Body)),
				tree.Open(attrs.Named(tags.P)),
				content("ab"),
				tree.Close(),
				tree.Close(),
			},
			want: `html
  body
    p
      content [0,3) "ab\n"
`,
		},
		{
			name: "added run",
			instrs: []tree.Instruction{
				tree.Open(attrs.Named(tags.Body)),
				tree.Open(attrs.Named(tags.P)),
				bold,
				tree.Close(),
				tree.Close(),
			},
			want: `html
  body
    p
      content [0,2) "ab" {css:font-weight="bold"}
      content [2,3) "\n"
`,
		},
		{
			name: "added paragraph",
			instrs: []tree.Instruction{
				tree.Open(attrs.Named(tags.Body)),
				tree.Open(attrs.Named(tags.Div)),
				content("ab\n"),
				tree.Close(),
				tree.Close(),
			},
			want: `html
  body
    div
      content [0,3) "ab\n"
    p
      content [3,4) "\n"
`,
		},
		{
			name: "outside of body",
			instrs: []tree.Instruction{
				tree.Open(attrs.Named(tags.P)),
				content("ab\n"),
				tree.Close(),
			},
			want: `html
  p
    content [0,3) "ab\n"
  body
    p
      content [3,4) "\n"
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tree.New(testLogger(t))
			require.NoError(t, doc.Create(tt.instrs))

			require.NoError(t, Repair(doc, testLogger(t)))
			require.NoError(t, doc.Check())
			require.Equal(t, tt.want, doc.String())

			require.NoError(t, Repair(doc, testLogger(t)))
			require.Equal(t, tt.want, doc.String())
		})
	}
}

func TestRepairEmpty(t *testing.T) {
	doc := tree.New(testLogger(t))
	before := doc.String()
	require.NoError(t, Repair(doc, nil))
	require.Equal(t, before, doc.String())
}
