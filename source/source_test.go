package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"hdoc/attrs"
	"hdoc/tags"
)

func eventStrings(events Events) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.String())
	}
	return out
}

func TestParse(t *testing.T) {
	in := "<p class=\"x\">Hello   <b>world</b></p>\n<!-- c -->\n<pre>a\n  b</pre><x-foo>y</x-foo><br>"
	events, err := Parse(strings.NewReader(in), "text/html; charset=utf-8")
	require.NoError(t, err)
	require.NotEmpty(t, events)

	last := events[len(events)-1]
	require.Equal(t, tags.EndOfLine, last.Tag)
	require.Equal(t, "\n", last.Attrs.Value(attrs.EndOfLineKey))

	want := []string{
		`start html`,
		`start head`,
		`end head`,
		`start body`,
		`start p {html:class="x"}`,
		`text "Hello "`,
		`start b`,
		`text "world"`,
		`end b`,
		`end p`,
		`comment " c "`,
		`start pre`,
		`text "a\n  b"`,
		`end pre`,
		`simple x-foo`,
		`text "y"`,
		`simple x-foo {endtag=true}`,
		`simple br`,
		`end body`,
		`end html`,
	}
	require.Equal(t, want, eventStrings(events[:len(events)-1]))
}

func TestParsePositions(t *testing.T) {
	events, err := Parse(strings.NewReader("<p>ab<b>cd</b></p>"), "")
	require.NoError(t, err)

	pos := map[string]int{}
	for _, e := range events {
		if e.Kind == KindText {
			pos[e.Data] = e.Pos
		}
	}
	require.Equal(t, map[string]int{"ab": 0, "cd": 2}, pos)
}

func TestParseScriptAndStyle(t *testing.T) {
	in := "<html><head><style>p  {  color: red }</style><script>var a  = 1;</script></head></html>"
	events, err := Parse(strings.NewReader(in), "")
	require.NoError(t, err)

	got := eventStrings(events)
	require.Contains(t, got, `text "p  {  color: red }"`)
	require.Contains(t, got, `comment "var a  = 1;"`)
}

func TestLineTerminator(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a\r\nb\nc", want: "\r\n"},
		{in: "a\rb", want: "\r"},
		{in: "a\nb", want: "\n"},
		{in: "ab", want: "\n"},
	}
	for _, tt := range tests {
		if got := lineTerminator([]byte(tt.in)); got != tt.want {
			t.Fatalf("lineTerminator(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "a  b", want: "a b"},
		{in: " \t\n", want: " "},
		{in: "a\n\nb ", want: "a b "},
		{in: "ab", want: "ab"},
	}
	for _, tt := range tests {
		if got := collapse(tt.in); got != tt.want {
			t.Fatalf("collapse(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type recorder struct {
	got     []string
	failAt  int
	flushed bool
}

var errStop = errors.New("stop")

func (r *recorder) record(s string) error {
	r.got = append(r.got, s)
	if len(r.got) == r.failAt {
		return errStop
	}
	return nil
}

func (r *recorder) StartTag(t *tags.Tag, _ attrs.Set, pos int) error {
	return r.record(fmt.Sprintf("start %s@%d", t, pos))
}

func (r *recorder) EndTag(t *tags.Tag, pos int) error {
	return r.record(fmt.Sprintf("end %s@%d", t, pos))
}

func (r *recorder) SimpleTag(t *tags.Tag, _ attrs.Set, pos int) error {
	return r.record(fmt.Sprintf("simple %s@%d", t, pos))
}

func (r *recorder) Text(data string, pos int) error {
	return r.record(fmt.Sprintf("text %s@%d", data, pos))
}

func (r *recorder) Comment(data string, pos int) error {
	return r.record(fmt.Sprintf("comment %s@%d", data, pos))
}

func (r *recorder) Flush() error {
	r.flushed = true
	return nil
}

func TestEventsWalk(t *testing.T) {
	events := Events{
		Start(tags.P, nil),
		Text("ab"),
		Simple(tags.Br, nil),
		Comment("c"),
		End(tags.P),
	}

	r := &recorder{}
	require.NoError(t, events.Walk(context.Background(), r))
	require.Equal(t, []string{"start p@0", "text ab@0", "simple br@0", "comment c@0", "end p@0"}, r.got)
	require.True(t, r.flushed)

	r = &recorder{failAt: 2}
	require.ErrorIs(t, events.Walk(context.Background(), r), errStop)
	require.Len(t, r.got, 2)
	require.False(t, r.flushed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r = &recorder{}
	require.ErrorIs(t, events.Walk(ctx, r), context.Canceled)
	require.Empty(t, r.got)
	require.False(t, r.flushed)
}
