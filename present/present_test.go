package present

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/groupchat/core"
	"github.com/hupe1980/groupchat/engine"
)

func TestIndent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single line", in: "hello", want: "  hello"},
		{name: "multi line", in: "a\nb", want: "  a\n  b"},
		{name: "blank line", in: "a\n\nb", want: "  a\n  \n  b"},
		{name: "trailing newline", in: "a\n", want: "  a"},
		{name: "crlf", in: "a\r\nb", want: "  a\n  b"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Indent(tt.in))
		})
	}
}

func TestFormatter_Plain(t *testing.T) {
	f := NewFormatter()

	assert.Equal(t, "turn 1: planner\n  Step one.\n  Step two.",
		f.Format("turn 1: planner", "Step one.\nStep two.", "planner"))
}

func TestFormatter_Color(t *testing.T) {
	f := NewFormatter(func(o *Options) { o.Color = true })

	out := f.Format("turn 1: planner", "Step one.", "planner")
	assert.True(t, strings.HasPrefix(out, "\x1b[94mturn 1: planner"), "got %q", out)
	assert.True(t, strings.HasSuffix(out, "\n  Step one."), "got %q", out)

	unknown := f.Format("turn 2: critic", "No.", "critic")
	assert.True(t, strings.HasPrefix(unknown, "\x1b[96m"), "got %q", unknown)

	user := f.Format("user", "hi", "user")
	assert.True(t, strings.HasPrefix(user, "\x1b[95m"), "got %q", user)
}

func TestFormatter_WriteEntry(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter()

	require.NoError(t, f.WriteEntry(&buf, engine.Entry{Label: "tool", Content: "found", AuthorKey: core.DefaultAuthorKey}))
	assert.Equal(t, "tool\n  found\n", buf.String())
}

func TestSupportsColor(t *testing.T) {
	noColor := func(key string) (string, bool) { return "", key == "NO_COLOR" }
	none := func(string) (string, bool) { return "", false }

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	assert.False(t, SupportsColor(noColor, w.Fd()))
	assert.False(t, SupportsColor(none, w.Fd()))
}
