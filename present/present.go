// Package present renders transcript entries for terminals.
//
// An entry is printed as its label on one line followed by the content,
// every line indented by two spaces. When colour is enabled the label is
// coloured by the entry's author key.
package present

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/hupe1980/groupchat/core"
	"github.com/hupe1980/groupchat/engine"
)

// DefaultPalette maps author keys to ANSI colours.
var DefaultPalette = map[string]string{
	"user":                "13", // bright magenta
	"planner":             "12", // bright blue
	"researcher":          "10", // bright green
	"editor":              "11", // bright yellow
	core.DefaultAuthorKey: "14", // bright cyan
}

// Options configures a Formatter.
type Options struct {
	// Color enables coloured labels.
	Color bool

	// Palette maps author keys to lipgloss colours. Unknown keys use the
	// colour of core.DefaultAuthorKey.
	Palette map[string]string
}

// Formatter renders entries.
type Formatter struct {
	color    bool
	styles   map[string]lipgloss.Style
	fallback lipgloss.Style
}

// NewFormatter creates a Formatter. Colour output always uses the basic ANSI
// profile; whether to colour at all is decided by Options.Color.
func NewFormatter(optFns ...func(o *Options)) *Formatter {
	opts := Options{Palette: DefaultPalette}
	for _, fn := range optFns {
		fn(&opts)
	}

	renderer := lipgloss.NewRenderer(io.Discard)
	renderer.SetColorProfile(termenv.ANSI)

	styles := make(map[string]lipgloss.Style, len(opts.Palette))
	for key, c := range opts.Palette {
		styles[key] = renderer.NewStyle().Foreground(lipgloss.Color(c))
	}

	fallback, ok := styles[core.DefaultAuthorKey]
	if !ok {
		fallback = renderer.NewStyle().Foreground(lipgloss.Color(DefaultPalette[core.DefaultAuthorKey]))
	}

	return &Formatter{
		color:    opts.Color,
		styles:   styles,
		fallback: fallback,
	}
}

// Format renders label and content. authorKey selects the label colour.
func (f *Formatter) Format(label, content, authorKey string) string {
	if f.color {
		style, ok := f.styles[authorKey]
		if !ok {
			style = f.fallback
		}
		label = style.Render(label)
	}
	return label + "\n" + Indent(content)
}

// FormatEntry renders a transcript entry.
func (f *Formatter) FormatEntry(e engine.Entry) string {
	return f.Format(e.Label, e.Content, e.AuthorKey)
}

// WriteEntry writes the rendered entry and a trailing newline to w.
func (f *Formatter) WriteEntry(w io.Writer, e engine.Entry) error {
	_, err := fmt.Fprintln(w, f.FormatEntry(e))
	return err
}

// Indent prefixes every line of text with two spaces. Blank lines become
// the bare indent.
func Indent(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}

// SupportsColor reports whether output to fd should be coloured: NO_COLOR
// must be unset and fd must be a terminal.
func SupportsColor(lookupEnv func(string) (string, bool), fd uintptr) bool {
	if _, ok := lookupEnv("NO_COLOR"); ok {
		return false
	}
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
