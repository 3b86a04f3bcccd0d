package render

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	colorAccent  = lipgloss.Color("39")
	colorWarning = lipgloss.Color("214")
	colorDim     = lipgloss.Color("240")

	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// Styler colors rendered reports for a terminal. The zero value passes text through.
type Styler struct {
	Color bool
}

// StylerFor enables color when w is a terminal and NO_COLOR is unset.
func StylerFor(w io.Writer) Styler {
	f, ok := w.(*os.File)
	if !ok || os.Getenv("NO_COLOR") != "" {
		return Styler{}
	}
	return Styler{Color: term.IsTerminal(int(f.Fd()))}
}

// Apply highlights section headers, warnings and notes line by line.
func (s Styler) Apply(text string) string {
	if !s.Color {
		return text
	}
	lines := strings.Split(text, "\n")
	inNotes := false
	for i, l := range lines {
		switch {
		case isSection(l):
			inNotes = l == "[NOTES]"
			lines[i] = sectionStyle.Render(l)
		case strings.HasPrefix(l, "- (warning)") || strings.HasPrefix(l, "⚠"):
			lines[i] = warningStyle.Render(l)
		case inNotes && l != "":
			lines[i] = dimStyle.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

func isSection(l string) bool {
	return len(l) > 2 && l[0] == '[' && l[len(l)-1] == ']' && strings.ToUpper(l) == l
}
