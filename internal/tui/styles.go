package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/todosync/internal/ui"
)

// palette holds the 256-colour codes used for one theme.
type palette struct {
	success, pending, accent, err, border string
}

// palettes is keyed by theme name. A theme without an entry renders
// without colour.
var palettes = map[string]palette{
	"classic": {success: "42", pending: "214", accent: "12", err: "9", border: "8"},
	"neon":    {success: "46", pending: "226", accent: "51", err: "201", border: "13"},
}

type styles struct {
	title, success, pending, accent, muted, err lipgloss.Style
	selected, done, help, frame                 lipgloss.Style

	unchecked, checked string
}

// newStyles builds the screen styles for t. With color false every
// foreground is lipgloss.NoColor.
func newStyles(t ui.Theme, color bool) styles {
	p, ok := palettes[t.Name]
	fg := func(code string) lipgloss.TerminalColor {
		if !color || !ok || t.Plain {
			return lipgloss.NoColor{}
		}
		return lipgloss.Color(code)
	}
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fg(p.border)).
		Padding(0, 1)
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		success:  lipgloss.NewStyle().Foreground(fg(p.success)),
		pending:  lipgloss.NewStyle().Foreground(fg(p.pending)),
		accent:   lipgloss.NewStyle().Foreground(fg(p.accent)),
		muted:    lipgloss.NewStyle().Faint(true),
		err:      lipgloss.NewStyle().Foreground(fg(p.err)).Bold(true),
		selected: lipgloss.NewStyle().Bold(true).Reverse(true),
		done:     lipgloss.NewStyle().Faint(true).Strikethrough(true),
		help:     lipgloss.NewStyle().Faint(true),
		frame:    frame,

		unchecked: t.BoxUnchecked,
		checked:   t.BoxChecked,
	}
}
