// Package styles holds the colours and lipgloss styles of the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette names the colours by their role in a conversation.
type Palette struct {
	// Accent marks view titles.
	Accent lipgloss.Color

	// Asker colours the "You:" prompt and the user's questions.
	Asker lipgloss.Color

	// Reply colours answer text.
	Reply lipgloss.Color

	// Faint is for timestamps, hints and empty states.
	Faint lipgloss.Color

	// Highlight is the background of the selected session.
	Highlight lipgloss.Color

	// Surface is the status bar background.
	Surface lipgloss.Color

	// Frame outlines the question input.
	Frame lipgloss.Color

	// Alert colours failures.
	Alert lipgloss.Color
}

// DarkPalette suits terminals with a dark background.
func DarkPalette() *Palette {
	return &Palette{
		Accent:    lipgloss.Color("#5EEAD4"),
		Asker:     lipgloss.Color("#93C5FD"),
		Reply:     lipgloss.Color("#E5E7EB"),
		Faint:     lipgloss.Color("#6B7280"),
		Highlight: lipgloss.Color("#1E3A8A"),
		Surface:   lipgloss.Color("#111827"),
		Frame:     lipgloss.Color("#374151"),
		Alert:     lipgloss.Color("#FCA5A5"),
	}
}

// LightPalette suits terminals with a light background.
func LightPalette() *Palette {
	return &Palette{
		Accent:    lipgloss.Color("#0F766E"),
		Asker:     lipgloss.Color("#1D4ED8"),
		Reply:     lipgloss.Color("#111827"),
		Faint:     lipgloss.Color("#6B7280"),
		Highlight: lipgloss.Color("#BFDBFE"),
		Surface:   lipgloss.Color("#E5E7EB"),
		Frame:     lipgloss.Color("#9CA3AF"),
		Alert:     lipgloss.Color("#B91C1C"),
	}
}

// Styles are the rendered elements of the chat and sessions views.
type Styles struct {
	Title     lipgloss.Style
	Question  lipgloss.Style
	Answer    lipgloss.Style
	Timestamp lipgloss.Style

	// Normal is unselected list text; Selected is the cursor row.
	Normal   lipgloss.Style
	Selected lipgloss.Style

	Muted lipgloss.Style
	Error lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
}

// NewStyles builds styles from p. A nil palette means DarkPalette.
func NewStyles(p *Palette) *Styles {
	if p == nil {
		p = DarkPalette()
	}

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Accent),

		Question: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Asker),

		// Answers sit under the question they reply to.
		Answer: lipgloss.NewStyle().
			Foreground(p.Reply).
			PaddingLeft(2),

		Timestamp: lipgloss.NewStyle().
			Italic(true).
			Foreground(p.Faint),

		Normal: lipgloss.NewStyle().
			Foreground(p.Reply),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.Reply).
			Background(p.Highlight),

		Muted: lipgloss.NewStyle().
			Foreground(p.Faint),

		Error: lipgloss.NewStyle().
			Foreground(p.Alert),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Frame).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(p.Faint).
			Background(p.Surface).
			Padding(0, 1),
	}
}

// DefaultStyles picks the palette matching the terminal background.
func DefaultStyles() *Styles {
	if lipgloss.HasDarkBackground() {
		return NewStyles(DarkPalette())
	}
	return NewStyles(LightPalette())
}
