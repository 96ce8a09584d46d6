package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles styles, checkbox symbols and the panel border.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Selected, Done, Help                          lipgloss.Style

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
	Border                   lipgloss.Border
	BorderColor              lipgloss.TerminalColor
}

// ThemeNames lists the accepted theme names.
var ThemeNames = []string{"classic", "neon", "mono"}

var current = ThemeByName("classic")

// SetTheme switches the theme used by the package helpers. Unknown names
// fall back to classic.
func SetTheme(name string) { current = ThemeByName(name) }

// Current returns the active theme.
func Current() Theme { return current }

func ThemeByName(name string) Theme {
	base := lipgloss.NewStyle()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "neon":
		return Theme{
			Name:         "neon",
			Title:        base.Bold(true).Foreground(lipgloss.Color("13")),
			Muted:        base.Foreground(lipgloss.Color("8")),
			Accent:       base.Foreground(lipgloss.Color("14")),
			Success:      base.Foreground(lipgloss.Color("10")),
			Error:        base.Foreground(lipgloss.Color("9")).Bold(true),
			Pending:      base.Foreground(lipgloss.Color("11")),
			Selected:     base.Bold(true).Foreground(lipgloss.Color("13")),
			Done:         base.Faint(true).Strikethrough(true),
			Help:         base.Faint(true),
			BoxUnchecked: "◻", BoxChecked: "◼",
			SymDone: "✔", SymPending: "•",
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("13"),
		}
	case "mono":
		return Theme{
			Name:         "mono",
			Title:        base.Bold(true),
			Muted:        base,
			Accent:       base,
			Success:      base,
			Error:        base,
			Pending:      base,
			Selected:     base.Reverse(true),
			Done:         base,
			Help:         base,
			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymDone: "x", SymPending: "-",
			Border:      lipgloss.ASCIIBorder(),
			BorderColor: lipgloss.NoColor{},
		}
	default:
		return Theme{
			Name:         "classic",
			Title:        base.Bold(true),
			Muted:        base.Faint(true),
			Accent:       base.Foreground(lipgloss.Color("12")),
			Success:      base.Foreground(lipgloss.Color("42")),
			Error:        base.Foreground(lipgloss.Color("9")).Bold(true),
			Pending:      base.Foreground(lipgloss.Color("214")),
			Selected:     base.Bold(true).Reverse(true),
			Done:         base.Faint(true).Strikethrough(true),
			Help:         base.Faint(true),
			BoxUnchecked: "☐", BoxChecked: "☑",
			SymDone: "✔", SymPending: "•",
			Border:      lipgloss.RoundedBorder(),
			BorderColor: lipgloss.Color("8"),
		}
	}
}
