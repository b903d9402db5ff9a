// Package theme holds the Lip Gloss styles of the terminal screen. Themes
// are cycled in a fixed order and persisted by name.
package theme

import (
	"slices"

	"github.com/charmbracelet/lipgloss/v2"
)

const (
	Gold    = "gold"
	Emerald = "emerald"
	Mono    = "mono"
)

// Names lists the themes in cycle order. The first is the default.
var Names = []string{Gold, Emerald, Mono}

// Theme centralizes the styles used by the screen printer.
type Theme struct {
	Name    string
	Title   lipgloss.Style
	Tab     lipgloss.Style
	TabOn   lipgloss.Style
	Heading lipgloss.Style
	Item    lipgloss.Style
	Meta    lipgloss.Style
	Badge   lipgloss.Style
	Today   lipgloss.Style
	Error   lipgloss.Style
	Toast   lipgloss.Style
	Status  lipgloss.Style
	Box     lipgloss.Style
}

// Next returns the theme after name in cycle order. Unknown names restart
// the cycle.
func Next(name string) string {
	i := slices.Index(Names, name)
	return Names[(i+1)%len(Names)]
}

// Valid reports whether name is a known theme.
func Valid(name string) bool {
	return slices.Contains(Names, name)
}

// ByName returns the styles for name, falling back to Gold.
func ByName(name string) Theme {
	switch name {
	case Emerald:
		return build(Emerald, "#3FB68B", "#A7E8CF", "#1F6F55")
	case Mono:
		return mono()
	}
	return build(Gold, "#D4A84B", "#F2DDA4", "#7A5C1E")
}

func build(name, accent, soft, dim string) Theme {
	muted := lipgloss.Color("245")
	return Theme{
		Name:    name,
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color(accent)).Bold(true),
		Tab:     lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		TabOn:   lipgloss.NewStyle().Foreground(lipgloss.Color(accent)).Bold(true).Underline(true).Padding(0, 1),
		Heading: lipgloss.NewStyle().Foreground(lipgloss.Color(soft)).Bold(true),
		Item:    lipgloss.NewStyle(),
		Meta:    lipgloss.NewStyle().Foreground(muted),
		Badge:   lipgloss.NewStyle().Foreground(lipgloss.Color(dim)).Background(lipgloss.Color(soft)).Padding(0, 1),
		Today:   lipgloss.NewStyle().Foreground(lipgloss.Color(soft)).Background(lipgloss.Color(accent)).Bold(true).Padding(0, 1),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")),
		Toast:   lipgloss.NewStyle().Foreground(lipgloss.Color(accent)).Italic(true),
		Status:  lipgloss.NewStyle().Foreground(muted),
		Box:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(accent)).Padding(0, 1),
	}
}

func mono() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Name:    Mono,
		Title:   plain.Bold(true),
		Tab:     plain.Padding(0, 1),
		TabOn:   plain.Bold(true).Underline(true).Padding(0, 1),
		Heading: plain.Bold(true),
		Item:    plain,
		Meta:    plain.Faint(true),
		Badge:   plain.Reverse(true).Padding(0, 1),
		Today:   plain.Reverse(true).Bold(true).Padding(0, 1),
		Error:   plain.Bold(true),
		Toast:   plain.Italic(true),
		Status:  plain.Faint(true),
		Box:     plain.Border(lipgloss.NormalBorder()).Padding(0, 1),
	}
}
