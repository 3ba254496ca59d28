package styles

import (
	"recoveryctl/internal/config"

	"github.com/charmbracelet/lipgloss"
)

// Styles defines the core UI styles
type Styles struct {
	App        lipgloss.Style
	Title      lipgloss.Style
	Header     lipgloss.Style
	Selected   lipgloss.Style
	Unselected lipgloss.Style
	GoBack     lipgloss.Style
	Message    lipgloss.Style
	Error      lipgloss.Style
	Help       lipgloss.Style
	Log        lipgloss.Style
}

// New builds the styles for a named palette
func New(theme string) Styles {
	c := config.GetTheme(theme)
	color := func(name string) lipgloss.Color { return lipgloss.Color(c[name]) }

	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(color("primary")),
		Header: lipgloss.NewStyle().
			Foreground(color("info")),
		Selected: lipgloss.NewStyle().
			Foreground(color("success")).
			Bold(true),
		Unselected: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA")),
		GoBack: lipgloss.NewStyle().
			Foreground(color("emphasis")).
			Italic(true),
		Message: lipgloss.NewStyle().
			Foreground(color("warning")),
		Error: lipgloss.NewStyle().
			Foreground(color("error")),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5A9")),
		Log: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(color("border")).
			Padding(0, 1),
	}
}

// Default returns the default palette
func Default() Styles {
	return New("default")
}
