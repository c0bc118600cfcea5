package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors of the now-playing screen.
type Theme struct {
	Name string

	Background string
	Surface    string
	Border     string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Screen lipgloss.Style
	Frame  lipgloss.Style

	Title      lipgloss.Style
	Artist     lipgloss.Style
	Album      lipgloss.Style
	MutedText  lipgloss.Style
	FaintText  lipgloss.Style
	AccentText lipgloss.Style
	Playing    lipgloss.Style
	Paused     lipgloss.Style
	Danger     lipgloss.Style
	Key        lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Screen: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Background)).
			Foreground(lipgloss.Color(t.Text)),

		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Bold(true),

		Artist: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		Album: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)).
			Italic(true),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		FaintText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Faint)),

		AccentText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)),

		Playing: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),

		Paused: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)).
			Bold(true),

		Danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),
	}
}

var themes = map[string]Theme{
	"Midnight": midnightTheme(),
	"Daylight": daylightTheme(),
	"Mono":     monoTheme(),
}

var themeOrder = []string{"Midnight", "Daylight", "Mono"}

// GetTheme returns a theme by name, or the first theme for unknown names.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return midnightTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func midnightTheme() Theme {
	// Nightfox palette: https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:       "Midnight",
		Background: "#131a24", // bg0
		Surface:    "#192330", // bg1
		Border:     "#39506d", // bg4
		Text:       "#cdcecf", // fg1
		Muted:      "#aeafb0", // fg2
		Faint:      "#71839b", // fg3
		Accent:     "#719cd6", // blue
		Success:    "#81b29a", // green
		Warning:    "#dbc074", // yellow
		Danger:     "#c94f6d", // red
	}
}

func daylightTheme() Theme {
	// Tailwind CSS Slate palette on white: https://tailwindcss.com/docs/colors
	return Theme{
		Name:       "Daylight",
		Background: "#f8fafc", // slate-50
		Surface:    "#f1f5f9", // slate-100
		Border:     "#cbd5e1", // slate-300
		Text:       "#0f172a", // slate-900
		Muted:      "#334155", // slate-700
		Faint:      "#64748b", // slate-500
		Accent:     "#0284c7", // sky-600
		Success:    "#16a34a", // green-600
		Warning:    "#d97706", // amber-600
		Danger:     "#dc2626", // red-600
	}
}

func monoTheme() Theme {
	return Theme{
		Name:       "Mono",
		Background: "#000000",
		Surface:    "#111111",
		Border:     "#444444",
		Text:       "#ffffff",
		Muted:      "#bbbbbb",
		Faint:      "#777777",
		Accent:     "#ffffff",
		Success:    "#ffffff",
		Warning:    "#bbbbbb",
		Danger:     "#ffffff",
	}
}
