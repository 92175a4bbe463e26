package theme

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultThemeName = "kanagawa"

// ThemeEnv selects the palette.
const ThemeEnv = "MOONSYNC_THEME"

// --- Kanagawa Dragon (dark) palette ---
const (
	kanagawaDarkGreen              = "#98BB6C"
	kanagawaDarkYellow             = "#FF9E3B"
	kanagawaDarkRed                = "#FF5D62"
	kanagawaDarkOrange             = "#FFA066"
	kanagawaDarkCyan               = "#7E9CD8"
	kanagawaDarkViolet             = "#957FB8"
	kanagawaDarkLightText          = "#DCD7BA"
	kanagawaDarkMutedText          = "#727169"
	kanagawaDarkBorder             = "#363646"
	kanagawaDarkSelectedBackground = "#223249"
)

// --- Kanagawa Wave (light-inspired) palette ---
const (
	kanagawaLightGreen              = "#4E7C5A"
	kanagawaLightYellow             = "#A68A64"
	kanagawaLightRed                = "#C34043"
	kanagawaLightOrange             = "#CC6B4E"
	kanagawaLightCyan               = "#5B8BBE"
	kanagawaLightViolet             = "#674D7A"
	kanagawaLightLightText          = "#2B2F42"
	kanagawaLightMutedText          = "#6C7086"
	kanagawaLightBorder             = "#B5BDC5"
	kanagawaLightSelectedBackground = "#E2E6F3"
)

// Colors encapsulates the palette used by a theme.
type Colors struct {
	Green              lipgloss.TerminalColor
	Yellow             lipgloss.TerminalColor
	Red                lipgloss.TerminalColor
	Orange             lipgloss.TerminalColor
	Cyan               lipgloss.TerminalColor
	Violet             lipgloss.TerminalColor
	LightText          lipgloss.TerminalColor
	MutedText          lipgloss.TerminalColor
	Border             lipgloss.TerminalColor
	SelectedBackground lipgloss.TerminalColor
}

// Theme holds the styles shared by moonsync's terminal output.
type Theme struct {
	Colors Colors

	Header lipgloss.Style
	Title  lipgloss.Style

	// Status indicators
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Bold     lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style

	TableHeader lipgloss.Style
	TableBorder lipgloss.Style

	Cursor    lipgloss.Style
	Highlight lipgloss.Style
	Accent    lipgloss.Style
}

var themeRegistry = map[string]func() Colors{
	"kanagawa": newKanagawaColors,
	"terminal": newTerminalColors,
}

// DefaultTheme is the active theme.
var DefaultTheme = NewThemeWithName(getThemeName())

// NewThemeWithName constructs a theme from a palette name. Unknown names
// fall back to the default palette.
func NewThemeWithName(name string) *Theme {
	key := normalizeThemeName(name)
	builder, ok := themeRegistry[key]
	if !ok {
		builder = themeRegistry[defaultThemeName]
	}
	return newThemeFromColors(builder())
}

// SetTheme replaces DefaultTheme. An empty name keeps the current theme.
func SetTheme(name string) {
	if normalizeThemeName(name) == "" {
		return
	}
	DefaultTheme = NewThemeWithName(name)
}

func newThemeFromColors(colors Colors) *Theme {
	return &Theme{
		Colors: colors,

		Header: lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Underline(true),

		Success: lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(colors.Yellow).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(colors.Cyan).
			Bold(true),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Normal: lipgloss.NewStyle(),

		Muted: lipgloss.NewStyle().
			Faint(true),

		Selected: lipgloss.NewStyle().
			Background(colors.SelectedBackground).
			Foreground(colors.LightText),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1),

		TableBorder: lipgloss.NewStyle().
			Foreground(colors.Border),

		Cursor: lipgloss.NewStyle().
			Foreground(colors.Orange).
			Bold(true),

		Highlight: lipgloss.NewStyle().
			Foreground(colors.Orange).
			Bold(true),

		Accent: lipgloss.NewStyle().
			Foreground(colors.Violet).
			Bold(true),
	}
}

func normalizeThemeName(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if strings.HasPrefix(normalized, "kanagawa-") {
		return "kanagawa"
	}
	return normalized
}

func getThemeName() string {
	if theme := normalizeThemeName(os.Getenv(ThemeEnv)); theme != "" {
		return theme
	}
	return defaultThemeName
}

func newKanagawaColors() Colors {
	return Colors{
		Green:              lipgloss.AdaptiveColor{Light: kanagawaLightGreen, Dark: kanagawaDarkGreen},
		Yellow:             lipgloss.AdaptiveColor{Light: kanagawaLightYellow, Dark: kanagawaDarkYellow},
		Red:                lipgloss.AdaptiveColor{Light: kanagawaLightRed, Dark: kanagawaDarkRed},
		Orange:             lipgloss.AdaptiveColor{Light: kanagawaLightOrange, Dark: kanagawaDarkOrange},
		Cyan:               lipgloss.AdaptiveColor{Light: kanagawaLightCyan, Dark: kanagawaDarkCyan},
		Violet:             lipgloss.AdaptiveColor{Light: kanagawaLightViolet, Dark: kanagawaDarkViolet},
		LightText:          lipgloss.AdaptiveColor{Light: kanagawaLightLightText, Dark: kanagawaDarkLightText},
		MutedText:          lipgloss.AdaptiveColor{Light: kanagawaLightMutedText, Dark: kanagawaDarkMutedText},
		Border:             lipgloss.AdaptiveColor{Light: kanagawaLightBorder, Dark: kanagawaDarkBorder},
		SelectedBackground: lipgloss.AdaptiveColor{Light: kanagawaLightSelectedBackground, Dark: kanagawaDarkSelectedBackground},
	}
}

// newTerminalColors uses the 16 ANSI colours so the user's terminal scheme applies.
func newTerminalColors() Colors {
	return Colors{
		Green:              lipgloss.Color("2"),
		Yellow:             lipgloss.Color("3"),
		Red:                lipgloss.Color("1"),
		Orange:             lipgloss.Color("208"),
		Cyan:               lipgloss.Color("6"),
		Violet:             lipgloss.Color("5"),
		LightText:          lipgloss.Color("7"),
		MutedText:          lipgloss.Color("8"),
		Border:             lipgloss.Color("8"),
		SelectedBackground: lipgloss.Color("8"),
	}
}
