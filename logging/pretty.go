package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/moonsync/tui/theme"
)

// PrettyLogger provides pretty formatted console output
type PrettyLogger struct {
	writer io.Writer
	styles PrettyStyles
}

// PrettyStyles contains lipgloss styles for different log types
type PrettyStyles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Value   lipgloss.Style
	Path    lipgloss.Style
	Code    lipgloss.Style
}

// DefaultPrettyStyles derives the pretty styles from the active theme.
func DefaultPrettyStyles() PrettyStyles {
	t := theme.DefaultTheme
	return PrettyStyles{
		Success: t.Success,
		Warning: t.Warning,
		Value:   t.Bold,
		Path:    t.Accent.Italic(true),
		Code:    t.Highlight,
	}
}

// NewPrettyLogger creates a pretty logger wrapper writing to stdout.
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{
		writer: os.Stdout,
		styles: DefaultPrettyStyles(),
	}
}

// WithWriter sets a custom writer for pretty output
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

// Success logs a success message with a checkmark
func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Success.Render(theme.IconSuccess),
		p.styles.Success.Render(message))
}

// Warning prints a message prefixed with the warning icon.
func (p *PrettyLogger) Warning(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Warning.Render(theme.IconWarning),
		p.styles.Warning.Render(message))
}

// FoundMoonlight reports the resolved Moonlight executable.
func (p *PrettyLogger) FoundMoonlight(executable string) {
	fmt.Fprintf(p.writer, "Found Moonlight at %s\n", p.styles.Path.Render(executable))
}

// CreatingStore reports that no shortcuts file existed yet.
func (p *PrettyLogger) CreatingStore(path string) {
	fmt.Fprintf(p.writer, "Creating shortcuts file at %s\n", p.styles.Path.Render(path))
}

// StoreLocation reports the shortcuts file being synchronized.
func (p *PrettyLogger) StoreLocation(path string) {
	fmt.Fprintf(p.writer, "Shortcuts file: %s\n", p.styles.Path.Render(path))
}

// Shortcut reports one shortcut added for a streamable app.
func (p *PrettyLogger) Shortcut(title, executable, launchOptions, icon string) {
	fmt.Fprintf(p.writer, "%s %s %s (icon: '%s')\n",
		p.styles.Value.Render(title),
		theme.IconArrow,
		p.styles.Code.Render(fmt.Sprintf("'%s %s'", executable, launchOptions)),
		icon)
}
