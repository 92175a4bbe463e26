package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/grovetools/moonsync/tui/theme"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	maxWidth = 60
	minWidth = 40
)

// helpStyles is the palette used by the help renderer.
type helpStyles struct {
	title   lipgloss.Style
	short   lipgloss.Style
	section lipgloss.Style
	command lipgloss.Style
	flag    lipgloss.Style
	muted   lipgloss.Style
}

func newHelpStyles(t *theme.Theme) helpStyles {
	return helpStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Orange),
		short:   lipgloss.NewStyle().Italic(true),
		section: lipgloss.NewStyle().Italic(true).Foreground(t.Colors.Orange),
		command: lipgloss.NewStyle().Bold(true).Foreground(t.Colors.Cyan),
		flag:    lipgloss.NewStyle().Foreground(t.Colors.Violet),
		muted:   t.Muted,
	}
}

// getTerminalWidth returns the stdout width clamped to [minWidth, maxWidth].
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < minWidth {
		return maxWidth
	}
	if width > maxWidth {
		return maxWidth
	}
	return width
}

// wrapText wraps each paragraph of text at width, keeping existing breaks.
func wrapText(text string, width int) string {
	if width <= 0 {
		width = maxWidth
	}

	var result []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			result = append(result, paragraph)
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				result = append(result, line)
				line = word
			}
		}
		if line != "" {
			result = append(result, line)
		}
	}
	return strings.Join(result, "\n")
}

// SetStyledHelp installs the moonsync help renderer on cmd.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
}

// ApplyStyledHelpRecursive installs the help renderer on cmd and every
// subcommand. Usage output is suppressed; errors are reported by
// ErrorHandler instead.
func ApplyStyledHelpRecursive(cmd *cobra.Command) {
	cmd.SetHelpFunc(styledHelpFunc)
	cmd.SetUsageFunc(func(*cobra.Command) error { return nil })
	for _, sub := range cmd.Commands() {
		ApplyStyledHelpRecursive(sub)
	}
}

// parseDescription splits a long description at its "Examples:" heading.
func parseDescription(long string) (description, examples string) {
	for _, marker := range []string{"\nExamples:\n", "\nExample:\n"} {
		if idx := strings.Index(long, marker); idx != -1 {
			return strings.TrimSpace(long[:idx]), strings.TrimSpace(long[idx+len(marker):])
		}
	}
	return long, ""
}

func styledHelpFunc(cmd *cobra.Command, _ []string) {
	h := helpWriter{
		out:   cmd.OutOrStdout(),
		s:     newHelpStyles(theme.DefaultTheme),
		width: getTerminalWidth() - 2,
	}
	h.render(cmd)
}

type helpWriter struct {
	out   io.Writer
	s     helpStyles
	width int
}

func (h helpWriter) line(text string) {
	fmt.Fprintln(h.out, " "+text)
}

func (h helpWriter) heading(name string) {
	fmt.Fprintln(h.out)
	h.line(h.s.section.Render(name))
}

func (h helpWriter) render(cmd *cobra.Command) {
	h.line(h.s.title.Render(strings.ToUpper(cmd.CommandPath())))

	description, examples := cmd.Short, ""
	if cmd.Long != "" {
		description, examples = parseDescription(cmd.Long)
	}
	if cmd.Short != "" {
		for _, l := range strings.Split(wrapText(cmd.Short, h.width), "\n") {
			h.line(h.s.short.Render(l))
		}
	}
	if description != "" && description != cmd.Short {
		fmt.Fprintln(h.out)
		for _, l := range strings.Split(wrapText(description, h.width), "\n") {
			h.line(l)
		}
	}

	h.usage(cmd)
	h.commands(cmd)
	h.flags(cmd)

	if cmd.Example != "" {
		examples = cmd.Example
	}
	if examples != "" {
		h.heading("EXAMPLES")
		h.examples(examples, strings.Fields(cmd.CommandPath())[0])
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(h.out, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

func (h helpWriter) usage(cmd *cobra.Command) {
	if !cmd.Runnable() && !cmd.HasSubCommands() {
		return
	}
	h.heading("USAGE")
	if cmd.Runnable() {
		h.line(cmd.UseLine())
	}
	if cmd.HasAvailableSubCommands() {
		h.line(cmd.CommandPath() + " [command]")
	}
}

func (h helpWriter) commands(cmd *cobra.Command) {
	if !cmd.HasAvailableSubCommands() {
		return
	}
	width := 0
	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() && len(sub.Name()) > width {
			width = len(sub.Name())
		}
	}
	h.heading("COMMANDS")
	for _, sub := range cmd.Commands() {
		if !sub.IsAvailableCommand() {
			continue
		}
		pad := strings.Repeat(" ", width-len(sub.Name()))
		h.line(h.s.command.Render(sub.Name()) + pad + "  " + sub.Short)
	}
}

// flags lists the command's own flags in full, then the flags inherited
// from parents on one muted line.
func (h helpWriter) flags(cmd *cobra.Command) {
	local := visibleFlags(cmd.LocalFlags())
	if len(local) > 0 {
		h.heading("FLAGS")
		width := 0
		for _, f := range local {
			if n := len(formatFlagName(f)); n > width {
				width = n
			}
		}
		for _, f := range local {
			name := formatFlagName(f)
			usage := f.Usage
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
				usage += h.s.muted.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
			}
			h.line(h.s.flag.Render(name) + strings.Repeat(" ", width-len(name)) + "  " + usage)
		}
	}

	inherited := visibleFlags(cmd.InheritedFlags())
	if len(inherited) > 0 {
		names := make([]string, 0, len(inherited))
		for _, f := range inherited {
			names = append(names, "--"+f.Name)
		}
		fmt.Fprintln(h.out)
		h.line(h.s.muted.Render("Global flags: " + strings.Join(names, ", ")))
	}
}

// examples renders comment lines muted and highlights the binary name and
// flags of command lines.
func (h helpWriter) examples(text, binary string) {
	for _, raw := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(raw)
		switch {
		case trimmed == "":
			fmt.Fprintln(h.out)
		case strings.HasPrefix(trimmed, "#"):
			h.line(h.s.muted.Render(trimmed))
		default:
			h.line("  " + h.styleExample(trimmed, binary))
		}
	}
}

func (h helpWriter) styleExample(line, binary string) string {
	parts := strings.Fields(line)
	for i, part := range parts {
		switch {
		case i == 0 && part == binary:
			parts[i] = h.s.command.Render(part)
		case strings.HasPrefix(part, "-"):
			parts[i] = h.s.flag.Render(part)
		}
	}
	return strings.Join(parts, " ")
}

func visibleFlags(fs *pflag.FlagSet) []*pflag.Flag {
	var flags []*pflag.Flag
	fs.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, f)
		}
	})
	return flags
}

// formatFlagName returns "-f, --flag", or "    --flag" without a shorthand.
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return "    --" + f.Name
}
