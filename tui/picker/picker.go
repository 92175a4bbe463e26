// Package picker provides the interactive Steam account chooser.
package picker

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/grovetools/moonsync/steam"
	"github.com/grovetools/moonsync/tui/theme"
)

// Prompt is shown above the account list.
const Prompt = "Pick your userdir (or run using --steam-userdata):"

// ErrCancelled is returned when the user quits without choosing.
var ErrCancelled = fmt.Errorf("selection cancelled")

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "cancel"),
	),
}

// Model is the bubbletea model behind the chooser.
type Model struct {
	users     []steam.User
	cursor    int
	chosen    bool
	cancelled bool
	help      help.Model
	theme     *theme.Theme
}

// New creates a model with the first account highlighted.
func New(users []steam.User) Model {
	return Model{
		users: users,
		help:  help.New(),
		theme: theme.DefaultTheme,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			m.cancelled = true
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.users)-1 {
				m.cursor++
			}
		case key.Matches(msg, keys.Select):
			if len(m.users) > 0 {
				m.chosen = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.chosen || m.cancelled {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Bold.Render(Prompt))
	b.WriteString("\n\n")
	for i, u := range m.users {
		if i == m.cursor {
			b.WriteString(m.theme.Cursor.Render(theme.IconSelect + " "))
			b.WriteString(m.theme.Selected.Render(u.String()))
		} else {
			b.WriteString("  ")
			b.WriteString(u.Dir)
			b.WriteString(m.theme.Muted.Render(" (" + u.PersonaName + ")"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the chosen account, if any.
func (m Model) Selected() (steam.User, bool) {
	if !m.chosen || len(m.users) == 0 {
		return steam.User{}, false
	}
	return m.users[m.cursor], true
}

// Picker runs the model on a terminal. It implements steam.Chooser.
type Picker struct {
	Input  io.Reader
	Output io.Writer
}

// Choose shows the accounts and blocks until one is selected.
func (p *Picker) Choose(users []steam.User) (steam.User, error) {
	var opts []tea.ProgramOption
	if p.Input != nil {
		opts = append(opts, tea.WithInput(p.Input))
	}
	if p.Output != nil {
		opts = append(opts, tea.WithOutput(p.Output))
	}

	final, err := tea.NewProgram(New(users), opts...).Run()
	if err != nil {
		return steam.User{}, fmt.Errorf("failed to run user picker: %w", err)
	}

	user, ok := final.(Model).Selected()
	if !ok {
		return steam.User{}, ErrCancelled
	}
	return user, nil
}
