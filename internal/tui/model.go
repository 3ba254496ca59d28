package tui

import (
	"strings"

	"recoveryctl/internal/menu"
	"recoveryctl/internal/tui/styles"
	"recoveryctl/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// GoBackLabel is the extra item shown when the back button is enabled
const GoBackLabel = "+++++ Go Back +++++"

// refreshMsg asks the open menu to close with menu.Refresh
type refreshMsg struct{}

// Model is one menu presentation
type Model struct {
	headers  []string
	items    []string
	back     bool
	menuOnly bool
	messages []string

	cursor int
	chosen int
	height int

	keys     types.KeyMap
	help     help.Model
	showHelp bool
	styles   styles.Styles
}

// NewModel builds a model for prompt p. When back is set a go-back item is
// appended after the prompt's items.
func NewModel(p menu.Prompt, back bool, messages []string, st styles.Styles) Model {
	m := Model{
		headers:  p.Headers,
		items:    p.Items,
		back:     back,
		menuOnly: p.MenuOnly,
		messages: messages,
		chosen:   menu.GoBack,
		keys:     types.DefaultKeyMap(),
		help:     help.New(),
		styles:   st,
	}
	m.SetCursor(p.Initial)
	return m
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) rows() int {
	if m.back {
		return len(m.items) + 1
	}
	return len(m.items)
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.chosen = menu.Refresh
		return m, tea.Quit
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	// Back keys work even with the back item hidden, like a hardware back button
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Back):
		m.chosen = menu.GoBack
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		} else if n := m.rows(); n > 0 {
			m.cursor = n - 1
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.rows()-1 {
			m.cursor++
		} else {
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		if n := m.rows(); n > 0 {
			m.cursor = n - 1
		}
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Select):
		if m.rows() == 0 {
			return m, nil
		}
		if m.cursor >= len(m.items) {
			m.chosen = menu.GoBack
		} else {
			m.chosen = m.cursor
		}
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model
func (m Model) View() string {
	var sb strings.Builder

	for i, h := range m.headers {
		if i == 0 {
			sb.WriteString(m.styles.Title.Render(h))
		} else {
			sb.WriteString(m.styles.Header.Render(h))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	for i := 0; i < m.rows(); i++ {
		label := GoBackLabel
		style := m.styles.GoBack
		if i < len(m.items) {
			label = m.items[i]
			style = m.styles.Unselected
		}
		if i == m.cursor {
			sb.WriteString(m.styles.Selected.Render("> " + label))
		} else {
			sb.WriteString(style.Render("  " + label))
		}
		sb.WriteString("\n")
	}

	if !m.menuOnly && len(m.messages) > 0 {
		sb.WriteString("\n")
		for _, line := range m.messages {
			sb.WriteString(m.styles.Message.Render(line))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))

	return m.styles.App.Render(sb.String())
}

// Chosen returns the result of the presentation
func (m Model) Chosen() int {
	return m.chosen
}

// Cursor returns the highlighted row
func (m Model) Cursor() int {
	return m.cursor
}

// SetCursor moves the highlight to pos when it is in range
func (m *Model) SetCursor(pos int) {
	if pos >= 0 && pos < m.rows() {
		m.cursor = pos
	}
}

// ShowHelp reports whether the full help is shown
func (m Model) ShowHelp() bool {
	return m.showHelp
}
