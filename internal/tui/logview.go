package tui

import (
	"bufio"
	"os"
	"strings"

	"recoveryctl/internal/tui/styles"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	logTailLines = 200
	logWidth     = 100
	logHeight    = 20
)

// TailFile returns the last n lines of the file at path, or a one-line
// note when it can't be read
func TailFile(path string, n int) string {
	f, err := os.Open(path)
	if err != nil {
		return "can't open " + path + ": " + err.Error()
	}
	defer f.Close()

	lines := make([]string, 0, n)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(lines) == n {
			lines = lines[1:]
		}
		lines = append(lines, sc.Text())
	}
	return strings.Join(lines, "\n")
}

// logModel shows text in a scrollable viewport until a non-scroll key
type logModel struct {
	viewport viewport.Model
	styles   styles.Styles
}

func newLogModel(content string, st styles.Styles) logModel {
	vp := viewport.New(logWidth, logHeight)
	vp.SetContent(content)
	vp.GotoBottom()
	return logModel{viewport: vp, styles: st}
}

func (m logModel) Init() tea.Cmd {
	return nil
}

func (m logModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		return m, nil
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width - 4
		if h := msg.Height - 4; h > 0 && h < logHeight {
			m.viewport.Height = h
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "down", "k", "j", "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m logModel) View() string {
	return m.styles.Log.Render(m.viewport.View()) + "\n" +
		m.styles.Help.Render("↑/↓ scroll • any other key to continue")
}
