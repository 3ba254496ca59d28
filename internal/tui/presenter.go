// Package tui draws console menus in the terminal with bubbletea.
package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"recoveryctl/internal/log"
	"recoveryctl/internal/menu"
	"recoveryctl/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
)

const maxMessages = 12

// Presenter runs one bubbletea program per menu and implements menu.Display
type Presenter struct {
	styles  styles.Styles
	out     io.Writer
	opts    []tea.ProgramOption
	logFile string

	mu       sync.Mutex
	back     bool
	messages []string
	current  *tea.Program
}

// Option configures a Presenter
type Option func(*Presenter)

// WithInput reads keys from r
func WithInput(r io.Reader) Option {
	return func(p *Presenter) { p.opts = append(p.opts, tea.WithInput(r)) }
}

// WithOutput draws to w
func WithOutput(w io.Writer) Option {
	return func(p *Presenter) {
		p.out = w
		p.opts = append(p.opts, tea.WithOutput(w))
	}
}

// WithLogFile sets the file shown by WaitKey
func WithLogFile(path string) Option {
	return func(p *Presenter) { p.logFile = path }
}

// WithStyles sets the palette
func WithStyles(st styles.Styles) Option {
	return func(p *Presenter) { p.styles = st }
}

// New creates a presenter with the back button shown
func New(opts ...Option) *Presenter {
	p := &Presenter{styles: styles.Default(), out: os.Stdout, back: true}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Presenter) snapshot() (bool, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := make([]string, len(p.messages))
	copy(msgs, p.messages)
	return p.back, msgs
}

func (p *Presenter) run(m tea.Model) (tea.Model, error) {
	prog := tea.NewProgram(m, p.opts...)

	p.mu.Lock()
	p.current = prog
	p.mu.Unlock()

	final, err := prog.Run()

	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
	return final, err
}

// Present shows prompt and blocks until the operator resolves it
func (p *Presenter) Present(prompt menu.Prompt) int {
	back, msgs := p.snapshot()
	final, err := p.run(NewModel(prompt, back, msgs, p.styles))
	if err != nil {
		log.LogWithFields(log.F("error", err.Error())).Error("menu failed")
		return menu.GoBack
	}
	m, ok := final.(Model)
	if !ok {
		return menu.GoBack
	}
	return m.Chosen()
}

// Refresh closes the open menu with menu.Refresh. It is safe to call from
// any goroutine; without an open menu it does nothing.
func (p *Presenter) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		go p.current.Send(refreshMsg{})
	}
}

// Print writes a message line and keeps it for the next menus
func (p *Presenter) Print(format string, args ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	log.LogWithFields(log.F("ui", true)).Info(msg)

	p.mu.Lock()
	p.messages = append(p.messages, msg)
	if len(p.messages) > maxMessages {
		p.messages = p.messages[len(p.messages)-maxMessages:]
	}
	p.mu.Unlock()

	fmt.Fprintln(p.out, p.styles.Message.Render(msg))
}

// Messages returns the retained message lines
func (p *Presenter) Messages() []string {
	_, msgs := p.snapshot()
	return msgs
}

func (p *Presenter) ShowingBackButton() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.back
}

func (p *Presenter) SetShowingBackButton(show bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.back = show
}

// WaitKey shows the tail of the log and blocks until a key is pressed
func (p *Presenter) WaitKey() {
	_, msgs := p.snapshot()
	content := strings.Join(msgs, "\n")
	if p.logFile != "" {
		content = TailFile(p.logFile, logTailLines)
	}
	if _, err := p.run(newLogModel(content, p.styles)); err != nil {
		log.LogWithFields(log.F("error", err.Error())).Error("log view failed")
	}
}

var _ menu.Display = (*Presenter)(nil)
