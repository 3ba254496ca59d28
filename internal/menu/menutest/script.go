// Package menutest provides a scripted menu.Display for tests.
package menutest

import (
	"fmt"
	"sync"

	"recoveryctl/internal/menu"
)

type step struct {
	index   int
	label   string
	byLabel bool
}

// Script replays queued choices and records what it was shown. Once the
// queue runs dry every prompt answers menu.GoBack.
type Script struct {
	mu    sync.Mutex
	steps []step
	back  bool

	// Prompts holds every prompt presented, in order
	Prompts []menu.Prompt
	// BackShown records the back button state at each prompt
	BackShown []bool
	// Printed holds every message passed to Print
	Printed []string
	// Waits counts WaitKey calls
	Waits int
}

// New returns a script that answers with the given indexes in order
func New(choices ...int) *Script {
	s := &Script{back: true}
	for _, c := range choices {
		s.Choose(c)
	}
	return s
}

// Choose queues an index answer
func (s *Script) Choose(index int) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step{index: index})
	return s
}

// ChooseLabel queues the item whose label equals label. If no item matches
// when the prompt arrives, the answer is menu.GoBack.
func (s *Script) ChooseLabel(label string) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step{label: label, byLabel: true})
	return s
}

// Back queues a menu.GoBack answer
func (s *Script) Back() *Script {
	return s.Choose(menu.GoBack)
}

func (s *Script) Present(p menu.Prompt) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Prompts = append(s.Prompts, p)
	s.BackShown = append(s.BackShown, s.back)

	if len(s.steps) == 0 {
		return menu.GoBack
	}
	next := s.steps[0]
	s.steps = s.steps[1:]

	if !next.byLabel {
		return next.index
	}
	for i, item := range p.Items {
		if item == next.label {
			return i
		}
	}
	return menu.GoBack
}

func (s *Script) Print(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Printed = append(s.Printed, fmt.Sprintf(format, args...))
}

func (s *Script) ShowingBackButton() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.back
}

func (s *Script) SetShowingBackButton(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.back = show
}

func (s *Script) WaitKey() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Waits++
}

// Remaining returns the number of unconsumed answers
func (s *Script) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}

// Last returns the most recent prompt, or the zero prompt
func (s *Script) Last() menu.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Prompts) == 0 {
		return menu.Prompt{}
	}
	return s.Prompts[len(s.Prompts)-1]
}

var _ menu.Display = (*Script)(nil)
