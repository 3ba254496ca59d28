// Package menu defines the boundary between the console and whatever draws
// menus, plus the helpers that let filtered and dynamically assembled menus
// report choices in their callers' index space.
package menu

// Negative sentinels returned by a Presenter instead of an item index
const (
	// GoBack means the operator left the menu without choosing
	GoBack = -1
	// Refresh means the menu should be rebuilt and shown again
	Refresh = -2
)

// Prompt is one menu presentation
type Prompt struct {
	Headers []string
	Items   []string
	// MenuOnly suppresses the log pane while the menu is up
	MenuOnly bool
	// Initial is the item the cursor starts on
	Initial int
}

// Presenter shows a prompt and blocks until the operator resolves it. It
// returns the chosen item index, GoBack or Refresh.
type Presenter interface {
	Present(p Prompt) int
}

// Display is the full screen surface used by the console menus
type Display interface {
	Presenter
	// Print writes a one-line message to the operator
	Print(format string, args ...interface{})
	ShowingBackButton() bool
	SetShowingBackButton(show bool)
	// WaitKey blocks until the operator presses any key
	WaitKey()
}

// IsSentinel reports whether choice is GoBack or Refresh
func IsSentinel(choice int) bool {
	return choice < 0
}

// Item is one slot of a dense menu. Absent slots are not shown.
type Item struct {
	Label  string
	Absent bool
}

// Shown returns a present slot
func Shown(label string) Item {
	return Item{Label: label}
}

// Hidden returns an absent slot
func Hidden() Item {
	return Item{Absent: true}
}

// SelectFiltered presents only the present slots of items and maps the
// operator's choice back to its position in items. initial is a dense index
// and must name a present slot; if it doesn't, the cursor starts on the next
// present slot. Negative sentinels and out-of-range choices are returned
// unchanged.
func SelectFiltered(p Presenter, headers []string, items []Item, menuOnly bool, initial int) int {
	labels := make([]string, 0, len(items))
	dense := make([]int, 0, len(items))
	compactInitial := 0
	for i, it := range items {
		if it.Absent {
			continue
		}
		if i < initial {
			compactInitial = len(labels) + 1
		}
		labels = append(labels, it.Label)
		dense = append(dense, i)
	}
	if compactInitial >= len(labels) {
		compactInitial = 0
	}

	chosen := p.Present(Prompt{
		Headers:  headers,
		Items:    labels,
		MenuOnly: menuOnly,
		Initial:  compactInitial,
	})
	if chosen < 0 || chosen >= len(dense) {
		return chosen
	}
	return dense[chosen]
}
