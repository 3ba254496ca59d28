package menu

import "fmt"

// Entry is a labeled menu slot carrying the value dispatched on selection
type Entry[T any] struct {
	Label  string
	Value  T
	Hidden bool
}

// Builder assembles a menu whose entries are dispatched by value rather
// than by position, so a variable number of per-volume entries can sit
// between fixed ones.
type Builder[T any] struct {
	entries []Entry[T]
}

// NewBuilder returns an empty builder
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// Add appends a visible entry
func (b *Builder[T]) Add(label string, value T) *Builder[T] {
	b.entries = append(b.entries, Entry[T]{Label: label, Value: value})
	return b
}

// Addf appends a visible entry with a formatted label
func (b *Builder[T]) Addf(value T, format string, args ...interface{}) *Builder[T] {
	return b.Add(fmt.Sprintf(format, args...), value)
}

// AddHidden appends an entry that keeps its slot but is left out of the
// presented menu when hidden is true
func (b *Builder[T]) AddHidden(label string, value T, hidden bool) *Builder[T] {
	b.entries = append(b.entries, Entry[T]{Label: label, Value: value, Hidden: hidden})
	return b
}

// Len returns the number of slots, hidden ones included
func (b *Builder[T]) Len() int {
	return len(b.entries)
}

// Entries returns a copy of the slots
func (b *Builder[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(b.entries))
	copy(out, b.entries)
	return out
}

// Items returns the dense slot list
func (b *Builder[T]) Items() []Item {
	items := make([]Item, len(b.entries))
	for i, e := range b.entries {
		items[i] = Item{Label: e.Label, Absent: e.Hidden}
	}
	return items
}

// Select presents the visible entries. It returns the chosen entry, its
// slot index and true; or the zero entry, the raw sentinel and false when
// the operator backed out or a refresh was requested.
func (b *Builder[T]) Select(p Presenter, headers []string, initial int) (Entry[T], int, bool) {
	chosen := SelectFiltered(p, headers, b.Items(), false, initial)
	if chosen < 0 || chosen >= len(b.entries) {
		var zero Entry[T]
		return zero, chosen, false
	}
	return b.entries[chosen], chosen, true
}
