// Package sections decides which page section the navigation should
// highlight for a given scroll position.
package sections

import (
	"sort"
	"sync"
)

// DefaultMargin shifts the activation point above the top of the
// viewport so a heading counts as active slightly before it reaches the
// very top.
const DefaultMargin = 120

// Section is a navigable page region anchored at a vertical offset.
type Section struct {
	ID     string
	Offset int
}

// Tracker maps scroll offsets to section ids. Sections are kept sorted
// by offset regardless of registration order.
type Tracker struct {
	margin int

	mu       sync.Mutex
	sections []Section
}

func NewTracker(margin int) *Tracker {
	if margin < 0 {
		margin = DefaultMargin
	}
	return &Tracker{margin: margin}
}

// Register adds or moves a section. Re-registering an id updates its
// offset, which happens when a layout change moves the anchors.
func (t *Tracker) Register(id string, offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.sections {
		if t.sections[i].ID == id {
			t.sections[i].Offset = offset
			t.sortLocked()
			return
		}
	}
	t.sections = append(t.sections, Section{ID: id, Offset: offset})
	t.sortLocked()
}

// Unregister removes a section, as when its view unmounts.
func (t *Tracker) Unregister(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.sections {
		if t.sections[i].ID == id {
			t.sections = append(t.sections[:i], t.sections[i+1:]...)
			return
		}
	}
}

// ActiveAt returns the id of the section in view at the given scroll
// offset: the deepest section whose anchor has passed the activation
// line. Before the first anchor, and with no sections, it returns "".
func (t *Tracker) ActiveAt(scrollOffset int) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	line := scrollOffset + t.margin
	active := ""
	for _, s := range t.sections {
		if s.Offset <= line {
			active = s.ID
		} else {
			break
		}
	}
	return active
}

// Sections returns the registered sections in offset order.
func (t *Tracker) Sections() []Section {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Section, len(t.sections))
	copy(out, t.sections)
	return out
}

func (t *Tracker) sortLocked() {
	sort.SliceStable(t.sections, func(i, j int) bool {
		return t.sections[i].Offset < t.sections[j].Offset
	})
}
