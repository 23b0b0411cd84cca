// Package toggle tracks which feature kinds are drawn and maps key presses to
// state changes.
package toggle

import (
	"errors"
	"fmt"

	"github.com/ayusman/peekaboo/internal/catalog"
)

// ErrDuplicateKey is returned when two bindings share a key, or a binding
// uses the quit key.
var ErrDuplicateKey = errors.New("key already bound")

// State holds the enabled flag per feature kind. The zero value has every
// kind disabled. State is a value: copies made with Clone are independent.
type State struct {
	enabled map[catalog.Kind]bool
}

// NewState returns a state with every kind in kinds disabled.
func NewState(kinds []catalog.Kind) State {
	s := State{enabled: make(map[catalog.Kind]bool, len(kinds))}
	for _, k := range kinds {
		s.enabled[k] = false
	}
	return s
}

// Enabled reports whether kind is currently drawn.
func (s State) Enabled(kind catalog.Kind) bool {
	return s.enabled[kind]
}

// Toggle returns a copy of s with kind flipped.
func (s State) Toggle(kind catalog.Kind) State {
	next := s.Clone()
	next.enabled[kind] = !next.enabled[kind]
	return next
}

// Set returns a copy of s with kind set to on.
func (s State) Set(kind catalog.Kind, on bool) State {
	next := s.Clone()
	next.enabled[kind] = on
	return next
}

// Clone returns an independent copy.
func (s State) Clone() State {
	next := State{enabled: make(map[catalog.Kind]bool, len(s.enabled))}
	for k, v := range s.enabled {
		next.enabled[k] = v
	}
	return next
}

// EnabledKinds returns the enabled kinds in the order given.
func (s State) EnabledKinds(order []catalog.Kind) []catalog.Kind {
	var kinds []catalog.Kind
	for _, k := range order {
		if s.enabled[k] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// ActionType is the outcome of handling one key.
type ActionType int

const (
	ActionNone ActionType = iota
	ActionToggled
	ActionQuit
)

func (t ActionType) String() string {
	switch t {
	case ActionNone:
		return "none"
	case ActionToggled:
		return "toggled"
	case ActionQuit:
		return "quit"
	default:
		return fmt.Sprintf("ActionType(%d)", int(t))
	}
}

// Action describes what a key press did.
type Action struct {
	Type    ActionType
	Kind    catalog.Kind
	Enabled bool
}

// Binding maps one key code to a feature kind.
type Binding struct {
	Key  int
	Kind catalog.Kind
}

// Controller owns the toggle state for the frame loop. It is not safe for
// concurrent use; other goroutines request toggles by sending key codes.
type Controller struct {
	keys    map[int]catalog.Kind
	quitKey int
	state   State
}

// NewController creates a controller with every bound kind disabled.
func NewController(bindings []Binding, quitKey int) (*Controller, error) {
	c := &Controller{
		keys:    make(map[int]catalog.Kind, len(bindings)),
		quitKey: quitKey,
	}

	kinds := make([]catalog.Kind, 0, len(bindings))
	for _, b := range bindings {
		if b.Key == quitKey {
			return nil, fmt.Errorf("%w: %s uses the quit key %d", ErrDuplicateKey, b.Kind, b.Key)
		}
		if other, ok := c.keys[b.Key]; ok {
			return nil, fmt.Errorf("%w: key %d bound to %s and %s", ErrDuplicateKey, b.Key, other, b.Kind)
		}
		c.keys[b.Key] = b.Kind
		kinds = append(kinds, b.Kind)
	}

	c.state = NewState(kinds)
	return c, nil
}

// FromCatalog binds each catalog entry's key to its kind.
func FromCatalog(cat *catalog.Catalog, quitKey int) (*Controller, error) {
	entries := cat.Entries()
	bindings := make([]Binding, len(entries))
	for i, e := range entries {
		bindings[i] = Binding{Key: e.Key, Kind: e.Kind}
	}
	return NewController(bindings, quitKey)
}

// Handle applies one poll result. ok is false when no key was pressed.
// The quit key never changes state; unbound keys are ignored.
func (c *Controller) Handle(key int, ok bool) Action {
	if !ok {
		return Action{Type: ActionNone}
	}
	if key == c.quitKey {
		return Action{Type: ActionQuit}
	}

	kind, bound := c.keys[key]
	if !bound {
		return Action{Type: ActionNone}
	}

	c.state = c.state.Toggle(kind)
	return Action{Type: ActionToggled, Kind: kind, Enabled: c.state.Enabled(kind)}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	return c.state.Clone()
}
