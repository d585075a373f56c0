// Package input delivers discrete key press and release events to the
// control loop.
package input

import (
	"context"
	"fmt"
)

// Key identifies a physical key. Named keys use the constants below; printable
// keys are their rune value (Rune('B') and Rune('b') are different keys).
type Key int

// Named keys live below zero so that every rune is a valid Key.
const (
	KeyNone Key = -(iota + 1)
	KeyF1
	KeyTab
	KeyEscape
	KeyEnter
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyCtrlL
	KeyCtrlR
	KeyAltL
	KeyAltR
)

var keyNames = map[Key]string{
	KeyNone:     "none",
	KeyF1:       "F1",
	KeyTab:      "Tab",
	KeyEscape:   "Esc",
	KeyEnter:    "Enter",
	KeyUp:       "Up",
	KeyDown:     "Down",
	KeyLeft:     "Left",
	KeyRight:    "Right",
	KeyPageUp:   "PageUp",
	KeyPageDown: "PageDown",
	KeyHome:     "Home",
	KeyEnd:      "End",
	KeyCtrlL:    "Ctrl_L",
	KeyCtrlR:    "Ctrl_R",
	KeyAltL:     "Alt_L",
	KeyAltR:     "Alt_R",
}

// Rune returns the key for a printable character.
func Rune(r rune) Key {
	return Key(r)
}

// Rune returns the character of a printable key, or 0 for named keys.
func (k Key) Rune() rune {
	if k < 0 {
		return 0
	}
	return rune(k)
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k >= 0 {
		return fmt.Sprintf("%q", rune(k))
	}
	return fmt.Sprintf("key(%d)", int(k))
}

// Directional reports whether k drives a stage axis while held.
func (k Key) Directional() bool {
	switch k {
	case KeyUp, KeyDown, KeyLeft, KeyRight, KeyPageUp, KeyPageDown, KeyHome, KeyEnd:
		return true
	}
	return false
}

// Kind distinguishes press from release.
type Kind int

const (
	Press Kind = iota
	Release
)

func (k Kind) String() string {
	if k == Release {
		return "release"
	}
	return "press"
}

// Event is one key transition.
type Event struct {
	Kind Kind
	Key  Key
}

// Source delivers events one at a time.
type Source interface {
	// Next blocks until the next event or ctx is done.
	Next(ctx context.Context) (Event, error)
	// Flush drops presses that queued while a modal dialog was open.
	// Releases survive so that a held axis still gets its stop command.
	Flush()
	Close() error
}

// RepeatPolicy decides what happens to auto-repeated presses of a held key.
type RepeatPolicy int

const (
	// RepeatPass delivers every auto-repeat as a separate press.
	RepeatPass RepeatPolicy = iota
	// RepeatCoalesce drops repeats while the key is held.
	RepeatCoalesce
)

// ParseRepeatPolicy maps the config value to a policy.
func ParseRepeatPolicy(s string) (RepeatPolicy, error) {
	switch s {
	case "", "pass":
		return RepeatPass, nil
	case "coalesce":
		return RepeatCoalesce, nil
	}
	return RepeatPass, fmt.Errorf("unknown repeat policy %q", s)
}
