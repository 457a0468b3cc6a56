// Package selection turns raw pointer and keyboard input into a live
// rectangle selection.
package selection

import (
	"log"
	"time"

	"sleek/src/screenshot"
)

// State is the selection lifecycle.
type State int

const (
	NotCreated State = iota
	Selecting
	Selected
)

func (s State) String() string {
	switch s {
	case NotCreated:
		return "not-created"
	case Selecting:
		return "selecting"
	case Selected:
		return "selected"
	default:
		return "unknown"
	}
}

// PrimaryButton is the pointer button that drags a selection.
const PrimaryButton = 1

// KeyAction is a logical key, already mapped from the host keyboard layout.
type KeyAction int

const (
	KeyOther KeyAction = iota
	KeyConfirm
	KeyCancel
)

// Event is one input event fed to the Machine.
type Event interface{ isEvent() }

// Motion is a pointer move.
type Motion struct{ Pos screenshot.Point }

// Press is a pointer button going down.
type Press struct {
	Pos    screenshot.Point
	Button int
}

// Release is a pointer button going up.
type Release struct {
	Pos    screenshot.Point
	Button int
}

// Key is a key press.
type Key struct{ Action KeyAction }

func (Motion) isEvent()  {}
func (Press) isEvent()   {}
func (Release) isEvent() {}
func (Key) isEvent()     {}

// Action is what the caller must do after an event.
type Action int

const (
	None Action = iota
	Redraw
	Confirm
	Cancel
)

func (a Action) String() string {
	switch a {
	case None:
		return "none"
	case Redraw:
		return "redraw"
	case Confirm:
		return "confirm"
	case Cancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Outcome carries the action and, for Redraw and Confirm, the region.
type Outcome struct {
	Action Action
	Region screenshot.Region
}

// Machine is the selection state machine. The anchor starts at the screen
// origin, so a release without a press selects from (0, 0).
type Machine struct {
	state    State
	anchor   screenshot.Point
	cursor   screenshot.Point
	screen   screenshot.Region
	throttle *Throttle
	rate     int
	now      func() time.Time
}

// Option customizes a Machine.
type Option func(*Machine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithRefreshRate overrides RefreshRate.
func WithRefreshRate(rate int) Option {
	return func(m *Machine) { m.rate = rate }
}

// NewMachine returns a machine in NotCreated for a screen of width x height.
func NewMachine(width, height int, opts ...Option) *Machine {
	m := &Machine{
		state:  NotCreated,
		screen: screenshot.Region{Width: width, Height: height},
		rate:   RefreshRate,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.throttle = NewThrottle(m.rate, m.now())
	return m
}

// State returns the current lifecycle state.
func (m *Machine) State() State { return m.state }

// Region returns the region a confirm would capture right now.
func (m *Machine) Region() screenshot.Region {
	if m.state == NotCreated {
		return m.screen
	}
	return screenshot.RegionFromPoints(m.anchor, m.cursor)
}

// Handle applies one event and reports what the caller must do.
func (m *Machine) Handle(ev Event) Outcome {
	switch e := ev.(type) {
	case Motion:
		return m.motion(e)
	case Press:
		return m.press(e)
	case Release:
		return m.release(e)
	case Key:
		return m.key(e)
	default:
		return Outcome{Action: None}
	}
}

func (m *Machine) motion(e Motion) Outcome {
	if m.state != Selecting || e.Pos == m.cursor {
		return Outcome{Action: None}
	}
	// Record even when throttled so the next frame shows the latest position.
	m.cursor = e.Pos
	now := m.now()
	if !m.throttle.Allow(now) {
		return Outcome{Action: None}
	}
	m.throttle.Mark(now)
	return Outcome{Action: Redraw, Region: m.Region()}
}

func (m *Machine) press(e Press) Outcome {
	if e.Button != PrimaryButton {
		return Outcome{Action: None}
	}
	if m.state == Selected {
		log.Printf("Selection restarted at (%d, %d)", e.Pos.X, e.Pos.Y)
	}
	m.anchor = e.Pos
	m.cursor = e.Pos
	m.state = Selecting
	return Outcome{Action: None}
}

func (m *Machine) release(e Release) Outcome {
	if e.Button != PrimaryButton {
		return Outcome{Action: None}
	}
	// Without a press the anchor keeps its zero value, the screen origin.
	if m.state == NotCreated {
		log.Printf("Release at (%d, %d) without a press, anchoring at origin", e.Pos.X, e.Pos.Y)
	}
	m.cursor = e.Pos
	m.state = Selected
	return Outcome{Action: Redraw, Region: m.Region()}
}

func (m *Machine) key(e Key) Outcome {
	switch e.Action {
	case KeyConfirm:
		r := m.Region()
		log.Printf("Selection confirmed in state %s: %+v", m.state, r)
		return Outcome{Action: Confirm, Region: r}
	case KeyCancel:
		log.Printf("Selection cancelled in state %s", m.state)
		return Outcome{Action: Cancel}
	default:
		return Outcome{Action: None}
	}
}
