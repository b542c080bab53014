package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultCloseTransition is how long a closing overlay stays mounted.
const DefaultCloseTransition = 200 * time.Millisecond

// ModalState is the overlay lifecycle state.
type ModalState int

const (
	ModalHidden ModalState = iota
	ModalVisible
	ModalClosing
)

func (s ModalState) String() string {
	switch s {
	case ModalHidden:
		return "hidden"
	case ModalVisible:
		return "visible"
	case ModalClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// ModalClosedMsg ends a close transition. Messages from an earlier
// open/close cycle carry a stale generation and are ignored.
type ModalClosedMsg struct {
	gen int
}

// Modal tracks the assessment overlay: visibility, background scroll lock,
// and which control has focus.
type Modal struct {
	state      ModalState
	locked     bool
	focus      int
	controls   int
	gen        int
	transition time.Duration
}

// NewModal returns a hidden overlay with the given close transition.
// A non-positive transition uses DefaultCloseTransition.
func NewModal(transition time.Duration) *Modal {
	if transition <= 0 {
		transition = DefaultCloseTransition
	}
	return &Modal{transition: transition}
}

// Open shows the overlay, locks background scrolling and focuses the first
// control. Opening a visible overlay does nothing.
func (m *Modal) Open() {
	if m.state == ModalVisible {
		return
	}
	m.gen++
	m.state = ModalVisible
	m.locked = true
	m.focus = 0
}

// Close hides the overlay and unlocks scrolling right away. The returned
// command delivers the ModalClosedMsg that unmounts it after the transition.
// Returns nil when the overlay is not visible.
func (m *Modal) Close() tea.Cmd {
	if m.state != ModalVisible {
		return nil
	}
	m.state = ModalClosing
	m.locked = false
	gen := m.gen
	return tea.Tick(m.transition, func(time.Time) tea.Msg {
		return ModalClosedMsg{gen: gen}
	})
}

// Closed finishes a close transition. It reports whether msg belonged to the
// current cycle.
func (m *Modal) Closed(msg ModalClosedMsg) bool {
	if m.state != ModalClosing || msg.gen != m.gen {
		return false
	}
	m.state = ModalHidden
	m.focus = 0
	m.controls = 0
	return true
}

// State returns the lifecycle state.
func (m *Modal) State() ModalState { return m.state }

// Visible reports whether the overlay accepts input.
func (m *Modal) Visible() bool { return m.state == ModalVisible }

// Mounted reports whether the overlay is drawn, including while closing.
func (m *Modal) Mounted() bool { return m.state != ModalHidden }

// ScrollLocked reports whether background scrolling is disabled.
func (m *Modal) ScrollLocked() bool { return m.locked }

// SetControls sets the number of focusable controls for the current step and
// moves focus back to the first one.
func (m *Modal) SetControls(n int) {
	if n < 0 {
		n = 0
	}
	m.controls = n
	m.focus = 0
}

// Controls is the number of focusable controls.
func (m *Modal) Controls() int { return m.controls }

// Focus is the index of the focused control.
func (m *Modal) Focus() int { return m.focus }

// FocusNext moves focus forward, wrapping at the end.
func (m *Modal) FocusNext() {
	if m.controls == 0 {
		return
	}
	m.focus = (m.focus + 1) % m.controls
}

// FocusPrev moves focus backward, wrapping at the start.
func (m *Modal) FocusPrev() {
	if m.controls == 0 {
		return
	}
	m.focus = (m.focus - 1 + m.controls) % m.controls
}

// SetFocus focuses control i when it exists.
func (m *Modal) SetFocus(i int) {
	if i >= 0 && i < m.controls {
		m.focus = i
	}
}
