// Package inflight tracks the request state of a single kind of operation so
// that at most one is in flight and late responses from a superseded request
// can be recognised and dropped.
package inflight

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// State is the request state of an operation kind.
type State int

const (
	Idle State = iota
	InFlight
	Done
)

func (s State) String() string {
	switch s {
	case InFlight:
		return "in-flight"
	case Done:
		return "done"
	default:
		return "idle"
	}
}

var (
	// ErrBusy is returned by Begin while an operation is in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrSuperseded reports a result that arrived after Reset or a newer Begin.
	ErrSuperseded = errors.New("operation superseded")
)

// Ticket identifies one started operation.
type Ticket struct {
	Op string
	ID string // Correlates log lines and the X-Request-ID header
	gen uint64
}

// Guard serialises one kind of operation.
type Guard struct {
	op string

	mu    sync.Mutex
	state State
	gen   uint64
}

// New creates an idle guard for op.
func New(op string) *Guard {
	return &Guard{op: op}
}

// Op returns the operation name.
func (g *Guard) Op() string { return g.op }

// Begin moves to InFlight and returns a ticket for the new operation.
func (g *Guard) Begin() (Ticket, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == InFlight {
		return Ticket{}, ErrBusy
	}
	g.gen++
	g.state = InFlight
	return Ticket{Op: g.op, ID: uuid.NewString(), gen: g.gen}, nil
}

// Finish records the outcome of t: Done on success, Idle on failure.
// It reports false, and changes nothing, when t was superseded by Reset or a
// later Begin.
func (g *Guard) Finish(t Ticket, ok bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.gen != g.gen || g.state != InFlight {
		return false
	}
	if ok {
		g.state = Done
	} else {
		g.state = Idle
	}
	return true
}

// Current reports whether t is the latest ticket and still in flight.
func (g *Guard) Current(t Ticket) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return t.gen == g.gen && g.state == InFlight
}

// Reset returns to Idle and invalidates any outstanding ticket.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.state = Idle
}

// State returns the current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Busy reports whether an operation is in flight.
func (g *Guard) Busy() bool {
	return g.State() == InFlight
}
